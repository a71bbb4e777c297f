package wellness

import (
	"context"
	"time"
)

type Phase string

const (
	Inhale Phase = "Inhale"
	Hold   Phase = "Hold"
	Exhale Phase = "Exhale"
)

type BreathingConfig struct {
	Cycles        int
	PhaseDuration time.Duration
}

func DefaultBreathingConfig() BreathingConfig {
	return BreathingConfig{Cycles: 3, PhaseDuration: 4 * time.Second}
}

// Breathe runs a guided breathing exercise, calling step at the start of every
// phase. It returns ctx.Err() if cancelled before the last phase ends.
func Breathe(ctx context.Context, cfg BreathingConfig, step func(cycle int, phase Phase)) error {
	if cfg.Cycles <= 0 {
		cfg.Cycles = DefaultBreathingConfig().Cycles
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for cycle := 1; cycle <= cfg.Cycles; cycle++ {
		for _, phase := range []Phase{Inhale, Hold, Exhale} {
			step(cycle, phase)
			timer.Reset(cfg.PhaseDuration)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}
