// Package face detects the dominant emotion in a captured image frame.
package face

import (
	"context"

	"github.com/xaenox/mindscope/internal/models"
)

// NoFaceLabel is shown to the user when a frame has no usable face.
const NoFaceLabel = "No face detected"

// Result is either a detected emotion or the absence of a face.
type Result struct {
	emotion  models.EmotionLabel
	detected bool
}

func Detected(emotion models.EmotionLabel) Result {
	return Result{emotion: emotion, detected: true}
}

func NotDetected() Result {
	return Result{}
}

// Emotion returns the detected emotion and whether a face was found.
func (r Result) Emotion() (models.EmotionLabel, bool) {
	return r.emotion, r.detected
}

// Label returns the emotion, or NoFaceLabel when no face was found.
func (r Result) Label() string {
	if !r.detected {
		return NoFaceLabel
	}
	return string(r.emotion)
}

// Detector analyses one frame synchronously. Failures are reported as NotDetected.
type Detector interface {
	Detect(ctx context.Context, frame []byte) Result
}

// FrameSource yields captured frames. Next returns io.EOF when capture ends;
// closing the underlying device should make Next return an error.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// Scan feeds frames from src to d until the source is exhausted or ctx is
// cancelled, and returns the result for the last analysed frame.
func Scan(ctx context.Context, src FrameSource, d Detector) Result {
	last := NotDetected()
	for {
		if ctx.Err() != nil {
			return last
		}
		frame, err := src.Next(ctx)
		if err != nil {
			// io.EOF or a closed device both end the capture
			return last
		}
		last = d.Detect(ctx, frame)
	}
}
