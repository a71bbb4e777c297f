package bot

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xaenox/mindscope/internal/advice"
	"github.com/xaenox/mindscope/internal/classifier"
	"github.com/xaenox/mindscope/internal/models"
	"github.com/xaenox/mindscope/internal/mood"
	"github.com/xaenox/mindscope/internal/wellness"
)

const barWidth = 10

// formatAnalysis renders an analysis as a MarkdownV2 reply.
func formatAnalysis(a wellness.Analysis, note string) string {
	var sb strings.Builder

	switch {
	case !a.Empty():
		sb.WriteString("*Emotion:* " + escapeMarkdown(a.Label) + "\n")
	case a.Label != "":
		sb.WriteString("*" + escapeMarkdown(a.Label) + "*\n")
	default:
		sb.WriteString("*No emotion detected*\n")
	}

	if len(a.Emotions) > 0 {
		width := 0
		for _, e := range a.Emotions {
			width = max(width, len(escapeCode(string(e.Label))))
		}
		sb.WriteString("```\n")
		for _, e := range a.Emotions {
			fmt.Fprintf(&sb, "%-*s %s %6.2f%%\n", width, escapeCode(string(e.Label)), bar(e.Confidence, 100), e.Confidence)
		}
		sb.WriteString("```\n")
	}

	sb.WriteString("\n*Suggestion:* " + escapeMarkdown(a.Suggestion))
	if note != "" {
		sb.WriteString("\n\n_" + escapeMarkdown(note) + "_")
	}
	return sb.String()
}

// analysisNote returns the note shown under an analysis that degraded with
// err. It reports false when err leaves nothing worth showing.
func analysisNote(err error) (string, bool) {
	switch {
	case err == nil:
		return "", true
	case errors.Is(err, mood.ErrLogWrite), errors.Is(err, mood.ErrInvalidField):
		return "(I couldn't save this to your mood log.)", true
	case errors.Is(err, classifier.ErrUnavailable):
		return "(I couldn't reach the emotion model right now.)", true
	default:
		return "", false
	}
}

// formatMoodReport renders the frequency chart and the daily trend as plain text.
func formatMoodReport(r wellness.MoodReport) string {
	type entry struct {
		label models.EmotionLabel
		count int
	}
	entries := make([]entry, 0, len(r.Frequency))
	peak := 0
	for label, count := range r.Frequency {
		entries = append(entries, entry{label, count})
		peak = max(peak, count)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].label < entries[j].label
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your moods (%d logged):\n", r.Total)
	for _, e := range entries {
		fmt.Fprintf(&sb, "%-8s %s %d\n", e.label, bar(float64(e.count), float64(peak)), e.count)
	}

	if dates := r.Daily.Dates(); len(dates) > 0 {
		sb.WriteString("\nBy day:\n")
		for _, date := range dates {
			var parts []string
			for _, emotion := range r.Daily.Emotions() {
				if n := r.Daily.Count(date, emotion); n > 0 {
					parts = append(parts, fmt.Sprintf("%s×%d", emotion, n))
				}
			}
			fmt.Fprintf(&sb, "%s: %s\n", date, strings.Join(parts, ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSupport(resources []advice.Resource) string {
	var sb strings.Builder
	sb.WriteString("You're not alone. These services can help:\n")
	for _, r := range resources {
		fmt.Fprintf(&sb, "\n%s - %s\n%s\n", r.Name, r.Description, r.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func bar(value, full float64) string {
	n := 0
	if full > 0 {
		n = int(math.Round(value / full * barWidth))
	}
	n = min(max(n, 0), barWidth)
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

// escapeMarkdown escapes special characters for MarkdownV2.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// escapeCode escapes text placed inside a MarkdownV2 pre block.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
