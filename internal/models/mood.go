package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Source is the input modality that produced a mood record.
type Source string

const (
	SourceText  Source = "Text"
	SourceVoice Source = "Voice"
	SourceFace  Source = "Face"
	SourceChat  Source = "Chat"
)

// ParseSource matches s case-insensitively against the known sources.
func ParseSource(s string) (Source, error) {
	for _, src := range []Source{SourceText, SourceVoice, SourceFace, SourceChat} {
		if strings.EqualFold(strings.TrimSpace(s), string(src)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// TimestampLayout is the on-disk timestamp format of the mood log.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar date format used by daily trends.
const DateLayout = "2006-01-02"

// MoodRecord is one line of the mood log.
type MoodRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Source    Source       `json:"source"`
	Emotion   EmotionLabel `json:"emotion"`
}

// Date returns the local calendar date of the record.
func (r MoodRecord) Date() string {
	return r.Timestamp.Format(DateLayout)
}

// TrendKey identifies one cell of a daily trend.
type TrendKey struct {
	Date    string       `json:"date"`
	Emotion EmotionLabel `json:"emotion"`
}

// DailyTrend counts emotion occurrences per day.
type DailyTrend map[TrendKey]int

// Count returns the occurrences of emotion on date, zero when absent.
func (t DailyTrend) Count(date string, emotion EmotionLabel) int {
	return t[TrendKey{Date: date, Emotion: emotion}]
}

// Dates returns the distinct dates in ascending order.
func (t DailyTrend) Dates() []string {
	seen := make(map[string]struct{})
	for k := range t {
		seen[k.Date] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Emotions returns the distinct emotions in ascending order.
func (t DailyTrend) Emotions() []EmotionLabel {
	seen := make(map[EmotionLabel]struct{})
	for k := range t {
		seen[k.Emotion] = struct{}{}
	}
	emotions := make([]EmotionLabel, 0, len(seen))
	for e := range seen {
		emotions = append(emotions, e)
	}
	sort.Slice(emotions, func(i, j int) bool { return emotions[i] < emotions[j] })
	return emotions
}

// TrendPoint is one flattened cell of a daily trend.
type TrendPoint struct {
	Date    string       `json:"date"`
	Emotion EmotionLabel `json:"emotion"`
	Count   int          `json:"count"`
}

// Points flattens the trend, ordered by date then emotion.
func (t DailyTrend) Points() []TrendPoint {
	points := make([]TrendPoint, 0, len(t))
	for k, v := range t {
		points = append(points, TrendPoint{Date: k.Date, Emotion: k.Emotion, Count: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Date != points[j].Date {
			return points[i].Date < points[j].Date
		}
		return points[i].Emotion < points[j].Emotion
	})
	return points
}
