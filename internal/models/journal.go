package models

import "time"

// JournalEntry is a free-text reflection written against a prompt.
type JournalEntry struct {
	Emotion   EmotionLabel `json:"emotion"`
	Prompt    string       `json:"prompt"`
	Entry     string       `json:"entry"`
	CreatedAt time.Time    `json:"created_at"`
}
