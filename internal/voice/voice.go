// Package voice turns recorded speech into text.
package voice

import "context"

// Clip is a recorded audio buffer. Name carries the file extension the
// recognizer uses to pick a decoder, e.g. "note.ogg".
type Clip struct {
	Name string
	Data []byte
}

// Transcriber returns the recognized text, or "" when the audio could not be
// understood or the recognition service failed. Callers treat "" as no input.
type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) string
}
