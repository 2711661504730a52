package domain

import "time"

// Transcript records one answered question.
// Transcripts are written by driving adapters; the chat core never persists anything.
type Transcript struct {
	ID        string
	Query     string
	Reply     string
	Grounded  bool
	TopScore  float64
	CreatedAt time.Time
}
