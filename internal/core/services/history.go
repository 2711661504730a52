package services

import "github.com/quietpages/bookchat/internal/core/domain"

// ClampHistory keeps the most recent maxMessages messages in chronological order.
// A history within the limit is returned as is; maxMessages <= 0 yields an empty history.
func ClampHistory(msgs []domain.ChatMessage, maxMessages int) []domain.ChatMessage {
	if maxMessages <= 0 {
		return []domain.ChatMessage{}
	}
	if len(msgs) <= maxMessages {
		return msgs
	}
	return msgs[len(msgs)-maxMessages:]
}
