package domain

import "strings"

// Role tags the author of a chat message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one conversational turn.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one "ask the book" invocation.
type ChatRequest struct {
	// Messages is the prior conversation in chronological order.
	Messages []ChatMessage `json:"messages,omitempty"`

	// Message is the explicit current-turn text. Optional when the
	// history already ends with the user's question.
	Message string `json:"message,omitempty"`
}

// ResolveQuery returns the text the request is asking about: the explicit
// message, or else the newest user message in the history.
// The boolean is false when no non-blank query exists.
func (r ChatRequest) ResolveQuery() (string, bool) {
	if q := strings.TrimSpace(r.Message); q != "" {
		return q, true
	}
	if r.Message != "" {
		// An explicit but blank message does not fall back to history.
		return "", false
	}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			q := strings.TrimSpace(r.Messages[i].Content)
			return q, q != ""
		}
	}
	return "", false
}

// Conversation returns the history with the explicit message appended as a
// user turn, unless the history already ends with that same turn.
func (r ChatRequest) Conversation() []ChatMessage {
	conv := make([]ChatMessage, 0, len(r.Messages)+1)
	for _, m := range r.Messages {
		if !m.Role.IsValid() || strings.TrimSpace(m.Content) == "" {
			continue
		}
		conv = append(conv, m)
	}

	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return conv
	}
	if n := len(conv); n > 0 && conv[n-1].Role == RoleUser && strings.TrimSpace(conv[n-1].Content) == msg {
		return conv
	}
	return append(conv, ChatMessage{Role: RoleUser, Content: msg})
}

// SourceRef points at an excerpt used to ground a reply.
type SourceRef struct {
	FilePath     string   `json:"file_path"`
	HeadingPath  []string `json:"heading_path,omitempty"`
	DisplayIndex int      `json:"chunk"`
	Score        float64  `json:"score"`
}

// ChatReply is the outcome of a successful chat request.
type ChatReply struct {
	// Text is the trimmed model reply.
	Text string

	// Grounded is true when book excerpts were supplied to the model.
	Grounded bool

	// Weak is true when the excerpts were too loosely related to cite.
	Weak bool

	// TopScore is the best retrieval similarity, 0 when nothing was retrieved.
	TopScore float64

	// Sources lists the excerpts that were placed in the prompt.
	Sources []SourceRef
}
