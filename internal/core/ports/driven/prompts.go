package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptChatSystem is the persona: voice constraints and behavioural
	// boundaries. It is always the first thing the model sees.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"

	// PromptGrounding explains how to use the excerpt block that follows it.
	// This prompt has no format placeholders.
	PromptGrounding = "grounding"

	// PromptWeakContext is appended when the best excerpt is only loosely related.
	// This prompt has no format placeholders.
	PromptWeakContext = "weak_context"
)
