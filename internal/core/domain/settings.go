package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChatSettings controls one request/response cycle of the assistant.
type ChatSettings struct {
	// MaxHistory is the number of most recent messages sent to the model.
	MaxHistory int

	// TopK is the number of excerpts retrieved per question.
	TopK int

	// MinCitableScore is the similarity below which excerpts are flagged weak.
	MinCitableScore float64

	// Temperature is the generation temperature.
	Temperature float64

	// MaxOutputTokens caps the reply length.
	MaxOutputTokens int

	// RequestTimeout bounds each provider call.
	RequestTimeout time.Duration

	// Grounded enables retrieval. When false the assistant answers in voice only.
	Grounded bool
}

// IndexSettings controls how the chunk index is built.
type IndexSettings struct {
	// MaxChunkRunes splits long sections on paragraph boundaries.
	MaxChunkRunes int

	// BatchSize is the number of chunks embedded per provider call.
	BatchSize int

	// Concurrency is the number of embedding batches in flight.
	Concurrency int

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// ServerSettings holds HTTP entry point configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// RecordTranscripts stores each answered question.
	RecordTranscripts bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chat      ChatSettings
	Index     IndexSettings
	Server    ServerSettings
}

// Default chat values.
const (
	DefaultMaxHistory      = 12
	DefaultTopK            = 6
	DefaultMinCitableScore = 0.25
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 700
	DefaultRequestTimeout  = 30 * time.Second
)

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; they must be set in config.toml
// or through environment variables at startup.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chat: ChatSettings{
			MaxHistory:      DefaultMaxHistory,
			TopK:            DefaultTopK,
			MinCitableScore: DefaultMinCitableScore,
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
			RequestTimeout:  DefaultRequestTimeout,
			Grounded:        true,
		},
		Index: IndexSettings{
			MaxChunkRunes:     1200,
			BatchSize:         32,
			Concurrency:       4,
			RequestsPerSecond: 5,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
