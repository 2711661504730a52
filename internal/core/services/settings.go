package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyChatMaxHistory    = "chat.max_history"
	keyChatTopK          = "chat.top_k"
	keyChatMinCitable    = "chat.min_citable_score"
	keyChatTemperature   = "chat.temperature"
	keyChatMaxTokens     = "chat.max_output_tokens"
	keyChatTimeout       = "chat.request_timeout_seconds"
	keyChatGrounded      = "chat.grounded"
	keyIndexMaxRunes     = "index.max_chunk_runes"
	keyIndexBatchSize    = "index.batch_size"
	keyIndexConcurrency  = "index.concurrency"
	keyIndexRate         = "index.requests_per_second"
	keyServerAddr        = "server.addr"
	keyServerTranscripts = "server.record_transcripts"
)

// defaultOllamaURL is the local Ollama endpoint.
const defaultOllamaURL = "http://localhost:11434"

type configValue struct {
	key   string
	value any
}

// SettingsService reads and writes application settings through a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chat: domain.ChatSettings{
			MaxHistory:      s.getInt(keyChatMaxHistory, defaults.Chat.MaxHistory),
			TopK:            s.getInt(keyChatTopK, defaults.Chat.TopK),
			MinCitableScore: s.getFloat(keyChatMinCitable, defaults.Chat.MinCitableScore),
			Temperature:     s.getFloat(keyChatTemperature, defaults.Chat.Temperature),
			MaxOutputTokens: s.getInt(keyChatMaxTokens, defaults.Chat.MaxOutputTokens),
			RequestTimeout:  s.getSeconds(keyChatTimeout, defaults.Chat.RequestTimeout),
			Grounded:        s.getBool(keyChatGrounded, defaults.Chat.Grounded),
		},
		Index: domain.IndexSettings{
			MaxChunkRunes:     s.getInt(keyIndexMaxRunes, defaults.Index.MaxChunkRunes),
			BatchSize:         s.getInt(keyIndexBatchSize, defaults.Index.BatchSize),
			Concurrency:       s.getInt(keyIndexConcurrency, defaults.Index.Concurrency),
			RequestsPerSecond: s.getFloat(keyIndexRate, defaults.Index.RequestsPerSecond),
		},
		Server: domain.ServerSettings{
			Addr:              s.getString(keyServerAddr, defaults.Server.Addr),
			RecordTranscripts: s.getBool(keyServerTranscripts, defaults.Server.RecordTranscripts),
		},
	}

	return settings, nil
}

// Save persists application settings.
// Empty API keys are not written so a key set elsewhere is never erased.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []configValue{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChatMaxHistory, settings.Chat.MaxHistory},
		{keyChatTopK, settings.Chat.TopK},
		{keyChatMinCitable, settings.Chat.MinCitableScore},
		{keyChatTemperature, settings.Chat.Temperature},
		{keyChatMaxTokens, settings.Chat.MaxOutputTokens},
		{keyChatTimeout, int(settings.Chat.RequestTimeout / time.Second)},
		{keyChatGrounded, settings.Chat.Grounded},
		{keyIndexMaxRunes, settings.Index.MaxChunkRunes},
		{keyIndexBatchSize, settings.Index.BatchSize},
		{keyIndexConcurrency, settings.Index.Concurrency},
		{keyIndexRate, settings.Index.RequestsPerSecond},
		{keyServerAddr, settings.Server.Addr},
		{keyServerTranscripts, settings.Server.RecordTranscripts},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, configValue{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, configValue{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for the local provider and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.configStore.GetInt(key)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
