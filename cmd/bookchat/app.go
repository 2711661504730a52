package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quietpages/bookchat/internal/adapters/driven/ai"
	"github.com/quietpages/bookchat/internal/adapters/driven/config/file"
	"github.com/quietpages/bookchat/internal/adapters/driven/storage/sqlite"
	"github.com/quietpages/bookchat/internal/adapters/driving/cli"
	"github.com/quietpages/bookchat/internal/content/markdown"
	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/core/services"
	"github.com/quietpages/bookchat/internal/logger"
)

// Environment variables consulted when config.toml has no API key.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

// Ensure app implements the interface.
var _ cli.Services = (*app)(nil)

// app wires adapters into core services on first use.
// Settings and prompts are opened eagerly; the database, providers and
// index are only touched by the commands that need them.
type app struct {
	configDir string
	settings  *services.SettingsService
	prompts   *file.PromptStore

	storeOnce sync.Once
	store     *sqlite.Store
	storeErr  error

	aiOnce   sync.Once
	aiResult *ai.InitResult

	retrievalOnce sync.Once
	retrieval     *services.RetrievalService
	retrievalErr  error
}

func newApp(opts cli.Options) (cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	logger.Debug("Config directory: %s", configDir)
	return &app{
		configDir: configDir,
		settings:  services.NewSettingsService(configStore),
		prompts:   prompts,
	}, nil
}

func (r *app) Settings() driving.SettingsService {
	return r.settings
}

// appSettings reads the current settings with environment API keys applied.
func (r *app) appSettings() (*domain.AppSettings, error) {
	settings, err := r.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	settings.Embedding.APIKey = envAPIKey(settings.Embedding.Provider, settings.Embedding.APIKey)
	settings.LLM.APIKey = envAPIKey(settings.LLM.Provider, settings.LLM.APIKey)
	return settings, nil
}

// envAPIKey returns current, or the provider's key from the environment when current is empty.
func envAPIKey(provider domain.AIProvider, current string) string {
	if current != "" {
		return current
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv(envOpenAIKey)
	case domain.AIProviderAnthropic:
		return os.Getenv(envAnthropicKey)
	default:
		return ""
	}
}

func (r *app) database() (*sqlite.Store, error) {
	r.storeOnce.Do(func() {
		r.store, r.storeErr = sqlite.NewStore(filepath.Join(r.configDir, "data"))
	})
	return r.store, r.storeErr
}

// providers creates and pings the AI services once per process.
func (r *app) providers(ctx context.Context, settings *domain.AppSettings) *ai.InitResult {
	r.aiOnce.Do(func() {
		r.aiResult = ai.Initialise(ctx, settings)
		for _, w := range r.aiResult.Warnings {
			logger.Notice("%s", w)
		}
	})
	return r.aiResult
}

func (r *app) Index(ctx context.Context) (driving.IndexService, error) {
	settings, err := r.appSettings()
	if err != nil {
		return nil, err
	}
	store, err := r.database()
	if err != nil {
		return nil, err
	}

	chunker := markdown.NewChunker(markdown.WithMaxRunes(settings.Index.MaxChunkRunes))
	embedding := r.providers(ctx, settings).EmbeddingService
	return services.NewIndexService(store.IndexStore(), chunker, embedding, settings.Index), nil
}

func (r *app) Retrieval(ctx context.Context) (driving.RetrievalService, error) {
	r.retrievalOnce.Do(func() {
		r.retrieval, r.retrievalErr = r.buildRetrieval(ctx)
	})
	if r.retrievalErr != nil {
		return nil, r.retrievalErr
	}
	return r.retrieval, nil
}

// buildRetrieval loads the index once; it is shared read-only afterwards.
func (r *app) buildRetrieval(ctx context.Context) (*services.RetrievalService, error) {
	settings, err := r.appSettings()
	if err != nil {
		return nil, err
	}
	indexer, err := r.Index(ctx)
	if err != nil {
		return nil, err
	}

	index, err := indexer.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: run 'bookchat index build <dir>' first", domain.ErrIndexUnavailable)
	}
	if err != nil {
		return nil, err
	}

	embedding := r.providers(ctx, settings).EmbeddingService
	if embedding == nil {
		return nil, fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}
	if dims := embedding.Dimensions(); index.Dimensions() > 0 && dims > 0 && dims != index.Dimensions() {
		return nil, fmt.Errorf("%w: index built with %s (%d), provider uses %s (%d); rebuild the index",
			domain.ErrDimensionMismatch, index.Model(), index.Dimensions(), embedding.ModelName(), dims)
	}
	if index.Model() != embedding.ModelName() {
		logger.Notice("Index was built with %s but queries use %s", index.Model(), embedding.ModelName())
	}

	logger.Info("Loaded index: %d chunks, %d dimensions", index.Len(), index.Dimensions())
	return services.NewRetrievalService(index, embedding,
		services.WithMinCitableScore(settings.Chat.MinCitableScore),
		services.WithEmbeddingTimeout(settings.Chat.RequestTimeout),
	), nil
}

func (r *app) Chat(ctx context.Context) (driving.ChatService, error) {
	settings, err := r.appSettings()
	if err != nil {
		return nil, err
	}

	result := r.providers(ctx, settings)
	if result.LLMService == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, strings.Join(result.Warnings, "; "))
	}

	var retriever driving.RetrievalService
	if settings.Chat.Grounded {
		retrieval, err := r.Retrieval(ctx)
		if err != nil {
			// Keep the grounded variant so every reply is told that no
			// excerpts are available.
			logger.Error("Book excerpts unavailable, replies will not be grounded: %v", err)
			retriever = unavailableRetrieval{err: err}
		} else {
			retriever = retrieval
		}
	}

	return services.NewChatService(retriever, result.LLMService, r.prompts, settings.Chat), nil
}

// unavailableRetrieval fails every lookup with the error that prevented
// the index from loading.
type unavailableRetrieval struct {
	err error
}

func (u unavailableRetrieval) Retrieve(context.Context, string, int) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, u.err
}

func (r *app) Transcripts() (driven.TranscriptStore, error) {
	store, err := r.database()
	if err != nil {
		return nil, err
	}
	return store.TranscriptStore(), nil
}

func (r *app) WatchPrompts(ctx context.Context) error {
	return r.prompts.Watch(ctx)
}

func (r *app) CheckEmbedding(ctx context.Context) error {
	settings, err := r.appSettings()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}
	return ai.ValidateEmbeddingConfig(ctx, &settings.Embedding)
}

func (r *app) CheckLLM(ctx context.Context) error {
	settings, err := r.appSettings()
	if err != nil {
		return err
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: not configured", domain.ErrLLMUnavailable)
	}
	return ai.ValidateLLMConfig(ctx, &settings.LLM)
}

func (r *app) Close() error {
	if r.aiResult != nil {
		r.aiResult.Close()
	}
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
