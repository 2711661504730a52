package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// excerptsHeader introduces the context block inside the system message.
const excerptsHeader = "Retrieved excerpts:"

// ChatService turns a question plus history into a reply in the assistant's voice.
type ChatService struct {
	retriever  driving.RetrievalService
	llmService driven.LLMService
	prompts    driven.PromptStore
	settings   domain.ChatSettings
}

// NewChatService creates a chat service.
// The retriever is optional: when nil, or when settings.Grounded is false,
// replies are generated from the persona alone without retrieval.
// Zero-valued settings fall back to the defaults.
func NewChatService(
	retriever driving.RetrievalService,
	llmService driven.LLMService,
	prompts driven.PromptStore,
	settings domain.ChatSettings,
) *ChatService {
	defaults := domain.DefaultAppSettings().Chat
	if settings.MaxHistory <= 0 {
		settings.MaxHistory = defaults.MaxHistory
	}
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.MaxOutputTokens <= 0 {
		settings.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if settings.RequestTimeout <= 0 {
		settings.RequestTimeout = defaults.RequestTimeout
	}

	return &ChatService{
		retriever:  retriever,
		llmService: llmService,
		prompts:    prompts,
		settings:   settings,
	}
}

// Reply runs one request/response cycle: resolve the query, bound the
// history, retrieve excerpts, compose the prompt and generate.
func (s *ChatService) Reply(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	logger.Section("Chat Request")

	query, ok := req.ResolveQuery()
	if !ok {
		return domain.ChatReply{}, fmt.Errorf("%w: no user message to answer", domain.ErrInvalidRequest)
	}
	if s.llmService == nil {
		return domain.ChatReply{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, domain.ErrLLMUnavailable)
	}

	history := ClampHistory(req.Conversation(), s.settings.MaxHistory)
	logger.Debug("Query: %q, history: %d messages", query, len(history))

	reply := domain.ChatReply{}
	contextBlock := ""
	if s.grounded() {
		result, err := s.retriever.Retrieve(ctx, query, s.settings.TopK)
		if err != nil {
			logger.Notice("Retrieval failed, answering without excerpts: %v", err)
			contextBlock = NoExcerptsSentinel
		} else {
			contextBlock = AssembleContext(result.Chunks)
			reply.Grounded = !result.Empty()
			reply.Weak = result.Weak && !result.Empty()
			reply.TopScore = result.TopScore
			reply.Sources = result.Sources()
		}
	}

	if err := ctx.Err(); err != nil {
		return domain.ChatReply{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	system, err := s.systemMessage(contextBlock, reply.Weak)
	if err != nil {
		return domain.ChatReply{}, err
	}

	messages := make([]driven.ChatMessage, 0, len(history)+1)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: system})
	for _, m := range history {
		messages = append(messages, driven.ChatMessage{Role: providerRole(m.Role), Content: m.Content})
	}

	text, err := s.generate(ctx, messages)
	if err != nil {
		return domain.ChatReply{}, err
	}
	reply.Text = text

	logger.Info("Replied (grounded=%t, weak=%t, top=%.3f, %d chars)",
		reply.Grounded, reply.Weak, reply.TopScore, len(reply.Text))

	return reply, nil
}

func (s *ChatService) grounded() bool {
	return s.retriever != nil && s.settings.Grounded
}

// systemMessage builds the single leading system message. The persona always
// comes first; grounding rules and the excerpt block follow when retrieval ran.
func (s *ChatService) systemMessage(contextBlock string, weak bool) (string, error) {
	persona, err := s.loadPrompt(driven.PromptChatSystem)
	if err != nil {
		return "", err
	}
	if contextBlock == "" {
		return persona, nil
	}

	grounding, err := s.loadPrompt(driven.PromptGrounding)
	if err != nil {
		return "", err
	}

	parts := []string{persona, grounding}
	if weak {
		guidance, err := s.loadPrompt(driven.PromptWeakContext)
		if err != nil {
			return "", err
		}
		parts = append(parts, guidance)
	}
	parts = append(parts, excerptsHeader+"\n"+contextBlock)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

func (s *ChatService) loadPrompt(name string) (string, error) {
	if s.prompts == nil {
		return "", fmt.Errorf("load %s prompt: no prompt store configured", name)
	}
	p, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", name, err)
	}
	return p, nil
}

func (s *ChatService) generate(ctx context.Context, messages []driven.ChatMessage) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.settings.RequestTimeout)
	defer cancel()

	start := time.Now()
	text, err := s.llmService.Chat(genCtx, messages, driven.ChatOptions{
		MaxTokens:   s.settings.MaxOutputTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		logger.Error("Generation failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply from %s", domain.ErrGenerationUnavailable, s.llmService.ModelName())
	}
	logger.Debug("Generated reply in %s", time.Since(start).Round(time.Millisecond))
	return text, nil
}

func providerRole(r domain.Role) string {
	if r == domain.RoleAssistant {
		return driven.RoleAssistant
	}
	return driven.RoleUser
}
