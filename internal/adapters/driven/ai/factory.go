// Package ai provides factory functions for assembling the LLM
// collaborators used by the lookup pipeline.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/medatlas-labs/medcode-cli/internal/adapters/driven/agents"
	anthropicllm "github.com/medatlas-labs/medcode-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/medatlas-labs/medcode-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/medatlas-labs/medcode-cli/internal/adapters/driven/llm/openai"
	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Collaborators contains the assembled LLM collaborators for the lookup
// pipeline.
type Collaborators struct {
	Chat        driven.ChatService
	Classifier  driven.TermClassifier // Never nil: falls back to keyword rules.
	Suggester   driven.TermSuggester  // Nil in degraded mode.
	Synthesiser driven.Synthesiser    // Nil in degraded mode.
	Warnings    []string              // Non-fatal issues that caused degradation.
	Degraded    bool                  // True when running without an LLM.
}

// Close releases all resources held by Collaborators.
func (c *Collaborators) Close() {
	if c.Chat != nil {
		c.Chat.Close()
	}
}

// Assemble builds the lookup collaborators for an LLM configuration. LLM
// trouble is never fatal here: creation and connectivity failures record a
// warning and degrade to the keyword classifier with rule-based refinement
// and synthesis fallbacks.
func Assemble(cfg domain.LLMConfig) *Collaborators {
	result := &Collaborators{}

	chat, err := CreateAndValidateChatService(cfg)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("%v", err)
	}

	if chat == nil {
		result.Degraded = true
		result.Classifier = agents.NewKeywordClassifier()
		return result
	}

	result.Chat = chat
	result.Classifier = agents.NewClassifier(chat)
	result.Suggester = agents.NewSuggester(chat)
	result.Synthesiser = agents.NewSynthesiser(chat)
	logger.Info("LLM collaborators ready: %s via %s", chat.ModelName(), cfg.Provider)
	return result
}

// CreateAndValidateChatService creates a chat service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateChatService(cfg domain.LLMConfig) (driven.ChatService, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateChatService(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'medcode settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'medcode settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateChatService creates the appropriate chat service based on configuration.
// Returns nil if no provider is configured.
func CreateChatService(cfg domain.LLMConfig) (driven.ChatService, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	switch cfg.Provider {
	case domain.AIProviderOllama:
		return createOllamaChat(cfg), nil

	case domain.AIProviderOpenAI:
		return createOpenAIChat(cfg)

	case domain.AIProviderAnthropic:
		return createAnthropicChat(cfg)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// createOllamaChat creates an Ollama chat service.
func createOllamaChat(cfg domain.LLMConfig) driven.ChatService {
	return ollamallm.NewChatService(ollamallm.Config{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	})
}

// createOpenAIChat creates an OpenAI chat service.
func createOpenAIChat(cfg domain.LLMConfig) (driven.ChatService, error) {
	return openaillm.NewChatService(openaillm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	})
}

// createAnthropicChat creates an Anthropic chat service.
func createAnthropicChat(cfg domain.LLMConfig) (driven.ChatService, error) {
	return anthropicllm.NewChatService(anthropicllm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	})
}
