package ai

import (
	"context"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates LLM provider configurations. Used by the
// settings service to check credentials at configuration time rather than
// at first lookup.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM validates an LLM configuration by creating a chat service and
// pinging the provider. Returns nil if no provider is configured.
func (v *ConfigValidator) ValidateLLM(cfg domain.LLMConfig) error {
	if !cfg.IsConfigured() {
		return nil
	}

	svc, err := CreateChatService(cfg)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
