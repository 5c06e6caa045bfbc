package services

import (
	"fmt"
	"strings"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config sections and keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	sectionLLM  = "llm"
	keyProvider = "provider"
	keyModel    = "model"
	keyAPIKey   = "api_key"
)

// SettingsService manages application settings.
type SettingsService struct {
	store     driven.ConfigStore
	validator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store driven.ConfigStore, validator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		store:     store,
		validator: validator,
	}
}

// Get retrieves the current effective configuration.
func (s *SettingsService) Get() (domain.Config, error) {
	cfg, err := s.store.Load()
	if err != nil {
		return domain.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// SetProvider selects the LLM provider. "none" disables LLM use.
func (s *SettingsService) SetProvider(provider string) error {
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "none" {
		name = ""
	}
	if p := domain.AIProvider(name); p != domain.AIProviderNone && !p.IsValid() {
		return fmt.Errorf("%w: unknown provider %q (choose ollama, openai, anthropic or none)",
			domain.ErrInvalidConfig, provider)
	}

	if err := s.store.Set(sectionLLM, keyProvider, name); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	return nil
}

// SetModel sets the LLM model. An empty model restores the provider default.
func (s *SettingsService) SetModel(model string) error {
	if err := s.store.Set(sectionLLM, keyModel, strings.TrimSpace(model)); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	return nil
}

// SetAPIKey stores the API key for the configured cloud provider.
func (s *SettingsService) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: API key is empty", domain.ErrInvalidConfig)
	}

	if err := s.store.Set(sectionLLM, keyAPIKey, key); err != nil {
		return fmt.Errorf("save llm api_key: %w", err)
	}
	return nil
}

// ValidateLLMConfig validates the stored LLM configuration by pinging the
// provider.
func (s *SettingsService) ValidateLLMConfig() error {
	cfg, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return s.validator.ValidateLLM(cfg.LLM)
}

// ConfigPath returns the location of the config file.
func (s *SettingsService) ConfigPath() string {
	return s.store.Path()
}
