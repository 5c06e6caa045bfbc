package driving

import "github.com/medatlas-labs/medcode-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves the current effective configuration.
	Get() (domain.Config, error)

	// SetProvider selects the LLM provider. "none" disables LLM use.
	SetProvider(provider string) error

	// SetModel sets the LLM model. An empty model restores the provider
	// default.
	SetModel(model string) error

	// SetAPIKey stores the API key for the configured cloud provider.
	SetAPIKey(key string) error

	// ValidateLLMConfig validates the stored LLM configuration by pinging
	// the provider.
	ValidateLLMConfig() error

	// ConfigPath returns the location of the config file.
	ConfigPath() string
}
