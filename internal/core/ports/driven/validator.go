package driven

import "github.com/medatlas-labs/medcode-cli/internal/core/domain"

// AIConfigValidator checks that an LLM configuration actually works.
// Implementations verify credentials by testing connectivity to the
// underlying provider.
type AIConfigValidator interface {
	// ValidateLLM validates an LLM configuration by pinging the provider.
	// Returns nil if the configuration is valid or no provider is
	// configured.
	ValidateLLM(cfg domain.LLMConfig) error
}
