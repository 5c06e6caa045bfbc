package driven

import "github.com/medatlas-labs/medcode-cli/internal/core/domain"

// ConfigStore provides persistent application configuration.
type ConfigStore interface {
	// Load reads the stored configuration, layering defaults, the config
	// file and environment overrides. A missing file is not an error.
	Load() (domain.Config, error)

	// Set persists a single value under [section] key, creating the file
	// if needed and leaving other sections untouched.
	Set(section, key string, value any) error

	// Path returns the location of the backing config file.
	Path() string
}
