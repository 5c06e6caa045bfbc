package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// Default locations under the user's home directory.
const (
	defaultConfigDir  = ".medcode"
	defaultConfigFile = "config.toml"
)

// Store loads and persists medcode configuration as TOML.
//
// Effective configuration is assembled in three layers: compiled-in
// defaults, the config file, then MEDCODE_* environment variables.
// Validation is the caller's concern, so a broken file can still be loaded
// and repaired through Set.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a config store at the given file path.
// An empty path defaults to ~/.medcode/config.toml.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, defaultConfigDir, defaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	return &Store{path: path}, nil
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Load assembles the effective configuration: defaults, overlaid by the
// config file when present, overlaid by environment variables.
func (s *Store) Load() (domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		// Unmarshalling over the pre-filled schema means absent keys keep
		// their defaults.
		dto := fromDomain(cfg)
		if err := toml.Unmarshal(data, &dto); err != nil {
			return domain.Config{}, fmt.Errorf("parse %s: %w", s.path, err)
		}
		cfg = dto.toDomain()
	case os.IsNotExist(err):
		// No config file yet, defaults apply.
	default:
		return domain.Config{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Set persists one value into a section of the config file, preserving
// everything else in it. The file is created on first use.
func (s *Store) Set(section, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]any)
	data, err := os.ReadFile(s.path)
	if err == nil {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse %s: %w", s.path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	sec, ok := raw[section].(map[string]any)
	if !ok {
		sec = make(map[string]any)
	}
	sec[key] = value
	raw[section] = sec

	out, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// API keys live here; keep the file private.
	return os.WriteFile(s.path, out, 0600)
}

// applyEnv overlays MEDCODE_* environment variables onto the configuration.
// Provider API keys also honour the conventional OPENAI_API_KEY and
// ANTHROPIC_API_KEY names when no explicit key is configured.
func applyEnv(cfg *domain.Config) error {
	if v := os.Getenv("MEDCODE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = domain.AIProvider(strings.ToLower(v))
	}
	if v := os.Getenv("MEDCODE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("MEDCODE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case domain.AIProviderOpenAI:
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if v := os.Getenv("MEDCODE_OLLAMA_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("MEDCODE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MEDCODE_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MEDCODE_CACHE_TTL: %v", domain.ErrInvalidConfig, err)
		}
		cfg.Cache.TTL = ttl
	}
	if v := os.Getenv("MEDCODE_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MEDCODE_MAX_ITERATIONS: %v", domain.ErrInvalidConfig, err)
		}
		cfg.Pipeline.MaxIterations = n
	}
	return nil
}
