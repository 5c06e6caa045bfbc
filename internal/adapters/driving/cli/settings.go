package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider and other options.

Without a subcommand the current settings are shown.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetProviderCmd = &cobra.Command{
	Use:   "set-provider <ollama|openai|anthropic|none>",
	Short: "Select the LLM provider",
	Long: `Select the LLM provider used for term classification, refinement
suggestions and result synthesis. 'none' disables LLM assistance; every
lookup then runs on rule-based fallbacks.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetProvider,
}

var settingsSetModelCmd = &cobra.Command{
	Use:   "set-model <name>",
	Short: "Set the LLM model",
	Long: `Set the model the configured provider should use. An empty name
restores the provider's default model.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetModel,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the API key for the configured provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsSetKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetProviderCmd)
	settingsCmd.AddCommand(settingsSetModelCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	cmd.Printf("Config file: %s\n", settingsService.ConfigPath())
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", cfg.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", cfg.LLM.ResolvedModel())
	if cfg.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Provider.RequiresAPIKey() {
		if cfg.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(cfg.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !cfg.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Max iterations: %d\n", cfg.Pipeline.MaxIterations)
	cmd.Printf("  Query timeout: %s\n", cfg.Pipeline.QueryTimeout)
	cmd.Printf("  Acceptance threshold: %.2f\n", cfg.Quality.AcceptanceThreshold)
	cmd.Println()

	cmd.Println("[Cache]")
	if cfg.Cache.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  TTL: %s\n", cfg.Cache.TTL)
		cmd.Printf("  Max entries: %d\n", cfg.Cache.MaxEntries)
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  Base URL: %s\n", cfg.API.BaseURL)
	cmd.Printf("  Max results per dataset: %d\n", cfg.API.MaxResultsPerDataset)
	cmd.Printf("  Rate limit: %d requests/minute\n", cfg.API.RateLimitPerMinute)
	cmd.Println()

	if err := cfg.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSetProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetProvider(args[0]); err != nil {
		return fmt.Errorf("failed to set LLM provider: %w", err)
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if cfg.LLM.Provider == domain.AIProviderNone {
		cmd.Println("LLM assistance disabled. Lookups will use rule-based fallbacks.")
		return nil
	}

	cmd.Printf("LLM provider set to: %s\n", cfg.LLM.Provider.Description())

	if cfg.LLM.Provider.RequiresAPIKey() && cfg.LLM.APIKey == "" {
		cmd.Println("\nNote: This provider requires an API key.")
		cmd.Println("Run 'medcode settings set-key' to configure.")
		return nil
	}

	// Validate the configuration by pinging the service.
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	return nil
}

func runSettingsSetModel(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetModel(args[0]); err != nil {
		return fmt.Errorf("failed to set LLM model: %w", err)
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Printf("LLM model set to: %s\n", cfg.LLM.ResolvedModel())
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if cfg.LLM.Provider == domain.AIProviderNone {
		return errors.New("no LLM provider configured. Run 'medcode settings set-provider' first")
	}
	if !cfg.LLM.Provider.RequiresAPIKey() {
		return fmt.Errorf("provider %s does not use an API key", cfg.LLM.Provider)
	}

	cmd.Print("Enter API key: ")
	key := readPassword()
	cmd.Println()

	if err := settingsService.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to set API key: %w", err)
	}

	// Validate the configuration by pinging the service.
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("API key saved for %s.\n", cfg.LLM.Provider.Description())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
