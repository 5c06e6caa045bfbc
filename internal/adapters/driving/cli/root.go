// Package cli implements the medcode command-line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
	"github.com/medatlas-labs/medcode-cli/internal/core/ports/driving"
	"github.com/medatlas-labs/medcode-cli/internal/logger"
)

// Services used by the commands. Wired by SetServices from package main;
// tests install mocks directly.
var (
	lookupService   driving.LookupService
	settingsService driving.SettingsService
	displayCfg      = domain.DefaultConfig().Display
	startupWarnings []string
)

// initServices is installed by package main to build the service graph once
// flags are parsed, so --config can influence the build. Nil in tests.
var initServices func(configPath string) error

var (
	flagConfig  string
	flagVerbose bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "medcode",
	Short: "Clinical term to medical code lookup",
	Long: `Medcode resolves free-text clinical terms ("crushing chest pain",
"metformin 500 mg") into ranked medical codes from the NLM Clinical Tables
terminology datasets: ICD-10-CM, LOINC, RxTerms, HCPCS, SNOMED CT and more.

Each lookup runs an iterative search loop: classify the term, query the
relevant coding systems in parallel, score every candidate for relevance,
and refine the search terms when the results are weak. An optional LLM
provider sharpens classification and summarises findings; without one,
rule-based fallbacks keep every lookup working.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if !flagVerbose && envBool("MEDCODE_VERBOSE") {
			flagVerbose = true
		}
		logger.SetVerbose(flagVerbose)

		if lookupService == nil && initServices != nil {
			if err := initServices(flagConfig); err != nil {
				return err
			}
		}

		styles = newRenderStyles(displayCfg.Color && !flagNoColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.medcode/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose diagnostic output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable coloured output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetServices wires the driving services and display preferences. Warnings
// are non-fatal startup issues (a degraded LLM, say) surfaced before the
// first command output.
func SetServices(lookup driving.LookupService, settings driving.SettingsService, display domain.DisplayConfig, warnings []string) {
	lookupService = lookup
	settingsService = settings
	displayCfg = display
	startupWarnings = warnings
}

// OnInit installs the service bootstrap that runs once flags are parsed.
func OnInit(fn func(configPath string) error) {
	initServices = fn
}

// printStartupWarnings surfaces deferred wiring warnings once, then drops
// them so repeated commands in one process stay quiet.
func printStartupWarnings(cmd *cobra.Command) {
	for _, w := range startupWarnings {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.Warning.Render("Warning: "+w))
	}
	startupWarnings = nil
}

func envBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
