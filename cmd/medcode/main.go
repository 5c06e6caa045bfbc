// Command medcode resolves clinical terms to ranked medical codes using the
// NLM Clinical Tables terminology datasets.
package main

import (
	"fmt"
	"os"

	"github.com/medatlas-labs/medcode-cli/internal/adapters/driven/ai"
	"github.com/medatlas-labs/medcode-cli/internal/adapters/driven/config/file"
	"github.com/medatlas-labs/medcode-cli/internal/adapters/driven/terminology/clinicaltables"
	"github.com/medatlas-labs/medcode-cli/internal/adapters/driving/cli"
	"github.com/medatlas-labs/medcode-cli/internal/core/services"
)

func main() {
	cli.OnInit(bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap assembles the service graph once the root flags are parsed, so
// --config can point at an alternative file.
func bootstrap(configPath string) error {
	store, err := file.NewStore(configPath)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	cfg, err := store.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	collab := ai.Assemble(cfg.LLM)

	searcher := clinicaltables.NewClient(clinicaltables.ConfigFromAPI(cfg.API))
	scorer := services.NewRelevanceScorer(cfg.Scoring)
	evaluator := services.NewQualityEvaluator(cfg.Pipeline, cfg.Quality)
	planner := services.NewRefinementPlanner(cfg.Refinement, cfg.Quality, collab.Suggester)
	retriever := services.NewRetrievalCoordinator(searcher, cfg.API)
	memory := services.NewSessionMemory(cfg.Cache, cfg.Display.MaxCodesPerSystem)

	lookup := services.NewLookupService(
		&cfg,
		collab.Classifier,
		retriever,
		scorer,
		evaluator,
		planner,
		collab.Synthesiser,
		memory,
	)
	settings := services.NewSettingsService(store, ai.NewConfigValidator())

	cli.SetServices(lookup, settings, cfg.Display, collab.Warnings)
	return nil
}
