package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var lookupJSON bool

var lookupCmd = &cobra.Command{
	Use:   "lookup [term]",
	Short: "Resolve a clinical term to ranked medical codes",
	Long: `Look up a free-text clinical term and print the matching codes from every
relevant coding system, ranked by relevance.

With no term, and when standard input is a terminal, an interactive shell
is started instead (see 'medcode shell').`,
	Example: `  medcode lookup diabetes
  medcode lookup crushing chest pain
  medcode lookup "metformin 500 mg" --json`,
	Args: cobra.ArbitraryArgs,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	if len(args) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runShell(cmd, args)
		}
		return errors.New("a clinical term is required")
	}

	printStartupWarnings(cmd)

	query := strings.Join(args, " ")
	resp, err := lookupService.Lookup(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(renderResponse(resp, displayCfg))
	return nil
}
