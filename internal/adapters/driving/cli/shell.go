package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive clinical term lookup",
	Long: `Start an interactive session. Enter clinical terms to look them up, and
type 'more' to page through results. 'help' lists the shell commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	cmd.Println(styles.Title.Render("Medical Code Lookup"))
	cmd.Println("Enter a clinical term (diagnosis, medication, lab test, procedure)")
	cmd.Println("to find matching codes. Type 'help' for commands, 'quit' to exit.")
	cmd.Println()
	cmd.Print(disclaimerBanner())
	printStartupWarnings(cmd)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("\nEnter clinical term: ")
		if !scanner.Scan() {
			cmd.Println("\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			cmd.Println("Please enter a term.")
		case "quit", "exit", "q":
			cmd.Println("Goodbye!")
			return nil
		case "help", "?":
			shellHelp(cmd)
		case "clear", "clear cache", "reset cache":
			shellClearCache(cmd)
		case "cache status", "cache":
			shellCacheStats(cmd)
		case "datasets":
			cmd.Print(renderDatasets(lookupService.Datasets(cmd.Context())))
		default:
			if domain.IsContinuationRequest(input) {
				shellNextPage(cmd)
			} else {
				shellLookup(cmd, input)
			}
		}
	}
}

func shellHelp(cmd *cobra.Command) {
	cmd.Println(styles.Title.Render("Shell commands"))
	cmd.Println("  <clinical term>      look up codes for the term")
	cmd.Println("  more / next          show the next page of the previous results")
	cmd.Println("  datasets             list the supported coding systems")
	cmd.Println("  cache status         show the result cache state")
	cmd.Println("  clear cache          drop all cached results")
	cmd.Println("  help                 show this help")
	cmd.Println("  quit                 exit the shell")
}

func shellLookup(cmd *cobra.Command, query string) {
	cmd.Printf("\nSearching medical codes for '%s'...\n", query)

	resp, err := lookupService.Lookup(cmd.Context(), query)
	if err != nil {
		cmd.Println(styles.Error.Render(fmt.Sprintf("Error: %v", err)))
		return
	}
	cmd.Print(renderResponse(resp, displayCfg))
}

func shellNextPage(cmd *cobra.Command) {
	page, err := lookupService.NextPage(cmd.Context())
	switch {
	case errors.Is(err, domain.ErrNoActiveQuery):
		cmd.Println("No previous query to continue. Enter a clinical term first.")
	case errors.Is(err, domain.ErrNoMoreResults):
		cmd.Println("No more results available.")
		if stats, statsErr := lookupService.CacheStats(cmd.Context()); statsErr == nil && stats.ActiveQuery != "" {
			cmd.Printf("All codes for '%s' have been displayed.\n", stats.ActiveQuery)
		}
	case err != nil:
		cmd.Println(styles.Error.Render(fmt.Sprintf("Error: %v", err)))
	default:
		cmd.Print(renderPageView(page, displayCfg))
	}
}

func shellClearCache(cmd *cobra.Command) {
	stats, err := lookupService.CacheStats(cmd.Context())
	if err != nil {
		cmd.Println(styles.Error.Render(fmt.Sprintf("Error: %v", err)))
		return
	}
	if err := lookupService.ClearCache(cmd.Context()); err != nil {
		cmd.Println(styles.Error.Render(fmt.Sprintf("Error: %v", err)))
		return
	}
	cmd.Printf("Cleared query cache (%d entries removed)\n", stats.Size)
	cmd.Println("All future queries will be processed fresh.")
}

func shellCacheStats(cmd *cobra.Command) {
	stats, err := lookupService.CacheStats(cmd.Context())
	if err != nil {
		cmd.Println(styles.Error.Render(fmt.Sprintf("Error: %v", err)))
		return
	}
	printCacheStats(cmd, stats)
}

func printCacheStats(cmd *cobra.Command, stats domain.CacheStats) {
	cmd.Println("Cache Status:")
	cmd.Printf("  Cached queries: %d\n", stats.Size)
	cmd.Printf("  Cache enabled:  %v\n", stats.Enabled)
	cmd.Printf("  Entry TTL:      %s\n", stats.TTL)
	if stats.ActiveQuery != "" {
		cmd.Printf("  Last query:     %s\n", stats.ActiveQuery)
		cmd.Printf("  Current page:   %d (%d codes per system)\n", stats.Page, stats.PageSize)
	}
}
