package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the supported coding systems",
	Args:  cobra.NoArgs,
	RunE:  runDatasets,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, _ []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	cmd.Print(renderDatasets(lookupService.Datasets(cmd.Context())))
	return nil
}
