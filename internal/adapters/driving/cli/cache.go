package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the result cache state",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached results",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStatus(cmd *cobra.Command, _ []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	stats, err := lookupService.CacheStats(cmd.Context())
	if err != nil {
		return err
	}
	printCacheStats(cmd, stats)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if lookupService == nil {
		return errors.New("lookup service not configured")
	}

	stats, err := lookupService.CacheStats(cmd.Context())
	if err != nil {
		return err
	}
	if err := lookupService.ClearCache(cmd.Context()); err != nil {
		return err
	}
	cmd.Printf("Cleared query cache (%d entries removed)\n", stats.Size)
	cmd.Println("All future queries will be processed fresh.")
	return nil
}
