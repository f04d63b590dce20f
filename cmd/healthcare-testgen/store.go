// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runStats,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a snapshot of the database to backups/",
	RunE:  runBackup,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Test cases:          %d\n", stats.TestCases)
	fmt.Fprintf(os.Stdout, "Requirements:        %d\n", stats.Requirements)
	fmt.Fprintf(os.Stdout, "Projects:            %d\n", stats.Projects)
	fmt.Fprintf(os.Stdout, "Compliance results:  %d\n", stats.ComplianceResults)
	fmt.Fprintf(os.Stdout, "Exports:             %d\n", stats.Exports)
	fmt.Fprintf(os.Stdout, "Integration logs:    %d\n", stats.IntegrationLogs)

	if len(stats.ByStatus) > 0 {
		fmt.Fprintln(os.Stdout, "\nBy status:")
		printCounts(stats.ByStatus)
	}
	if len(stats.ByPriority) > 0 {
		fmt.Fprintln(os.Stdout, "\nBy priority:")
		printCounts(stats.ByPriority)
	}
	return nil
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "  %-12s %d\n", k, counts[k])
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	path, err := st.Backup(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Backup written to %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(backupCmd)
}
