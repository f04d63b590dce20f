// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/internal/export"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored test cases to a file",
	Long: `Export writes stored test cases to a timestamped file under the export
directory in JSON, XML, CSV, or YAML format, and records the export in
the history table.`,
	RunE: runExport,
}

var exportHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the export history",
	RunE:  runExportHistory,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("output")
	project, _ := cmd.Flags().GetString("project")
	ids, _ := cmd.Flags().GetStringSlice("ids")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Export.OutputDir = outDir
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	cases, err := selectCases(ctx, st, ids, project)
	if err != nil {
		return err
	}

	exp := export.New(st, cfg.Export, logger)
	rec, err := exp.Export(ctx, types.ExportFormat(format), cases, project)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported %d test case(s) to %s\n", rec.TestCasesCount, rec.FilePath)
	return nil
}

func runExportHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Exports(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No exports recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-28s  %-6s  %-6s  %-19s  %s\n",
		"Export", "Format", "Cases", "Date", "File")
	for _, rec := range records {
		fmt.Fprintf(os.Stdout, "%-28s  %-6s  %-6d  %-19s  %s\n",
			rec.ExportID, rec.Format, rec.TestCasesCount,
			rec.ExportedDate.Format("2006-01-02 15:04:05"), rec.FilePath)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "", "export format: json, xml, csv, or yaml (default: configured format)")
	exportCmd.Flags().String("output", "", "output directory (default: configured export directory)")
	exportCmd.Flags().String("project", "", "export only this project's test cases")
	exportCmd.Flags().StringSlice("ids", nil, "export only these test case IDs")

	exportCmd.AddCommand(exportHistoryCmd)
	rootCmd.AddCommand(exportCmd)
}
