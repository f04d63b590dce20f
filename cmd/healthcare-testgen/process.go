// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <files...>",
	Short: "Extract requirement text from documents and store it",
	Long: `Process reads requirement documents (PDF, DOCX, XML, JSON, Markdown,
plain text), extracts their text, and saves each as a requirement record
for later test case generation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

// processedFile summarizes one ingested document for output.
type processedFile struct {
	File          string `json:"file"`
	RequirementID string `json:"requirement_id"`
	Format        string `json:"format"`
	Characters    int    `json:"characters"`
	Error         string `json:"error,omitempty"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	proc := fileproc.New(cfg.FileProcessing, logger)
	ctx := context.Background()

	var (
		results []processedFile
		failed  int
	)
	for _, path := range args {
		r := processedFile{
			File:   path,
			Format: strings.ToLower(filepath.Ext(path)),
		}

		content, err := proc.Process(path)
		if err != nil {
			r.Error = err.Error()
			failed++
			results = append(results, r)
			continue
		}

		req := types.Requirement{
			ID:            types.UniqueID("REQ"),
			Title:         filepath.Base(path),
			Content:       content,
			SourceFile:    filepath.Base(path),
			FileFormat:    r.Format,
			ExtractedDate: time.Now(),
			ProjectName:   project,
		}
		if err := st.SaveRequirement(ctx, req); err != nil {
			r.Error = err.Error()
			failed++
			results = append(results, r)
			continue
		}

		r.RequirementID = req.ID
		r.Characters = len(content)
		results = append(results, r)
	}

	if err := formatProcessOutput(results, format); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed processing", failed)
	}
	return nil
}

func formatProcessOutput(results []processedFile, format string) error {
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-26s  %-8s  %s\n",
		"File", "Requirement", "Format", "Characters")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))

	for _, r := range results {
		file := r.File
		if len(file) > 30 {
			file = "..." + file[len(file)-27:]
		}
		if r.Error != "" {
			fmt.Fprintf(os.Stdout, "%-30s  error: %s\n", file, r.Error)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-26s  %-8s  %d\n",
			file, r.RequirementID, r.Format, r.Characters)
	}

	fmt.Fprintf(os.Stdout, "\n%d file(s) processed\n", len(results))
	return nil
}

func init() {
	processCmd.Flags().String("project", "", "project name to associate with the requirements")
	processCmd.Flags().String("format", "table", "output format: table or json")

	rootCmd.AddCommand(processCmd)
}
