// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/ai"
	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/internal/generator"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate test cases from requirement text",
	Long: `Generate produces structured test cases from requirement text given
directly (--text) or extracted from a document (--file). With a Gemini
API key configured, generation runs through the AI backend; otherwise
cases are built from built-in templates keyed on requirement phrases.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	text, _ := cmd.Flags().GetString("text")
	testType, _ := cmd.Flags().GetString("type")
	count, _ := cmd.Flags().GetInt("count")
	customPrompt, _ := cmd.Flags().GetString("custom-prompt")
	includeCompliance, _ := cmd.Flags().GetBool("compliance")
	project, _ := cmd.Flags().GetString("project")
	save, _ := cmd.Flags().GetBool("save")
	output, _ := cmd.Flags().GetString("output")
	apiKey, _ := cmd.Flags().GetString("api-key")

	if file == "" && text == "" {
		return fmt.Errorf("requirement input required: provide --file or --text")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	sourceFile := ""
	if file != "" {
		proc := fileproc.New(cfg.FileProcessing, logger)
		content, err := proc.Process(file)
		if err != nil {
			return err
		}
		text = content
		sourceFile = filepath.Base(file)
	}

	backend, cleanup, err := buildBackend(ctx, cfg, apiKey)
	if err != nil {
		return err
	}
	defer cleanup()

	gen := generator.New(backend, cfg.AI, logger)

	// Seed the ID counter from the store so new IDs continue the
	// stored sequence instead of restarting at 1.
	var st *store.Store
	if save {
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		gen.StartAt(stats.TestCases)
	}

	result, err := gen.Generate(ctx, generator.Request{
		Requirements:      text,
		TestType:          testType,
		CustomPrompt:      customPrompt,
		IncludeCompliance: includeCompliance,
		SourceFile:        sourceFile,
		Project:           project,
	})
	if err != nil {
		return err
	}

	cases := result.TestCases
	if count > 0 && len(cases) > count {
		cases = cases[:count]
	}
	if len(cases) == 0 {
		return fmt.Errorf("no test cases generated: the requirement text yielded no usable phrases")
	}

	if save {
		n, err := st.SaveTestCases(ctx, cases)
		if err != nil {
			return err
		}
		logger.Info("saved test cases", zap.Int("count", n), zap.String("source", result.Source))
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cases)
	}

	formatCaseTable(cases)
	fmt.Fprintf(os.Stdout, "\n%d test case(s) generated (%s)\n", len(cases), result.Source)
	return nil
}

// buildBackend creates the Gemini backend when an API key resolves, or
// returns nil so the generator falls back to templates. The returned
// cleanup closes the backend and is safe to call either way.
func buildBackend(ctx context.Context, cfg *types.Config, flagKey string) (ai.Backend, func(), error) {
	key := secretDefault("gemini-api-key", flagKey)
	if key == "" {
		key = geminiKey(cfg)
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "No Gemini API key configured; continuing without AI backend")
		return nil, func() {}, nil
	}

	backend, err := ai.NewGeminiBackend(ctx, key, cfg.AI.Model)
	if err != nil {
		return nil, func() {}, err
	}
	return backend, func() { backend.Close() }, nil
}

func init() {
	generateCmd.Flags().String("file", "", "requirement document to generate from")
	generateCmd.Flags().String("text", "", "requirement text to generate from")
	generateCmd.Flags().String("type", "functional", "test type: functional, security, performance, or compliance")
	generateCmd.Flags().Int("count", 0, "maximum number of test cases to keep (0 = no cap)")
	generateCmd.Flags().String("custom-prompt", "", "extra instructions appended to the AI prompt")
	generateCmd.Flags().Bool("compliance", true, "include compliance checks on generated cases")
	generateCmd.Flags().String("project", "", "project name to associate with the cases")
	generateCmd.Flags().Bool("save", true, "save generated cases to the database")
	generateCmd.Flags().String("output", "table", "output format: table or json")
	generateCmd.Flags().String("api-key", "", "Gemini API key (default: secret gemini-api-key or GEMINI_API_KEY)")

	rootCmd.AddCommand(generateCmd)
}
