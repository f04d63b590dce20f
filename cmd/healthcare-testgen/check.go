// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/compliance"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check stored test cases against compliance standards",
	Long: `Check evaluates stored test cases against healthcare compliance
standards (FDA, IEC 62304, ISO 9001, ISO 13485, ISO 27001, GDPR) and
reports per-requirement coverage with evidence and recommendations.

With --ai the analysis runs through the Gemini backend; otherwise a
keyword-based static check is used. Results are persisted per test case.`,
	RunE: runCheck,
}

var checkStandardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "List the supported compliance standards",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range compliance.Standards() {
			fmt.Fprintf(os.Stdout, "%-12s  %d requirements\n",
				name, len(compliance.Requirements(name)))
		}
		return nil
	},
}

func runCheck(cmd *cobra.Command, args []string) error {
	standards, _ := cmd.Flags().GetStringSlice("standards")
	project, _ := cmd.Flags().GetString("project")
	ids, _ := cmd.Flags().GetStringSlice("ids")
	useAI, _ := cmd.Flags().GetBool("ai")
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(standards) == 0 {
		standards = cfg.Compliance.EnabledStandards
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
	if len(cases) == 0 {
		return fmt.Errorf("no test cases to check: generate or import some first")
	}

	static := compliance.New(nil, cfg.AI, logger)

	var report *types.ComplianceReport
	if useAI {
		aiBackend, cleanup, err := buildBackend(ctx, cfg, "")
		if err != nil {
			return err
		}
		defer cleanup()
		checker := compliance.New(aiBackend, cfg.AI, logger)
		report, err = checker.CheckWithAI(ctx, cases, standards)
		if err != nil {
			return err
		}
	} else {
		report, err = static.Check(cases, standards)
		if err != nil {
			return err
		}
	}

	// Persist each case's own coverage so stored rows reflect that case
	// rather than the batch.
	for _, tc := range cases {
		caseReport, cerr := static.Check([]types.TestCase{tc}, standards)
		if cerr != nil {
			continue
		}
		if serr := st.SaveComplianceResults(ctx, tc.ID, caseReport); serr != nil {
			logger.Warn("persisting compliance results failed",
				zap.String("test_case", tc.ID), zap.Error(serr))
		}
	}

	rendered, err := compliance.Format(report, format)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("writing report to %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stdout, "Report written to %s\n", outPath)
		return nil
	}

	fmt.Fprintln(os.Stdout, rendered)
	return nil
}

// selectCases loads the test cases named by ids, or the project's cases
// when no ids are given.
func selectCases(ctx context.Context, st *store.Store, ids []string, project string) ([]types.TestCase, error) {
	if len(ids) > 0 {
		cases := make([]types.TestCase, 0, len(ids))
		for _, id := range ids {
			tc, err := st.TestCase(ctx, id)
			if err != nil {
				return nil, err
			}
			cases = append(cases, tc)
		}
		return cases, nil
	}
	return st.TestCases(ctx, store.ListOptions{Project: project})
}

func init() {
	checkCmd.Flags().StringSlice("standards", nil, "standards to check (default: configured enabled standards)")
	checkCmd.Flags().String("project", "", "check only this project's test cases")
	checkCmd.Flags().StringSlice("ids", nil, "check only these test case IDs")
	checkCmd.Flags().Bool("ai", false, "run the analysis through the Gemini backend")
	checkCmd.Flags().String("format", "text", "report format: text, json, or html")
	checkCmd.Flags().String("output", "", "write the report to a file instead of stdout")

	checkCmd.AddCommand(checkStandardsCmd)
	rootCmd.AddCommand(checkCmd)
}
