// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored test cases",
	Long: `List shows stored test cases, newest first. With --query the list is
a full-text search over titles and descriptions, ranked by relevance.`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetString("project")
	query, _ := cmd.Flags().GetString("query")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cases, err := st.TestCases(context.Background(), store.ListOptions{
		Query:   query,
		Project: project,
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cases)
	}

	if len(cases) == 0 {
		fmt.Println("No test cases found.")
		return nil
	}

	formatCaseTable(cases)
	fmt.Fprintf(os.Stdout, "\n%d test case(s)\n", len(cases))
	return nil
}

// formatCaseTable prints test cases as a fixed-width table.
func formatCaseTable(cases []types.TestCase) {
	fmt.Fprintf(os.Stdout, "%-10s  %-44s  %-8s  %-8s  %-12s  %s\n",
		"ID", "Title", "Priority", "Status", "Project", "Created")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, tc := range cases {
		title := tc.Title
		if len(title) > 44 {
			title = title[:41] + "..."
		}
		project := tc.ProjectName
		if len(project) > 12 {
			project = project[:9] + "..."
		}
		created := ""
		if !tc.CreatedDate.IsZero() {
			created = tc.CreatedDate.Format("2006-01-02")
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-44s  %-8s  %-8s  %-12s  %s\n",
			tc.ID, title, tc.Priority, tc.Status, project, created)
	}
}

func init() {
	listCmd.Flags().String("project", "", "filter by project name")
	listCmd.Flags().String("query", "", "full-text search over titles and descriptions")
	listCmd.Flags().String("status", "", "filter by review status")
	listCmd.Flags().Int("limit", 0, "maximum results (0 = store default)")
	listCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(listCmd)
}
