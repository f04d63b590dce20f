// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/internal/integrations"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push stored test cases to an enterprise test management tool",
	Long: `Push imports stored test cases into Jira, Azure DevOps, or Polarion.
Cases are pushed concurrently with per-case outcomes; failures do not
abort the batch. Every outcome is recorded in the integration log.

Connection settings resolve from flags, then the configuration file,
then secret files (jira-api-token, azure-devops-pat, polarion-token).`,
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("target")
	project, _ := cmd.Flags().GetString("project")
	ids, _ := cmd.Flags().GetStringSlice("ids")
	targetProject, _ := cmd.Flags().GetString("target-project")

	if target == "" {
		return fmt.Errorf("target required: --target jira, azuredevops, or polarion")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyPushFlags(cmd, &cfg.Integrations)

	client, err := integrations.NewClient(target, cfg.Integrations)
	if err != nil {
		return err
	}

	if targetProject == "" {
		targetProject = defaultTargetProject(target, cfg.Integrations)
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
		return fmt.Errorf("no test cases to push: generate or import some first")
	}

	hub := integrations.NewHub(st, logger)
	outcomes := hub.BatchImport(ctx, client, cases, targetProject)

	failed := 0
	fmt.Fprintf(os.Stdout, "%-10s  %-16s  %s\n", "Case", "Remote", "Result")
	for _, out := range outcomes {
		if out.Error != "" {
			failed++
			fmt.Fprintf(os.Stdout, "%-10s  %-16s  error: %s\n", out.TestCaseID, "-", out.Error)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-16s  ok\n", out.TestCaseID, out.RemoteID)
	}
	fmt.Fprintf(os.Stdout, "\n%d pushed, %d failed\n", len(outcomes)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d test case(s) failed to push", failed)
	}
	return nil
}

// applyPushFlags overlays connection flags onto the configured
// integration settings and fills tokens from secret files.
func applyPushFlags(cmd *cobra.Command, ic *types.IntegrationsConfig) {
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		ic.Jira.BaseURL = v
		ic.Polarion.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("username"); v != "" {
		ic.Jira.Username = v
	}
	if v, _ := cmd.Flags().GetString("jira-project-key"); v != "" {
		ic.Jira.ProjectKey = v
	}
	if v, _ := cmd.Flags().GetString("azure-org-url"); v != "" {
		ic.AzureDevOps.OrganizationURL = v
	}
	if v, _ := cmd.Flags().GetString("azure-project"); v != "" {
		ic.AzureDevOps.ProjectName = v
	}
	if v, _ := cmd.Flags().GetString("polarion-project-id"); v != "" {
		ic.Polarion.ProjectID = v
	}

	token, _ := cmd.Flags().GetString("token")
	ic.Jira.Token = secretDefault("jira-api-token", token)
	ic.AzureDevOps.Token = secretDefault("azure-devops-pat", token)
	ic.Polarion.Token = secretDefault("polarion-token", token)
}

// defaultTargetProject picks the configured project for the target tool.
func defaultTargetProject(target string, ic types.IntegrationsConfig) string {
	switch target {
	case "jira":
		return ic.Jira.ProjectKey
	case "azuredevops", "azure_devops":
		return ic.AzureDevOps.ProjectName
	case "polarion":
		return ic.Polarion.ProjectID
	}
	return ""
}

func init() {
	pushCmd.Flags().String("target", "", "target tool: jira, azuredevops, or polarion")
	pushCmd.Flags().String("project", "", "push only this project's test cases")
	pushCmd.Flags().StringSlice("ids", nil, "push only these test case IDs")
	pushCmd.Flags().String("target-project", "", "project in the target tool (default: configured per-tool project)")
	pushCmd.Flags().String("base-url", "", "target instance URL (Jira or Polarion)")
	pushCmd.Flags().String("token", "", "API token or personal access token")
	pushCmd.Flags().String("username", "", "username for Jira basic auth")
	pushCmd.Flags().String("jira-project-key", "", "Jira project key for created issues")
	pushCmd.Flags().String("azure-org-url", "", "Azure DevOps organization URL")
	pushCmd.Flags().String("azure-project", "", "Azure DevOps project name")
	pushCmd.Flags().String("polarion-project-id", "", "Polarion project identifier")

	rootCmd.AddCommand(pushCmd)
}
