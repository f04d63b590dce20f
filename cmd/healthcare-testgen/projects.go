// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects grouping requirements and test cases",
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsCreate,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectsList,
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	standards, _ := cmd.Flags().GetStringSlice("standards")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p := types.Project{
		Name:                args[0],
		Description:         description,
		CreatedDate:         time.Now(),
		ComplianceStandards: standards,
	}
	if err := st.CreateProject(context.Background(), p); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Project %q created\n", p.Name)
	return nil
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	projects, err := st.Projects(context.Background())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-40s  %-12s  %s\n",
		"Name", "Description", "Created", "Standards")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 95))
	for _, p := range projects {
		description := p.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-40s  %-12s  %s\n",
			p.Name, description, p.CreatedDate.Format("2006-01-02"),
			strings.Join(p.ComplianceStandards, ", "))
	}
	return nil
}

func init() {
	projectsCreateCmd.Flags().String("description", "", "project description")
	projectsCreateCmd.Flags().StringSlice("standards", nil, "compliance standards for the project")

	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsListCmd)
	rootCmd.AddCommand(projectsCmd)
}
