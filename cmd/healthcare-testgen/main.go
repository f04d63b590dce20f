// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the healthcare-testgen CLI.
// It converts healthcare software requirement documents into structured
// test cases, checks them against compliance standards, and pushes them
// to enterprise test management tools.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/healthcare-testgen/internal/secrets"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE and shared by all subcommands.
var logger *zap.Logger

// secretDefault returns fallback if set, otherwise the loaded secret for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the healthcare-testgen CLI.
var rootCmd = &cobra.Command{
	Use:   "healthcare-testgen",
	Short: "AI-assisted test case generation for healthcare software",
	Long: `healthcare-testgen converts software requirement documents (PDF, DOCX,
XML, JSON, Markdown, plain text) into structured test cases using the
Gemini API, with a template fallback when no API key is configured.

Generated cases are stored in SQLite, checked against healthcare
compliance standards (FDA, IEC 62304, ISO 9001/13485/27001, GDPR),
exported to JSON/XML/CSV/YAML, and pushed to Jira, Azure DevOps, or
Polarion.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		zcfg := zap.NewProductionConfig()
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose || viper.GetBool("app.debug") {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./healthcare-testgen.yaml or ~/.config/healthcare-testgen/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("healthcare-testgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "healthcare-testgen"))
		}
	}

	viper.SetEnvPrefix("TESTGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	applyProfile(os.Getenv("APP_ENV"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults() {
	viper.SetDefault("app.name", "Healthcare TestGen AI")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "INFO")

	viper.SetDefault("database.path", "data/testgen.db")
	viper.SetDefault("database.auto_backup", true)
	viper.SetDefault("database.backup_interval", 24)

	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.model_temperature", 0.7)
	viper.SetDefault("ai.max_tokens", 1000)
	viper.SetDefault("ai.timeout", 30)
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("file_processing.max_file_size_mb", 10)
	viper.SetDefault("file_processing.supported_formats",
		[]string{".pdf", ".docx", ".xml", ".json", ".md", ".txt"})

	viper.SetDefault("integrations.jira.enabled", false)
	viper.SetDefault("integrations.jira.base_url", "")
	viper.SetDefault("integrations.jira.project_key", "")
	viper.SetDefault("integrations.polarion.enabled", false)
	viper.SetDefault("integrations.polarion.base_url", "")
	viper.SetDefault("integrations.polarion.project_id", "")
	viper.SetDefault("integrations.azure_devops.enabled", false)
	viper.SetDefault("integrations.azure_devops.organization_url", "")
	viper.SetDefault("integrations.azure_devops.project_name", "")

	viper.SetDefault("compliance.enabled_standards", []string{"FDA", "ISO 13485"})
	viper.SetDefault("compliance.auto_check", true)

	viper.SetDefault("export.default_format", "json")
	viper.SetDefault("export.output_dir", "data/exports")
	viper.SetDefault("export.include_timestamps", true)
	viper.SetDefault("export.backup_exports", true)
}

// applyProfile overrides defaults for the environment named by APP_ENV.
// Config file and environment settings still take precedence.
func applyProfile(env string) {
	switch env {
	case "development":
		viper.SetDefault("app.debug", true)
		viper.SetDefault("app.log_level", "DEBUG")
		viper.SetDefault("database.path", "data/testgen_dev.db")
	case "testing":
		viper.SetDefault("app.log_level", "WARNING")
		viper.SetDefault("database.path", "data/testgen_test.db")
	case "production":
		viper.SetDefault("app.debug", false)
		viper.SetDefault("app.log_level", "INFO")
		viper.SetDefault("database.path", "data/testgen_prod.db")
	}
}

// loadConfig builds the typed configuration tree from viper.
func loadConfig() (*types.Config, error) {
	cfg := &types.Config{
		App: types.AppConfig{
			Name:     viper.GetString("app.name"),
			Version:  viper.GetString("app.version"),
			Debug:    viper.GetBool("app.debug"),
			LogLevel: viper.GetString("app.log_level"),
		},
		Database: types.DatabaseConfig{
			Path:           viper.GetString("database.path"),
			AutoBackup:     viper.GetBool("database.auto_backup"),
			BackupInterval: viper.GetInt("database.backup_interval"),
		},
		AI: types.AIConfig{
			Model:       viper.GetString("ai.model"),
			APIKey:      viper.GetString("ai.api_key"),
			Temperature: viper.GetFloat64("ai.model_temperature"),
			MaxTokens:   viper.GetInt("ai.max_tokens"),
			Timeout:     viper.GetInt("ai.timeout"),
			MaxRetries:  viper.GetInt("ai.max_retries"),
		},
		FileProcessing: types.FileProcessingConfig{
			MaxFileSizeMB:    viper.GetInt("file_processing.max_file_size_mb"),
			SupportedFormats: viper.GetStringSlice("file_processing.supported_formats"),
		},
		Integrations: types.IntegrationsConfig{
			Jira: types.JiraConfig{
				Enabled:    viper.GetBool("integrations.jira.enabled"),
				BaseURL:    viper.GetString("integrations.jira.base_url"),
				ProjectKey: viper.GetString("integrations.jira.project_key"),
				Username:   viper.GetString("integrations.jira.username"),
			},
			Polarion: types.PolarionConfig{
				Enabled:   viper.GetBool("integrations.polarion.enabled"),
				BaseURL:   viper.GetString("integrations.polarion.base_url"),
				ProjectID: viper.GetString("integrations.polarion.project_id"),
			},
			AzureDevOps: types.AzureDevOpsConfig{
				Enabled:         viper.GetBool("integrations.azure_devops.enabled"),
				OrganizationURL: viper.GetString("integrations.azure_devops.organization_url"),
				ProjectName:     viper.GetString("integrations.azure_devops.project_name"),
			},
		},
		Compliance: types.ComplianceConfig{
			EnabledStandards: viper.GetStringSlice("compliance.enabled_standards"),
			AutoCheck:        viper.GetBool("compliance.auto_check"),
		},
		Export: types.ExportConfig{
			DefaultFormat:     viper.GetString("export.default_format"),
			OutputDir:         viper.GetString("export.output_dir"),
			IncludeTimestamps: viper.GetBool("export.include_timestamps"),
			BackupExports:     viper.GetBool("export.backup_exports"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore opens the SQLite database configured in cfg.
func openStore(cfg *types.Config) (*store.Store, error) {
	return store.New(cfg.Database)
}

// geminiKey resolves the Gemini API key: config, then secret file, then
// the GEMINI_API_KEY environment variable.
func geminiKey(cfg *types.Config) string {
	if key := secretDefault("gemini-api-key", cfg.AI.APIKey); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
