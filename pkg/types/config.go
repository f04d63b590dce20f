// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "healthcare-testgen/1.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AppConfig holds application identity and logging settings.
type AppConfig struct {
	// Name is the application display name.
	Name string `json:"name" yaml:"name"`

	// Version is the application version string.
	Version string `json:"version" yaml:"version"`

	// Debug enables debug logging and verbose diagnostics.
	Debug bool `json:"debug" yaml:"debug"`

	// LogLevel is the minimum log level: DEBUG, INFO, WARNING, or ERROR.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DatabaseConfig holds SQLite storage settings.
type DatabaseConfig struct {
	// Path is the SQLite database file (default "data/testgen.db").
	Path string `json:"path" yaml:"path"`

	// AutoBackup enables periodic backups alongside the database.
	AutoBackup bool `json:"auto_backup" yaml:"auto_backup"`

	// BackupInterval is the hours between automatic backups (default 24).
	BackupInterval int `json:"backup_interval" yaml:"backup_interval"`
}

// AIConfig holds settings for the generative AI backend.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature controls sampling randomness, in [0, 1] (default 0.7).
	Temperature float64 `json:"model_temperature" yaml:"model_temperature"`

	// MaxTokens caps the response length (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout bounds each API call in seconds (default 30).
	Timeout int `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FileProcessingConfig holds requirement document ingestion settings.
type FileProcessingConfig struct {
	// MaxFileSizeMB caps accepted document size in megabytes (default 10).
	MaxFileSizeMB int `json:"max_file_size_mb" yaml:"max_file_size_mb"`

	// SupportedFormats lists accepted extensions (default .pdf .docx .xml .json .md .txt).
	SupportedFormats []string `json:"supported_formats" yaml:"supported_formats"`
}

// JiraConfig holds connection settings for the Jira integration.
type JiraConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled turns the integration on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BaseURL is the Jira instance URL (e.g. "https://your-org.atlassian.net").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ProjectKey is the default Jira project key for created issues.
	ProjectKey string `json:"project_key" yaml:"project_key"`

	// Token is the API token. Basic auth uses Username with Token as password.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Username enables basic auth when set together with Token.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
}

// PolarionConfig holds connection settings for the Polarion integration.
type PolarionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled turns the integration on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BaseURL is the Polarion instance URL.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ProjectID is the default Polarion project identifier.
	ProjectID string `json:"project_id" yaml:"project_id"`

	// Token is the Polarion API token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// AzureDevOpsConfig holds connection settings for the Azure DevOps integration.
type AzureDevOpsConfig struct {
	HTTPConfig `yaml:",inline"`

	// Enabled turns the integration on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// OrganizationURL is the organization root (e.g. "https://dev.azure.com/your-org").
	OrganizationURL string `json:"organization_url" yaml:"organization_url"`

	// ProjectName is the default Azure DevOps project.
	ProjectName string `json:"project_name" yaml:"project_name"`

	// Token is a Personal Access Token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// IntegrationsConfig groups the enterprise tool integrations.
type IntegrationsConfig struct {
	Jira        JiraConfig        `json:"jira" yaml:"jira"`
	Polarion    PolarionConfig    `json:"polarion" yaml:"polarion"`
	AzureDevOps AzureDevOpsConfig `json:"azure_devops" yaml:"azure_devops"`
}

// ComplianceConfig holds compliance checking settings.
type ComplianceConfig struct {
	// EnabledStandards lists the standards checked by default
	// (default FDA and ISO 13485).
	EnabledStandards []string `json:"enabled_standards" yaml:"enabled_standards"`

	// AutoCheck runs a compliance check after every generation.
	AutoCheck bool `json:"auto_check" yaml:"auto_check"`
}

// ExportConfig holds test case export settings.
type ExportConfig struct {
	// DefaultFormat is used when no format is requested (default "json").
	DefaultFormat string `json:"default_format" yaml:"default_format"`

	// OutputDir is where export files are written (default "data/exports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// IncludeTimestamps adds generation timestamps to exported cases.
	IncludeTimestamps bool `json:"include_timestamps" yaml:"include_timestamps"`

	// BackupExports keeps a copy of every export in the history table.
	BackupExports bool `json:"backup_exports" yaml:"backup_exports"`
}

// Config groups all application settings.
type Config struct {
	App            AppConfig            `json:"app" yaml:"app"`
	Database       DatabaseConfig       `json:"database" yaml:"database"`
	AI             AIConfig             `json:"ai" yaml:"ai"`
	FileProcessing FileProcessingConfig `json:"file_processing" yaml:"file_processing"`
	Integrations   IntegrationsConfig   `json:"integrations" yaml:"integrations"`
	Compliance     ComplianceConfig     `json:"compliance" yaml:"compliance"`
	Export         ExportConfig         `json:"export" yaml:"export"`
}

// Validate checks the numeric ranges a misconfigured tree most often breaks.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.FileProcessing.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.FileProcessing.MaxFileSizeMB)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 1 {
		return fmt.Errorf("model temperature must be in [0, 1], got %g", c.AI.Temperature)
	}
	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.AI.MaxTokens)
	}
	return nil
}
