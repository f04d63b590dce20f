// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ExportFormat selects the test case export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportXML  ExportFormat = "xml"
	ExportCSV  ExportFormat = "csv"
	ExportYAML ExportFormat = "yaml"
)

// ExportRecord describes one completed export, kept as history.
type ExportRecord struct {
	// ExportID uniquely identifies the export (e.g. "EXP-20260114093045-a1b2c3").
	ExportID string `json:"export_id" yaml:"export_id"`

	// Format is the encoding the cases were written in.
	Format ExportFormat `json:"export_format" yaml:"export_format"`

	// TestCasesCount is how many cases were written.
	TestCasesCount int `json:"test_cases_count" yaml:"test_cases_count"`

	// ExportedDate is when the export ran.
	ExportedDate time.Time `json:"exported_date" yaml:"exported_date"`

	// FilePath is where the export was written.
	FilePath string `json:"file_path" yaml:"file_path"`

	// ProjectName is the project the cases belonged to, if any.
	ProjectName string `json:"project_name,omitempty" yaml:"project_name,omitempty"`
}
