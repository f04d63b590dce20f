// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Requirement holds the extracted text of one requirement document.
type Requirement struct {
	// ID is the requirement identifier (e.g. "REQ-20260114093045-a1b2c3").
	ID string `json:"id" yaml:"id"`

	// Title is a short label, usually derived from the source filename.
	Title string `json:"title" yaml:"title"`

	// Description is an optional summary of the document.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Content is the full extracted text.
	Content string `json:"content" yaml:"content"`

	// SourceFile is the path of the document the text came from.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// FileFormat is the source extension (e.g. ".pdf", ".docx").
	FileFormat string `json:"file_format" yaml:"file_format"`

	// ExtractedDate is when the text was extracted.
	ExtractedDate time.Time `json:"extracted_date" yaml:"extracted_date"`

	// ProjectName groups requirements under a project.
	ProjectName string `json:"project_name,omitempty" yaml:"project_name,omitempty"`
}
