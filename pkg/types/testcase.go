// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Priority ranks how urgently a test case should be executed.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// ValidPriority reports whether p is one of the four known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ComplianceCheck records one standard requirement evaluated against a
// test case, as attached by generation or a compliance run.
type ComplianceCheck struct {
	// Standard is the standard name (e.g. "FDA", "ISO 27001").
	Standard string `json:"standard" yaml:"standard"`

	// Requirement is the requirement text being checked.
	Requirement string `json:"requirement" yaml:"requirement"`

	// Passed reports whether the test case satisfies the requirement.
	Passed bool `json:"passed" yaml:"passed"`

	// Issue describes what is missing when the check failed.
	Issue string `json:"issue,omitempty" yaml:"issue,omitempty"`

	// Recommendation suggests how to address the issue.
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// TestCase is a single executable test derived from requirements.
type TestCase struct {
	// ID is the test case identifier (e.g. "TC-001", "SEC-0002").
	ID string `json:"id" yaml:"id"`

	// Title is a short summary of what the test verifies.
	Title string `json:"title" yaml:"title"`

	// Description explains the test's purpose and scope.
	Description string `json:"description" yaml:"description"`

	// Priority ranks execution urgency: Low, Medium, High, or Critical.
	Priority Priority `json:"priority" yaml:"priority"`

	// Steps lists the actions to perform, in order.
	Steps []string `json:"steps" yaml:"steps"`

	// ExpectedResults describes the outcome that constitutes a pass.
	ExpectedResults string `json:"expected_results" yaml:"expected_results"`

	// TestData holds input fixtures and expected outputs keyed by name.
	TestData map[string]any `json:"test_data,omitempty" yaml:"test_data,omitempty"`

	// ComplianceChecks lists standard requirements evaluated for this case.
	ComplianceChecks []ComplianceCheck `json:"compliance_checks,omitempty" yaml:"compliance_checks,omitempty"`

	// CreatedDate is when the case was generated.
	CreatedDate time.Time `json:"created_date" yaml:"created_date"`

	// LastModified is updated on every change, including enhancement.
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`

	// SourceFile is the requirement document the case was derived from.
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`

	// ProjectName groups cases under a project.
	ProjectName string `json:"project_name,omitempty" yaml:"project_name,omitempty"`

	// Status tracks the review state. New cases start as "draft".
	Status string `json:"status" yaml:"status"`
}

// StatusDraft is the initial status of every generated test case.
const StatusDraft = "draft"
