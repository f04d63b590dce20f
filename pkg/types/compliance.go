// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Evidence links a passed compliance requirement to the test case that
// satisfied it.
type Evidence struct {
	// TestCaseID identifies the matching test case.
	TestCaseID string `json:"test_case_id" yaml:"test_case_id"`

	// Title is the matching test case's title.
	Title string `json:"title" yaml:"title"`

	// MatchedKeyword is the requirement keyword found in the test case.
	MatchedKeyword string `json:"matched_keyword" yaml:"matched_keyword"`
}

// CheckResult is the outcome of evaluating one standard requirement
// against a set of test cases.
type CheckResult struct {
	// RequirementID is the catalog identifier (e.g. "FDA-001").
	RequirementID string `json:"requirement_id" yaml:"requirement_id"`

	// Requirement is the requirement text.
	Requirement string `json:"requirement" yaml:"requirement"`

	// Description explains what the requirement demands.
	Description string `json:"description" yaml:"description"`

	// Passed reports whether any test case covers the requirement.
	Passed bool `json:"passed" yaml:"passed"`

	// Evidence lists the test cases that matched, one entry per case.
	Evidence []Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`

	// Issue describes the gap when no test case matched.
	Issue string `json:"issue,omitempty" yaml:"issue,omitempty"`

	// Recommendation suggests how to close the gap.
	Recommendation string `json:"recommendation" yaml:"recommendation"`
}

// ComplianceReport summarizes a compliance run over a set of test cases.
type ComplianceReport struct {
	// OverallScore is the percentage of requirements passed, to 2 decimals.
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`

	// Standards maps each checked standard to its per-requirement results.
	Standards map[string][]CheckResult `json:"standards" yaml:"standards"`

	// TotalChecks is the number of requirements evaluated.
	TotalChecks int `json:"total_checks" yaml:"total_checks"`

	// PassedChecks is the number of requirements with coverage.
	PassedChecks int `json:"passed_checks" yaml:"passed_checks"`

	// Timestamp is when the check ran.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// TestCasesCount is how many test cases were analyzed.
	TestCasesCount int `json:"test_cases_count" yaml:"test_cases_count"`

	// Recommendations holds run-level suggestions from AI-backed checks.
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}
