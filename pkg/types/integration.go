// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IntegrationLog records one operation against an external test
// management tool.
type IntegrationLog struct {
	// Type names the tool: "jira", "azuredevops", or "polarion".
	Type string `json:"integration_type" yaml:"integration_type"`

	// Operation is what was attempted (e.g. "create", "update", "push").
	Operation string `json:"operation" yaml:"operation"`

	// TargetID is the tool-side identifier involved, when known.
	TargetID string `json:"target_id,omitempty" yaml:"target_id,omitempty"`

	// Status is "success" or "error".
	Status string `json:"status" yaml:"status"`

	// Details carries the error message or a short outcome summary.
	Details string `json:"details,omitempty" yaml:"details,omitempty"`

	// Timestamp is when the operation ran.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// TestResult reports an execution outcome to attach to a pushed test case.
type TestResult struct {
	// Status is the execution verdict (e.g. "Passed", "Failed", "Blocked").
	Status string `json:"status" yaml:"status"`

	// ExecutionDate is when the test ran.
	ExecutionDate time.Time `json:"execution_date" yaml:"execution_date"`

	// Tester names who ran the test.
	Tester string `json:"tester,omitempty" yaml:"tester,omitempty"`

	// Notes carries free-form observations.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
