// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Project groups requirements, test cases, and compliance runs under a name.
type Project struct {
	// Name is the unique project name.
	Name string `json:"name" yaml:"name"`

	// Description explains what the project covers.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// CreatedDate is when the project was created.
	CreatedDate time.Time `json:"created_date" yaml:"created_date"`

	// ComplianceStandards lists the standards this project is checked against.
	ComplianceStandards []string `json:"compliance_standards,omitempty" yaml:"compliance_standards,omitempty"`
}
