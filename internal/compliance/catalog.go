// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compliance

// Requirement is one catalog entry for a compliance standard.
type Requirement struct {
	ID          string `json:"id"`
	Requirement string `json:"requirement"`
	Description string `json:"description"`
}

// standardNames lists the supported standards in display order.
var standardNames = []string{
	"FDA",
	"IEC 62304",
	"ISO 13485",
	"ISO 9001",
	"ISO 27001",
	"GDPR",
}

var catalog = map[string][]Requirement{
	"FDA": {
		{
			ID:          "FDA-001",
			Requirement: "Software must be validated for its intended use",
			Description: "Ensure software functions as intended in the healthcare context",
		},
		{
			ID:          "FDA-002",
			Requirement: "Risk management must be implemented",
			Description: "Identify and mitigate risks associated with software use",
		},
		{
			ID:          "FDA-003",
			Requirement: "Design controls must be established",
			Description: "Maintain design history file and design validation",
		},
		{
			ID:          "FDA-004",
			Requirement: "Quality system regulations must be followed",
			Description: "Comply with 21 CFR Part 820 Quality System Regulation",
		},
	},
	"IEC 62304": {
		{
			ID:          "IEC-001",
			Requirement: "Software development process must be established",
			Description: "Follow defined software development lifecycle",
		},
		{
			ID:          "IEC-002",
			Requirement: "Risk management must be applied",
			Description: "Perform risk analysis and implement risk control measures",
		},
		{
			ID:          "IEC-003",
			Requirement: "Software must be maintained properly",
			Description: "Establish software maintenance and configuration management",
		},
		{
			ID:          "IEC-004",
			Requirement: "Software must be validated",
			Description: "Verify and validate software requirements",
		},
	},
	"ISO 13485": {
		{
			ID:          "ISO13485-001",
			Requirement: "Quality management system must be implemented",
			Description: "Establish and maintain quality management system",
		},
		{
			ID:          "ISO13485-002",
			Requirement: "Risk-based approach must be used",
			Description: "Apply risk management to all processes",
		},
		{
			ID:          "ISO13485-003",
			Requirement: "Design and development must be controlled",
			Description: "Maintain design and development records",
		},
		{
			ID:          "ISO13485-004",
			Requirement: "Process validation must be performed",
			Description: "Validate processes where output cannot be verified",
		},
	},
	"ISO 9001": {
		{
			ID:          "ISO9001-001",
			Requirement: "Customer focus must be maintained",
			Description: "Meet customer requirements and enhance satisfaction",
		},
		{
			ID:          "ISO9001-002",
			Requirement: "Leadership must be demonstrated",
			Description: "Establish unity of purpose and direction",
		},
		{
			ID:          "ISO9001-003",
			Requirement: "Engagement of people must be ensured",
			Description: "Competent, empowered and engaged people",
		},
		{
			ID:          "ISO9001-004",
			Requirement: "Process approach must be used",
			Description: "Systematic management of processes",
		},
	},
	"ISO 27001": {
		{
			ID:          "ISO27001-001",
			Requirement: "Information security policy must be established",
			Description: "Define and maintain information security policy",
		},
		{
			ID:          "ISO27001-002",
			Requirement: "Risk assessment must be performed",
			Description: "Systematic assessment of information security risks",
		},
		{
			ID:          "ISO27001-003",
			Requirement: "Access control must be implemented",
			Description: "Control access to information and systems",
		},
		{
			ID:          "ISO27001-004",
			Requirement: "Cryptographic controls must be used",
			Description: "Protect information confidentiality and integrity",
		},
	},
	"GDPR": {
		{
			ID:          "GDPR-001",
			Requirement: "Lawful basis for processing must be established",
			Description: "Ensure valid legal basis for data processing",
		},
		{
			ID:          "GDPR-002",
			Requirement: "Data subject rights must be respected",
			Description: "Enable data subject access, rectification, and erasure",
		},
		{
			ID:          "GDPR-003",
			Requirement: "Data protection by design must be implemented",
			Description: "Integrate data protection into design phase",
		},
		{
			ID:          "GDPR-004",
			Requirement: "Data breach notification must be prepared",
			Description: "Establish procedures for data breach notification",
		},
	},
}

// Standards returns the supported standard names in display order.
func Standards() []string {
	return append([]string(nil), standardNames...)
}

// Requirements returns the catalog entries for a standard, or nil when
// the standard is unknown.
func Requirements(standard string) []Requirement {
	return append([]Requirement(nil), catalog[standard]...)
}
