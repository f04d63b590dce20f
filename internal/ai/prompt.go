// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// testCasePromptTmpl is the prompt sent to the AI for test case
// generation. It pins the response to a strict JSON structure so the
// generator can decode it without scraping prose.
var testCasePromptTmpl = template.Must(template.New("testcases").Parse(`You are an expert QA engineer specializing in healthcare software testing.
Your task is to generate comprehensive test cases based on the following requirements.

REQUIREMENTS:
{{.Requirements}}

CRITICAL INSTRUCTION: You MUST return ONLY valid JSON format. Do not include any markdown formatting, code blocks, or additional text outside the JSON structure.

Generate test cases in JSON format with the following structure:
{
    "test_cases": [
        {
            "id": "TC-001",
            "title": "Descriptive test case title",
            "description": "Detailed description of what is being tested",
            "priority": "High/Medium/Low/Critical",
            "steps": [
                "Step 1 description",
                "Step 2 description"
            ],
            "expected_results": "What should happen when the test passes",
            "compliance_checks": [
                {
                    "standard": "FDA/ISO 13485/etc",
                    "requirement": "Specific requirement text",
                    "passed": false,
                    "issue": "If not passed, what's wrong",
                    "recommendation": "How to fix compliance issue"
                }
            ],
            "test_data": {
                "input_data": "Sample input data",
                "expected_output": "Expected output data"
            }
        }
    ]
}

Important considerations for healthcare software:
- Ensure compliance with FDA regulations, IEC 62304, ISO 13485, ISO 27001
- Consider patient safety and data privacy (GDPR compliance)
- Include edge cases and error conditions
- Prioritize test cases based on risk assessment
- Ensure traceability from requirements to test cases

REMEMBER: Return ONLY valid JSON. No additional text, explanations, or markdown formatting.
{{- if .CustomPrompt}}

Additional instructions: {{.CustomPrompt}}
{{- end}}
`))

// compliancePromptTmpl asks the AI for a compliance assessment of
// already generated test cases.
var compliancePromptTmpl = template.Must(template.New("compliance").Parse(`You are a healthcare compliance expert. Analyze the following test cases for compliance with these standards: {{.Standards}}.

TEST CASES:
{{.TestCases}}

Provide a compliance assessment in JSON format:
{
    "overall_score": 85,
    "standards": {
        "FDA": [
            {
                "requirement": "Specific FDA requirement",
                "passed": true,
                "issue": "If not passed, what's wrong",
                "recommendation": "How to fix"
            }
        ]
    },
    "recommendations": ["Overall recommendations for improvement"]
}

Focus on healthcare-specific compliance requirements including:
- Patient safety and risk management
- Data privacy and security (GDPR considerations)
- Documentation and traceability requirements
- Validation and verification processes
- Quality management system requirements
`))

// enhancementPromptTmpl asks the AI to improve existing test cases
// according to a free-form instruction.
var enhancementPromptTmpl = template.Must(template.New("enhance").Parse(`Enhance the following test cases based on this instruction: {{.Instruction}}

EXISTING TEST CASES:
{{.TestCases}}

Return the enhanced test cases as a JSON object with a "test_cases" array, in the same format, with improvements applied. Return ONLY valid JSON.
`))

// TestCasePrompt renders the generation prompt for the given requirements.
func TestCasePrompt(requirements, customPrompt string) (string, error) {
	var buf bytes.Buffer
	err := testCasePromptTmpl.Execute(&buf, struct {
		Requirements string
		CustomPrompt string
	}{requirements, customPrompt})
	if err != nil {
		return "", fmt.Errorf("rendering test case prompt: %w", err)
	}
	return buf.String(), nil
}

// CompliancePrompt renders the compliance analysis prompt.
func CompliancePrompt(cases []types.TestCase, standards []string) (string, error) {
	casesJSON, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling test cases: %w", err)
	}

	var buf bytes.Buffer
	err = compliancePromptTmpl.Execute(&buf, struct {
		Standards string
		TestCases string
	}{strings.Join(standards, ", "), string(casesJSON)})
	if err != nil {
		return "", fmt.Errorf("rendering compliance prompt: %w", err)
	}
	return buf.String(), nil
}

// EnhancementPrompt renders the enhancement prompt.
func EnhancementPrompt(cases []types.TestCase, instruction string) (string, error) {
	casesJSON, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling test cases: %w", err)
	}

	var buf bytes.Buffer
	err = enhancementPromptTmpl.Execute(&buf, struct {
		Instruction string
		TestCases   string
	}{instruction, string(casesJSON)})
	if err != nil {
		return "", fmt.Errorf("rendering enhancement prompt: %w", err)
	}
	return buf.String(), nil
}
