// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"regexp"
	"strings"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// caseTemplate is a fill-in-the-blank test case. The [functionality]
// marker is replaced with a key phrase from the requirements; other
// bracketed markers are left for the tester to fill in.
type caseTemplate struct {
	title           string
	description     string
	priority        types.Priority
	steps           []string
	expectedResults string
	testData        map[string]any
	checks          []types.ComplianceCheck
}

var caseTemplates = map[string]caseTemplate{
	TypeFunctional: {
		title:       "Test [functionality]",
		description: "Verify that [functionality] works as expected",
		priority:    types.PriorityMedium,
		steps: []string{
			"Navigate to [screen/page]",
			"Perform [action]",
			"Verify [expected behavior]",
		},
		expectedResults: "[Functionality] should work correctly without errors",
		testData: map[string]any{
			"input_data":      "Sample input data",
			"expected_output": "Expected output data",
		},
	},
	TypeSecurity: {
		title:       "Security Test: [functionality]",
		description: "Test for [functionality] vulnerability",
		priority:    types.PriorityHigh,
		steps: []string{
			"Attempt to [malicious action]",
			"Observe system response",
		},
		expectedResults: "System should prevent [functionality] misuse and respond appropriately",
		checks: []types.ComplianceCheck{
			{Standard: "ISO 27001", Requirement: "Security controls implementation", Passed: true},
		},
	},
	TypePerformance: {
		title:       "Performance Test: [functionality]",
		description: "Test system performance for [functionality]",
		priority:    types.PriorityMedium,
		steps: []string{
			"Set up performance monitoring",
			"Execute [scenario] with [load] load",
			"Measure response times",
		},
		expectedResults: "System should meet performance requirements: [requirements]",
		testData: map[string]any{
			"load_level":              "Specified load level",
			"response_time_threshold": "Maximum acceptable response time",
		},
	},
	TypeCompliance: {
		title:       "Compliance Test: [functionality]",
		description: "Test compliance with [functionality] requirements",
		priority:    types.PriorityHigh,
		steps: []string{
			"Review [standard] requirements",
			"Execute compliance verification steps",
			"Document results",
		},
		expectedResults: "System should comply with all [functionality] requirements",
		checks: []types.ComplianceCheck{
			{Standard: "[standard]", Requirement: "Specific requirement", Passed: true},
		},
	},
}

var keyPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:shall|should|must|will)\s+(\w+\s+\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(\w+ing\s+\w+(?:\s+\w+)?)`),
	regexp.MustCompile(`(?i)(\w+\s+function(?:ality)?)`),
	regexp.MustCompile(`(?i)(\w+\s+feature)`),
	regexp.MustCompile(`(?i)(\w+\s+module)`),
}

// keyPhrases pulls candidate functionality phrases out of requirement
// text: objects of modal verbs, gerund phrases, and explicit
// function/feature/module mentions. Duplicates are dropped while
// preserving first-occurrence order; at most ten phrases are returned.
func keyPhrases(text string) []string {
	seen := make(map[string]bool)
	var phrases []string

	for _, re := range keyPhrasePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			phrase := strings.TrimSpace(m[1])
			if len(strings.Fields(phrase)) < 2 || seen[phrase] {
				continue
			}
			seen[phrase] = true
			phrases = append(phrases, phrase)
			if len(phrases) == 10 {
				return phrases
			}
		}
	}
	return phrases
}

// buildFromTemplate instantiates the template for the given test type
// once per extracted key phrase, capped at five cases. An unknown type
// falls back to the functional template.
func buildFromTemplate(requirements, testType string) []aiTestCase {
	tmpl, ok := caseTemplates[testType]
	if !ok {
		tmpl = caseTemplates[TypeFunctional]
	}

	phrases := keyPhrases(requirements)
	if len(phrases) > 5 {
		phrases = phrases[:5]
	}

	cases := make([]aiTestCase, 0, len(phrases))
	for _, phrase := range phrases {
		cases = append(cases, aiTestCase{
			Title:            fillPlaceholder(tmpl.title, phrase),
			Description:      fillPlaceholder(tmpl.description, phrase),
			Priority:         string(tmpl.priority),
			Steps:            append([]string(nil), tmpl.steps...),
			ExpectedResults:  fillPlaceholder(tmpl.expectedResults, phrase),
			TestData:         copyTestData(tmpl.testData),
			ComplianceChecks: append([]types.ComplianceCheck(nil), tmpl.checks...),
		})
	}
	return cases
}

// fillPlaceholder substitutes the [functionality] marker, capitalizing
// the phrase where the template capitalizes the marker.
func fillPlaceholder(s, phrase string) string {
	s = strings.ReplaceAll(s, "[functionality]", phrase)
	s = strings.ReplaceAll(s, "[Functionality]", capitalize(phrase))
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func copyTestData(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
