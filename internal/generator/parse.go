// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/healthcare-testgen/internal/ai"
)

// parseResponse decodes the AI response, trying strict JSON first, then
// scraping test case sections out of prose, then splitting the text into
// skeleton cases.
func parseResponse(raw string) ([]aiTestCase, string) {
	var decoded struct {
		TestCases []aiTestCase `json:"test_cases"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &decoded); err == nil && len(decoded.TestCases) > 0 {
		return decoded.TestCases, SourceAI
	}

	if cases := parseTextResponse(raw); len(cases) > 0 {
		return cases, SourceText
	}

	return splitIntoSkeletons(raw), SourceText
}

var (
	sectionHeadRe   = regexp.MustCompile(`(?im)^[ \t]*(?:\*\*|#{1,3}[ \t]*)?(?:test case|tc)\b[ \t]*#?\d*[:.\-)]*`)
	numberedCaseRe  = regexp.MustCompile(`(?im)^[ \t]*\d+\.[ \t]*test case`)
	headTitleRe     = regexp.MustCompile(`(?i)^(?:test case|tc)\b\s*#?\d*\s*[:.\-)]*\s*`)
	descLabelRe     = regexp.MustCompile(`(?i)^desc(?:ription)?\b[:.]`)
	stepsLabelRe    = regexp.MustCompile(`(?i)^steps?\b[:.]`)
	expectedLabelRe = regexp.MustCompile(`(?i)^expected(?:\s+(?:results?|outcomes?))?\b[:.]`)
	priorityLineRe  = regexp.MustCompile(`(?i)priority\b[:.\s]*(high|medium|low|critical)`)
	testDataLabelRe = regexp.MustCompile(`(?i)^test\s+data\b[:.]`)
	enumRe          = regexp.MustCompile(`^\s*(?:\d+[.)]\s*|[-*]\s+)`)
)

// parseTextResponse scrapes test cases from a prose response. Sections
// are split on "Test Case N" style headings; within each section the
// title, description, steps, expected results, and priority are pulled
// from labeled lines. Sections with no real title or description are
// dropped.
func parseTextResponse(raw string) []aiTestCase {
	sections := splitAt(raw, sectionHeadRe)
	if len(sections) == 0 {
		sections = splitAt(raw, numberedCaseRe)
	}

	var cases []aiTestCase
	for _, sec := range sections {
		if len(strings.TrimSpace(sec)) < 20 {
			continue
		}
		if tc, ok := parseSection(sec); ok {
			cases = append(cases, tc)
		}
	}
	return cases
}

// splitAt slices the text into sections starting at each match of re.
func splitAt(raw string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(raw, -1)
	sections := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, raw[loc[0]:end])
	}
	return sections
}

// parseSection extracts one test case from a heading-delimited section.
func parseSection(section string) (aiTestCase, bool) {
	lines := strings.Split(section, "\n")
	tc := aiTestCase{Priority: "Medium"}

	head := strings.Trim(strings.TrimSpace(lines[0]), "*# \t")
	head = headTitleRe.ReplaceAllString(head, "")
	tc.Title = strings.TrimSpace(strings.Trim(head, "*"))

	var descLines, expectedLines []string
	mode := ""

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case descLabelRe.MatchString(trimmed):
			mode = "description"
			if rest := labelRest(trimmed); rest != "" {
				descLines = append(descLines, rest)
			}
		case stepsLabelRe.MatchString(trimmed):
			mode = "steps"
			if rest := labelRest(trimmed); rest != "" {
				tc.Steps = append(tc.Steps, rest)
			}
		case expectedLabelRe.MatchString(trimmed):
			mode = "expected"
			if rest := labelRest(trimmed); rest != "" {
				expectedLines = append(expectedLines, rest)
			}
		case testDataLabelRe.MatchString(trimmed):
			mode = "skip"
		case priorityLineRe.MatchString(trimmed) && strings.HasPrefix(strings.ToLower(trimmed), "priority"):
			m := priorityLineRe.FindStringSubmatch(trimmed)
			tc.Priority = capitalize(strings.ToLower(m[1]))
			mode = ""
		case mode == "steps":
			tc.Steps = append(tc.Steps, stripEnum(trimmed))
		case mode == "expected":
			expectedLines = append(expectedLines, trimmed)
		case mode == "description":
			descLines = append(descLines, trimmed)
		case mode == "" && enumRe.MatchString(trimmed):
			tc.Steps = append(tc.Steps, stripEnum(trimmed))
		case mode == "" && len(descLines) < 3:
			descLines = append(descLines, trimmed)
		}
	}

	tc.Description = strings.Join(descLines, " ")
	tc.ExpectedResults = strings.Join(expectedLines, " ")

	if len(tc.Title) <= 5 && len(tc.Description) <= 20 {
		return aiTestCase{}, false
	}
	return tc, true
}

// labelRest returns the text after a "Label:" prefix.
func labelRest(line string) string {
	if i := strings.IndexAny(line, ":."); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

// stripEnum removes leading "1." or "-" style list markers.
func stripEnum(line string) string {
	return strings.TrimSpace(enumRe.ReplaceAllString(line, ""))
}

var skeletonSplitRe = regexp.MustCompile(`(?m)^\s*(?:\d+\.\s+|[*-]\s+|##\s+)`)

// splitIntoSkeletons builds minimal cases from loosely structured text
// when no recognizable test case sections exist. At most ten cases are
// produced.
func splitIntoSkeletons(raw string) []aiTestCase {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	locs := skeletonSplitRe.FindAllStringIndex(raw, -1)
	var parts []string
	if len(locs) == 0 {
		parts = []string{raw}
	} else {
		if locs[0][0] > 0 {
			parts = append(parts, raw[:locs[0][0]])
		}
		for i, loc := range locs {
			end := len(raw)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			parts = append(parts, raw[loc[0]:end])
		}
	}

	var cases []aiTestCase
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if len(text) < 30 {
			continue
		}
		desc := text
		if len(desc) > 150 {
			desc = desc[:150] + "..."
		}
		cases = append(cases, aiTestCase{
			Title:           fmt.Sprintf("Test Case %d", len(cases)+1),
			Description:     desc,
			Priority:        "Medium",
			Steps:           []string{"Execute the test scenario", "Verify expected behavior"},
			ExpectedResults: "Test should pass with expected outcomes",
		})
		if len(cases) == 10 {
			break
		}
	}
	return cases
}
