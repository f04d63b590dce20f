// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// JSON renders cases as a {"test_cases": [...]} document.
func JSON(cases []types.TestCase) ([]byte, error) { return renderJSON(cases, true) }

// XML renders cases as a <testCases> document with one <testCase>
// element per case.
func XML(cases []types.TestCase) ([]byte, error) { return renderXML(cases, true) }

// CSV renders cases as a spreadsheet-friendly table with the columns
// ID, Title, Priority and Description.
func CSV(cases []types.TestCase) ([]byte, error) { return renderCSV(cases) }

// YAML renders cases as a test_cases document.
func YAML(cases []types.TestCase) ([]byte, error) { return renderYAML(cases, true) }

// exportCase mirrors types.TestCase with export-only tags so the
// timestamp fields can be dropped when include_timestamps is off.
type exportCase struct {
	ID               string                  `json:"id" yaml:"id"`
	Title            string                  `json:"title" yaml:"title"`
	Description      string                  `json:"description" yaml:"description"`
	Priority         types.Priority          `json:"priority" yaml:"priority"`
	Steps            []string                `json:"steps" yaml:"steps"`
	ExpectedResults  string                  `json:"expected_results" yaml:"expected_results"`
	TestData         map[string]any          `json:"test_data,omitempty" yaml:"test_data,omitempty"`
	ComplianceChecks []types.ComplianceCheck `json:"compliance_checks,omitempty" yaml:"compliance_checks,omitempty"`
	CreatedDate      *time.Time              `json:"created_date,omitempty" yaml:"created_date,omitempty"`
	LastModified     *time.Time              `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	SourceFile       string                  `json:"source_file,omitempty" yaml:"source_file,omitempty"`
	ProjectName      string                  `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Status           string                  `json:"status" yaml:"status"`
}

type exportDoc struct {
	TestCases []exportCase `json:"test_cases" yaml:"test_cases"`
}

func exportCases(cases []types.TestCase, withTimestamps bool) []exportCase {
	out := make([]exportCase, len(cases))
	for i, tc := range cases {
		out[i] = exportCase{
			ID:               tc.ID,
			Title:            tc.Title,
			Description:      tc.Description,
			Priority:         tc.Priority,
			Steps:            tc.Steps,
			ExpectedResults:  tc.ExpectedResults,
			TestData:         tc.TestData,
			ComplianceChecks: tc.ComplianceChecks,
			SourceFile:       tc.SourceFile,
			ProjectName:      tc.ProjectName,
			Status:           tc.Status,
		}
		if withTimestamps {
			created, modified := tc.CreatedDate, tc.LastModified
			if !created.IsZero() {
				out[i].CreatedDate = &created
			}
			if !modified.IsZero() {
				out[i].LastModified = &modified
			}
		}
	}
	return out
}

func renderJSON(cases []types.TestCase, withTimestamps bool) ([]byte, error) {
	data, err := json.MarshalIndent(exportDoc{TestCases: exportCases(cases, withTimestamps)}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

func renderYAML(cases []types.TestCase, withTimestamps bool) ([]byte, error) {
	data, err := yaml.Marshal(exportDoc{TestCases: exportCases(cases, withTimestamps)})
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}

type xmlTestCases struct {
	XMLName xml.Name      `xml:"testCases"`
	Cases   []xmlTestCase `xml:"testCase"`
}

type xmlTestCase struct {
	ID               string         `xml:"id"`
	Title            string         `xml:"title"`
	Description      string         `xml:"description"`
	Priority         string         `xml:"priority"`
	Steps            []string       `xml:"steps>step"`
	ExpectedResults  string         `xml:"expectedResults"`
	TestData         []xmlDataEntry `xml:"testData>entry"`
	ComplianceChecks []xmlCheck     `xml:"complianceChecks>complianceCheck"`
	CreatedDate      string         `xml:"createdDate,omitempty"`
	LastModified     string         `xml:"lastModified,omitempty"`
	SourceFile       string         `xml:"sourceFile,omitempty"`
	ProjectName      string         `xml:"projectName,omitempty"`
	Status           string         `xml:"status"`
}

type xmlDataEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type xmlCheck struct {
	Standard       string `xml:"standard"`
	Requirement    string `xml:"requirement"`
	Passed         bool   `xml:"passed"`
	Issue          string `xml:"issue,omitempty"`
	Recommendation string `xml:"recommendation,omitempty"`
}

func renderXML(cases []types.TestCase, withTimestamps bool) ([]byte, error) {
	doc := xmlTestCases{Cases: make([]xmlTestCase, len(cases))}
	for i, tc := range cases {
		entry := xmlTestCase{
			ID:              tc.ID,
			Title:           tc.Title,
			Description:     tc.Description,
			Priority:        string(tc.Priority),
			Steps:           tc.Steps,
			ExpectedResults: tc.ExpectedResults,
			TestData:        xmlDataEntries(tc.TestData),
			SourceFile:      tc.SourceFile,
			ProjectName:     tc.ProjectName,
			Status:          tc.Status,
		}
		for _, c := range tc.ComplianceChecks {
			entry.ComplianceChecks = append(entry.ComplianceChecks, xmlCheck{
				Standard:       c.Standard,
				Requirement:    c.Requirement,
				Passed:         c.Passed,
				Issue:          c.Issue,
				Recommendation: c.Recommendation,
			})
		}
		if withTimestamps {
			if !tc.CreatedDate.IsZero() {
				entry.CreatedDate = tc.CreatedDate.Format(time.RFC3339)
			}
			if !tc.LastModified.IsZero() {
				entry.LastModified = tc.LastModified.Format(time.RFC3339)
			}
		}
		doc.Cases[i] = entry
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling XML: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func xmlDataEntries(data map[string]any) []xmlDataEntry {
	if len(data) == 0 {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]xmlDataEntry, len(keys))
	for i, k := range keys {
		entries[i] = xmlDataEntry{Key: k, Value: fmt.Sprintf("%v", data[k])}
	}
	return entries
}

func renderCSV(cases []types.TestCase) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ID", "Title", "Priority", "Description"}); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	for _, tc := range cases {
		if err := w.Write([]string{tc.ID, tc.Title, string(tc.Priority), tc.Description}); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
