// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrations

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// Polarion is a staging surface for Siemens Polarion, whose SOAP API
// is not publicly reachable. Test cases are held in an in-memory
// project map and exchanged with Polarion through its XML import
// format via ExportXML and ImportXML.
type Polarion struct {
	mu    sync.Mutex
	cases map[string]RemoteCase
}

// NewPolarion returns an empty Polarion staging client.
func NewPolarion() *Polarion {
	return &Polarion{cases: make(map[string]RemoteCase)}
}

// Name returns the tool identifier.
func (p *Polarion) Name() string { return "polarion" }

// CreateTestCase stages a test case under the Polarion project ID.
func (p *Polarion) CreateTestCase(ctx context.Context, tc types.TestCase, project string) (RemoteCase, error) {
	if project == "" {
		return RemoteCase{}, fmt.Errorf("polarion project ID is required")
	}

	localID := tc.ID
	if localID == "" {
		localID = "TC-001"
	}
	priority := string(tc.Priority)
	if priority == "" {
		priority = "medium"
	}

	remote := RemoteCase{
		ID:              project + "-" + localID,
		Title:           tc.Title,
		Description:     tc.Description,
		Priority:        priority,
		Steps:           append([]string(nil), tc.Steps...),
		ExpectedResults: tc.ExpectedResults,
		Status:          "draft",
	}

	p.mu.Lock()
	p.cases[remote.ID] = remote
	p.mu.Unlock()
	return remote, nil
}

// UpdateTestCase applies updates to a staged test case.
func (p *Polarion) UpdateTestCase(ctx context.Context, id string, updates CaseUpdate) (RemoteCase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remote, ok := p.cases[id]
	if !ok {
		return RemoteCase{}, fmt.Errorf("polarion test case %s not found", id)
	}

	if updates.Title != "" {
		remote.Title = updates.Title
	}
	if updates.Description != "" {
		remote.Description = updates.Description
	}
	if updates.Priority != "" {
		remote.Priority = updates.Priority
	}
	if len(updates.Steps) > 0 {
		remote.Steps = append([]string(nil), updates.Steps...)
	}
	if updates.ExpectedResults != "" {
		remote.ExpectedResults = updates.ExpectedResults
	}
	remote.Status = "updated"

	p.cases[id] = remote
	return remote, nil
}

// GetTestCase returns a staged test case by ID.
func (p *Polarion) GetTestCase(ctx context.Context, id string) (RemoteCase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remote, ok := p.cases[id]
	if !ok {
		return RemoteCase{}, fmt.Errorf("polarion test case %s not found", id)
	}
	return remote, nil
}

// SearchTestCases filters staged cases by project prefix and a
// case-insensitive title/description match.
func (p *Polarion) SearchTestCases(ctx context.Context, query, project string) ([]RemoteCase, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	needle := strings.ToLower(query)
	var matches []RemoteCase
	for id, remote := range p.cases {
		if project != "" && !strings.HasPrefix(id, project+"-") {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(remote.Title), needle) &&
			!strings.Contains(strings.ToLower(remote.Description), needle) {
			continue
		}
		matches = append(matches, remote)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

// TestConnection always succeeds: the staging surface has no remote
// endpoint to probe.
func (p *Polarion) TestConnection(ctx context.Context) error { return nil }

// ExportXML renders test cases in the Polarion XML import format.
func (p *Polarion) ExportXML(cases []types.TestCase, project string) ([]byte, error) {
	doc := polarionExport{Project: polarionProject{ID: project}}
	for _, tc := range cases {
		entry := polarionCase{
			ID:          tc.ID,
			Title:       tc.Title,
			Description: tc.Description,
		}
		if len(tc.Steps) > 0 {
			entry.Steps = &polarionSteps{}
			for i, step := range tc.Steps {
				entry.Steps.Steps = append(entry.Steps.Steps, polarionStep{
					Number:      i + 1,
					Description: step,
				})
			}
		}
		doc.Project.Cases = append(doc.Project.Cases, entry)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling Polarion XML: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// ImportXML parses a Polarion XML document and stages its test cases,
// returning them in document order.
func (p *Polarion) ImportXML(r io.Reader) ([]RemoteCase, error) {
	var doc polarionExport
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing Polarion XML: %w", err)
	}

	cases := make([]RemoteCase, len(doc.Project.Cases))
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, entry := range doc.Project.Cases {
		remote := RemoteCase{
			ID:          entry.ID,
			Title:       entry.Title,
			Description: entry.Description,
			Status:      "imported",
		}
		if entry.Steps != nil {
			for _, step := range entry.Steps.Steps {
				remote.Steps = append(remote.Steps, step.Description)
			}
		}
		cases[i] = remote
		if remote.ID != "" {
			p.cases[remote.ID] = remote
		}
	}
	return cases, nil
}

// Polarion XML exchange structures.
type polarionExport struct {
	XMLName xml.Name        `xml:"testcases"`
	Project polarionProject `xml:"project"`
}

type polarionProject struct {
	ID    string         `xml:"id,attr"`
	Cases []polarionCase `xml:"testcase"`
}

type polarionCase struct {
	ID          string         `xml:"id"`
	Title       string         `xml:"title"`
	Description string         `xml:"description"`
	Steps       *polarionSteps `xml:"testSteps"`
}

type polarionSteps struct {
	Steps []polarionStep `xml:"testStep"`
}

type polarionStep struct {
	Number      int    `xml:"stepNumber"`
	Description string `xml:"description"`
}
