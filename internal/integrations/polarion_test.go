// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrations

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// --- Staged lifecycle ---

func TestPolarionLifecycle(t *testing.T) {
	ctx := context.Background()
	p := NewPolarion()

	created, err := p.CreateTestCase(ctx, sampleCase(), "MED")
	if err != nil {
		t.Fatalf("CreateTestCase: %v", err)
	}
	if created.ID != "MED-TC-0001" {
		t.Errorf("created.ID = %q, want MED-TC-0001", created.ID)
	}
	if created.Status != "draft" || created.Priority != "High" {
		t.Errorf("status/priority = %q/%q", created.Status, created.Priority)
	}

	got, err := p.GetTestCase(ctx, "MED-TC-0001")
	if err != nil {
		t.Fatalf("GetTestCase: %v", err)
	}
	if got.Title != "Verify clinician login" || len(got.Steps) != 2 {
		t.Errorf("got = %+v", got)
	}

	updated, err := p.UpdateTestCase(ctx, "MED-TC-0001", CaseUpdate{
		Title: "Verify clinician login v2",
		Steps: []string{"Single step"},
	})
	if err != nil {
		t.Fatalf("UpdateTestCase: %v", err)
	}
	if updated.Title != "Verify clinician login v2" || updated.Status != "updated" {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.Steps) != 1 || updated.Steps[0] != "Single step" {
		t.Errorf("updated.Steps = %v", updated.Steps)
	}
	// Untouched fields survive the partial update.
	if updated.Description != "Checks authentication with valid credentials." {
		t.Errorf("updated.Description = %q", updated.Description)
	}
}

func TestPolarionCreateDefaults(t *testing.T) {
	p := NewPolarion()
	created, err := p.CreateTestCase(context.Background(), types.TestCase{}, "MED")
	if err != nil {
		t.Fatalf("CreateTestCase: %v", err)
	}
	if created.ID != "MED-TC-001" {
		t.Errorf("created.ID = %q, want MED-TC-001", created.ID)
	}
	if created.Priority != "medium" {
		t.Errorf("created.Priority = %q, want medium", created.Priority)
	}
}

func TestPolarionCreateRequiresProject(t *testing.T) {
	p := NewPolarion()
	if _, err := p.CreateTestCase(context.Background(), sampleCase(), ""); err == nil {
		t.Fatal("expected error for missing project ID")
	}
}

func TestPolarionNotFound(t *testing.T) {
	p := NewPolarion()
	if _, err := p.GetTestCase(context.Background(), "MED-TC-0009"); err == nil {
		t.Fatal("expected not found error from GetTestCase")
	}
	if _, err := p.UpdateTestCase(context.Background(), "MED-TC-0009", CaseUpdate{Title: "x"}); err == nil {
		t.Fatal("expected not found error from UpdateTestCase")
	}
}

// --- Search ---

func TestPolarionSearchTestCases(t *testing.T) {
	ctx := context.Background()
	p := NewPolarion()
	seed := []struct {
		tc      types.TestCase
		project string
	}{
		{types.TestCase{ID: "TC-0002", Title: "Session timeout", Description: "Expires idle logins."}, "MED"},
		{types.TestCase{ID: "TC-0001", Title: "Clinician login", Description: "Valid credentials."}, "MED"},
		{types.TestCase{ID: "TC-0001", Title: "Login audit", Description: "Other project."}, "LAB"},
	}
	for _, s := range seed {
		if _, err := p.CreateTestCase(ctx, s.tc, s.project); err != nil {
			t.Fatalf("CreateTestCase: %v", err)
		}
	}

	tests := []struct {
		name    string
		query   string
		project string
		wantIDs []string
	}{
		{"project filter", "", "MED", []string{"MED-TC-0001", "MED-TC-0002"}},
		{"query matches title", "login", "MED", []string{"MED-TC-0001"}},
		{"query matches description", "idle", "MED", []string{"MED-TC-0002"}},
		{"case insensitive", "LOGIN", "MED", []string{"MED-TC-0001"}},
		{"all projects", "login", "", []string{"LAB-TC-0001", "MED-TC-0001"}},
		{"no match", "does-not-exist", "MED", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.SearchTestCases(ctx, tt.query, tt.project)
			if err != nil {
				t.Fatalf("SearchTestCases: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d results, want %d: %+v", len(got), len(tt.wantIDs), got)
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("results[%d].ID = %q, want %q", i, got[i].ID, want)
				}
			}
		})
	}
}

// --- XML exchange ---

func TestPolarionExportXML(t *testing.T) {
	p := NewPolarion()
	cases := []types.TestCase{
		{
			ID:          "TC-0001",
			Title:       "Check <critical> alarms",
			Description: "Alarm limits are enforced.",
			Steps:       []string{"Set threshold", "Trigger alarm"},
		},
		{ID: "TC-0002", Title: "Stepless case"},
	}

	data, err := p.ExportXML(cases, "MED")
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing XML declaration:\n%s", out[:60])
	}
	for _, want := range []string{
		`<project id="MED">`,
		"<id>TC-0001</id>",
		"<title>Check &lt;critical&gt; alarms</title>",
		"<stepNumber>1</stepNumber>",
		"<description>Set threshold</description>",
		"<stepNumber>2</stepNumber>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}

	// The stepless case carries no testSteps element at all.
	second := out[strings.Index(out, "TC-0002"):]
	if strings.Contains(second, "<testSteps>") {
		t.Errorf("stepless case has a testSteps element:\n%s", second)
	}
}

func TestPolarionImportXML(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<testcases>
  <project id="MED">
    <testcase>
      <id>MED-TC-0007</id>
      <title>Audit trail review</title>
      <description>Verify audit entries.</description>
      <testSteps>
        <testStep>
          <stepNumber>1</stepNumber>
          <description>Open audit log</description>
        </testStep>
        <testStep>
          <stepNumber>2</stepNumber>
          <description>Filter by user</description>
        </testStep>
      </testSteps>
    </testcase>
    <testcase>
      <id>MED-TC-0008</id>
      <title>Backup restore</title>
      <description></description>
    </testcase>
  </project>
</testcases>`

	p := NewPolarion()
	imported, err := p.ImportXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}

	if len(imported) != 2 {
		t.Fatalf("len(imported) = %d, want 2", len(imported))
	}
	first := imported[0]
	if first.ID != "MED-TC-0007" || first.Title != "Audit trail review" || first.Status != "imported" {
		t.Errorf("imported[0] = %+v", first)
	}
	if len(first.Steps) != 2 || first.Steps[1] != "Filter by user" {
		t.Errorf("imported[0].Steps = %v", first.Steps)
	}
	if imported[1].ID != "MED-TC-0008" || imported[1].Steps != nil {
		t.Errorf("imported[1] = %+v", imported[1])
	}

	// Imported cases are staged and retrievable.
	got, err := p.GetTestCase(context.Background(), "MED-TC-0007")
	if err != nil {
		t.Fatalf("GetTestCase after import: %v", err)
	}
	if got.Title != "Audit trail review" {
		t.Errorf("staged title = %q", got.Title)
	}
}

func TestPolarionExportImportRoundTrip(t *testing.T) {
	p := NewPolarion()
	cases := []types.TestCase{
		{ID: "TC-0001", Title: "Round trip", Description: "Survives export and import.", Steps: []string{"One", "Two"}},
	}

	data, err := p.ExportXML(cases, "MED")
	if err != nil {
		t.Fatalf("ExportXML: %v", err)
	}
	imported, err := p.ImportXML(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ImportXML: %v", err)
	}

	if len(imported) != 1 {
		t.Fatalf("len(imported) = %d, want 1", len(imported))
	}
	got := imported[0]
	if got.ID != "TC-0001" || got.Title != "Round trip" || got.Description != "Survives export and import." {
		t.Errorf("imported = %+v", got)
	}
	if len(got.Steps) != 2 || got.Steps[0] != "One" || got.Steps[1] != "Two" {
		t.Errorf("imported.Steps = %v", got.Steps)
	}
}

func TestPolarionTestConnection(t *testing.T) {
	if err := NewPolarion().TestConnection(context.Background()); err != nil {
		t.Errorf("TestConnection: %v", err)
	}
}

func TestPolarionName(t *testing.T) {
	if got := NewPolarion().Name(); got != "polarion" {
		t.Errorf("Name() = %q", got)
	}
}
