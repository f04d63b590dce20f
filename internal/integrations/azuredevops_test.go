// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrations

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// azureItemJSON builds a work item response body.
func azureItemJSON(t *testing.T, id int, fields map[string]any) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"id": id, "fields": fields})
	if err != nil {
		t.Fatalf("marshaling work item fixture: %v", err)
	}
	return string(b)
}

func azureSampleFields() map[string]any {
	return map[string]any{
		"System.Title":                   "Verify clinician login",
		"System.Description":             "Checks authentication.",
		"Microsoft.VSTS.Common.Priority": 1,
		"Microsoft.VSTS.TCM.Steps":       formatAzureSteps([]string{"Open login page", "Enter credentials"}),
		"Microsoft.VSTS.TCM.Parameters":  "Dashboard is shown",
		"System.State":                   "Design",
		"System.CreatedDate":             "2026-01-14T09:30:00Z",
		"System.ChangedDate":             "2026-01-15T10:00:00Z",
	}
}

// --- Create ---

func TestAzureCreateTestCase(t *testing.T) {
	var capturedReq *http.Request
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		capturedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, azureItemJSON(t, 123, azureSampleFields()))
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Token: "pat123", Client: ts.Client()}
	remote, err := a.CreateTestCase(context.Background(), sampleCase(), "MedProj")
	if err != nil {
		t.Fatalf("CreateTestCase: %v", err)
	}

	if capturedReq.Method != http.MethodPost || capturedReq.URL.Path != "/MedProj/_apis/wit/workitems/$Test Case" {
		t.Errorf("request = %s %s", capturedReq.Method, capturedReq.URL.Path)
	}
	if got := capturedReq.URL.Query().Get("api-version"); got != "7.1" {
		t.Errorf("api-version = %q", got)
	}
	if got := capturedReq.Header.Get("Content-Type"); got != "application/json-patch+json" {
		t.Errorf("Content-Type = %q", got)
	}
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(":pat123"))
	if got := capturedReq.Header.Get("Authorization"); got != wantAuth {
		t.Errorf("Authorization = %q, want %q", got, wantAuth)
	}

	var ops []azurePatchOp
	if err := json.Unmarshal(capturedBody, &ops); err != nil {
		t.Fatalf("unmarshaling patch document: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("len(ops) = %d, want 4", len(ops))
	}
	byPath := make(map[string]azurePatchOp, len(ops))
	for _, op := range ops {
		if op.Op != "add" {
			t.Errorf("op = %q for %s, want add", op.Op, op.Path)
		}
		byPath[op.Path] = op
	}
	if got := byPath["/fields/System.Title"].Value; got != "Verify clinician login" {
		t.Errorf("title = %q", got)
	}
	desc := byPath["/fields/System.Description"].Value
	for _, want := range []string{"**Compliance Checks:**", "✅ FDA:", "❌ GDPR:"} {
		if !strings.Contains(desc, want) {
			t.Errorf("description missing %q:\n%s", want, desc)
		}
	}
	steps := byPath["/fields/Microsoft.VSTS.TCM.Steps"].Value
	if !strings.HasPrefix(steps, `<steps id="0" last="2">`) {
		t.Errorf("steps field = %q", steps)
	}
	params := byPath["/fields/Microsoft.VSTS.TCM.Parameters"].Value
	if params != "Test Data:\nattempts: 3\nusername: dr.smith" {
		t.Errorf("parameters field = %q", params)
	}

	if remote.ID != "123" || remote.Title != "Verify clinician login" {
		t.Errorf("remote = %+v", remote)
	}
}

func TestAzureCreateRequiresProject(t *testing.T) {
	a := &AzureDevOps{OrganizationURL: "http://example.com"}
	if _, err := a.CreateTestCase(context.Background(), sampleCase(), ""); err == nil {
		t.Fatal("expected error for missing project name")
	}
}

func TestAzureCreateNoTestData(t *testing.T) {
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, azureItemJSON(t, 124, map[string]any{"System.Title": "Untitled Test Case"}))
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	remote, err := a.CreateTestCase(context.Background(), types.TestCase{}, "MedProj")
	if err != nil {
		t.Fatalf("CreateTestCase: %v", err)
	}

	var ops []azurePatchOp
	if err := json.Unmarshal(capturedBody, &ops); err != nil {
		t.Fatalf("unmarshaling patch document: %v", err)
	}
	for _, op := range ops {
		if op.Path == "/fields/Microsoft.VSTS.TCM.Parameters" && op.Value != "No test data specified" {
			t.Errorf("parameters field = %q", op.Value)
		}
		if op.Path == "/fields/System.Title" && op.Value != "Untitled Test Case" {
			t.Errorf("title = %q", op.Value)
		}
	}

	// Missing priority falls back to the Azure DevOps default.
	if remote.Priority != "2" {
		t.Errorf("priority = %q, want 2", remote.Priority)
	}
}

// --- Get ---

func TestAzureGetTestCase(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_apis/wit/workitems/123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, azureItemJSON(t, 123, azureSampleFields()))
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Token: "pat", Client: ts.Client()}
	remote, err := a.GetTestCase(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetTestCase: %v", err)
	}

	if remote.ID != "123" || remote.Title != "Verify clinician login" {
		t.Errorf("remote = %+v", remote)
	}
	if remote.Priority != "1" {
		t.Errorf("priority = %q, want 1", remote.Priority)
	}
	if len(remote.Steps) != 2 || remote.Steps[0] != "Open login page" || remote.Steps[1] != "Enter credentials" {
		t.Errorf("steps = %v", remote.Steps)
	}
	if remote.ExpectedResults != "Dashboard is shown" || remote.Status != "Design" {
		t.Errorf("expected/status = %q/%q", remote.ExpectedResults, remote.Status)
	}
	if remote.CreatedDate != "2026-01-14T09:30:00Z" || remote.UpdatedDate != "2026-01-15T10:00:00Z" {
		t.Errorf("dates = %q/%q", remote.CreatedDate, remote.UpdatedDate)
	}
}

func TestAzureGetNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"work item does not exist"}`)
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	_, err := a.GetTestCase(context.Background(), "999")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("error = %v", err)
	}
}

// --- Update ---

func TestAzureUpdateTestCase(t *testing.T) {
	var capturedReq *http.Request
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		capturedBody, _ = io.ReadAll(r.Body)
		fields := azureSampleFields()
		fields["System.Title"] = "Verify clinician login v2"
		fmt.Fprint(w, azureItemJSON(t, 123, fields))
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	remote, err := a.UpdateTestCase(context.Background(), "123", CaseUpdate{
		Title: "Verify clinician login v2",
		Steps: []string{"Only step"},
	})
	if err != nil {
		t.Fatalf("UpdateTestCase: %v", err)
	}

	if capturedReq.Method != http.MethodPatch || capturedReq.URL.Path != "/_apis/wit/workitems/123" {
		t.Errorf("request = %s %s", capturedReq.Method, capturedReq.URL.Path)
	}

	var ops []azurePatchOp
	if err := json.Unmarshal(capturedBody, &ops); err != nil {
		t.Fatalf("unmarshaling patch document: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("len(ops) = %d, want 2: %+v", len(ops), ops)
	}
	if ops[0].Op != "replace" || ops[0].Path != "/fields/System.Title" {
		t.Errorf("ops[0] = %+v", ops[0])
	}
	if ops[1].Path != "/fields/Microsoft.VSTS.TCM.Steps" || !strings.Contains(ops[1].Value, "Only step") {
		t.Errorf("ops[1] = %+v", ops[1])
	}

	if remote.Title != "Verify clinician login v2" {
		t.Errorf("remote.Title = %q", remote.Title)
	}
}

// --- Search ---

func TestAzureSearchTestCases(t *testing.T) {
	var wiqlBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/_apis/wit/wiql":
			wiqlBody, _ = io.ReadAll(r.Body)
			fmt.Fprint(w, `{"workItems":[{"id":7},{"id":9}]}`)
		case r.URL.Path == "/_apis/wit/workitems/7":
			fmt.Fprint(w, azureItemJSON(t, 7, map[string]any{"System.Title": "Case seven"}))
		case r.URL.Path == "/_apis/wit/workitems/9":
			fmt.Fprint(w, azureItemJSON(t, 9, map[string]any{"System.Title": "Case nine"}))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	results, err := a.SearchTestCases(context.Background(), "login", "MedProj")
	if err != nil {
		t.Fatalf("SearchTestCases: %v", err)
	}

	var wiql struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(wiqlBody, &wiql); err != nil {
		t.Fatalf("unmarshaling WIQL body: %v", err)
	}
	for _, want := range []string{
		"[System.WorkItemType] = 'Test Case'",
		"[System.TeamProject] = 'MedProj'",
		"[System.Title] CONTAINS 'login'",
	} {
		if !strings.Contains(wiql.Query, want) {
			t.Errorf("wiql missing %q:\n%s", want, wiql.Query)
		}
	}

	if len(results) != 2 || results[0].ID != "7" || results[1].ID != "9" {
		t.Errorf("results = %+v", results)
	}
	if results[1].Title != "Case nine" {
		t.Errorf("results[1].Title = %q", results[1].Title)
	}
}

func TestAzureSearchEscapesQuotes(t *testing.T) {
	var wiqlBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wiqlBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"workItems":[]}`)
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	if _, err := a.SearchTestCases(context.Background(), "O'Brien", ""); err != nil {
		t.Fatalf("SearchTestCases: %v", err)
	}
	if !strings.Contains(string(wiqlBody), "CONTAINS 'O''Brien'") {
		t.Errorf("wiql body = %s", wiqlBody)
	}
}

// --- Test plans ---

func TestAzureCreateTestPlan(t *testing.T) {
	var capturedReq *http.Request
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		capturedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":55,"name":"Release 1 Plan"}`)
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	plan, err := a.CreateTestPlan(context.Background(), "Release 1 Plan", "MedProj", "Regression suite")
	if err != nil {
		t.Fatalf("CreateTestPlan: %v", err)
	}

	if capturedReq.URL.Path != "/MedProj/_apis/testplan/plans" {
		t.Errorf("path = %q", capturedReq.URL.Path)
	}
	var payload map[string]string
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshaling payload: %v", err)
	}
	if payload["name"] != "Release 1 Plan" || payload["description"] != "Regression suite" {
		t.Errorf("payload = %v", payload)
	}
	if payload["areaPath"] != `MedProj\Test` || payload["iteration"] != `MedProj\Iteration 1` {
		t.Errorf("paths = %q / %q", payload["areaPath"], payload["iteration"])
	}

	if plan.ID != 55 || plan.Name != "Release 1 Plan" {
		t.Errorf("plan = %+v", plan)
	}
}

func TestAzureAddTestCasesToPlan(t *testing.T) {
	var capturedReq *http.Request
	var capturedBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		capturedBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"count":2}`)
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Client: ts.Client()}
	if err := a.AddTestCasesToPlan(context.Background(), "55", []string{"7", "9"}, "MedProj"); err != nil {
		t.Fatalf("AddTestCasesToPlan: %v", err)
	}

	if capturedReq.URL.Path != "/MedProj/_apis/testplan/plans/55/suites/root/testcases" {
		t.Errorf("path = %q", capturedReq.URL.Path)
	}
	if got := strings.TrimSpace(string(capturedBody)); got != `[{"id":"7"},{"id":"9"}]` {
		t.Errorf("body = %s", got)
	}
}

// --- Connection ---

func TestAzureTestConnection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_apis/projects" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"count":1,"value":[{"name":"MedProj"}]}`)
	}))
	defer ts.Close()

	a := &AzureDevOps{OrganizationURL: ts.URL, Token: "pat", Client: ts.Client()}
	if err := a.TestConnection(context.Background()); err != nil {
		t.Errorf("TestConnection: %v", err)
	}
}

// --- Steps field round trip ---

func TestFormatAzureSteps(t *testing.T) {
	got := formatAzureSteps([]string{"Open page", "Check <input> field"})
	want := `<steps id="0" last="2">` +
		`<step id="1" type="ActionStep">` +
		`<parameterizedString isformatted="true">Open page</parameterizedString>` +
		`<parameterizedString isformatted="true">Expected result</parameterizedString>` +
		`<description/></step>` +
		`<step id="2" type="ActionStep">` +
		`<parameterizedString isformatted="true">Check &lt;input&gt; field</parameterizedString>` +
		`<parameterizedString isformatted="true">Expected result</parameterizedString>` +
		`<description/></step>` +
		`</steps>`
	if got != want {
		t.Errorf("formatAzureSteps:\ngot  %s\nwant %s", got, want)
	}
}

func TestParseAzureSteps(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		steps := []string{"Open login page", "Enter credentials", "Submit form"}
		got := parseAzureSteps(formatAzureSteps(steps))
		if len(got) != len(steps) {
			t.Fatalf("parseAzureSteps() = %v", got)
		}
		for i := range got {
			if got[i] != steps[i] {
				t.Errorf("steps[%d] = %q, want %q", i, got[i], steps[i])
			}
		}
	})

	t.Run("indented markup", func(t *testing.T) {
		stepsXML := `<steps id="0" last="1">
	<step id="1" type="ActionStep">
		<parameterizedString isformatted="true">
			Open the patient chart
		</parameterizedString>
		<parameterizedString isformatted="true">Chart is visible</parameterizedString>
	</step>
</steps>`
		got := parseAzureSteps(stepsXML)
		if len(got) != 1 || got[0] != "Open the patient chart" {
			t.Errorf("parseAzureSteps() = %v", got)
		}
	})

	t.Run("empty field", func(t *testing.T) {
		if got := parseAzureSteps(""); got != nil {
			t.Errorf("parseAzureSteps(\"\") = %v, want nil", got)
		}
	})

	t.Run("unparseable markup", func(t *testing.T) {
		got := parseAzureSteps("plain text, not steps markup")
		if len(got) != 2 || got[0] != "Execute test" {
			t.Errorf("parseAzureSteps() = %v, want default steps", got)
		}
	})
}

func TestAzureName(t *testing.T) {
	if got := (&AzureDevOps{}).Name(); got != "azuredevops" {
		t.Errorf("Name() = %q", got)
	}
}
