// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrations

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/healthcare-testgen/internal/httputil"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const azureAPIVersion = "7.1"

// AzureDevOps pushes test cases into Azure DevOps as Test Case work
// items. Authentication uses a Personal Access Token sent as basic
// auth with an empty username.
type AzureDevOps struct {
	OrganizationURL string
	Token           string
	Client          *http.Client
}

// Name returns the tool identifier.
func (a *AzureDevOps) Name() string { return "azuredevops" }

// CreateTestCase creates a Test Case work item in the given project
// using JSON Patch add operations.
func (a *AzureDevOps) CreateTestCase(ctx context.Context, tc types.TestCase, project string) (RemoteCase, error) {
	if project == "" {
		return RemoteCase{}, fmt.Errorf("azure devops project name is required")
	}

	title := tc.Title
	if title == "" {
		title = "Untitled Test Case"
	}
	ops := []azurePatchOp{
		{Op: "add", Path: "/fields/System.Title", Value: title},
		{Op: "add", Path: "/fields/System.Description", Value: azureDescription(tc)},
		{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.Steps", Value: formatAzureSteps(tc.Steps)},
		{Op: "add", Path: "/fields/Microsoft.VSTS.TCM.Parameters", Value: formatAzureTestData(tc.TestData)},
	}

	endpoint := fmt.Sprintf("%s/%s/_apis/wit/workitems/%s?api-version=%s",
		a.base(), url.PathEscape(project), url.PathEscape("$Test Case"), azureAPIVersion)
	resp, err := a.send(ctx, http.MethodPost, endpoint, ops, true)
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return RemoteCase{}, fmt.Errorf("creating Azure DevOps work item: %w", httputil.ReadError(resp))
	}

	var item azureWorkItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return RemoteCase{}, fmt.Errorf("parsing Azure DevOps response: %w", err)
	}
	return mapAzureWorkItem(item), nil
}

// UpdateTestCase applies updates to a work item via JSON Patch replace
// operations.
func (a *AzureDevOps) UpdateTestCase(ctx context.Context, id string, updates CaseUpdate) (RemoteCase, error) {
	var ops []azurePatchOp
	if updates.Title != "" {
		ops = append(ops, azurePatchOp{Op: "replace", Path: "/fields/System.Title", Value: updates.Title})
	}
	if updates.Description != "" {
		ops = append(ops, azurePatchOp{Op: "replace", Path: "/fields/System.Description", Value: updates.Description})
	}
	if len(updates.Steps) > 0 {
		ops = append(ops, azurePatchOp{Op: "replace", Path: "/fields/Microsoft.VSTS.TCM.Steps", Value: formatAzureSteps(updates.Steps)})
	}
	if updates.ExpectedResults != "" {
		ops = append(ops, azurePatchOp{Op: "replace", Path: "/fields/Microsoft.VSTS.TCM.Parameters", Value: updates.ExpectedResults})
	}

	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%s?api-version=%s", a.base(), url.PathEscape(id), azureAPIVersion)
	resp, err := a.send(ctx, http.MethodPatch, endpoint, ops, true)
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("updating Azure DevOps work item %s: %w", id, httputil.ReadError(resp))
	}

	var item azureWorkItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return RemoteCase{}, fmt.Errorf("parsing Azure DevOps response: %w", err)
	}
	return mapAzureWorkItem(item), nil
}

// GetTestCase fetches a work item by ID.
func (a *AzureDevOps) GetTestCase(ctx context.Context, id string) (RemoteCase, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems/%s?api-version=%s", a.base(), url.PathEscape(id), azureAPIVersion)
	resp, err := a.send(ctx, http.MethodGet, endpoint, nil, false)
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("getting Azure DevOps work item %s: %w", id, httputil.ReadError(resp))
	}

	var item azureWorkItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return RemoteCase{}, fmt.Errorf("parsing Azure DevOps response: %w", err)
	}
	return mapAzureWorkItem(item), nil
}

// SearchTestCases runs a WIQL query over Test Case work items and
// hydrates each hit.
func (a *AzureDevOps) SearchTestCases(ctx context.Context, query, project string) ([]RemoteCase, error) {
	wiql := "SELECT [System.Id], [System.Title], [System.Description] FROM WorkItems WHERE [System.WorkItemType] = 'Test Case'"
	if project != "" {
		wiql += fmt.Sprintf(" AND [System.TeamProject] = '%s'", escapeWIQL(project))
	}
	if query != "" {
		wiql += fmt.Sprintf(" AND [System.Title] CONTAINS '%s'", escapeWIQL(query))
	}

	endpoint := a.base() + "/_apis/wit/wiql?api-version=" + azureAPIVersion
	resp, err := a.send(ctx, http.MethodPost, endpoint, map[string]string{"query": wiql}, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching Azure DevOps work items: %w", httputil.ReadError(resp))
	}

	var result azureWiqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing Azure DevOps response: %w", err)
	}

	var cases []RemoteCase
	for _, ref := range result.WorkItems {
		tc, err := a.GetTestCase(ctx, strconv.Itoa(ref.ID))
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// TestConnection verifies the PAT against the projects endpoint.
func (a *AzureDevOps) TestConnection(ctx context.Context) error {
	resp, err := a.send(ctx, http.MethodGet, a.base()+"/_apis/projects?api-version="+azureAPIVersion, nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("azure devops connection test: %w", httputil.ReadError(resp))
	}
	return nil
}

// TestPlan is a created Azure DevOps test plan.
type TestPlan struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateTestPlan creates a test plan under the project's default area
// and iteration paths.
func (a *AzureDevOps) CreateTestPlan(ctx context.Context, name, project, description string) (TestPlan, error) {
	if project == "" {
		return TestPlan{}, fmt.Errorf("azure devops project name is required")
	}

	payload := map[string]string{
		"name":        name,
		"description": description,
		"areaPath":    project + `\Test`,
		"iteration":   project + `\Iteration 1`,
	}
	endpoint := fmt.Sprintf("%s/%s/_apis/testplan/plans?api-version=%s", a.base(), url.PathEscape(project), azureAPIVersion)
	resp, err := a.send(ctx, http.MethodPost, endpoint, payload, false)
	if err != nil {
		return TestPlan{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return TestPlan{}, fmt.Errorf("creating Azure DevOps test plan: %w", httputil.ReadError(resp))
	}

	var plan TestPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return TestPlan{}, fmt.Errorf("parsing Azure DevOps response: %w", err)
	}
	return plan, nil
}

// AddTestCasesToPlan attaches work items to the plan's root suite.
func (a *AzureDevOps) AddTestCasesToPlan(ctx context.Context, planID string, testCaseIDs []string, project string) error {
	refs := make([]map[string]string, len(testCaseIDs))
	for i, id := range testCaseIDs {
		refs[i] = map[string]string{"id": id}
	}

	endpoint := fmt.Sprintf("%s/%s/_apis/testplan/plans/%s/suites/root/testcases?api-version=%s",
		a.base(), url.PathEscape(project), url.PathEscape(planID), azureAPIVersion)
	resp, err := a.send(ctx, http.MethodPost, endpoint, refs, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("adding test cases to plan %s: %w", planID, httputil.ReadError(resp))
	}
	return nil
}

func (a *AzureDevOps) base() string { return strings.TrimSuffix(a.OrganizationURL, "/") }

func (a *AzureDevOps) send(ctx context.Context, method, endpoint string, body any, jsonPatch bool) (*http.Response, error) {
	req, err := httputil.NewJSONRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if jsonPatch {
		req.Header.Set("Content-Type", "application/json-patch+json")
	}
	if a.Token != "" {
		encoded := base64.StdEncoding.EncodeToString([]byte(":" + a.Token))
		req.Header.Set("Authorization", "Basic "+encoded)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Azure DevOps API request: %w", err)
	}
	return resp, nil
}

// azureDescription renders the description with compliance checks
// appended in markdown.
func azureDescription(tc types.TestCase) string {
	var b strings.Builder
	b.WriteString(tc.Description)

	if len(tc.ComplianceChecks) > 0 {
		b.WriteString("\n\n**Compliance Checks:**")
		for _, line := range complianceLines(tc.ComplianceChecks) {
			b.WriteString("\n" + line)
		}
	}
	return b.String()
}

// formatAzureSteps renders steps in the work item tracking XML format
// used by the Microsoft.VSTS.TCM.Steps field.
func formatAzureSteps(steps []string) string {
	if len(steps) == 0 {
		steps = defaultSteps
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<steps id="0" last="%d">`, len(steps))
	for i, step := range steps {
		fmt.Fprintf(&b, `<step id="%d" type="ActionStep">`, i+1)
		b.WriteString(`<parameterizedString isformatted="true">` + escapeXML(step) + `</parameterizedString>`)
		b.WriteString(`<parameterizedString isformatted="true">Expected result</parameterizedString>`)
		b.WriteString(`<description/>`)
		b.WriteString(`</step>`)
	}
	b.WriteString(`</steps>`)
	return b.String()
}

// parseAzureSteps extracts the action text of each step from the steps
// XML. The first parameterizedString inside a step is the action; the
// second is the expected result and is skipped.
func parseAzureSteps(stepsXML string) []string {
	if stepsXML == "" {
		return nil
	}

	dec := xml.NewDecoder(strings.NewReader(stepsXML))
	var steps []string
	var takeNext, inAction bool
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "step":
				takeNext = true
			case "parameterizedString":
				if takeNext {
					inAction = true
					text.Reset()
				}
			}
		case xml.CharData:
			if inAction {
				text.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "parameterizedString" && inAction {
				inAction = false
				takeNext = false
				if s := strings.TrimSpace(text.String()); s != "" {
					steps = append(steps, s)
				}
			}
		}
	}

	if len(steps) == 0 {
		return defaultSteps
	}
	return steps
}

func formatAzureTestData(data map[string]any) string {
	if len(data) == 0 {
		return "No test data specified"
	}
	return "Test Data:\n" + strings.Join(testDataLines(data), "\n")
}

func escapeXML(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func mapAzureWorkItem(item azureWorkItem) RemoteCase {
	priority := item.Fields.Priority.String()
	if priority == "" {
		priority = "2"
	}
	return RemoteCase{
		ID:              strconv.Itoa(item.ID),
		Title:           item.Fields.Title,
		Description:     item.Fields.Description,
		Priority:        priority,
		Steps:           parseAzureSteps(item.Fields.Steps),
		ExpectedResults: item.Fields.Parameters,
		Status:          item.Fields.State,
		CreatedDate:     item.Fields.CreatedDate,
		UpdatedDate:     item.Fields.ChangedDate,
	}
}

// Azure DevOps API JSON structures.
type azurePatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

type azureWorkItem struct {
	ID     int         `json:"id"`
	Fields azureFields `json:"fields"`
}

type azureFields struct {
	Title       string      `json:"System.Title"`
	Description string      `json:"System.Description"`
	Priority    json.Number `json:"Microsoft.VSTS.Common.Priority"`
	Steps       string      `json:"Microsoft.VSTS.TCM.Steps"`
	Parameters  string      `json:"Microsoft.VSTS.TCM.Parameters"`
	State       string      `json:"System.State"`
	CreatedDate string      `json:"System.CreatedDate"`
	ChangedDate string      `json:"System.ChangedDate"`
}

type azureWiqlResponse struct {
	WorkItems []azureWorkItemRef `json:"workItems"`
}

type azureWorkItemRef struct {
	ID int `json:"id"`
}
