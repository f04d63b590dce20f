// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/healthcare-testgen/internal/httputil"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// Jira pushes test cases into Atlassian Jira as Test issues via the
// REST v2 API. With Username set it authenticates with basic auth
// (username + API token), otherwise the token is sent as a bearer.
type Jira struct {
	BaseURL  string
	Username string
	Token    string
	Client   *http.Client
}

// Name returns the tool identifier.
func (j *Jira) Name() string { return "jira" }

// CreateTestCase creates a Test issue in the given project key.
func (j *Jira) CreateTestCase(ctx context.Context, tc types.TestCase, project string) (RemoteCase, error) {
	if project == "" {
		return RemoteCase{}, fmt.Errorf("jira project key is required")
	}

	payload := jiraCreateRequest{Fields: j.buildFields(tc, project)}
	resp, err := j.send(ctx, http.MethodPost, j.base()+"/rest/api/2/issue", payload)
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("creating Jira issue: %w", httputil.ReadError(resp))
	}

	var created jiraIssue
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return RemoteCase{}, fmt.Errorf("parsing Jira response: %w", err)
	}

	// The create response carries only the new key, so the remote view
	// is rebuilt from the fields that were submitted.
	fields := payload.Fields
	steps := tc.Steps
	if len(steps) == 0 {
		steps = defaultSteps
	}
	return RemoteCase{
		ID:              created.Key,
		Title:           fields.Summary,
		Description:     fields.Description,
		Priority:        fields.Priority.Name,
		Steps:           steps,
		ExpectedResults: fields.ExpectedResults,
	}, nil
}

// UpdateTestCase applies updates to a Jira issue. Jira answers the PUT
// with no body, so the issue is fetched again to return its new state.
func (j *Jira) UpdateTestCase(ctx context.Context, id string, updates CaseUpdate) (RemoteCase, error) {
	fields := map[string]any{}
	if updates.Title != "" {
		fields["summary"] = updates.Title
	}
	if updates.Description != "" {
		fields["description"] = updates.Description
	}
	if updates.Priority != "" {
		fields["priority"] = jiraNameRef{Name: updates.Priority}
	}
	if len(updates.Steps) > 0 {
		fields["customfield_10000"] = formatJiraSteps(updates.Steps)
	}
	if updates.ExpectedResults != "" {
		fields["customfield_10001"] = updates.ExpectedResults
	}

	resp, err := j.send(ctx, http.MethodPut, j.base()+"/rest/api/2/issue/"+url.PathEscape(id), map[string]any{"fields": fields})
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("updating Jira issue %s: %w", id, httputil.ReadError(resp))
	}

	return j.GetTestCase(ctx, id)
}

// GetTestCase fetches a Jira issue by key.
func (j *Jira) GetTestCase(ctx context.Context, id string) (RemoteCase, error) {
	resp, err := j.send(ctx, http.MethodGet, j.base()+"/rest/api/2/issue/"+url.PathEscape(id), nil)
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("getting Jira issue %s: %w", id, httputil.ReadError(resp))
	}

	var issue jiraIssue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return RemoteCase{}, fmt.Errorf("parsing Jira response: %w", err)
	}
	return mapJiraIssue(issue), nil
}

// SearchTestCases runs a JQL search over Test issues.
func (j *Jira) SearchTestCases(ctx context.Context, query, project string) ([]RemoteCase, error) {
	jql := []string{"issuetype = Test"}
	if project != "" {
		jql = append(jql, "project = "+project)
	}
	if query != "" {
		jql = append(jql, fmt.Sprintf("text ~ %q", query))
	}

	params := url.Values{
		"jql":        {strings.Join(jql, " AND ")},
		"maxResults": {"100"},
		"fields":     {"summary,description,priority,status,customfield_10000"},
	}

	resp, err := j.send(ctx, http.MethodGet, j.base()+"/rest/api/2/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching Jira issues: %w", httputil.ReadError(resp))
	}

	var result jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing Jira response: %w", err)
	}

	cases := make([]RemoteCase, len(result.Issues))
	for i, issue := range result.Issues {
		cases[i] = mapJiraIssue(issue)
	}
	return cases, nil
}

// AddTestResults records an execution outcome as a comment on the
// issue and returns the refreshed test case.
func (j *Jira) AddTestResults(ctx context.Context, id string, result types.TestResult) (RemoteCase, error) {
	status := result.Status
	if status == "" {
		status = "Unknown"
	}
	executed := "N/A"
	if !result.ExecutionDate.IsZero() {
		executed = result.ExecutionDate.Format(time.RFC3339)
	}
	tester := result.Tester
	if tester == "" {
		tester = "Automated"
	}
	notes := result.Notes
	if notes == "" {
		notes = "No notes"
	}

	body := fmt.Sprintf("*Test Results:*\n- Status: %s\n- Execution Date: %s\n- Tester: %s\n- Notes: %s",
		status, executed, tester, notes)

	resp, err := j.send(ctx, http.MethodPost, j.base()+"/rest/api/2/issue/"+url.PathEscape(id)+"/comment", map[string]string{"body": body})
	if err != nil {
		return RemoteCase{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return RemoteCase{}, fmt.Errorf("adding test results to %s: %w", id, httputil.ReadError(resp))
	}

	return j.GetTestCase(ctx, id)
}

// TestConnection verifies the credentials against the myself endpoint.
func (j *Jira) TestConnection(ctx context.Context) error {
	resp, err := j.send(ctx, http.MethodGet, j.base()+"/rest/api/2/myself", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jira connection test: %w", httputil.ReadError(resp))
	}
	return nil
}

func (j *Jira) buildFields(tc types.TestCase, project string) jiraCreateFields {
	title := tc.Title
	if title == "" {
		title = "Untitled Test Case"
	}
	priority := string(tc.Priority)
	if priority == "" {
		priority = "Medium"
	}
	return jiraCreateFields{
		Project:         jiraKeyRef{Key: project},
		IssueType:       jiraNameRef{Name: "Test"},
		Summary:         title,
		Description:     jiraDescription(tc),
		Priority:        jiraNameRef{Name: priority},
		Steps:           formatJiraSteps(tc.Steps),
		ExpectedResults: tc.ExpectedResults,
		Labels:          []string{"ai-generated", "healthcare"},
	}
}

func (j *Jira) base() string { return strings.TrimSuffix(j.BaseURL, "/") }

func (j *Jira) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	req, err := httputil.NewJSONRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if j.Username != "" {
		req.SetBasicAuth(j.Username, j.Token)
	} else if j.Token != "" {
		req.Header.Set("Authorization", "Bearer "+j.Token)
	}

	client := j.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Jira API request: %w", err)
	}
	return resp, nil
}

// jiraDescription renders the description with compliance checks and
// test data appended in Jira wiki markup.
func jiraDescription(tc types.TestCase) string {
	var b strings.Builder
	b.WriteString(tc.Description)

	if len(tc.ComplianceChecks) > 0 {
		b.WriteString("\n\n*Compliance Checks:*")
		for _, line := range complianceLines(tc.ComplianceChecks) {
			b.WriteString("\n" + line)
		}
	}
	if len(tc.TestData) > 0 {
		b.WriteString("\n\n*Test Data:*")
		for _, line := range testDataLines(tc.TestData) {
			b.WriteString("\n" + line)
		}
	}
	return b.String()
}

// formatJiraSteps renders steps as a numbered list for the test steps
// custom field.
func formatJiraSteps(steps []string) string {
	if len(steps) == 0 {
		steps = defaultSteps
	}
	lines := make([]string, len(steps))
	for i, step := range steps {
		lines[i] = fmt.Sprintf("%d. %s", i+1, step)
	}
	return strings.Join(lines, "\n")
}

// parseJiraSteps reads a numbered step list back out of the custom
// field value.
func parseJiraSteps(field string) []string {
	if field == "" {
		return nil
	}
	var steps []string
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.ContainsAny(line, "0123456789") {
			continue
		}
		if i := strings.Index(line, "."); i >= 0 {
			line = strings.TrimSpace(line[i+1:])
		}
		steps = append(steps, line)
	}
	if len(steps) == 0 {
		return defaultSteps
	}
	return steps
}

func mapJiraIssue(issue jiraIssue) RemoteCase {
	priority := "Medium"
	if issue.Fields.Priority != nil && issue.Fields.Priority.Name != "" {
		priority = issue.Fields.Priority.Name
	}
	status := ""
	if issue.Fields.Status != nil {
		status = issue.Fields.Status.Name
	}
	return RemoteCase{
		ID:              issue.Key,
		Title:           issue.Fields.Summary,
		Description:     issue.Fields.Description,
		Priority:        priority,
		Steps:           parseJiraSteps(issue.Fields.Steps),
		ExpectedResults: issue.Fields.ExpectedResults,
		Status:          status,
		CreatedDate:     issue.Fields.Created,
		UpdatedDate:     issue.Fields.Updated,
	}
}

// Jira API JSON structures.
type jiraCreateRequest struct {
	Fields jiraCreateFields `json:"fields"`
}

type jiraCreateFields struct {
	Project         jiraKeyRef  `json:"project"`
	IssueType       jiraNameRef `json:"issuetype"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description"`
	Priority        jiraNameRef `json:"priority"`
	Steps           string      `json:"customfield_10000"`
	ExpectedResults string      `json:"customfield_10001"`
	Labels          []string    `json:"labels"`
}

type jiraKeyRef struct {
	Key string `json:"key"`
}

type jiraNameRef struct {
	Name string `json:"name"`
}

type jiraIssue struct {
	ID     string          `json:"id"`
	Key    string          `json:"key"`
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueFields struct {
	Summary         string       `json:"summary"`
	Description     string       `json:"description"`
	Priority        *jiraNameRef `json:"priority"`
	Status          *jiraNameRef `json:"status"`
	Steps           string       `json:"customfield_10000"`
	ExpectedResults string       `json:"customfield_10001"`
	Created         string       `json:"created"`
	Updated         string       `json:"updated"`
}

type jiraSearchResponse struct {
	Issues []jiraIssue `json:"issues"`
}
