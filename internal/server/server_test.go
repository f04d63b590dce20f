// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/healthcare-testgen/internal/compliance"
	"github.com/pdiddy/healthcare-testgen/internal/export"
	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/internal/generator"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const requirementsText = "The system shall authenticate users with valid credentials. " +
	"The system must encrypt patient records at rest."

// newTestServer builds a Server on a temp store with a template-only
// generator (no AI backend).
func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(types.DatabaseConfig{Path: filepath.Join(dir, "testgen.db")})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := types.Config{
		FileProcessing: types.FileProcessingConfig{MaxFileSizeMB: 10},
		Compliance:     types.ComplianceConfig{EnabledStandards: []string{"FDA", "ISO 13485"}},
		Export: types.ExportConfig{
			DefaultFormat:     "json",
			OutputDir:         filepath.Join(dir, "exports"),
			IncludeTimestamps: true,
			BackupExports:     true,
		},
	}

	srv := New(Deps{
		Store:     st,
		Files:     fileproc.New(cfg.FileProcessing, nil),
		Generator: generator.New(nil, types.AIConfig{}, nil),
		Checker:   compliance.New(nil, types.AIConfig{}, nil),
		Exporter:  export.New(st, cfg.Export, nil),
		Config:    cfg,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// generateCases seeds the store through the API and returns the new IDs.
func generateCases(t *testing.T, baseURL string, project string) []string {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/generate", map[string]any{
		"requirements_text": requirementsText,
		"test_type":         "functional",
		"project":           project,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var out struct {
		TestCases []types.TestCase `json:"test_cases"`
	}
	decodeBody(t, resp, &out)
	if len(out.TestCases) == 0 {
		t.Fatal("no test cases generated")
	}
	ids := make([]string, len(out.TestCases))
	for i, tc := range out.TestCases {
		ids[i] = tc.ID
	}
	return ids
}

// --- Health and stats ---

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestStats(t *testing.T) {
	ts, _ := newTestServer(t)
	generateCases(t, ts.URL, "ehr")

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	var stats struct {
		TestCases int `json:"test_cases"`
	}
	decodeBody(t, resp, &stats)
	if stats.TestCases == 0 {
		t.Errorf("stats.TestCases = 0, want > 0")
	}
}

// --- Requirement upload ---

func uploadFile(t *testing.T, url, filename, content, project string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fmt.Fprint(fw, content)
	if project != "" {
		mw.WriteField("project", project)
	}
	mw.Close()

	resp, err := http.Post(url+"/api/requirements/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	return resp
}

func TestUploadRequirement(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := uploadFile(t, ts.URL, "login-reqs.txt", requirementsText, "ehr")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	var out struct {
		Requirement    types.Requirement `json:"requirement"`
		ContentPreview string            `json:"content_preview"`
		Characters     int               `json:"characters"`
	}
	decodeBody(t, resp, &out)

	if !strings.HasPrefix(out.Requirement.ID, "REQ-") {
		t.Errorf("requirement ID = %q", out.Requirement.ID)
	}
	if out.Requirement.Title != "login-reqs.txt" || out.Requirement.FileFormat != ".txt" {
		t.Errorf("requirement = %+v", out.Requirement)
	}
	if out.Requirement.ProjectName != "ehr" {
		t.Errorf("project = %q", out.Requirement.ProjectName)
	}
	if !strings.HasPrefix(out.ContentPreview, "The system shall") || out.Characters != len(requirementsText) {
		t.Errorf("preview/characters = %q/%d", out.ContentPreview, out.Characters)
	}
	// The response omits full content; the stored row keeps it.
	if out.Requirement.Content != "" {
		t.Errorf("response carries full content")
	}

	listResp, err := http.Get(ts.URL + "/api/requirements?project=ehr")
	if err != nil {
		t.Fatalf("GET /api/requirements: %v", err)
	}
	var list struct {
		Requirements []types.Requirement `json:"requirements"`
		Count        int                 `json:"count"`
	}
	decodeBody(t, listResp, &list)
	if list.Count != 1 || list.Requirements[0].ID != out.Requirement.ID {
		t.Errorf("list = %+v", list)
	}
	if list.Requirements[0].Content != requirementsText {
		t.Errorf("stored content = %q", list.Requirements[0].Content)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := uploadFile(t, ts.URL, "malware.exe", "MZ...", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("upload status = %d, want 400", resp.StatusCode)
	}
	var out struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &out)
	if !strings.Contains(out.Error, "unsupported file format") {
		t.Errorf("error = %q", out.Error)
	}
}

// --- Generation ---

func TestGenerateFromText(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/generate", map[string]any{
		"requirements_text": requirementsText,
		"test_type":         "security",
		"project":           "ehr",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}

	var out struct {
		TestCases []types.TestCase `json:"test_cases"`
		Source    string           `json:"source"`
		Saved     int              `json:"saved"`
	}
	decodeBody(t, resp, &out)

	if len(out.TestCases) == 0 || out.Saved != len(out.TestCases) {
		t.Fatalf("cases/saved = %d/%d", len(out.TestCases), out.Saved)
	}
	if out.Source != generator.SourceTemplate {
		t.Errorf("source = %q, want %q", out.Source, generator.SourceTemplate)
	}
	for _, tc := range out.TestCases {
		if !strings.HasPrefix(tc.ID, "SEC-") {
			t.Errorf("security case ID = %q", tc.ID)
		}
		if tc.ProjectName != "ehr" {
			t.Errorf("case project = %q", tc.ProjectName)
		}
	}
}

func TestGenerateFromStoredRequirement(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := uploadFile(t, ts.URL, "uplink.txt", requirementsText, "ehr")
	var uploaded struct {
		Requirement types.Requirement `json:"requirement"`
	}
	decodeBody(t, resp, &uploaded)

	genResp := postJSON(t, ts.URL+"/api/generate", map[string]any{
		"requirement_ids": []string{uploaded.Requirement.ID},
		"project":         "ehr",
	})
	if genResp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", genResp.StatusCode)
	}
	var out struct {
		TestCases []types.TestCase `json:"test_cases"`
	}
	decodeBody(t, genResp, &out)
	if len(out.TestCases) == 0 {
		t.Fatal("no test cases generated")
	}
	if out.TestCases[0].SourceFile != "uplink.txt" {
		t.Errorf("source file = %q", out.TestCases[0].SourceFile)
	}
}

func TestGenerateMissingRequirement(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/generate", map[string]any{
		"requirement_ids": []string{"REQ-does-not-exist"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGenerateWithoutInput(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/generate", map[string]any{"test_type": "functional"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Test case listing and retrieval ---

func TestTestCaseLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)
	ids := generateCases(t, ts.URL, "ehr")

	listResp, err := http.Get(ts.URL + "/api/testcases?project=ehr")
	if err != nil {
		t.Fatalf("GET /api/testcases: %v", err)
	}
	var list struct {
		TestCases []types.TestCase `json:"test_cases"`
		Count     int              `json:"count"`
	}
	decodeBody(t, listResp, &list)
	if list.Count != len(ids) {
		t.Errorf("count = %d, want %d", list.Count, len(ids))
	}

	getResp, err := http.Get(ts.URL + "/api/testcases/" + ids[0])
	if err != nil {
		t.Fatalf("GET test case: %v", err)
	}
	var tc types.TestCase
	decodeBody(t, getResp, &tc)
	if tc.ID != ids[0] {
		t.Errorf("tc.ID = %q, want %q", tc.ID, ids[0])
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/testcases/"+ids[0], nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE test case: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", delResp.StatusCode)
	}

	// Both fetching and re-deleting the removed case are 404s.
	gone, err := http.Get(ts.URL + "/api/testcases/" + ids[0])
	if err != nil {
		t.Fatalf("GET deleted case: %v", err)
	}
	gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("get-after-delete status = %d, want 404", gone.StatusCode)
	}
	again, err := http.DefaultClient.Do(req.Clone(context.Background()))
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", again.StatusCode)
	}
}

// --- Compliance ---

func TestComplianceCheckEndpoint(t *testing.T) {
	ts, st := newTestServer(t)
	ids := generateCases(t, ts.URL, "ehr")

	resp := postJSON(t, ts.URL+"/api/compliance/check", map[string]any{
		"project":   "ehr",
		"standards": []string{"FDA"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check status = %d", resp.StatusCode)
	}

	var report types.ComplianceReport
	decodeBody(t, resp, &report)
	if len(report.Standards["FDA"]) != 4 {
		t.Errorf("FDA results = %d, want 4", len(report.Standards["FDA"]))
	}
	if report.TotalChecks != 4 || report.TestCasesCount != len(ids) {
		t.Errorf("report = %+v", report)
	}

	// Per-case results were persisted.
	results, err := st.ComplianceResults(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("ComplianceResults: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("persisted results = %d, want 4", len(results))
	}
}

func TestComplianceCheckNoCases(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/compliance/check", map[string]any{
		"standards": []string{"FDA"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStandardsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/compliance/standards")
	if err != nil {
		t.Fatalf("GET standards: %v", err)
	}
	var out struct {
		Standards []string `json:"standards"`
	}
	decodeBody(t, resp, &out)
	if len(out.Standards) != 6 {
		t.Fatalf("standards = %v", out.Standards)
	}
	found := make(map[string]bool)
	for _, s := range out.Standards {
		found[s] = true
	}
	if !found["FDA"] || !found["GDPR"] || !found["IEC 62304"] {
		t.Errorf("standards = %v", out.Standards)
	}
}

// --- Export ---

func TestExportEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	generateCases(t, ts.URL, "ehr")

	resp := postJSON(t, ts.URL+"/api/export", map[string]any{
		"format":  "yaml",
		"project": "ehr",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	var rec types.ExportRecord
	decodeBody(t, resp, &rec)
	if !strings.HasPrefix(rec.ExportID, "EXP-") || rec.TestCasesCount == 0 {
		t.Errorf("record = %+v", rec)
	}
	if !strings.HasSuffix(rec.FilePath, ".yaml") {
		t.Errorf("file path = %q", rec.FilePath)
	}

	histResp, err := http.Get(ts.URL + "/api/exports")
	if err != nil {
		t.Fatalf("GET /api/exports: %v", err)
	}
	var hist struct {
		Exports []types.ExportRecord `json:"exports"`
		Count   int                  `json:"count"`
	}
	decodeBody(t, histResp, &hist)
	if hist.Count != 1 || hist.Exports[0].ExportID != rec.ExportID {
		t.Errorf("history = %+v", hist)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	ts, _ := newTestServer(t)
	generateCases(t, ts.URL, "ehr")

	resp := postJSON(t, ts.URL+"/api/export", map[string]any{"format": "xlsx"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

// --- Integrations ---

func TestPushToPolarion(t *testing.T) {
	ts, _ := newTestServer(t)
	ids := generateCases(t, ts.URL, "ehr")

	resp := postJSON(t, ts.URL+"/api/integrations/polarion/push", map[string]any{
		"test_case_ids":  ids,
		"target_project": "MED",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("push status = %d", resp.StatusCode)
	}
	var out struct {
		Outcomes []struct {
			TestCaseID string `json:"test_case_id"`
			RemoteID   string `json:"remote_id"`
		} `json:"outcomes"`
		Pushed int `json:"pushed"`
		Failed int `json:"failed"`
	}
	decodeBody(t, resp, &out)
	if out.Pushed != len(ids) || out.Failed != 0 {
		t.Errorf("pushed/failed = %d/%d", out.Pushed, out.Failed)
	}
	for _, o := range out.Outcomes {
		if !strings.HasPrefix(o.RemoteID, "MED-") {
			t.Errorf("remote ID = %q", o.RemoteID)
		}
	}

	logsResp, err := http.Get(ts.URL + "/api/integrations/logs?type=polarion")
	if err != nil {
		t.Fatalf("GET logs: %v", err)
	}
	var logs struct {
		Logs  []types.IntegrationLog `json:"logs"`
		Count int                    `json:"count"`
	}
	decodeBody(t, logsResp, &logs)
	if logs.Count != len(ids) {
		t.Errorf("log count = %d, want %d", logs.Count, len(ids))
	}
	for _, entry := range logs.Logs {
		if entry.Type != "polarion" || entry.Status != "success" {
			t.Errorf("log entry = %+v", entry)
		}
	}
}

func TestPushUnknownTool(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/integrations/testrail/push", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPushUnconfiguredJira(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/integrations/jira/push", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &out)
	if !strings.Contains(out.Error, "jira base URL") {
		t.Errorf("error = %q", out.Error)
	}
}

// --- Projects ---

func TestProjectsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/projects", map[string]any{
		"name":                 "ehr",
		"description":          "Electronic health records",
		"compliance_standards": []string{"FDA", "GDPR"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created types.Project
	decodeBody(t, resp, &created)
	if created.Name != "ehr" || len(created.ComplianceStandards) != 2 {
		t.Errorf("created = %+v", created)
	}

	listResp, err := http.Get(ts.URL + "/api/projects")
	if err != nil {
		t.Fatalf("GET /api/projects: %v", err)
	}
	var list struct {
		Projects []types.Project `json:"projects"`
		Count    int             `json:"count"`
	}
	decodeBody(t, listResp, &list)
	if list.Count != 1 || list.Projects[0].Name != "ehr" {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateProjectRequiresName(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/projects", map[string]any{"description": "unnamed"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}
