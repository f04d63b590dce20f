// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/compliance"
	"github.com/pdiddy/healthcare-testgen/internal/fileproc"
	"github.com/pdiddy/healthcare-testgen/internal/generator"
	"github.com/pdiddy/healthcare-testgen/internal/integrations"
	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const previewLength = 500

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleUpload accepts a multipart requirements document, extracts its
// text, and saves it as a requirement.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.FileProcessing.MaxFileSizeMB) << 20
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	// Extra megabyte covers the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("storing upload: %v", err))
		return
	}
	tmp.Close()

	content, err := s.files.Process(tmp.Name())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fileproc.ErrUnsupportedFormat) || errors.Is(err, fileproc.ErrFileTooLarge) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	req := types.Requirement{
		ID:            types.UniqueID("REQ"),
		Title:         header.Filename,
		Description:   r.FormValue("description"),
		Content:       content,
		SourceFile:    header.Filename,
		FileFormat:    ext,
		ExtractedDate: time.Now(),
		ProjectName:   r.FormValue("project"),
	}
	if err := s.store.SaveRequirement(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preview := content
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	resp := req
	resp.Content = ""
	writeJSON(w, http.StatusCreated, map[string]any{
		"requirement":     resp,
		"content_preview": preview,
		"characters":      len(content),
	})
}

func (s *Server) handleRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.store.Requirements(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requirements": reqs, "count": len(reqs)})
}

// handleGenerate runs the generation pipeline over stored requirements
// or raw text and saves the produced cases.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequirementIDs    []string `json:"requirement_ids"`
		RequirementsText  string   `json:"requirements_text"`
		TestType          string   `json:"test_type"`
		CustomPrompt      string   `json:"custom_prompt"`
		IncludeCompliance bool     `json:"include_compliance"`
		Project           string   `json:"project"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text := req.RequirementsText
	sourceFile := ""
	if len(req.RequirementIDs) > 0 {
		var parts []string
		for _, id := range req.RequirementIDs {
			stored, err := s.store.Requirement(r.Context(), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusNotFound, err.Error())
				} else {
					writeError(w, http.StatusInternalServerError, err.Error())
				}
				return
			}
			parts = append(parts, stored.Content)
			if sourceFile == "" {
				sourceFile = stored.SourceFile
			}
		}
		text = strings.Join(parts, "\n\n")
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "requirement_ids or requirements_text is required")
		return
	}

	result, err := s.generator.Generate(r.Context(), generator.Request{
		Requirements:      text,
		TestType:          req.TestType,
		CustomPrompt:      req.CustomPrompt,
		IncludeCompliance: req.IncludeCompliance,
		SourceFile:        sourceFile,
		Project:           req.Project,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.SaveTestCases(r.Context(), result.TestCases)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"test_cases": result.TestCases,
		"source":     result.Source,
		"saved":      saved,
	})
}

func (s *Server) handleTestCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	cases, err := s.store.TestCases(r.Context(), store.ListOptions{
		Query:   q.Get("q"),
		Project: q.Get("project"),
		Status:  q.Get("status"),
		Limit:   limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"test_cases": cases, "count": len(cases)})
}

func (s *Server) handleGetTestCase(w http.ResponseWriter, r *http.Request) {
	tc, err := s.store.TestCase(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

func (s *Server) handleDeleteTestCase(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTestCase(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleComplianceCheck runs a compliance check over the selected cases
// and persists per-case results.
func (s *Server) handleComplianceCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TestCaseIDs []string `json:"test_case_ids"`
		Project     string   `json:"project"`
		Standards   []string `json:"standards"`
		UseAI       bool     `json:"use_ai"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	standards := req.Standards
	if len(standards) == 0 {
		standards = s.cfg.Compliance.EnabledStandards
	}

	cases, ok := s.loadCases(w, r, req.TestCaseIDs, req.Project)
	if !ok {
		return
	}
	if len(cases) == 0 {
		writeError(w, http.StatusBadRequest, "no test cases to check")
		return
	}

	var report *types.ComplianceReport
	var err error
	if req.UseAI {
		report, err = s.checker.CheckWithAI(r.Context(), cases, standards)
	} else {
		report, err = s.checker.Check(cases, standards)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Persist each case's own coverage, re-checked individually so the
	// stored rows reflect that case rather than the batch.
	for _, tc := range cases {
		perCase, err := s.checker.Check([]types.TestCase{tc}, standards)
		if err != nil {
			continue
		}
		if err := s.store.SaveComplianceResults(r.Context(), tc.ID, perCase); err != nil {
			s.logger.Warn("saving compliance results failed",
				zap.String("test_case", tc.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStandards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"standards": compliance.Standards()})
}

// handleExport writes an export file for the selected cases and returns
// the history record.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format      string   `json:"format"`
		Project     string   `json:"project"`
		TestCaseIDs []string `json:"test_case_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch strings.ToLower(req.Format) {
	case "", "json", "xml", "csv", "yaml":
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported export format: %q (supported: json, xml, csv, yaml)", req.Format))
		return
	}

	cases, ok := s.loadCases(w, r, req.TestCaseIDs, req.Project)
	if !ok {
		return
	}
	if len(cases) == 0 {
		writeError(w, http.StatusBadRequest, "no test cases to export")
		return
	}

	rec, err := s.exporter.Export(r.Context(), types.ExportFormat(req.Format), cases, req.Project)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Exports(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": records, "count": len(records)})
}

// handlePush batch-imports the selected cases into an external tool.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")
	var req struct {
		TestCaseIDs   []string `json:"test_case_ids"`
		Project       string   `json:"project"`
		TargetProject string   `json:"target_project"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := integrations.NewClient(tool, s.cfg.Integrations)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target := req.TargetProject
	if target == "" {
		target = s.defaultTarget(tool)
	}

	cases, ok := s.loadCases(w, r, req.TestCaseIDs, req.Project)
	if !ok {
		return
	}
	if len(cases) == 0 {
		writeError(w, http.StatusBadRequest, "no test cases to push")
		return
	}

	hub := integrations.NewHub(s.store, s.logger)
	outcomes := hub.BatchImport(r.Context(), client, cases, target)

	pushed, failed := 0, 0
	for _, out := range outcomes {
		if out.Error == "" {
			pushed++
		} else {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcomes": outcomes,
		"pushed":   pushed,
		"failed":   failed,
	})
}

// defaultTarget resolves the configured tool-side project.
func (s *Server) defaultTarget(tool string) string {
	switch tool {
	case "jira":
		return s.cfg.Integrations.Jira.ProjectKey
	case "azuredevops", "azure_devops":
		return s.cfg.Integrations.AzureDevOps.ProjectName
	case "polarion":
		return s.cfg.Integrations.Polarion.ProjectID
	}
	return ""
}

func (s *Server) handleIntegrationLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	logs, err := s.store.IntegrationLogs(r.Context(), q.Get("type"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "count": len(logs)})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string   `json:"name"`
		Description         string   `json:"description"`
		ComplianceStandards []string `json:"compliance_standards"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "project name is required")
		return
	}

	project := types.Project{
		Name:                req.Name,
		Description:         req.Description,
		CreatedDate:         time.Now(),
		ComplianceStandards: req.ComplianceStandards,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.Projects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}

// loadCases resolves the request's case selection: explicit IDs win,
// otherwise the project filter (or everything) is listed. A false return
// means an error response was already written.
func (s *Server) loadCases(w http.ResponseWriter, r *http.Request, ids []string, project string) ([]types.TestCase, bool) {
	if len(ids) > 0 {
		cases := make([]types.TestCase, 0, len(ids))
		for _, id := range ids {
			tc, err := s.store.TestCase(r.Context(), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusNotFound, err.Error())
				} else {
					writeError(w, http.StatusInternalServerError, err.Error())
				}
				return nil, false
			}
			cases = append(cases, tc)
		}
		return cases, true
	}

	cases, err := s.store.TestCases(r.Context(), store.ListOptions{Project: project})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return cases, true
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
