// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// ListOptions holds parameters for test case queries.
type ListOptions struct {
	// Query is an FTS5 full-text search over title and description.
	Query string

	// Project filters by project name.
	Project string

	// Status filters by review status.
	Status string

	// Limit caps result count. Zero uses the store default.
	Limit int
}

// TestCases queries stored test cases. Full-text queries are ranked by
// relevance; listing queries return newest first.
func (s *Store) TestCases(ctx context.Context, opts ListOptions) ([]types.TestCase, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT t.test_case_id, t.title, t.description, t.priority, t.steps,
				t.expected_results, t.test_data, t.compliance_checks,
				t.created_date, t.last_modified, t.source_file, t.project_name, t.status
			FROM test_cases_fts
			JOIN test_cases t ON t.id = test_cases_fts.rowid
			WHERE test_cases_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT t.test_case_id, t.title, t.description, t.priority, t.steps,
				t.expected_results, t.test_data, t.compliance_checks,
				t.created_date, t.last_modified, t.source_file, t.project_name, t.status
			FROM test_cases t
			WHERE 1=1`)
	}

	if opts.Project != "" {
		qb.WriteString(` AND t.project_name = ?`)
		args = append(args, opts.Project)
	}

	if opts.Status != "" {
		qb.WriteString(` AND t.status = ?`)
		args = append(args, opts.Status)
	}

	if useFTS {
		qb.WriteString(` ORDER BY test_cases_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY t.created_date DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying test cases: %w", err)
	}
	defer rows.Close()

	var cases []types.TestCase
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}

	return cases, rows.Err()
}

// TestCase returns one test case by its test case ID.
func (s *Store) TestCase(ctx context.Context, id string) (types.TestCase, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.test_case_id, t.title, t.description, t.priority, t.steps,
			t.expected_results, t.test_data, t.compliance_checks,
			t.created_date, t.last_modified, t.source_file, t.project_name, t.status
		FROM test_cases t WHERE t.test_case_id = ?`, id)

	tc, err := scanTestCase(row)
	if err == sql.ErrNoRows {
		return types.TestCase{}, fmt.Errorf("test case %s: %w", id, ErrNotFound)
	}
	return tc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTestCase(row rowScanner) (types.TestCase, error) {
	var (
		tc                              types.TestCase
		priority                        string
		stepsJSON, dataJSON, checksJSON sql.NullString
		created, modified               string
		sourceFile, projectName, status sql.NullString
	)

	err := row.Scan(
		&tc.ID, &tc.Title, &tc.Description, &priority, &stepsJSON,
		&tc.ExpectedResults, &dataJSON, &checksJSON,
		&created, &modified, &sourceFile, &projectName, &status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return tc, err
		}
		return tc, fmt.Errorf("scanning test case: %w", err)
	}

	tc.Priority = types.Priority(priority)
	if stepsJSON.Valid {
		json.Unmarshal([]byte(stepsJSON.String), &tc.Steps)
	}
	if dataJSON.Valid {
		json.Unmarshal([]byte(dataJSON.String), &tc.TestData)
	}
	if checksJSON.Valid {
		json.Unmarshal([]byte(checksJSON.String), &tc.ComplianceChecks)
	}
	tc.CreatedDate = parseTime(created)
	tc.LastModified = parseTime(modified)
	tc.SourceFile = sourceFile.String
	tc.ProjectName = projectName.String
	tc.Status = status.String

	return tc, nil
}

// Requirements returns stored requirements, newest first, optionally
// filtered by project.
func (s *Store) Requirements(ctx context.Context, project string) ([]types.Requirement, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT requirement_id, title, description, content, source_file,
			file_format, extracted_date, project_name
		FROM requirements WHERE 1=1`)

	if project != "" {
		qb.WriteString(` AND project_name = ?`)
		args = append(args, project)
	}
	qb.WriteString(` ORDER BY extracted_date DESC`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying requirements: %w", err)
	}
	defer rows.Close()

	var reqs []types.Requirement
	for rows.Next() {
		var (
			req                     types.Requirement
			description, content    sql.NullString
			extracted               string
			sourceFile, projectName sql.NullString
		)
		if err := rows.Scan(
			&req.ID, &req.Title, &description, &content, &sourceFile,
			&req.FileFormat, &extracted, &projectName,
		); err != nil {
			return nil, fmt.Errorf("scanning requirement: %w", err)
		}
		req.Description = description.String
		req.Content = content.String
		req.SourceFile = sourceFile.String
		req.ExtractedDate = parseTime(extracted)
		req.ProjectName = projectName.String
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

// Requirement returns one requirement by its requirement ID.
func (s *Store) Requirement(ctx context.Context, id string) (types.Requirement, error) {
	var (
		req                     types.Requirement
		description, content    sql.NullString
		extracted               string
		sourceFile, projectName sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT requirement_id, title, description, content, source_file,
			file_format, extracted_date, project_name
		FROM requirements WHERE requirement_id = ?`, id,
	).Scan(&req.ID, &req.Title, &description, &content, &sourceFile,
		&req.FileFormat, &extracted, &projectName)

	if err == sql.ErrNoRows {
		return req, fmt.Errorf("requirement %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return req, fmt.Errorf("querying requirement: %w", err)
	}

	req.Description = description.String
	req.Content = content.String
	req.SourceFile = sourceFile.String
	req.ExtractedDate = parseTime(extracted)
	req.ProjectName = projectName.String
	return req, nil
}

// Projects returns all projects, newest first.
func (s *Store) Projects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, created_date, compliance_standards
		FROM projects ORDER BY created_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []types.Project
	for rows.Next() {
		var (
			p             types.Project
			description   sql.NullString
			created       string
			standardsJSON sql.NullString
		)
		if err := rows.Scan(&p.Name, &description, &created, &standardsJSON); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Description = description.String
		p.CreatedDate = parseTime(created)
		if standardsJSON.Valid {
			json.Unmarshal([]byte(standardsJSON.String), &p.ComplianceStandards)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// ComplianceResults returns stored check outcomes for one test case,
// most recent run first.
func (s *Store) ComplianceResults(ctx context.Context, testCaseID string) ([]types.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT requirement_id, standard, passed, evidence, issue, recommendation
		FROM compliance_results WHERE test_case_id = ?
		ORDER BY check_date DESC`, testCaseID)
	if err != nil {
		return nil, fmt.Errorf("querying compliance results: %w", err)
	}
	defer rows.Close()

	var results []types.CheckResult
	for rows.Next() {
		var (
			r                     types.CheckResult
			standard              string
			evidenceJSON          sql.NullString
			issue, recommendation sql.NullString
		)
		if err := rows.Scan(&r.RequirementID, &standard, &r.Passed,
			&evidenceJSON, &issue, &recommendation); err != nil {
			return nil, fmt.Errorf("scanning compliance result: %w", err)
		}
		// Stored rows carry the standard name; the requirement text
		// lives in the catalog and is not duplicated here.
		r.Requirement = standard
		if evidenceJSON.Valid {
			json.Unmarshal([]byte(evidenceJSON.String), &r.Evidence)
		}
		r.Issue = issue.String
		r.Recommendation = recommendation.String
		results = append(results, r)
	}

	return results, rows.Err()
}

// Exports returns the export history, newest first.
func (s *Store) Exports(ctx context.Context) ([]types.ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT export_id, export_format, test_cases_count, exported_date,
			file_path, project_name
		FROM exports ORDER BY exported_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var records []types.ExportRecord
	for rows.Next() {
		var (
			rec                   types.ExportRecord
			format, exported      string
			filePath, projectName sql.NullString
		)
		if err := rows.Scan(&rec.ExportID, &format, &rec.TestCasesCount,
			&exported, &filePath, &projectName); err != nil {
			return nil, fmt.Errorf("scanning export record: %w", err)
		}
		rec.Format = types.ExportFormat(format)
		rec.ExportedDate = parseTime(exported)
		rec.FilePath = filePath.String
		rec.ProjectName = projectName.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// IntegrationLogs returns recent integration operations, newest first,
// optionally filtered by integration type.
func (s *Store) IntegrationLogs(ctx context.Context, integrationType string, limit int) ([]types.IntegrationLog, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT integration_type, operation, target_id, status, details, timestamp
		FROM integration_logs WHERE 1=1`)

	if integrationType != "" {
		qb.WriteString(` AND integration_type = ?`)
		args = append(args, integrationType)
	}
	qb.WriteString(` ORDER BY timestamp DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying integration logs: %w", err)
	}
	defer rows.Close()

	var logs []types.IntegrationLog
	for rows.Next() {
		var (
			entry             types.IntegrationLog
			targetID, details sql.NullString
			ts                string
		)
		if err := rows.Scan(&entry.Type, &entry.Operation, &targetID,
			&entry.Status, &details, &ts); err != nil {
			return nil, fmt.Errorf("scanning integration log: %w", err)
		}
		entry.TargetID = targetID.String
		entry.Details = details.String
		entry.Timestamp = parseTime(ts)
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// Stats summarizes the database contents for the dashboard.
type Stats struct {
	TestCases         int            `json:"test_cases"`
	Requirements      int            `json:"requirements"`
	Projects          int            `json:"projects"`
	ComplianceResults int            `json:"compliance_results"`
	Exports           int            `json:"exports"`
	IntegrationLogs   int            `json:"integration_logs"`
	ByStatus          map[string]int `json:"by_status"`
	ByPriority        map[string]int `json:"by_priority"`
}

// Stats counts rows per table and breaks test cases down by status and
// priority.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"test_cases", &stats.TestCases},
		{"requirements", &stats.Requirements},
		{"projects", &stats.Projects},
		{"compliance_results", &stats.ComplianceResults},
		{"exports", &stats.Exports},
		{"integration_logs", &stats.IntegrationLogs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM `+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	groups := []struct {
		column string
		dest   map[string]int
	}{
		{"status", stats.ByStatus},
		{"priority", stats.ByPriority},
	}
	for _, g := range groups {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+g.column+`, count(*) FROM test_cases GROUP BY `+g.column)
		if err != nil {
			return nil, fmt.Errorf("grouping by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key sql.NullString
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning %s counts: %w", g.column, err)
			}
			g.dest[key.String] = n
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return stats, nil
}
