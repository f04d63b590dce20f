// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists test cases, requirements, projects, compliance
// results, export history, and integration logs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const defaultListLimit = 100

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the application's SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the SQLite database at cfg.Path, creating the
// parent directory and the schema as needed.
func New(cfg types.DatabaseConfig) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS test_cases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			test_case_id TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT DEFAULT 'Medium',
			steps TEXT,
			expected_results TEXT,
			test_data TEXT,
			compliance_checks TEXT,
			created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_modified TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			source_file TEXT,
			project_name TEXT,
			status TEXT DEFAULT 'draft'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_test_cases_project ON test_cases(project_name)`,
		`CREATE INDEX IF NOT EXISTS idx_test_cases_status ON test_cases(status)`,
		`CREATE TABLE IF NOT EXISTS requirements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			requirement_id TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			content TEXT,
			source_file TEXT,
			file_format TEXT,
			extracted_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			project_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			compliance_standards TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS compliance_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			test_case_id TEXT NOT NULL REFERENCES test_cases(test_case_id),
			standard TEXT NOT NULL,
			requirement_id TEXT NOT NULL,
			passed BOOLEAN DEFAULT FALSE,
			evidence TEXT,
			issue TEXT,
			recommendation TEXT,
			check_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_compliance_test_case ON compliance_results(test_case_id)`,
		`CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			export_id TEXT UNIQUE NOT NULL,
			export_format TEXT NOT NULL,
			test_cases_count INTEGER DEFAULT 0,
			exported_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			file_path TEXT,
			project_name TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS integration_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			integration_type TEXT NOT NULL,
			operation TEXT NOT NULL,
			target_id TEXT,
			status TEXT NOT NULL,
			details TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='test_cases_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE test_cases_fts USING fts5(title, description, content=test_cases, content_rowid=id)`,
			`CREATE TRIGGER test_cases_ai AFTER INSERT ON test_cases BEGIN
				INSERT INTO test_cases_fts(rowid, title, description) VALUES (new.id, new.title, new.description);
			END`,
			`CREATE TRIGGER test_cases_ad AFTER DELETE ON test_cases BEGIN
				INSERT INTO test_cases_fts(test_cases_fts, rowid, title, description) VALUES('delete', old.id, old.title, old.description);
			END`,
			`CREATE TRIGGER test_cases_au AFTER UPDATE ON test_cases BEGIN
				INSERT INTO test_cases_fts(test_cases_fts, rowid, title, description) VALUES('delete', old.id, old.title, old.description);
				INSERT INTO test_cases_fts(rowid, title, description) VALUES (new.id, new.title, new.description);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveTestCases upserts a batch of test cases keyed by their test case ID
// in a single transaction. Returns the number of cases written.
func (s *Store) SaveTestCases(ctx context.Context, cases []types.TestCase) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO test_cases (test_case_id, title, description, priority, steps,
			expected_results, test_data, compliance_checks, created_date, last_modified,
			source_file, project_name, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(test_case_id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			priority=excluded.priority, steps=excluded.steps,
			expected_results=excluded.expected_results, test_data=excluded.test_data,
			compliance_checks=excluded.compliance_checks,
			last_modified=excluded.last_modified, source_file=excluded.source_file,
			project_name=excluded.project_name, status=excluded.status`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, tc := range cases {
		stepsJSON, _ := json.Marshal(tc.Steps)
		dataJSON, _ := json.Marshal(tc.TestData)
		checksJSON, _ := json.Marshal(tc.ComplianceChecks)

		_, err := stmt.ExecContext(ctx,
			tc.ID, tc.Title, tc.Description, string(tc.Priority), string(stepsJSON),
			tc.ExpectedResults, string(dataJSON), string(checksJSON),
			fmtTime(tc.CreatedDate), fmtTime(tc.LastModified),
			tc.SourceFile, tc.ProjectName, tc.Status,
		)
		if err != nil {
			return saved, fmt.Errorf("saving test case %s: %w", tc.ID, err)
		}
		saved++
	}

	return saved, tx.Commit()
}

// SaveTestCase upserts a single test case.
func (s *Store) SaveTestCase(ctx context.Context, tc types.TestCase) error {
	_, err := s.SaveTestCases(ctx, []types.TestCase{tc})
	return err
}

// DeleteTestCase removes a test case and its compliance results.
func (s *Store) DeleteTestCase(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM compliance_results WHERE test_case_id = ?`, id); err != nil {
		return fmt.Errorf("deleting compliance results: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM test_cases WHERE test_case_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting test case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("test case %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// SaveRequirement upserts a requirement keyed by its requirement ID.
func (s *Store) SaveRequirement(ctx context.Context, req types.Requirement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requirements (requirement_id, title, description, content,
			source_file, file_format, extracted_date, project_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(requirement_id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			content=excluded.content, source_file=excluded.source_file,
			file_format=excluded.file_format, extracted_date=excluded.extracted_date,
			project_name=excluded.project_name`,
		req.ID, req.Title, req.Description, req.Content,
		req.SourceFile, req.FileFormat, fmtTime(req.ExtractedDate), req.ProjectName,
	)
	if err != nil {
		return fmt.Errorf("saving requirement %s: %w", req.ID, err)
	}
	return nil
}

// CreateProject inserts a project. Creating an existing project updates
// its description and standards.
func (s *Store) CreateProject(ctx context.Context, p types.Project) error {
	standardsJSON, _ := json.Marshal(p.ComplianceStandards)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, description, created_date, compliance_standards)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			description=excluded.description,
			compliance_standards=excluded.compliance_standards`,
		p.Name, p.Description, fmtTime(p.CreatedDate), string(standardsJSON),
	)
	if err != nil {
		return fmt.Errorf("creating project %s: %w", p.Name, err)
	}
	return nil
}

// SaveComplianceResults records the per-requirement outcomes of a
// compliance run for one test case.
func (s *Store) SaveComplianceResults(ctx context.Context, testCaseID string, report *types.ComplianceReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO compliance_results (test_case_id, standard, requirement_id,
			passed, evidence, issue, recommendation, check_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	checkDate := fmtTime(report.Timestamp)
	for standard, results := range report.Standards {
		for _, r := range results {
			evidenceJSON, _ := json.Marshal(r.Evidence)
			_, err := stmt.ExecContext(ctx,
				testCaseID, standard, r.RequirementID,
				r.Passed, string(evidenceJSON), r.Issue, r.Recommendation, checkDate,
			)
			if err != nil {
				return fmt.Errorf("saving compliance result %s: %w", r.RequirementID, err)
			}
		}
	}

	return tx.Commit()
}

// RecordExport appends an export to the history.
func (s *Store) RecordExport(ctx context.Context, rec types.ExportRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (export_id, export_format, test_cases_count,
			exported_date, file_path, project_name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ExportID, string(rec.Format), rec.TestCasesCount,
		fmtTime(rec.ExportedDate), rec.FilePath, rec.ProjectName,
	)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", rec.ExportID, err)
	}
	return nil
}

// LogIntegration appends one integration operation to the log.
func (s *Store) LogIntegration(ctx context.Context, entry types.IntegrationLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO integration_logs (integration_type, operation, target_id,
			status, details, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Type, entry.Operation, entry.TargetID,
		entry.Status, entry.Details, fmtTime(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("logging integration operation: %w", err)
	}
	return nil
}

// fmtTime renders a timestamp for storage, substituting now for zero values.
func fmtTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
