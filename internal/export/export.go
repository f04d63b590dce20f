// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders test cases to interchange formats and writes
// export files with a history trail in the store.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

const defaultOutputDir = "data/exports"

// Exporter writes test case export files and records export history.
type Exporter struct {
	store  *store.Store
	cfg    types.ExportConfig
	logger *zap.Logger
}

// New returns an Exporter. The store may be nil, in which case no
// history is recorded.
func New(st *store.Store, cfg types.ExportConfig, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{store: st, cfg: cfg, logger: logger}
}

// Export renders cases in the requested format, writes the result under
// the configured output directory, and returns the export record. When
// format is empty the configured default format is used.
func (e *Exporter) Export(ctx context.Context, format types.ExportFormat, cases []types.TestCase, project string) (*types.ExportRecord, error) {
	if len(cases) == 0 {
		return nil, errors.New("no test cases to export")
	}
	if format == "" {
		format = types.ExportFormat(e.cfg.DefaultFormat)
	}
	if format == "" {
		format = types.ExportJSON
	}

	data, err := render(format, cases, e.cfg.IncludeTimestamps)
	if err != nil {
		return nil, err
	}

	dir := e.cfg.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	name := fmt.Sprintf("test_cases_%s.%s", time.Now().Format("20060102_150405"), format)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing export file: %w", err)
	}

	rec := types.ExportRecord{
		ExportID:       types.UniqueID("EXP"),
		Format:         format,
		TestCasesCount: len(cases),
		ExportedDate:   time.Now(),
		FilePath:       path,
		ProjectName:    project,
	}
	if e.store != nil && e.cfg.BackupExports {
		// The file is already on disk; a history failure is not fatal.
		if err := e.store.RecordExport(ctx, rec); err != nil {
			e.logger.Warn("recording export history failed",
				zap.String("export_id", rec.ExportID),
				zap.Error(err))
		}
	}

	e.logger.Info("exported test cases",
		zap.String("format", string(format)),
		zap.Int("test_cases", len(cases)),
		zap.String("path", path))
	return &rec, nil
}

// Render returns the serialized form of cases in the given format,
// timestamps included.
func Render(format types.ExportFormat, cases []types.TestCase) ([]byte, error) {
	return render(format, cases, true)
}

func render(format types.ExportFormat, cases []types.TestCase, withTimestamps bool) ([]byte, error) {
	switch types.ExportFormat(strings.ToLower(string(format))) {
	case types.ExportJSON:
		return renderJSON(cases, withTimestamps)
	case types.ExportXML:
		return renderXML(cases, withTimestamps)
	case types.ExportCSV:
		return renderCSV(cases)
	case types.ExportYAML:
		return renderYAML(cases, withTimestamps)
	default:
		return nil, fmt.Errorf("unsupported export format: %q (supported: json, xml, csv, yaml)", format)
	}
}
