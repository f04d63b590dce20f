// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const backupDir = "backups"

// Backup writes a consistent snapshot of the database to a timestamped
// file under backups/ next to the database, and returns its path.
func (s *Store) Backup(ctx context.Context) (string, error) {
	dir := filepath.Join(filepath.Dir(s.path), backupDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	name := fmt.Sprintf("testgen_backup_%s.db", time.Now().Format("20060102_150405"))
	dest := filepath.Join(dir, name)

	// VACUUM INTO copies the live database, WAL contents included.
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return "", fmt.Errorf("backing up database: %w", err)
	}

	return dest, nil
}
