// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text files.
// Each secret is one file: the filename is the key name and the file contents
// (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// knownKeys lists the secret files the tool reads. Other files in the
// directory are ignored.
var knownKeys = []string{
	"gemini-api-key",
	"jira-api-token",
	"azure-devops-pat",
	"polarion-token",
}

// Load reads the known secret files from dir and returns a map of key name
// to trimmed value. A missing directory or missing files are not errors;
// Load returns what it found. Unreadable files produce a warning on stderr
// but do not abort.
func Load(dir string) (map[string]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, key := range knownKeys {
		data, err := os.ReadFile(filepath.Join(dir, key))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", key, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[key] = value
		}
	}

	return secrets, nil
}
