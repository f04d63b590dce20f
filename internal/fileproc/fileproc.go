// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fileproc extracts requirement text from uploaded documents.
// Each supported format has an extractor; Process dispatches on the
// file extension after checking existence and size.
package fileproc

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file too large")
)

const defaultMaxFileSizeMB = 10

// extractors dispatch by lowercase extension.
var extractors = map[string]func(path string) (string, error){
	".pdf":  pdfText,
	".docx": docxText,
	".xml":  xmlText,
	".json": jsonText,
	".md":   plainText,
	".txt":  plainText,
}

type Processor struct {
	cfg    types.FileProcessingConfig
	logger *zap.Logger
}

func New(cfg types.FileProcessingConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = defaultMaxFileSizeMB
	}
	return &Processor{cfg: cfg, logger: logger}
}

// Process validates the file and returns its extracted text, trimmed.
func (p *Processor) Process(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	if err := p.ValidateSize(path); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok || !p.allowed(ext) {
		return "", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, ext, strings.Join(SupportedFormats(), ", "))
	}

	p.logger.Debug("processing file", zap.String("path", path), zap.String("format", ext))

	text, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(text), nil
}

// allowed reports whether the extension is enabled in configuration. An
// empty list enables every built-in format.
func (p *Processor) allowed(ext string) bool {
	if len(p.cfg.SupportedFormats) == 0 {
		return true
	}
	for _, f := range p.cfg.SupportedFormats {
		if strings.EqualFold(strings.TrimPrefix(f, "."), strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}

// ValidateSize returns ErrFileTooLarge when the file exceeds the
// configured limit.
func (p *Processor) ValidateSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > float64(p.cfg.MaxFileSizeMB) {
		return fmt.Errorf("%w: %.2f MB exceeds maximum allowed size of %d MB",
			ErrFileTooLarge, sizeMB, p.cfg.MaxFileSizeMB)
	}
	return nil
}

// FileMetadata describes an uploaded requirements document.
type FileMetadata struct {
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Format    string    `json:"format"`
	Modified  time.Time `json:"modified"`
}

// Metadata returns basic file information for display and storage.
func Metadata(path string) (FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMetadata{}, err
	}
	return FileMetadata{
		Filename:  filepath.Base(path),
		SizeBytes: info.Size(),
		Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Modified:  info.ModTime(),
	}, nil
}

// SupportedFormats returns the recognized file extensions, sorted.
func SupportedFormats() []string {
	formats := make([]string, 0, len(extractors))
	for ext := range extractors {
		formats = append(formats, ext)
	}
	sort.Strings(formats)
	return formats
}

func plainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// jsonText re-indents the document so downstream prompts see readable
// structure.
func jsonText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(parsed); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// xmlText collects the character data of every element, one line per
// non-empty text node.
func xmlText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing XML: %w", err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if text := strings.TrimSpace(string(cd)); text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}
