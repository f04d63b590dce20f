// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generator turns requirement text into structured test cases.
// It prefers the AI backend and falls back to text scraping and then to
// template generation so a run always produces something usable.
package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/ai"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// Test type names accepted in Request.TestType.
const (
	TypeFunctional  = "functional"
	TypeSecurity    = "security"
	TypePerformance = "performance"
	TypeCompliance  = "compliance"
)

// Result sources, in order of preference.
const (
	SourceAI       = "ai"
	SourceText     = "text-parse"
	SourceTemplate = "template"
)

// idPrefixes maps test types to test case ID prefixes.
var idPrefixes = map[string]string{
	TypeFunctional:  "TC",
	TypeSecurity:    "SEC",
	TypePerformance: "PERF",
	TypeCompliance:  "COMP",
}

// Generator produces test cases from requirements.
type Generator struct {
	backend ai.Backend
	cfg     types.AIConfig
	logger  *zap.Logger

	mu      sync.Mutex
	counter int
}

// New creates a Generator. A nil backend skips the AI path and generates
// from templates only.
func New(backend ai.Backend, cfg types.AIConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	return &Generator{backend: backend, cfg: cfg, logger: logger}
}

// StartAt seeds the test case ID counter, typically with the number of
// cases already stored, so new IDs continue the sequence.
func (g *Generator) StartAt(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.counter {
		g.counter = n
	}
}

// nextID returns the next test case ID for the given test type.
func (g *Generator) nextID(testType string) string {
	prefix, ok := idPrefixes[testType]
	if !ok {
		prefix = "TC"
	}
	g.mu.Lock()
	g.counter++
	n := g.counter
	g.mu.Unlock()
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// Request holds the inputs for one generation run.
type Request struct {
	// Requirements is the requirement text to derive test cases from.
	Requirements string

	// TestType selects the template family and ID prefix:
	// functional, security, performance, or compliance.
	TestType string

	// CustomPrompt appends extra instructions to the AI prompt.
	CustomPrompt string

	// IncludeCompliance keeps compliance checks on the generated cases.
	IncludeCompliance bool

	// SourceFile and Project annotate the generated cases.
	SourceFile string
	Project    string
}

// Result holds the generated cases and which path produced them.
type Result struct {
	TestCases []types.TestCase
	Source    string
}

// Generate runs the generation pipeline: AI with JSON decoding, then
// text scraping of the AI response, then template generation from key
// phrases when the backend is unavailable or failing.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Requirements) == "" {
		return nil, fmt.Errorf("requirements text is empty")
	}
	if req.TestType == "" {
		req.TestType = TypeFunctional
	}

	if g.backend == nil {
		cases := g.fromTemplate(req)
		return &Result{TestCases: cases, Source: SourceTemplate}, nil
	}

	prompt, err := ai.TestCasePrompt(req.Requirements, req.CustomPrompt)
	if err != nil {
		return nil, err
	}

	opts := ai.GenerateOptions{
		Temperature: g.cfg.Temperature,
		MaxTokens:   2 * g.cfg.MaxTokens,
	}

	raw, err := ai.Generate(ctx, g.backend, prompt, opts, g.cfg.MaxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("AI generation failed, using template fallback", zap.Error(err))
		cases := g.fromTemplate(req)
		return &Result{TestCases: cases, Source: SourceTemplate}, nil
	}

	parsed, source := parseResponse(raw)
	if len(parsed) == 0 {
		g.logger.Warn("AI response yielded no test cases, using template fallback")
		cases := g.fromTemplate(req)
		return &Result{TestCases: cases, Source: SourceTemplate}, nil
	}
	if source != SourceAI {
		g.logger.Warn("AI response was not valid JSON, scraped test cases from text",
			zap.Int("count", len(parsed)))
	}

	return &Result{TestCases: g.normalize(parsed, req), Source: source}, nil
}

// fromTemplate builds cases from the per-type template and key phrases
// extracted from the requirement text.
func (g *Generator) fromTemplate(req Request) []types.TestCase {
	raw := buildFromTemplate(req.Requirements, req.TestType)
	return g.normalize(raw, req)
}

// normalize fills defaults, validates priorities, assigns sequential
// IDs, and stamps provenance on every generated case.
func (g *Generator) normalize(raw []aiTestCase, req Request) []types.TestCase {
	now := time.Now()
	cases := make([]types.TestCase, 0, len(raw))

	for _, r := range raw {
		tc := normalizeCase(r)
		tc.ID = g.nextID(req.TestType)
		if !req.IncludeCompliance {
			tc.ComplianceChecks = nil
		}
		tc.CreatedDate = now
		tc.LastModified = now
		tc.SourceFile = req.SourceFile
		tc.ProjectName = req.Project
		tc.Status = types.StatusDraft
		cases = append(cases, tc)
	}

	return cases
}

// normalizeCase converts one decoded case, filling field defaults. The
// ID and provenance fields are left for the caller.
func normalizeCase(r aiTestCase) types.TestCase {
	tc := types.TestCase{
		Title:            r.Title,
		Description:      r.Description,
		Priority:         normalizePriority(r.Priority),
		Steps:            r.Steps,
		ExpectedResults:  r.ExpectedResults,
		TestData:         r.TestData,
		ComplianceChecks: r.ComplianceChecks,
	}

	if tc.Title == "" {
		tc.Title = "Untitled Test Case"
	}
	if tc.Description == "" {
		tc.Description = "No description provided"
	}
	if len(tc.Steps) == 0 {
		tc.Steps = []string{"Step 1: Execute test", "Step 2: Verify results"}
	}
	if tc.ExpectedResults == "" {
		tc.ExpectedResults = "No expected results specified"
	}

	return tc
}

// normalizePriority maps free-form priority text onto the known set,
// defaulting to Medium.
func normalizePriority(s string) types.Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return types.PriorityLow
	case "high":
		return types.PriorityHigh
	case "critical":
		return types.PriorityCritical
	default:
		return types.PriorityMedium
	}
}

// aiTestCase is a test case as decoded from an AI response.
type aiTestCase struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Priority         string                  `json:"priority"`
	Steps            []string                `json:"steps"`
	ExpectedResults  string                  `json:"expected_results"`
	TestData         map[string]any          `json:"test_data"`
	ComplianceChecks []types.ComplianceCheck `json:"compliance_checks"`
}
