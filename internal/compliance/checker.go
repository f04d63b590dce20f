// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compliance checks test cases against healthcare compliance
// standards. The static check is a keyword heuristic over a built-in
// requirement catalog; an AI-backed check asks the model for a deeper
// analysis and falls back to the static check on failure.
package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/ai"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

type Checker struct {
	backend ai.Backend
	cfg     types.AIConfig
	logger  *zap.Logger
}

// New returns a Checker. The backend may be nil, in which case
// CheckWithAI degrades to the static check.
func New(backend ai.Backend, cfg types.AIConfig, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{backend: backend, cfg: cfg, logger: logger}
}

// Check evaluates the test cases against each requested standard using
// the keyword heuristic. Unknown standards are skipped with a warning.
func (c *Checker) Check(cases []types.TestCase, standards []string) (*types.ComplianceReport, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases provided for compliance check")
	}
	if len(standards) == 0 {
		return nil, fmt.Errorf("no standards specified for compliance check")
	}

	c.logger.Info("checking compliance",
		zap.Int("test_cases", len(cases)),
		zap.Strings("standards", standards))

	report := &types.ComplianceReport{
		Standards:      make(map[string][]types.CheckResult),
		Timestamp:      time.Now(),
		TestCasesCount: len(cases),
	}

	var total, passed int
	for _, standard := range standards {
		reqs, ok := catalog[standard]
		if !ok {
			c.logger.Warn("unknown compliance standard, skipping", zap.String("standard", standard))
			continue
		}

		results := make([]types.CheckResult, 0, len(reqs))
		for _, req := range reqs {
			result := checkRequirement(cases, req)
			if result.Passed {
				passed++
			}
			total++
			results = append(results, result)
		}
		report.Standards[standard] = results
	}

	if total > 0 {
		report.OverallScore = math.Round(float64(passed)/float64(total)*100*100) / 100
		report.TotalChecks = total
		report.PassedChecks = passed
	}

	c.logger.Info("compliance check completed", zap.Float64("overall_score", report.OverallScore))
	return report, nil
}

// checkRequirement passes when any test case's JSON serialization
// contains a keyword from the requirement or its description. Each
// matching case contributes one evidence entry.
func checkRequirement(cases []types.TestCase, req Requirement) types.CheckResult {
	keywords := keywordsFor(req)
	result := types.CheckResult{
		RequirementID: req.ID,
		Requirement:   req.Requirement,
		Description:   req.Description,
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc)
		if err != nil {
			continue
		}
		text := strings.ToLower(string(data))

		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				result.Passed = true
				result.Evidence = append(result.Evidence, types.Evidence{
					TestCaseID:     tc.ID,
					Title:          tc.Title,
					MatchedKeyword: kw,
				})
				break
			}
		}
	}

	if result.Passed {
		result.Recommendation = "Requirement adequately covered"
	} else {
		result.Issue = "No test case addresses this requirement"
		result.Recommendation = "Add test cases that cover this compliance requirement"
	}
	return result
}

// keywordsFor splits the requirement and description into words longer
// than three characters.
func keywordsFor(req Requirement) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(req.Requirement + " " + req.Description)) {
		if len(word) > 3 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

// CheckWithAI asks the model to analyze coverage against the standards.
// Any failure, a nil backend included, falls back to the static check.
func (c *Checker) CheckWithAI(ctx context.Context, cases []types.TestCase, standards []string) (*types.ComplianceReport, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases provided for compliance check")
	}
	if len(standards) == 0 {
		return nil, fmt.Errorf("no standards specified for compliance check")
	}
	if c.backend == nil {
		return c.Check(cases, standards)
	}

	prompt, err := ai.CompliancePrompt(cases, standards)
	if err != nil {
		return nil, err
	}

	opts := ai.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   3 * c.cfg.MaxTokens / 2,
	}

	raw, err := ai.Generate(ctx, c.backend, prompt, opts, c.cfg.MaxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("AI compliance check failed, using static check", zap.Error(err))
		return c.Check(cases, standards)
	}

	report, ok := decodeAIReport(raw, len(cases))
	if !ok {
		c.logger.Warn("unusable AI compliance response, using static check")
		return c.Check(cases, standards)
	}
	return report, nil
}

// decodeAIReport parses the model's JSON report. The recommendations
// field is tolerated as either a string or an array of strings.
func decodeAIReport(raw string, caseCount int) (*types.ComplianceReport, bool) {
	var decoded struct {
		OverallScore    float64                        `json:"overall_score"`
		Standards       map[string][]types.CheckResult `json:"standards"`
		TotalChecks     int                            `json:"total_checks"`
		PassedChecks    int                            `json:"passed_checks"`
		Recommendations json.RawMessage                `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &decoded); err != nil || len(decoded.Standards) == 0 {
		return nil, false
	}

	report := &types.ComplianceReport{
		OverallScore:   decoded.OverallScore,
		Standards:      decoded.Standards,
		TotalChecks:    decoded.TotalChecks,
		PassedChecks:   decoded.PassedChecks,
		Timestamp:      time.Now(),
		TestCasesCount: caseCount,
	}

	if len(decoded.Recommendations) > 0 {
		var list []string
		if err := json.Unmarshal(decoded.Recommendations, &list); err == nil {
			report.Recommendations = list
		} else {
			var single string
			if err := json.Unmarshal(decoded.Recommendations, &single); err == nil && single != "" {
				report.Recommendations = []string{single}
			}
		}
	}
	return report, true
}
