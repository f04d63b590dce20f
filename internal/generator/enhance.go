// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generator

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/healthcare-testgen/internal/ai"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// Enhancement types understood by Enhance. Anything else is treated as
// a general enhancement that appends the context to the description.
const (
	EnhanceEdgeCases   = "edge_cases"
	EnhanceNegative    = "negative_testing"
	EnhancePerformance = "performance"
	EnhanceGeneral     = "general"
)

var enhancementSteps = map[string][]string{
	EnhanceEdgeCases: {
		"Test with maximum input values",
		"Test with minimum input values",
		"Test with invalid data formats",
		"Test with concurrent user access",
		"Test with system under high load",
	},
	EnhanceNegative: {
		"Test with invalid user credentials",
		"Test with missing required fields",
		"Test with incorrect data types",
		"Test with permission violations",
	},
	EnhancePerformance: {
		"Measure response time under normal load",
		"Test scalability with increasing user count",
		"Monitor memory usage during execution",
		"Check for memory leaks",
	},
}

// Enhance augments test cases without calling the AI. A named
// enhancement type appends the first two steps from its pool; any other
// type appends the context to the description. Input cases are not
// modified.
func Enhance(cases []types.TestCase, context, enhancementType string) []types.TestCase {
	now := time.Now()
	out := make([]types.TestCase, len(cases))

	for i, tc := range cases {
		enhanced := tc
		enhanced.Steps = append([]string(nil), tc.Steps...)

		if pool, ok := enhancementSteps[enhancementType]; ok {
			enhanced.Steps = append(enhanced.Steps, pool[:2]...)
		} else if context != "" {
			enhanced.Description += "\n\nAdditional context: " + context
		}

		enhanced.LastModified = now
		out[i] = enhanced
	}
	return out
}

// EnhanceWithAI asks the backend to improve the cases per the
// instruction. IDs, creation dates, and provenance carry over from the
// originals by position; the originals are returned unchanged when the
// call fails or the response cannot be decoded.
func (g *Generator) EnhanceWithAI(ctx context.Context, cases []types.TestCase, instruction string) []types.TestCase {
	if g.backend == nil || len(cases) == 0 {
		return cases
	}

	prompt, err := ai.EnhancementPrompt(cases, instruction)
	if err != nil {
		g.logger.Warn("building enhancement prompt failed", zap.Error(err))
		return cases
	}

	opts := ai.GenerateOptions{Temperature: 0.5, MaxTokens: 2 * g.cfg.MaxTokens}
	raw, err := ai.Generate(ctx, g.backend, prompt, opts, g.cfg.MaxRetries)
	if err != nil {
		g.logger.Warn("AI enhancement failed, keeping original cases", zap.Error(err))
		return cases
	}

	var decoded struct {
		TestCases []aiTestCase `json:"test_cases"`
	}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(raw)), &decoded); err != nil || len(decoded.TestCases) == 0 {
		g.logger.Warn("unusable AI enhancement response, keeping original cases")
		return cases
	}

	now := time.Now()
	out := make([]types.TestCase, 0, len(decoded.TestCases))
	for i, r := range decoded.TestCases {
		tc := normalizeCase(r)
		tc.ID = r.ID
		if i < len(cases) {
			if tc.ID == "" {
				tc.ID = cases[i].ID
			}
			tc.CreatedDate = cases[i].CreatedDate
			tc.SourceFile = cases[i].SourceFile
			tc.ProjectName = cases[i].ProjectName
			tc.Status = cases[i].Status
		} else {
			tc.CreatedDate = now
			tc.Status = types.StatusDraft
		}
		tc.LastModified = now
		out = append(out, tc)
	}
	return out
}
