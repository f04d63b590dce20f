// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package integrations pushes generated test cases to enterprise test
// management tools (Jira, Azure DevOps, Polarion) through a common
// client interface.
package integrations

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/healthcare-testgen/internal/store"
	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// RemoteCase is the tool-neutral view of a test case held by an
// external tool. Date fields keep the tool's own string formats.
type RemoteCase struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Priority        string   `json:"priority"`
	Steps           []string `json:"steps"`
	ExpectedResults string   `json:"expected_results"`
	Status          string   `json:"status"`
	CreatedDate     string   `json:"created_date,omitempty"`
	UpdatedDate     string   `json:"updated_date,omitempty"`
}

// CaseUpdate carries partial updates for a remote test case. Zero
// fields are left unchanged.
type CaseUpdate struct {
	Title           string
	Description     string
	Priority        string
	Steps           []string
	ExpectedResults string
}

// Client is implemented by each enterprise tool integration.
type Client interface {
	// Name returns the tool identifier used in integration logs.
	Name() string

	// CreateTestCase pushes a test case into the tool's project and
	// returns the created remote case.
	CreateTestCase(ctx context.Context, tc types.TestCase, project string) (RemoteCase, error)

	// UpdateTestCase applies partial updates to a remote test case.
	UpdateTestCase(ctx context.Context, id string, updates CaseUpdate) (RemoteCase, error)

	// GetTestCase fetches a remote test case by its tool-side ID.
	GetTestCase(ctx context.Context, id string) (RemoteCase, error)

	// SearchTestCases finds remote test cases matching a free-text
	// query, optionally scoped to a project.
	SearchTestCases(ctx context.Context, query, project string) ([]RemoteCase, error)

	// TestConnection verifies the tool is reachable with the
	// configured credentials.
	TestConnection(ctx context.Context) error
}

// NewClient builds the client for a tool name using the integration
// settings. Recognized names are "jira", "azuredevops" (alias
// "azure_devops") and "polarion".
func NewClient(tool string, cfg types.IntegrationsConfig) (Client, error) {
	switch tool {
	case "jira":
		if cfg.Jira.BaseURL == "" {
			return nil, fmt.Errorf("jira base URL is not configured")
		}
		return &Jira{
			BaseURL:  cfg.Jira.BaseURL,
			Username: cfg.Jira.Username,
			Token:    cfg.Jira.Token,
			Client:   httpClient(cfg.Jira.HTTPConfig),
		}, nil
	case "azuredevops", "azure_devops":
		if cfg.AzureDevOps.OrganizationURL == "" {
			return nil, fmt.Errorf("azure devops organization URL is not configured")
		}
		return &AzureDevOps{
			OrganizationURL: cfg.AzureDevOps.OrganizationURL,
			Token:           cfg.AzureDevOps.Token,
			Client:          httpClient(cfg.AzureDevOps.HTTPConfig),
		}, nil
	case "polarion":
		return NewPolarion(), nil
	default:
		return nil, fmt.Errorf("unknown integration tool: %q (supported: jira, azuredevops, polarion)", tool)
	}
}

const defaultHTTPTimeout = 30 * time.Second

func httpClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// batchConcurrency bounds parallel pushes so tool rate limits are not
// tripped by large batches.
const batchConcurrency = 4

// ImportOutcome reports the result of pushing one test case.
type ImportOutcome struct {
	TestCaseID string `json:"test_case_id"`
	RemoteID   string `json:"remote_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Hub runs batch operations against integration clients and records
// each outcome in the store's integration log.
type Hub struct {
	store  *store.Store
	logger *zap.Logger
}

// NewHub returns a Hub. The store may be nil, in which case outcomes
// are not persisted.
func NewHub(st *store.Store, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{store: st, logger: logger}
}

// BatchImport pushes cases into the tool with bounded concurrency. A
// failed case does not stop the batch; the returned outcomes are in
// input order.
func (h *Hub) BatchImport(ctx context.Context, client Client, cases []types.TestCase, project string) []ImportOutcome {
	outcomes := make([]ImportOutcome, len(cases))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, tc := range cases {
		g.Go(func() error {
			out := ImportOutcome{TestCaseID: tc.ID}
			remote, err := client.CreateTestCase(ctx, tc, project)
			if err != nil {
				out.Error = err.Error()
				h.logger.Warn("import failed",
					zap.String("tool", client.Name()),
					zap.String("test_case", tc.ID),
					zap.Error(err))
			} else {
				out.RemoteID = remote.ID
				h.logger.Info("imported test case",
					zap.String("tool", client.Name()),
					zap.String("test_case", tc.ID),
					zap.String("remote_id", remote.ID))
			}
			outcomes[i] = out
			h.logOutcome(ctx, client.Name(), out)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (h *Hub) logOutcome(ctx context.Context, tool string, out ImportOutcome) {
	if h.store == nil {
		return
	}
	entry := types.IntegrationLog{
		Type:      tool,
		Operation: "create",
		TargetID:  out.RemoteID,
		Status:    "success",
		Details:   fmt.Sprintf("imported %s as %s", out.TestCaseID, out.RemoteID),
		Timestamp: time.Now(),
	}
	if out.Error != "" {
		entry.Status = "error"
		entry.Details = out.Error
	}
	if err := h.store.LogIntegration(ctx, entry); err != nil {
		h.logger.Warn("recording integration log failed", zap.Error(err))
	}
}

// complianceLines renders compliance checks as pass/fail lines shared
// by the tool description formats.
func complianceLines(checks []types.ComplianceCheck) []string {
	lines := make([]string, len(checks))
	for i, c := range checks {
		mark := "❌"
		if c.Passed {
			mark = "✅"
		}
		standard := c.Standard
		if standard == "" {
			standard = "Unknown"
		}
		lines[i] = fmt.Sprintf("%s %s: %s", mark, standard, c.Requirement)
	}
	return lines
}

// testDataLines renders test data as sorted "key: value" lines.
func testDataLines(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s: %v", k, data[k])
	}
	return lines
}

// defaultSteps fills in for test cases pushed without steps.
var defaultSteps = []string{"Execute test", "Verify results"}
