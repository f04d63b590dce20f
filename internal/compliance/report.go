// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compliance

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/healthcare-testgen/pkg/types"
)

// Format renders the report in the named format: json, text, or html.
func Format(report *types.ComplianceReport, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "text":
		return FormatText(report), nil
	case "html":
		return FormatHTML(report)
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
}

// reportStandards returns the report's standard names in catalog display
// order, then any others alphabetically.
func reportStandards(report *types.ComplianceReport) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range standardNames {
		if _, ok := report.Standards[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range report.Standards {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// FormatText renders the report as plain text.
func FormatText(report *types.ComplianceReport) string {
	var b strings.Builder
	b.WriteString("COMPLIANCE CHECK REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Test Cases Analyzed: %d\n", report.TestCasesCount)
	fmt.Fprintf(&b, "Overall Compliance Score: %.2f%%\n", report.OverallScore)
	fmt.Fprintf(&b, "Passed Checks: %d / %d\n\n", report.PassedChecks, report.TotalChecks)

	for _, standard := range reportStandards(report) {
		fmt.Fprintf(&b, "STANDARD: %s\n", standard)
		b.WriteString(strings.Repeat("-", 30) + "\n")

		for _, check := range report.Standards[standard] {
			status := "FAIL"
			if check.Passed {
				status = "PASS"
			}
			fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.RequirementID, check.Requirement)

			if !check.Passed {
				fmt.Fprintf(&b, "   Issue: %s\n", check.Issue)
				fmt.Fprintf(&b, "   Recommendation: %s\n", check.Recommendation)
			}
			if len(check.Evidence) > 0 {
				b.WriteString("   Evidence:\n")
				for _, ev := range check.Evidence {
					fmt.Fprintf(&b, "     - Test Case %s: %s\n", ev.TestCaseID, ev.Title)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("RECOMMENDATIONS\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}

type reportView struct {
	Timestamp       string
	TestCasesCount  int
	OverallScore    float64
	PassedChecks    int
	TotalChecks     int
	Standards       []standardView
	Recommendations []string
}

type standardView struct {
	Name   string
	Checks []types.CheckResult
}

var htmlReportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Compliance Check Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.header { background-color: #f4f4f4; padding: 20px; border-radius: 5px; }
.standard { margin-top: 20px; }
.check { margin: 10px 0; padding: 10px; border-left: 4px solid #ccc; }
.pass { border-left-color: green; background-color: #e8f5e8; }
.fail { border-left-color: red; background-color: #fce8e8; }
.evidence { margin-left: 20px; font-size: 0.9em; color: #666; }
</style>
</head>
<body>
<div class="header">
<h1>Compliance Check Report</h1>
<p><strong>Timestamp:</strong> {{.Timestamp}}</p>
<p><strong>Test Cases Analyzed:</strong> {{.TestCasesCount}}</p>
<p><strong>Overall Compliance Score:</strong> {{printf "%.2f" .OverallScore}}%</p>
<p><strong>Passed Checks:</strong> {{.PassedChecks}} / {{.TotalChecks}}</p>
</div>
{{range .Standards}}
<div class="standard">
<h2>Standard: {{.Name}}</h2>
{{range .Checks}}
<div class="check {{if .Passed}}pass{{else}}fail{{end}}">
<h3>{{.RequirementID}}: {{.Requirement}}</h3>
<p><strong>Status:</strong> {{if .Passed}}PASS{{else}}FAIL{{end}}</p>
<p><strong>Description:</strong> {{.Description}}</p>
{{if not .Passed}}
<p><strong>Issue:</strong> {{.Issue}}</p>
<p><strong>Recommendation:</strong> {{.Recommendation}}</p>
{{end}}
{{if .Evidence}}
<p><strong>Evidence:</strong></p>
<ul class="evidence">
{{range .Evidence}}
<li>Test Case {{.TestCaseID}}: {{.Title}}</li>
{{end}}
</ul>
{{end}}
</div>
{{end}}
</div>
{{end}}
{{if .Recommendations}}
<div class="standard">
<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}
<li>{{.}}</li>
{{end}}
</ul>
</div>
{{end}}
</body>
</html>
`))

// FormatHTML renders the report as a self-contained HTML page.
func FormatHTML(report *types.ComplianceReport) (string, error) {
	view := reportView{
		Timestamp:       report.Timestamp.Format(time.RFC3339),
		TestCasesCount:  report.TestCasesCount,
		OverallScore:    report.OverallScore,
		PassedChecks:    report.PassedChecks,
		TotalChecks:     report.TotalChecks,
		Recommendations: report.Recommendations,
	}
	for _, name := range reportStandards(report) {
		view.Standards = append(view.Standards, standardView{
			Name:   name,
			Checks: report.Standards[name],
		})
	}

	var b strings.Builder
	if err := htmlReportTmpl.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
