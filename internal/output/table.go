package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mailcred/mailcred/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResult renders an analysis result as a table.
func (f *TableFormatter) FormatResult(result *core.AnalysisResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(result.Email)
	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Verdict", verdictLabel(result)})
	t.AppendRow(table.Row{"Confidence", fmt.Sprintf("%.2f", result.Confidence)})
	if result.VerdictDetail != "" {
		t.AppendRow(table.Row{"Detail", result.VerdictDetail})
	}
	if company := derefCompany(result.CompanyDetected); company != "" {
		t.AppendRow(table.Row{"Company detected", company})
	}
	if company := derefCompany(result.CompanyImpersonated); company != "" {
		t.AppendRow(table.Row{"Company impersonated", company})
	}
	if labels := joinLabels(result.Labels); labels != "" {
		t.AppendRow(table.Row{"Labels", labels})
	}

	for _, ev := range result.Evidences {
		t.AppendRow(table.Row{
			"Evidence: " + string(ev.Type),
			formatEvidence(ev),
		})
	}

	return t.Render(), nil
}
