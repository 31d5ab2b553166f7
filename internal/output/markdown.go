package output

import (
	"fmt"
	"strings"

	"github.com/mailcred/mailcred/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatResult renders an analysis result as Markdown.
func (f *MarkdownFormatter) FormatResult(result *core.AnalysisResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(result.Email)))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")

	sb.WriteString(fmt.Sprintf("| Verdict | %s |\n", escapeMarkdownCell(verdictLabel(result))))
	sb.WriteString(fmt.Sprintf("| Confidence | %.2f |\n", result.Confidence))
	if result.VerdictDetail != "" {
		sb.WriteString(fmt.Sprintf("| Detail | %s |\n", escapeMarkdownCell(result.VerdictDetail)))
	}
	if company := derefCompany(result.CompanyDetected); company != "" {
		sb.WriteString(fmt.Sprintf("| Company detected | %s |\n", escapeMarkdownCell(company)))
	}
	if company := derefCompany(result.CompanyImpersonated); company != "" {
		sb.WriteString(fmt.Sprintf("| Company impersonated | %s |\n", escapeMarkdownCell(company)))
	}
	if labels := joinLabels(result.Labels); labels != "" {
		sb.WriteString(fmt.Sprintf("| Labels | %s |\n", escapeMarkdownCell(labels)))
	}

	for _, ev := range result.Evidences {
		sb.WriteString(fmt.Sprintf("| Evidence: %s | %s |\n",
			escapeMarkdownCell(string(ev.Type)),
			escapeMarkdownCell(formatEvidence(ev)),
		))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
