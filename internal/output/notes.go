package output

import (
	"fmt"
	"strings"

	"github.com/mailcred/mailcred/internal/core"
)

func verdictLabel(result *core.AnalysisResult) string {
	if result == nil {
		return ""
	}

	switch result.Verdict {
	case core.VerdictValid:
		return "valid"
	case core.VerdictSuspicious:
		return "suspicious"
	case core.VerdictPhishing:
		return "phishing"
	case core.VerdictInvalid:
		return "invalid"
	default:
		return string(result.Verdict)
	}
}

func derefCompany(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func joinLabels(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

func formatEvidence(ev core.Evidence) string {
	value := strings.TrimSpace(ev.Value)
	if value == "" {
		value = "-"
	}
	rendered := fmt.Sprintf("%s (%.2f)", value, ev.Score)
	if detail := strings.TrimSpace(ev.Detail); detail != "" {
		rendered += "; " + detail
	}
	return rendered
}
