// Package engine hosts the analysis pipeline: request validation, the
// recognition / resolution / comparison sequence, and the per-endpoint rate
// limiter shared by resolution adapters.
package engine

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/lex"
)

// Recognizer maps a normalized domain to a claimed or impersonated brand.
type Recognizer interface {
	Recognize(d core.Domain) core.Recognition
}

// OwnerResolver resolves a domain's registrant. Must be total: it returns a
// RegistrantInfo for every input, never an error.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, d core.Domain) core.RegistrantInfo
}

// Classifier assigns the TLD category used for adapter dispatch.
type Classifier interface {
	Classify(d core.Domain) core.TLDCategory
}

// Comparator reconciles recognition output with the resolved registrant.
type Comparator interface {
	Compare(d core.Domain, rec core.Recognition, owner core.RegistrantInfo) core.Comparison
}

// Pipeline is the end-to-end email analysis orchestrator. Stateless between
// requests; all reference data lives behind the injected components, which
// are safe for unbounded concurrent readers.
type Pipeline struct {
	Recognizer Recognizer
	Resolver   OwnerResolver
	Classifier Classifier
	Comparator Comparator
}

var (
	emailPattern   = regexp.MustCompile(`^[a-z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)
	noReplyPattern = regexp.MustCompile(`(?i)\bno[-_]?reply\b`)
)

// Sanitize runs the full pipeline for one email address. The contract is
// total: every input produces a complete AnalysisResult, malformed input
// included.
func (p *Pipeline) Sanitize(ctx context.Context, email string) *core.AnalysisResult {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &core.AnalysisResult{
		RequestID: uuid.New().String(),
		Email:     email,
		Labels:    []string{},
		Evidences: []core.Evidence{},
	}

	cleaned := strings.ToLower(strings.TrimSpace(email))

	if anomaly := asciiAnomaly(cleaned); anomaly {
		result.Verdict = core.VerdictInvalid
		result.VerdictDetail = "Ascii anomaly detected"
		result.Labels = []string{"invalid-format", "ascii-anomaly"}
		result.Evidences = append(result.Evidences, core.Evidence{
			Type:   core.EvidenceFormat,
			Value:  email,
			Score:  0,
			Detail: "address contains non-ascii characters",
		})
		return result
	}

	if !emailPattern.MatchString(cleaned) {
		// Automated senders frequently mangle no-reply addresses; those are
		// still worth analyzing when a domain can be extracted.
		if !noReplyPattern.MatchString(cleaned) || !strings.Contains(cleaned, "@") {
			result.Verdict = core.VerdictInvalid
			result.VerdictDetail = "Invalid email format"
			result.Labels = []string{"invalid-format"}
			result.Evidences = append(result.Evidences, core.Evidence{
				Type:   core.EvidenceFormat,
				Value:  email,
				Score:  0,
				Detail: "address failed syntax validation",
			})
			return result
		}
	}

	host := cleaned[strings.LastIndex(cleaned, "@")+1:]
	domain, err := lex.Normalize(host)
	if err != nil {
		result.Verdict = core.VerdictInvalid
		result.VerdictDetail = "Invalid email format"
		result.Labels = []string{"invalid-format"}
		result.Evidences = append(result.Evidences, core.Evidence{
			Type:   core.EvidenceFormat,
			Value:  host,
			Score:  0,
			Detail: err.Error(),
		})
		return result
	}
	if p.Classifier != nil {
		domain.Category = p.Classifier.Classify(domain)
	}

	recognition := p.Recognizer.Recognize(domain)

	var owner core.RegistrantInfo
	if !recognition.PersonalProvider {
		// Freemail traffic never reaches the resolver; everything else does,
		// including unlisted domains, so the comparison sees a registrant.
		owner = p.Resolver.ResolveOwner(ctx, domain)
	}

	comparison := p.Comparator.Compare(domain, recognition, owner)

	result.Verdict = comparison.Verdict
	result.VerdictDetail = comparison.Detail
	result.Confidence = clamp01(comparison.Confidence)
	result.Labels = comparison.Labels
	result.Evidences = comparison.Evidences
	result.CompanyDetected = comparison.CompanyDetected
	result.CompanyImpersonated = comparison.CompanyImpersonated
	if result.Labels == nil {
		result.Labels = []string{}
	}
	if result.Evidences == nil {
		result.Evidences = []core.Evidence{}
	}

	return result
}

func asciiAnomaly(email string) bool {
	for _, r := range email {
		if r > 127 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
