package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mailcred/mailcred/internal/core"
)

type stubRecognizer struct {
	result core.Recognition
	seen   []core.Domain
}

func (s *stubRecognizer) Recognize(d core.Domain) core.Recognition {
	s.seen = append(s.seen, d)
	return s.result
}

type stubResolver struct {
	result core.RegistrantInfo
	seen   []core.Domain
}

func (s *stubResolver) ResolveOwner(ctx context.Context, d core.Domain) core.RegistrantInfo {
	s.seen = append(s.seen, d)
	return s.result
}

type stubComparator struct {
	result core.Comparison
}

func (s *stubComparator) Compare(d core.Domain, rec core.Recognition, owner core.RegistrantInfo) core.Comparison {
	return s.result
}

func testPipeline(rec core.Recognition, owner core.RegistrantInfo, cmp core.Comparison) (*Pipeline, *stubRecognizer, *stubResolver) {
	recognizer := &stubRecognizer{result: rec}
	resolver := &stubResolver{result: owner}
	return &Pipeline{
		Recognizer: recognizer,
		Resolver:   resolver,
		Comparator: &stubComparator{result: cmp},
	}, recognizer, resolver
}

func TestSanitizeValidEmail(t *testing.T) {
	detected := "bancosantander"
	p, recognizer, resolver := testPipeline(
		core.Recognition{Exact: true},
		core.RegistrantInfo{Organization: "Banco Santander SA"},
		core.Comparison{
			Verdict:         core.VerdictValid,
			Detail:          "Dominio legítimo y titular coincidente",
			Confidence:      1.0,
			Labels:          []string{"legitimate"},
			CompanyDetected: &detected,
		},
	)

	result := p.Sanitize(context.Background(), "Cliente@Santander.COM")
	require.Equal(t, core.VerdictValid, result.Verdict)
	require.Equal(t, "Cliente@Santander.COM", result.Email)
	require.NotEmpty(t, result.RequestID)
	require.InDelta(t, 1.0, result.Confidence, 1e-9)
	require.Equal(t, &detected, result.CompanyDetected)

	require.Len(t, recognizer.seen, 1)
	require.Equal(t, "santander.com", recognizer.seen[0].Normalized)
	require.Len(t, resolver.seen, 1)
}

func TestSanitizeFreemailSkipsResolver(t *testing.T) {
	p, _, resolver := testPipeline(
		core.Recognition{PersonalProvider: true, ProviderName: "gmail"},
		core.RegistrantInfo{},
		core.Comparison{Verdict: core.VerdictValid, Confidence: 1.0},
	)

	result := p.Sanitize(context.Background(), "someone@gmail.com")
	require.Equal(t, core.VerdictValid, result.Verdict)
	require.Empty(t, resolver.seen)
}

func TestSanitizeInvalidFormat(t *testing.T) {
	p, recognizer, _ := testPipeline(core.Recognition{}, core.RegistrantInfo{}, core.Comparison{})

	for _, email := range []string{"", "not-an-email", "user@", "@domain.com", "a@b"} {
		result := p.Sanitize(context.Background(), email)
		require.Equal(t, core.VerdictInvalid, result.Verdict, "email %q", email)
		require.Equal(t, "Invalid email format", result.VerdictDetail)
		require.Contains(t, result.Labels, "invalid-format")
		require.NotEmpty(t, result.Evidences)
	}
	require.Empty(t, recognizer.seen)
}

func TestSanitizeAsciiAnomaly(t *testing.T) {
	p, recognizer, _ := testPipeline(core.Recognition{}, core.RegistrantInfo{}, core.Comparison{})

	result := p.Sanitize(context.Background(), "cliente@santandér.com")
	require.Equal(t, core.VerdictInvalid, result.Verdict)
	require.Equal(t, "Ascii anomaly detected", result.VerdictDetail)
	require.Contains(t, result.Labels, "ascii-anomaly")
	require.Empty(t, recognizer.seen)
}

func TestSanitizeNoReplyTolerance(t *testing.T) {
	p, recognizer, _ := testPipeline(
		core.Recognition{},
		core.RegistrantInfo{Organization: "unknown"},
		core.Comparison{Verdict: core.VerdictValid, Confidence: 0.5},
	)

	// Mangled no-reply senders still get analyzed when a domain is present.
	result := p.Sanitize(context.Background(), "no-reply=news@caixabank.es")
	require.Equal(t, core.VerdictValid, result.Verdict)
	require.Len(t, recognizer.seen, 1)
	require.Equal(t, "caixabank.es", recognizer.seen[0].Normalized)
}

func TestSanitizeTotalResult(t *testing.T) {
	p, _, _ := testPipeline(core.Recognition{}, core.RegistrantInfo{}, core.Comparison{
		Verdict: core.VerdictValid,
	})

	result := p.Sanitize(nil, "user@example.com") // nolint:staticcheck // nil ctx exercised deliberately
	require.NotNil(t, result)
	require.NotNil(t, result.Labels)
	require.NotNil(t, result.Evidences)
}
