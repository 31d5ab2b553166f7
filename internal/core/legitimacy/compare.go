// Package legitimacy reconciles brand recognition with registrant resolution
// into an evidence-backed verdict.
package legitimacy

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/brand"
	"github.com/mailcred/mailcred/internal/core/lex"
)

// Config holds the comparison thresholds and confidence weights. All values
// are covered by the threshold-sensitive tests; change them there first.
type Config struct {
	// OwnerThreshold is the minimum owner-terms n-gram overlap to accept a
	// registrant as matching a brand.
	OwnerThreshold float64
	// OwnerSimilarity is the minimum normalized Levenshtein similarity
	// between registrant and brand owner terms to accept a match.
	OwnerSimilarity float64
	// PartialSimilarity is the lower bound of the "partially matching
	// registrant" band that yields a suspicious verdict instead of phishing.
	PartialSimilarity float64
	// PrivacyPenalty is the fixed confidence discount applied when the
	// registrant is privacy-redacted.
	PrivacyPenalty float64
	// BrandWeight and OwnerWeight combine the two match scores into the
	// confidence value; they should sum to 1.
	BrandWeight float64
	OwnerWeight float64
	// NeutralConfidence is reported for unlisted domains with no brand claim.
	NeutralConfidence float64
}

// Defaults are the documented production constants.
var Defaults = Config{
	OwnerThreshold:    0.45,
	OwnerSimilarity:   0.90,
	PartialSimilarity: 0.50,
	PrivacyPenalty:    0.25,
	BrandWeight:       0.60,
	OwnerWeight:       0.40,
	NeutralConfidence: 0.50,
}

// Kernel is the legitimacy comparison kernel.
type Kernel struct {
	Brands *brand.Registry
	Cfg    Config
}

// NewKernel builds a kernel, filling zero config fields from Defaults.
func NewKernel(brands *brand.Registry, cfg Config) *Kernel {
	if cfg.OwnerThreshold <= 0 {
		cfg.OwnerThreshold = Defaults.OwnerThreshold
	}
	if cfg.OwnerSimilarity <= 0 {
		cfg.OwnerSimilarity = Defaults.OwnerSimilarity
	}
	if cfg.PartialSimilarity <= 0 {
		cfg.PartialSimilarity = Defaults.PartialSimilarity
	}
	if cfg.PrivacyPenalty <= 0 {
		cfg.PrivacyPenalty = Defaults.PrivacyPenalty
	}
	if cfg.BrandWeight <= 0 {
		cfg.BrandWeight = Defaults.BrandWeight
	}
	if cfg.OwnerWeight <= 0 {
		cfg.OwnerWeight = Defaults.OwnerWeight
	}
	if cfg.NeutralConfidence <= 0 {
		cfg.NeutralConfidence = Defaults.NeutralConfidence
	}
	return &Kernel{Brands: brands, Cfg: cfg}
}

// Compare maps the recognition/registrant state pair onto a verdict.
//
// Policy notes:
//   - exact-known domains always trust the registry: a registrant mismatch
//     on an exact match lowers confidence but never flips the verdict;
//   - an exact tie between the legitimacy signal (owner match) and the
//     impersonation signal (brand resemblance) resolves to the impersonation
//     outcome, the safer default.
func (k *Kernel) Compare(d core.Domain, rec core.Recognition, owner core.RegistrantInfo) core.Comparison {
	switch {
	case rec.PersonalProvider:
		return k.freemail(rec)
	case rec.Exact && rec.Detected != nil:
		return k.exactBrand(d, rec, owner)
	case rec.Candidate != nil:
		return k.resemblance(d, rec, owner)
	default:
		return k.unlisted(rec, owner)
	}
}

func (k *Kernel) freemail(rec core.Recognition) core.Comparison {
	return core.Comparison{
		Verdict:    core.VerdictValid,
		Detail:     "General-supplier's domain",
		Confidence: 1.0,
		Labels:     []string{rec.ProviderName, "freemail"},
		Evidences: []core.Evidence{{
			Type:   core.EvidencePersonalProvider,
			Value:  rec.ProviderName,
			Score:  1.0,
			Detail: "domain belongs to a personal mail provider",
		}},
	}
}

func (k *Kernel) exactBrand(d core.Domain, rec core.Recognition, owner core.RegistrantInfo) core.Comparison {
	record := rec.Detected
	ownerScore, ownerMatched := k.matchOwner(record, owner)
	detected := record.ID

	cmp := core.Comparison{
		CompanyDetected: &detected,
		Evidences: []core.Evidence{{
			Type:   core.EvidenceBrandMatch,
			Value:  record.ID,
			Score:  1.0,
			Detail: fmt.Sprintf("%s is a known domain of %s", d.Root(), record.ID),
		}},
	}

	switch {
	case ownerMatched:
		cmp.Verdict = core.VerdictValid
		cmp.Detail = "Dominio legítimo y titular coincidente"
		cmp.Confidence = k.combine(1.0, ownerScore, false)
		cmp.Labels = []string{"legitimate", "dominio-corporativo"}
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "registrant matches brand owner terms",
		})
	case owner.PrivacyProtected:
		cmp.Verdict = core.VerdictValid
		cmp.Detail = "Dominio legítimo con titular protegido por privacidad"
		cmp.Confidence = k.combine(1.0, 0.5, true)
		cmp.Labels = []string{"legitimate", "privacidad-whois"}
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidencePrivacyRedaction,
			Value:  owner.Organization,
			Score:  k.Cfg.PrivacyPenalty,
			Detail: "registrant is privacy-redacted; confidence discounted",
		})
	default:
		// Known domains trust the registry; the mismatch only caps
		// confidence at the brand signal.
		cmp.Verdict = core.VerdictValid
		cmp.Detail = "Dominio legítimo; titular registral distinto"
		cmp.Confidence = k.combine(1.0, 0, false)
		cmp.Labels = []string{"legitimate"}
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "registrant does not match brand owner terms",
		})
	}

	return cmp
}

func (k *Kernel) resemblance(d core.Domain, rec core.Recognition, owner core.RegistrantInfo) core.Comparison {
	record := rec.Candidate
	ownerScore, ownerMatched := k.matchOwner(record, owner)
	candidate := record.ID

	cmp := core.Comparison{
		Evidences: []core.Evidence{{
			Type:   core.EvidenceBrandMatch,
			Value:  record.ID,
			Score:  rec.Score,
			Detail: fmt.Sprintf("%s resembles brand %s without being a known domain", d.Root(), record.ID),
		}},
	}

	switch {
	case ownerMatched && ownerScore > rec.Score:
		// The registrant is the brand itself: an unlisted but legitimately
		// owned domain.
		cmp.Verdict = core.VerdictValid
		cmp.Detail = "Dominio no listado con titular coincidente"
		cmp.Confidence = k.combine(rec.Score, ownerScore, owner.PrivacyProtected)
		cmp.Labels = []string{"legitimate", "dominio-corporativo"}
		cmp.CompanyDetected = &candidate
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "registrant matches brand owner terms",
		})
	case ownerMatched && ownerScore == rec.Score:
		// Exact tie between legitimacy and impersonation signals: resolve
		// toward impersonation.
		cmp.Verdict = core.VerdictPhishing
		cmp.Detail = "Señales de legitimidad e impersonación empatadas"
		cmp.Confidence = k.Cfg.OwnerWeight * ownerScore
		cmp.Labels = []string{"posible-phishing", "dominio-sospechoso"}
		cmp.CompanyImpersonated = &candidate
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "owner and resemblance signals tied; defaulting to impersonation",
		})
	case ownerScore >= k.Cfg.PartialSimilarity:
		cmp.Verdict = core.VerdictSuspicious
		cmp.Detail = "Titular parcialmente coincidente con la marca"
		cmp.Confidence = k.Cfg.OwnerWeight * ownerScore
		cmp.Labels = []string{"dominio-sospechoso"}
		cmp.CompanyImpersonated = &candidate
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "registrant partially matches brand owner terms",
		})
	default:
		cmp.Verdict = core.VerdictPhishing
		cmp.Detail = "Dominio o titular no coincide con la empresa objetivo"
		cmp.Confidence = k.Cfg.OwnerWeight * ownerScore
		cmp.Labels = []string{"posible-phishing", "dominio-sospechoso"}
		cmp.CompanyImpersonated = &candidate
		cmp.CompanyDetected = k.detectOwnerBrand(owner)
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceOwnerMatch,
			Value:  owner.Organization,
			Score:  ownerScore,
			Detail: "registrant does not match the resembled brand",
		})
	}

	if owner.PrivacyProtected {
		cmp.Labels = append(cmp.Labels, "privacidad-whois")
		cmp.Confidence = clamp01(cmp.Confidence - k.Cfg.PrivacyPenalty)
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidencePrivacyRedaction,
			Value:  owner.Organization,
			Score:  k.Cfg.PrivacyPenalty,
			Detail: "registrant is privacy-redacted",
		})
	}
	cmp.Confidence = clamp01(cmp.Confidence)

	return cmp
}

func (k *Kernel) unlisted(rec core.Recognition, owner core.RegistrantInfo) core.Comparison {
	cmp := core.Comparison{
		Verdict:    core.VerdictValid,
		Detail:     "Dominio no listado; sin indicios de impersonación",
		Confidence: k.Cfg.NeutralConfidence,
		Labels:     []string{},
		Evidences:  []core.Evidence{},
	}

	if rec.Degraded {
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidenceBrandMatch,
			Value:  "",
			Score:  0,
			Detail: "brand registry unavailable; recognition degraded to no-brand",
		})
	}

	if owner.PrivacyProtected {
		cmp.Labels = append(cmp.Labels, "privacidad-whois")
		cmp.Evidences = append(cmp.Evidences, core.Evidence{
			Type:   core.EvidencePrivacyRedaction,
			Value:  owner.Organization,
			Score:  k.Cfg.PrivacyPenalty,
			Detail: "registrant is privacy-redacted",
		})
	}

	return cmp
}

// matchOwner scores the registrant against a brand's owner terms, combining
// the shared n-gram semantics with a normalized Levenshtein similarity.
func (k *Kernel) matchOwner(record *core.BrandRecord, owner core.RegistrantInfo) (float64, bool) {
	if record == nil {
		return 0, false
	}
	ownerKey := lex.OwnerKey(owner.Organization)
	if ownerKey == "" || owner.Organization == "" {
		return 0, false
	}

	gramScore := 0.0
	if k.Brands != nil {
		gramScore = k.Brands.OwnerScore(record.ID, ownerKey)
	}

	termsKey := lex.OwnerKey(strings.Join(record.OwnerTerms, " "))
	levScore := similarity(ownerKey, termsKey)
	if idKey := lex.Fold(record.ID); idKey != "" {
		if s := similarity(ownerKey, idKey); s > levScore {
			levScore = s
		}
	}

	score := gramScore
	if levScore > score {
		score = levScore
	}
	matched := gramScore >= k.Cfg.OwnerThreshold || levScore >= k.Cfg.OwnerSimilarity
	return score, matched
}

// detectOwnerBrand reports which brand, if any, the registrant itself
// matches. Used to fill company_detected on phishing verdicts.
func (k *Kernel) detectOwnerBrand(owner core.RegistrantInfo) *string {
	if k.Brands == nil || owner.Organization == "" || owner.Organization == "unknown" {
		return nil
	}
	matches := k.Brands.SearchOwner(lex.OwnerKey(owner.Organization))
	if len(matches) == 0 {
		return nil
	}
	id := matches[0].Record.ID
	return &id
}

func (k *Kernel) combine(brandScore, ownerScore float64, privacy bool) float64 {
	confidence := k.Cfg.BrandWeight*brandScore + k.Cfg.OwnerWeight*ownerScore
	if privacy {
		confidence -= k.Cfg.PrivacyPenalty
	}
	return clamp01(confidence)
}

func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	s := 1 - float64(dist)/float64(maxLen)
	return clamp01(s)
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
