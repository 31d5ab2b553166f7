// Package recognize maps a domain to the brand it claims, or resembles,
// using exact known-domain lookup first and fuzzy n-gram search second.
package recognize

import (
	"strings"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/brand"
	"github.com/mailcred/mailcred/internal/core/lex"
)

// Kernel is the recognition kernel. Read-only after construction.
type Kernel struct {
	Brands *brand.Registry
	// OmitWords are noise tokens stripped before fuzzy search.
	OmitWords map[string]struct{}
	// Providers is the personal-mail provider set (gmail.com, outlook.com...).
	Providers map[string]struct{}
	// Degraded marks that the brand registry could not be loaded; recognition
	// then reports no brand rather than failing the request.
	Degraded bool
}

// Recognize determines which brand, if any, the domain claims to represent.
//
// A fuzzy match above the acceptance threshold is treated as the claimed
// brand regardless of whether the domain belongs to it: resemblance flags a
// candidate impersonation, it never implies legitimacy on its own.
func (k *Kernel) Recognize(d core.Domain) core.Recognition {
	if provider, ok := k.personalProvider(d); ok {
		return core.Recognition{PersonalProvider: true, ProviderName: provider}
	}

	if k.Degraded || k.Brands == nil || k.Brands.Len() == 0 {
		return core.Recognition{Degraded: k.Degraded}
	}

	if record := k.Brands.LookupExact(d.Root()); record != nil {
		return core.Recognition{Detected: record, Score: 1.0, Exact: true}
	}
	if record := k.Brands.LookupExact(d.Normalized); record != nil {
		return core.Recognition{Detected: record, Score: 1.0, Exact: true}
	}

	query := lex.SearchKey(d, k.OmitWords)
	matches := k.Brands.SearchFuzzy(query)
	if len(matches) == 0 {
		return core.Recognition{}
	}

	best := matches[0]
	return core.Recognition{
		Candidate: &best.Record,
		Score:     best.Score,
	}
}

func (k *Kernel) personalProvider(d core.Domain) (string, bool) {
	if len(k.Providers) == 0 {
		return "", false
	}
	root := d.Root()
	if _, ok := k.Providers[root]; ok {
		return strings.SplitN(root, ".", 2)[0], true
	}
	if _, ok := k.Providers[d.Normalized]; ok {
		return strings.SplitN(d.Normalized, ".", 2)[0], true
	}
	return "", false
}
