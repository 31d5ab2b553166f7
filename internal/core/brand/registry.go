// Package brand provides read-only lookup of known brands by exact domain and
// fuzzy n-gram match. The registry is loaded once from the reference store and
// is safe for unbounded concurrent readers; there is no write path here.
package brand

import (
	"sort"
	"strings"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/lex"
)

// MatchConfig holds the fuzzy-match acceptance thresholds. The zero value is
// replaced by Defaults.
type MatchConfig struct {
	// Threshold is the minimum n-gram overlap ratio for queries longer than
	// ShortLength, evaluated at the 3-gram window.
	Threshold float64
	// ShortThreshold is the minimum overlap ratio for short queries,
	// evaluated at the 2-gram window.
	ShortThreshold float64
	// ShortLength is the query length at or below which the 2-gram window
	// and ShortThreshold apply.
	ShortLength int
}

// Defaults mirror the seeded search profile: 45% 3-gram overlap for regular
// queries, 70% 2-gram overlap for short ones.
var Defaults = MatchConfig{
	Threshold:      0.45,
	ShortThreshold: 0.70,
	ShortLength:    5,
}

// Match is one fuzzy search candidate with its acceptance score. Exact
// known-domain hits never reach fuzzy search; LookupExact handles them.
type Match struct {
	Record core.BrandRecord
	Score  float64

	// overlap ratios per window, index 0 => 2-gram, 1 => 3-gram, 2 => 4-gram
	overlaps [3]float64
}

// Registry is the in-memory brand index.
type Registry struct {
	records  []core.BrandRecord
	byDomain map[string]int
	cfg      MatchConfig

	searchGrams []recordGrams
	ownerGrams  []recordGrams
}

type recordGrams struct {
	sets [3]map[string]struct{}
}

// NewRegistry builds the index over the given records. Records whose
// DomainSearch is empty index under their ID.
func NewRegistry(records []core.BrandRecord, cfg MatchConfig) *Registry {
	if cfg.Threshold <= 0 {
		cfg.Threshold = Defaults.Threshold
	}
	if cfg.ShortThreshold <= 0 {
		cfg.ShortThreshold = Defaults.ShortThreshold
	}
	if cfg.ShortLength <= 0 {
		cfg.ShortLength = Defaults.ShortLength
	}

	r := &Registry{
		records:  records,
		byDomain: make(map[string]int),
		cfg:      cfg,
	}

	r.searchGrams = make([]recordGrams, len(records))
	r.ownerGrams = make([]recordGrams, len(records))
	for i, record := range records {
		for _, domain := range record.KnownDomains {
			domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
			if domain == "" {
				continue
			}
			// A domain maps to at most one brand; conflicting seeds are a
			// data-integrity error caught at bootstrap, first one wins here.
			if _, taken := r.byDomain[domain]; !taken {
				r.byDomain[domain] = i
			}
		}

		search := record.DomainSearch
		if search == "" {
			search = record.ID
		}
		folded := lex.Fold(search)
		ownerKey := lex.OwnerKey(strings.Join(record.OwnerTerms, " "))
		for w, n := range lex.NGramWindows {
			r.searchGrams[i].sets[w] = lex.GramSet(folded, n)
			r.ownerGrams[i].sets[w] = lex.GramSet(ownerKey, n)
		}
	}

	return r
}

// Len returns the number of indexed brands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// LookupExact returns the brand owning the given domain, if any. O(1).
func (r *Registry) LookupExact(domain string) *core.BrandRecord {
	if r == nil {
		return nil
	}
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	idx, ok := r.byDomain[domain]
	if !ok {
		return nil
	}
	record := r.records[idx]
	return &record
}

// SearchFuzzy scores every brand against the folded query and returns the
// candidates at or above the acceptance threshold, best first.
//
// Tie-break order for equal scores: higher overlap at the larger window
// (4-gram over 3-gram over 2-gram), then the lexicographically smaller
// brand id.
func (r *Registry) SearchFuzzy(query string) []Match {
	return r.search(query, r.searchGrams)
}

// SearchOwner matches a normalized registrant owner key against each brand's
// owner terms, using the same gram semantics as domain search.
func (r *Registry) SearchOwner(ownerKey string) []Match {
	return r.search(ownerKey, r.ownerGrams)
}

// OwnerScore returns the owner-terms overlap score for one specific brand.
func (r *Registry) OwnerScore(brandID, ownerKey string) float64 {
	if r == nil || ownerKey == "" {
		return 0
	}
	for i, record := range r.records {
		if record.ID != brandID {
			continue
		}
		window := r.windowFor(ownerKey)
		query := lex.GramSet(ownerKey, lex.NGramWindows[window])
		return overlapRatio(query, r.ownerGrams[i].sets[window])
	}
	return 0
}

func (r *Registry) search(query string, grams []recordGrams) []Match {
	if r == nil || query == "" {
		return nil
	}

	window := r.windowFor(query)
	threshold := r.cfg.Threshold
	if window == 0 {
		threshold = r.cfg.ShortThreshold
	}

	var querySets [3]map[string]struct{}
	for w, n := range lex.NGramWindows {
		querySets[w] = lex.GramSet(query, n)
	}

	var matches []Match
	for i, record := range r.records {
		score := overlapRatio(querySets[window], grams[i].sets[window])
		if score < threshold {
			continue
		}

		m := Match{Record: record, Score: score}
		for w := range lex.NGramWindows {
			m.overlaps[w] = overlapRatio(querySets[w], grams[i].sets[w])
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(a, b int) bool {
		ma, mb := matches[a], matches[b]
		if ma.Score != mb.Score {
			return ma.Score > mb.Score
		}
		for w := len(ma.overlaps) - 1; w >= 0; w-- {
			if ma.overlaps[w] != mb.overlaps[w] {
				return ma.overlaps[w] > mb.overlaps[w]
			}
		}
		return ma.Record.ID < mb.Record.ID
	})

	return matches
}

// windowFor selects the gram window index by query length: short queries use
// 2-grams, everything else 3-grams. The 4-gram window participates only in
// tie-breaking.
func (r *Registry) windowFor(query string) int {
	if len(query) <= r.cfg.ShortLength {
		return 0
	}
	return 1
}

// overlapRatio is the boolean n-gram similarity: the share of query grams
// present in the candidate set. A gram either matches or it does not.
func overlapRatio(query, candidate map[string]struct{}) float64 {
	if len(query) == 0 || len(candidate) == 0 {
		return 0
	}
	hits := 0
	for gram := range query {
		if _, ok := candidate[gram]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
