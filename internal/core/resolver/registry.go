package resolver

import (
	"fmt"
	"strings"

	"github.com/mailcred/mailcred/internal/core"
)

// ChainEntry is one resolution attempt: which domain variant to query, under
// which spec, with which adapter.
type ChainEntry struct {
	Domain  string
	Spec    TLDSpec
	Adapter Adapter
}

// Registry maps TLDs to their resolution strategy and fallback chain.
type Registry struct {
	specs    map[string]TLDSpec
	geo      map[string]string
	adapters map[string]Adapter
}

// NewRegistry builds the adapter registry. Specs are validated for fallback
// cycles at load time; a cyclic chain is a configuration error, not a runtime
// condition.
func NewRegistry(specs []TLDSpec, geo map[string]string, adapters map[string]Adapter) (*Registry, error) {
	byTLD := make(map[string]TLDSpec, len(specs))
	for _, spec := range specs {
		tld := normalizeTLD(spec.TLD)
		if tld == "" {
			return nil, fmt.Errorf("tld spec with empty tld")
		}
		spec.TLD = tld
		byTLD[tld] = spec
	}

	if err := validateChains(byTLD); err != nil {
		return nil, err
	}

	normalizedGeo := make(map[string]string, len(geo))
	for tld, country := range geo {
		normalizedGeo[normalizeTLD(tld)] = normalizeTLD(country)
	}

	return &Registry{specs: byTLD, geo: normalizedGeo, adapters: adapters}, nil
}

func normalizeTLD(tld string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tld), "."))
}

// lastLabel returns the final label of a possibly multi-label public suffix:
// "co.uk" yields "uk". Category and strategy heuristics key on that label.
func lastLabel(tld string) string {
	if i := strings.LastIndexByte(tld, '.'); i >= 0 {
		return tld[i+1:]
	}
	return tld
}

// validateChains rejects fallback chains that revisit a TLD.
func validateChains(specs map[string]TLDSpec) error {
	for start := range specs {
		visited := map[string]bool{start: true}
		frontier := append([]string(nil), specs[start].Fallback...)
		for len(frontier) > 0 {
			tld := normalizeTLD(frontier[0])
			frontier = frontier[1:]
			if tld == "" {
				continue
			}
			if visited[tld] {
				return fmt.Errorf("tld %s: fallback chain revisits %s", start, tld)
			}
			visited[tld] = true
			if next, ok := specs[tld]; ok {
				frontier = append(frontier, next.Fallback...)
			}
		}
	}
	return nil
}

// Classify determines the TLD category for a normalized domain. Multi-label
// public suffixes classify by their country label, so "co.uk" is a ccTLD.
func (r *Registry) Classify(d core.Domain) core.TLDCategory {
	tld := normalizeTLD(d.TLD)
	switch {
	case strings.HasPrefix(lastLabel(tld), "xn--"):
		return core.TLDCategoryIDNCCTLD
	case r != nil && r.geo[tld] != "":
		return core.TLDCategoryGeoTLD
	case len(lastLabel(tld)) == 2:
		return core.TLDCategoryASCIICCTLD
	default:
		return core.TLDCategoryGeneric
	}
}

// ChainFor returns the ordered resolver chain for a domain: the primary
// adapter first, then its fallback chain, each entry's own further fallbacks
// flattened and de-duplicated. Cycle-free by construction.
func (r *Registry) ChainFor(d core.Domain) []ChainEntry {
	if r == nil {
		return nil
	}

	tld := normalizeTLD(d.TLD)
	base := d.Base
	visited := make(map[string]bool)
	var chain []ChainEntry

	push := func(entryTLD string) {
		entryTLD = normalizeTLD(entryTLD)
		if entryTLD == "" || visited[entryTLD] {
			return
		}
		visited[entryTLD] = true
		spec := r.specFor(entryTLD)
		chain = append(chain, ChainEntry{
			Domain:  base + "." + entryTLD,
			Spec:    spec,
			Adapter: r.adapterFor(spec.Strategy),
		})
	}

	switch r.Classify(d) {
	case core.TLDCategoryGeneric:
		// Generic TLDs try RDAP first and the same domain over WHOIS as a
		// second chance before walking any configured fallback.
		visited[tld] = true
		spec := r.specFor(tld)
		if spec.Strategy == "" || spec.Strategy == StrategyWhois {
			spec.Strategy = StrategyRDAP
		}
		chain = append(chain, ChainEntry{Domain: d.Root(), Spec: spec, Adapter: r.adapterFor(spec.Strategy)})
		whoisSpec := spec
		whoisSpec.Strategy = StrategyWhois
		whoisSpec.Server = ""
		chain = append(chain, ChainEntry{Domain: d.Root(), Spec: whoisSpec, Adapter: r.adapterFor(StrategyWhois)})
		r.walkFallbacks(spec.Fallback, push)
	case core.TLDCategoryGeoTLD:
		push(tld)
		// A geo-TLD's natural fallback is its country's ccTLD.
		if country := r.geo[tld]; country != "" {
			push(country)
			r.walkFallbacks(r.specFor(country).Fallback, push)
		}
	default:
		push(tld)
		r.walkFallbacks(r.specFor(tld).Fallback, push)
	}

	return chain
}

func (r *Registry) walkFallbacks(fallback []string, push func(string)) {
	frontier := append([]string(nil), fallback...)
	for len(frontier) > 0 {
		tld := normalizeTLD(frontier[0])
		frontier = frontier[1:]
		if tld == "" {
			continue
		}
		push(tld)
		if spec, ok := r.specs[tld]; ok {
			frontier = append(frontier, spec.Fallback...)
		}
	}
}

// specFor returns the configured spec for a TLD, or a synthesized one for
// TLDs without explicit configuration. A multi-label suffix without its own
// spec inherits the spec of its country label, so "co.uk" resolves with the
// "uk" server and fallbacks.
func (r *Registry) specFor(tld string) TLDSpec {
	if spec, ok := r.specs[tld]; ok {
		if spec.Strategy == "" {
			spec.Strategy = r.defaultStrategy(tld)
		}
		return spec
	}
	if last := lastLabel(tld); last != tld {
		if spec, ok := r.specs[last]; ok {
			spec.TLD = tld
			if spec.Strategy == "" {
				spec.Strategy = r.defaultStrategy(tld)
			}
			return spec
		}
	}
	return TLDSpec{TLD: tld, Strategy: r.defaultStrategy(tld)}
}

func (r *Registry) defaultStrategy(tld string) string {
	switch {
	case strings.HasPrefix(lastLabel(tld), "xn--"):
		return StrategyIDN
	case r.geo[tld] != "":
		return StrategyWeb
	case len(lastLabel(tld)) == 2:
		return StrategyWhois
	default:
		return StrategyRDAP
	}
}

func (r *Registry) adapterFor(strategy string) Adapter {
	if r == nil || r.adapters == nil {
		return nil
	}
	if adapter, ok := r.adapters[strategy]; ok {
		return adapter
	}
	return r.adapters[StrategyWhois]
}
