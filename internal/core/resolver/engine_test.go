package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailcred/mailcred/internal/core"
)

type stubAdapter struct {
	strategy string
	results  map[string]*core.RegistrantInfo
	seen     []string
}

func (s *stubAdapter) Strategy() string { return s.strategy }

func (s *stubAdapter) Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error) {
	s.seen = append(s.seen, domain)
	if info, ok := s.results[domain]; ok {
		return info, nil
	}
	return nil, resolutionErr(ErrNotFound, s.strategy, errors.New("no data"))
}

func esDomain() core.Domain {
	return core.Domain{Normalized: "correo.caixabank.es", Base: "caixabank", TLD: "es"}
}

func TestChainForWalksFallbacks(t *testing.T) {
	specs := []TLDSpec{
		{TLD: "es", Strategy: StrategyWeb, Fallback: []string{"com", "net"}},
		{TLD: "com", Strategy: StrategyRDAP},
	}
	registry, err := NewRegistry(specs, nil, nil)
	require.NoError(t, err)

	chain := registry.ChainFor(esDomain())
	require.Len(t, chain, 3)
	require.Equal(t, "caixabank.es", chain[0].Domain)
	require.Equal(t, StrategyWeb, chain[0].Spec.Strategy)
	require.Equal(t, "caixabank.com", chain[1].Domain)
	require.Equal(t, StrategyRDAP, chain[1].Spec.Strategy)
	require.Equal(t, "caixabank.net", chain[2].Domain)
}

func TestChainForGeoTLD(t *testing.T) {
	specs := []TLDSpec{
		{TLD: "es", Strategy: StrategyWeb, Fallback: []string{"com"}},
	}
	geo := map[string]string{"madrid": "es"}
	registry, err := NewRegistry(specs, geo, nil)
	require.NoError(t, err)

	d := core.Domain{Normalized: "ayto.madrid", Base: "ayto", TLD: "madrid"}
	require.Equal(t, core.TLDCategoryGeoTLD, registry.Classify(d))

	chain := registry.ChainFor(d)
	require.Len(t, chain, 3)
	require.Equal(t, "ayto.madrid", chain[0].Domain)
	require.Equal(t, "ayto.es", chain[1].Domain)
	require.Equal(t, "ayto.com", chain[2].Domain)
}

func TestChainForGenericRetriesWhois(t *testing.T) {
	registry, err := NewRegistry(nil, nil, nil)
	require.NoError(t, err)

	d := core.Domain{Normalized: "revolut.com", Base: "revolut", TLD: "com"}
	chain := registry.ChainFor(d)
	require.Len(t, chain, 2)
	require.Equal(t, StrategyRDAP, chain[0].Spec.Strategy)
	require.Equal(t, StrategyWhois, chain[1].Spec.Strategy)
	require.Equal(t, chain[0].Domain, chain[1].Domain)
}

func TestChainForMultiLabelSuffix(t *testing.T) {
	specs := []TLDSpec{
		{TLD: "uk", Strategy: StrategyWhois, Server: "whois.nic.uk", Fallback: []string{"com"}},
		{TLD: "com", Strategy: StrategyRDAP},
	}
	registry, err := NewRegistry(specs, nil, nil)
	require.NoError(t, err)

	d := core.Domain{Normalized: "santander.co.uk", Base: "santander", TLD: "co.uk"}
	require.Equal(t, core.TLDCategoryASCIICCTLD, registry.Classify(d))

	chain := registry.ChainFor(d)
	require.Len(t, chain, 2)
	// The primary entry queries the registrable domain, never the bare
	// public suffix, and inherits the country spec.
	require.Equal(t, "santander.co.uk", chain[0].Domain)
	require.Equal(t, StrategyWhois, chain[0].Spec.Strategy)
	require.Equal(t, "whois.nic.uk", chain[0].Spec.Server)
	require.Equal(t, "santander.com", chain[1].Domain)
}

func TestNewRegistryRejectsCycles(t *testing.T) {
	specs := []TLDSpec{
		{TLD: "es", Fallback: []string{"pt"}},
		{TLD: "pt", Fallback: []string{"es"}},
	}
	_, err := NewRegistry(specs, nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fallback chain revisits")
}

func TestClassify(t *testing.T) {
	registry, err := NewRegistry(nil, map[string]string{"madrid": "es"}, nil)
	require.NoError(t, err)

	cases := []struct {
		tld  string
		want core.TLDCategory
	}{
		{"xn--fiqs8s", core.TLDCategoryIDNCCTLD},
		{"madrid", core.TLDCategoryGeoTLD},
		{"es", core.TLDCategoryASCIICCTLD},
		{"com", core.TLDCategoryGeneric},
		{"dev", core.TLDCategoryGeneric},
	}
	for _, tc := range cases {
		d := core.Domain{TLD: tc.tld}
		require.Equal(t, tc.want, registry.Classify(d), "tld %s", tc.tld)
	}
}

func TestResolveOwnerFirstSuccessWins(t *testing.T) {
	web := &stubAdapter{strategy: StrategyWeb}
	rdapStub := &stubAdapter{
		strategy: StrategyRDAP,
		results: map[string]*core.RegistrantInfo{
			"caixabank.com": {Organization: "CaixaBank SA", RawOwner: "CaixaBank, S.A."},
		},
	}
	whois := &stubAdapter{strategy: StrategyWhois}

	specs := []TLDSpec{
		{TLD: "es", Strategy: StrategyWeb, Fallback: []string{"com", "net"}},
		{TLD: "com", Strategy: StrategyRDAP},
		{TLD: "net", Strategy: StrategyRDAP},
	}
	registry, err := NewRegistry(specs, nil, map[string]Adapter{
		StrategyWeb:   web,
		StrategyRDAP:  rdapStub,
		StrategyWhois: whois,
	})
	require.NoError(t, err)

	engine := &Engine{Registry: registry}
	info := engine.ResolveOwner(context.Background(), esDomain())

	require.Equal(t, "CaixaBank SA", info.Organization)
	require.Equal(t, "com", info.ResolvedVia)
	// The primary adapter was tried first; the chain stopped at the first
	// success and never reached the .net entry.
	require.Equal(t, []string{"caixabank.es"}, web.seen)
	require.Equal(t, []string{"caixabank.com"}, rdapStub.seen)
}

func TestResolveOwnerTotality(t *testing.T) {
	failing := &stubAdapter{strategy: StrategyWhois}
	specs := []TLDSpec{{TLD: "es", Strategy: StrategyWhois, Fallback: []string{"com"}}}
	registry, err := NewRegistry(specs, nil, map[string]Adapter{StrategyWhois: failing})
	require.NoError(t, err)

	engine := &Engine{Registry: registry}
	info := engine.ResolveOwner(context.Background(), esDomain())

	// Exhausted chains still yield a usable registrant.
	require.Equal(t, UnknownOrganization, info.Organization)
	require.True(t, info.PrivacyProtected)
}

func TestResolveOwnerMaxAttempts(t *testing.T) {
	failing := &stubAdapter{strategy: StrategyWhois}
	specs := []TLDSpec{{TLD: "es", Strategy: StrategyWhois, Fallback: []string{"com", "net", "org", "io"}}}
	registry, err := NewRegistry(specs, nil, map[string]Adapter{StrategyWhois: failing})
	require.NoError(t, err)

	engine := &Engine{Registry: registry, MaxAttempts: 2}
	_ = engine.ResolveOwner(context.Background(), esDomain())

	require.Len(t, failing.seen, 2)
}

func TestApplyPrivacy(t *testing.T) {
	engine := &Engine{}

	info := engine.applyPrivacy(core.RegistrantInfo{
		Organization: "Whois Privacy Corp",
		RawOwner:     "REDACTED FOR PRIVACY",
	})
	require.True(t, info.PrivacyProtected)
	require.Equal(t, "Whois Privacy Corp", info.Organization)

	info = engine.applyPrivacy(core.RegistrantInfo{Organization: "CaixaBank SA"})
	require.False(t, info.PrivacyProtected)

	// Custom signatures replace the defaults.
	engine.PrivacySignatures = []string{"datos redactados"}
	info = engine.applyPrivacy(core.RegistrantInfo{
		Organization: "Titular",
		RawOwner:     "Datos redactados por el registro",
	})
	require.True(t, info.PrivacyProtected)
}

type memoryCache struct {
	entries map[string]core.RegistrantInfo
}

func (m *memoryCache) GetCachedOwner(ctx context.Context, domain string) (*core.RegistrantInfo, error) {
	if info, ok := m.entries[domain]; ok {
		return &info, nil
	}
	return nil, nil
}

func (m *memoryCache) SetCachedOwner(ctx context.Context, domain string, info core.RegistrantInfo, ttl time.Duration) error {
	m.entries[domain] = info
	return nil
}

func TestResolveOwnerCacheHit(t *testing.T) {
	adapter := &stubAdapter{strategy: StrategyWhois}
	specs := []TLDSpec{{TLD: "es", Strategy: StrategyWhois}}
	registry, err := NewRegistry(specs, nil, map[string]Adapter{StrategyWhois: adapter})
	require.NoError(t, err)

	cache := &memoryCache{entries: map[string]core.RegistrantInfo{
		"caixabank.es": {Organization: "CaixaBank SA", ResolvedVia: "cache"},
	}}

	engine := &Engine{Registry: registry, Cache: cache, UseCache: true}
	info := engine.ResolveOwner(context.Background(), esDomain())

	require.Equal(t, "CaixaBank SA", info.Organization)
	require.Empty(t, adapter.seen)
}
