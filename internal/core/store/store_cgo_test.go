//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/resolver"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestBrandRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	record := core.BrandRecord{
		ID:           "bancosantander",
		Sector:       "banking",
		CountryCode:  "es",
		KnownDomains: []string{"bancosantander.es", "santander.com"},
		OwnerTerms:   []string{"Banco Santander SA"},
		DomainSearch: "bancosantander",
	}
	require.NoError(t, store.UpsertBrand(ctx, record))

	// Upsert replaces, never duplicates.
	record.Sector = "finance"
	require.NoError(t, store.UpsertBrand(ctx, record))

	brands, err := store.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	require.Equal(t, "finance", brands[0].Sector)
	require.Equal(t, record.KnownDomains, brands[0].KnownDomains)

	count, err := store.CountBrands(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestReferenceListsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	require.NoError(t, store.ReplaceOmitWords(ctx, []string{"mail", "secure"}))
	words, err := store.ListOmitWords(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"mail", "secure"}, words)

	// Replace swaps the whole list.
	require.NoError(t, store.ReplaceOmitWords(ctx, []string{"login"}))
	words, err = store.ListOmitWords(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"login"}, words)

	require.NoError(t, store.ReplacePrivacySignatures(ctx, []string{"redacted for privacy"}))
	signatures, err := store.ListPrivacySignatures(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"redacted for privacy"}, signatures)

	require.NoError(t, store.UpsertMailProvider(ctx, "gmail.com", "Gmail"))
	providers, err := store.ListMailProviders(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"gmail.com": "Gmail"}, providers)
}

func TestTLDSpecRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	spec := resolver.TLDSpec{
		TLD:         "es",
		CountryCode: "es",
		CountryName: "Spain",
		Strategy:    resolver.StrategyWeb,
		Fallback:    []string{"com"},
	}
	require.NoError(t, store.UpsertTLDSpec(ctx, spec))
	require.NoError(t, store.UpsertGeoTLD(ctx, "madrid", "es"))

	specs, err := store.ListTLDSpecs(ctx)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, spec.Strategy, specs[0].Strategy)
	require.Equal(t, spec.Fallback, specs[0].Fallback)

	geo, err := store.ListGeoTLDs(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"madrid": "es"}, geo)
}

func TestOwnerCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	info := core.RegistrantInfo{
		Organization:     "CaixaBank SA",
		RawOwner:         "CaixaBank, S.A.",
		PrivacyProtected: false,
		ResolvedVia:      "es",
	}
	require.NoError(t, store.SetCachedOwner(ctx, "caixabank.es", info, time.Hour))

	cached, err := store.GetCachedOwner(ctx, "caixabank.es")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, info.Organization, cached.Organization)
	require.Equal(t, info.ResolvedVia, cached.ResolvedVia)

	// Expired entries read as a miss.
	require.NoError(t, store.SetCachedOwner(ctx, "stale.es", info, -time.Hour))
	cached, err = store.GetCachedOwner(ctx, "stale.es")
	require.NoError(t, err)
	require.Nil(t, cached)

	pruned, err := store.PruneOwnerCache(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	state, err := store.GetRateLimit(ctx, "whois")
	require.NoError(t, err)
	require.Nil(t, state)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.UpdateRateLimit(ctx, "whois", &core.RateLimitState{
		WindowStart:  now,
		RequestCount: 3,
	}))

	state, err = store.GetRateLimit(ctx, "whois")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, 3, state.RequestCount)
	require.True(t, state.WindowStart.Equal(now))
}

func TestBootstrapMetaRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	value, err := store.GetBootstrapMeta(ctx, "seed_version")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, store.SetBootstrapMeta(ctx, "seed_version", "1"))
	require.NoError(t, store.SetBootstrapMeta(ctx, "seed_version", "2"))

	value, err = store.GetBootstrapMeta(ctx, "seed_version")
	require.NoError(t, err)
	require.Equal(t, "2", value)
}
