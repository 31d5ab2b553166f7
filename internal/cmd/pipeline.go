package cmd

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/core/brand"
	"github.com/mailcred/mailcred/internal/core/engine"
	"github.com/mailcred/mailcred/internal/core/legitimacy"
	"github.com/mailcred/mailcred/internal/core/recognize"
	"github.com/mailcred/mailcred/internal/core/resolver"
	"github.com/mailcred/mailcred/internal/core/store"
	"github.com/mailcred/mailcred/internal/observability"
)

// buildPipeline assembles the analysis pipeline from the reference store and
// configuration. A store that fails to serve brand data yields a degraded but
// functional pipeline rather than an error: analysis stays total.
func buildPipeline(ctx context.Context, cfg *config.Config, db *store.Store, useCache bool) (*engine.Pipeline, error) {
	limiter := &engine.RateLimiter{Store: db}
	limiter.ApplyOverrides(cfg.RateLimits)
	limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	degraded := false
	records, err := db.ListBrands(ctx)
	if err != nil {
		degraded = true
		logWarn("Brand registry unavailable, running degraded", err)
	}
	brands := brand.NewRegistry(records, brand.MatchConfig{
		Threshold:      cfg.Analysis.BrandThreshold,
		ShortThreshold: cfg.Analysis.ShortThreshold,
		ShortLength:    cfg.Analysis.ShortLength,
	})

	omitWords, err := db.ListOmitWords(ctx)
	if err != nil {
		logWarn("Omit word list unavailable", err)
	}
	providers, err := db.ListMailProviders(ctx)
	if err != nil {
		logWarn("Mail provider list unavailable", err)
	}
	privacy, err := db.ListPrivacySignatures(ctx)
	if err != nil {
		logWarn("Privacy signature list unavailable", err)
	}
	specs, err := db.ListTLDSpecs(ctx)
	if err != nil {
		logWarn("TLD spec list unavailable", err)
	}
	geo, err := db.ListGeoTLDs(ctx)
	if err != nil {
		logWarn("Geo TLD list unavailable", err)
	}

	// Web-strategy specs without their own endpoint use the configured one.
	if endpoint := strings.TrimSpace(cfg.Resolver.WebEndpoint); endpoint != "" {
		for i := range specs {
			if specs[i].Strategy == resolver.StrategyWeb && specs[i].Server == "" {
				specs[i].Server = endpoint
			}
		}
	}

	whois := &resolver.WhoisAdapter{
		Servers: cfg.Resolver.Servers,
		Timeout: cfg.Resolver.AttemptTimeout,
		Limiter: limiter,
	}
	adapters := map[string]resolver.Adapter{
		resolver.StrategyWhois: whois,
		resolver.StrategyRDAP: &resolver.RDAPAdapter{
			Timeout: cfg.Resolver.AttemptTimeout,
			Limiter: limiter,
		},
		resolver.StrategyWeb: &resolver.WebAdapter{
			Fetcher: &resolver.HTTPFetcher{Timeout: cfg.Resolver.AttemptTimeout},
		},
		resolver.StrategyIDN: &resolver.IDNAdapter{Whois: whois},
	}

	registry, err := resolver.NewRegistry(specs, geo, adapters)
	if err != nil {
		return nil, err
	}

	ownerResolver := &resolver.Engine{
		Registry:          registry,
		AttemptTimeout:    cfg.Resolver.AttemptTimeout,
		MaxAttempts:       cfg.Resolver.MaxAttempts,
		PrivacySignatures: privacy,
		Cache:             db,
		CacheTTL:          cfg.Cache.OwnerTTL,
		UseCache:          useCache && cfg.Cache.Enabled,
	}

	recognizer := &recognize.Kernel{
		Brands:    brands,
		OmitWords: toSet(omitWords),
		Providers: providerSet(providers),
		Degraded:  degraded,
	}

	comparator := legitimacy.NewKernel(brands, legitimacy.Config{
		OwnerThreshold:  cfg.Analysis.OwnerThreshold,
		OwnerSimilarity: cfg.Analysis.OwnerSimilarity,
		PrivacyPenalty:  cfg.Analysis.PrivacyPenalty,
		BrandWeight:     cfg.Analysis.BrandWeight,
		OwnerWeight:     cfg.Analysis.OwnerWeight,
	})

	return &engine.Pipeline{
		Recognizer: recognizer,
		Resolver:   ownerResolver,
		Classifier: registry,
		Comparator: comparator,
	}, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}

func providerSet(providers map[string]string) map[string]struct{} {
	set := make(map[string]struct{}, len(providers))
	for domain := range providers {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		set[domain] = struct{}{}
	}
	return set
}

func logWarn(msg string, err error) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn(msg, zap.Error(err))
		return
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Warn(msg, zap.Error(err))
	}
}
