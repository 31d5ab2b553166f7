//go:build cgo

package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/store"
)

func pipelineConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{Enabled: true, OwnerTTL: 24 * time.Hour},
		Analysis: config.AnalysisConfig{
			BrandThreshold:  0.45,
			ShortThreshold:  0.70,
			ShortLength:     5,
			OwnerThreshold:  0.45,
			OwnerSimilarity: 0.90,
			PrivacyPenalty:  0.25,
			BrandWeight:     0.60,
			OwnerWeight:     0.40,
		},
		Resolver: config.ResolverConfig{
			AttemptTimeout: 2 * time.Second,
			MaxAttempts:    4,
			WebEndpoint:    "https://www.whois.com/whois/%s",
		},
		RateLimitMargin: 0.8,
	}
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := applySeeds(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func TestBuildPipelineFromSeededStore(t *testing.T) {
	ctx := context.Background()
	db := seededStore(t)

	pipeline, err := buildPipeline(ctx, pipelineConfig(), db, false)
	if err != nil {
		t.Fatalf("buildPipeline: %v", err)
	}
	if pipeline.Recognizer == nil || pipeline.Resolver == nil || pipeline.Classifier == nil || pipeline.Comparator == nil {
		t.Fatalf("pipeline has unwired components: %+v", pipeline)
	}

	// A freemail address exercises the store-backed provider list end to
	// end without touching the network.
	result := pipeline.Sanitize(ctx, "someone@gmail.com")
	if result.Verdict != core.VerdictValid {
		t.Fatalf("verdict = %q, want %q", result.Verdict, core.VerdictValid)
	}
	found := false
	for _, label := range result.Labels {
		if label == "freemail" {
			found = true
		}
	}
	if !found {
		t.Fatalf("labels = %v, want freemail", result.Labels)
	}
}

func TestBuildPipelineDegradedStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Close before wiring: every reference list read fails, and the build
	// must still produce a working pipeline instead of an error.
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pipeline, err := buildPipeline(ctx, pipelineConfig(), db, false)
	if err != nil {
		t.Fatalf("buildPipeline on closed store: %v", err)
	}
	if pipeline.Recognizer == nil || pipeline.Resolver == nil {
		t.Fatalf("degraded pipeline has unwired components: %+v", pipeline)
	}

	// Analysis stays total in degraded mode.
	result := pipeline.Sanitize(ctx, "not-an-email")
	if result.Verdict != core.VerdictInvalid {
		t.Fatalf("verdict = %q, want %q", result.Verdict, core.VerdictInvalid)
	}
}
