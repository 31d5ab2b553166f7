package cmd

import (
	"context"
	"fmt"

	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/core/store"
)

func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	// A fresh store has no reference data; seed it so analysis works out of
	// the box. Explicit `bootstrap update` re-applies the embedded seeds.
	count, err := db.CountBrands(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if count == 0 {
		if err := applySeeds(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}
