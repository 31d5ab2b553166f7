package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mailcred/mailcred/internal/assets/seeds"
	"github.com/mailcred/mailcred/internal/config"
	"github.com/mailcred/mailcred/internal/core/store"
	"github.com/mailcred/mailcred/internal/observability"
)

// seedVersion identifies the embedded reference data revision.
const seedVersion = "1"

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Manage reference data",
}

var bootstrapUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-apply embedded reference data to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		if err := applySeeds(cmd.Context(), db); err != nil {
			return err
		}

		brandCount, err := db.CountBrands(cmd.Context())
		if err != nil {
			return err
		}
		tldCount, err := db.CountTLDSpecs(cmd.Context())
		if err != nil {
			return err
		}

		dbPath := getDBPath()
		observability.CLILogger.Info("Reference data updated",
			zap.Int("brand_count", brandCount),
			zap.Int("tld_count", tldCount),
			zap.String("seed_version", seedVersion),
			zap.String("database", dbPath),
		)

		fmt.Printf("Seeded %d brands and %d TLD specs\n", brandCount, tldCount)
		fmt.Printf("Database: %s\n", dbPath)
		return nil
	},
}

var bootstrapStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reference data status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		brandCount, err := db.CountBrands(cmd.Context())
		if err != nil {
			return err
		}
		tldCount, err := db.CountTLDSpecs(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Brands: %d\n", brandCount)
		fmt.Printf("TLD specs: %d\n", tldCount)
		if version, err := db.GetBootstrapMeta(cmd.Context(), "seed_version"); err == nil && version != "" {
			fmt.Printf("Seed version: %s\n", version)
		}
		if seededAt, err := db.GetBootstrapMeta(cmd.Context(), "seeded_at"); err == nil && seededAt != "" {
			fmt.Printf("Last seeded: %s\n", formatUnix(seededAt))
		}
		fmt.Printf("Database: %s\n", getDBPath())
		return nil
	},
}

// applySeeds loads the embedded seed set and writes it through the store's
// reference tables.
func applySeeds(ctx context.Context, db *store.Store) error {
	set, err := seeds.Load()
	if err != nil {
		return err
	}

	for _, record := range set.Brands {
		if err := db.UpsertBrand(ctx, record); err != nil {
			return fmt.Errorf("seed brand %s: %w", record.ID, err)
		}
	}
	if err := db.ReplaceOmitWords(ctx, set.OmitWords); err != nil {
		return err
	}
	if err := db.ReplacePrivacySignatures(ctx, set.PrivacySignatures); err != nil {
		return err
	}
	for domain, name := range set.MailProviders {
		if err := db.UpsertMailProvider(ctx, domain, name); err != nil {
			return fmt.Errorf("seed mail provider %s: %w", domain, err)
		}
	}
	for _, spec := range set.TLDSpecs {
		if err := db.UpsertTLDSpec(ctx, spec); err != nil {
			return fmt.Errorf("seed tld %s: %w", spec.TLD, err)
		}
	}
	for tld, country := range set.GeoTLDs {
		if err := db.UpsertGeoTLD(ctx, tld, country); err != nil {
			return fmt.Errorf("seed geo tld %s: %w", tld, err)
		}
	}

	if err := db.SetBootstrapMeta(ctx, "seed_version", seedVersion); err != nil {
		return err
	}
	return db.SetBootstrapMeta(ctx, "seeded_at", strconv.FormatInt(time.Now().Unix(), 10))
}

func formatUnix(value string) string {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return value
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339)
}

// getDBPath returns the resolved database path from config
func getDBPath() string {
	cfg := config.GetConfig()
	if cfg == nil {
		return config.DefaultStorePath()
	}
	if cfg.Store.URL != "" {
		return cfg.Store.URL
	}
	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = config.DefaultStorePath()
	}
	if absPath, err := filepath.Abs(dbPath); err == nil {
		return absPath
	}
	return dbPath
}

func init() {
	bootstrapCmd.AddCommand(bootstrapUpdateCmd)
	bootstrapCmd.AddCommand(bootstrapStatusCmd)
	rootCmd.AddCommand(bootstrapCmd)
}
