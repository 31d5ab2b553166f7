package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SetBootstrapMeta stores a bootstrap metadata key/value.
func (s *Store) SetBootstrapMeta(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("bootstrap meta key is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bootstrap_meta (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("store bootstrap meta: %w", err)
	}

	return nil
}

// GetBootstrapMeta returns a bootstrap metadata value.
func (s *Store) GetBootstrapMeta(ctx context.Context, key string) (string, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(key) == "" {
		return "", errors.New("bootstrap meta key is required")
	}

	var value string
	if err := s.DB.QueryRowContext(ctx, `SELECT value FROM bootstrap_meta WHERE key = ?`, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("fetch bootstrap meta: %w", err)
	}

	return value, nil
}

// CountBrands returns the number of seeded brand records.
func (s *Store) CountBrands(ctx context.Context) (int, error) {
	return s.countTable(ctx, "brands")
}

// CountTLDSpecs returns the number of seeded TLD resolution specs.
func (s *Store) CountTLDSpecs(ctx context.Context) (int, error) {
	return s.countTable(ctx, "tld_specs")
}

func (s *Store) countTable(ctx context.Context, table string) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}

	return count, nil
}
