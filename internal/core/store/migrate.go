package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS brands (
		id TEXT PRIMARY KEY,
		sector TEXT,
		country_code TEXT,
		known_domains TEXT NOT NULL,
		owner_terms TEXT,
		domain_search TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS omit_words (
		word TEXT PRIMARY KEY
	);`,
	`CREATE TABLE IF NOT EXISTS mail_providers (
		domain TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS tld_specs (
		tld TEXT PRIMARY KEY,
		country_code TEXT,
		country_name TEXT,
		strategy TEXT NOT NULL,
		server TEXT,
		fallback TEXT,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS geo_tlds (
		tld TEXT PRIMARY KEY,
		country_code TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS privacy_signatures (
		signature TEXT PRIMARY KEY
	);`,
	`CREATE TABLE IF NOT EXISTS owner_cache (
		domain TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		raw_owner TEXT,
		privacy_protected INTEGER NOT NULL DEFAULT 0,
		resolved_via TEXT,
		resolved_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_owner_cache_expires ON owner_cache(expires_at);`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		endpoint TEXT PRIMARY KEY,
		request_count INTEGER NOT NULL DEFAULT 0,
		window_start INTEGER NOT NULL,
		backoff_until INTEGER,
		last_429_at INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS bootstrap_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
