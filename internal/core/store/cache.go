package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailcred/mailcred/internal/core"
)

// GetCachedOwner returns a cached registrant resolution if still valid.
func (s *Store) GetCachedOwner(ctx context.Context, domain string) (*core.RegistrantInfo, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, errors.New("cache domain is required")
	}

	var (
		organization string
		rawOwner     sql.NullString
		privacy      int
		resolvedVia  sql.NullString
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT organization, raw_owner, privacy_protected, resolved_via
		FROM owner_cache
		WHERE domain = ? AND expires_at > ?
	`, domain, time.Now().UTC().Unix())

	if err := row.Scan(&organization, &rawOwner, &privacy, &resolvedVia); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached owner: %w", err)
	}

	return &core.RegistrantInfo{
		Organization:     organization,
		RawOwner:         rawOwner.String,
		PrivacyProtected: privacy != 0,
		ResolvedVia:      resolvedVia.String,
	}, nil
}

// SetCachedOwner stores a registrant resolution with a TTL.
func (s *Store) SetCachedOwner(ctx context.Context, domain string, info core.RegistrantInfo, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 {
		return nil
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return errors.New("cache domain is required")
	}

	privacy := 0
	if info.PrivacyProtected {
		privacy = 1
	}

	now := time.Now().UTC()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO owner_cache (domain, organization, raw_owner, privacy_protected, resolved_via, resolved_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			organization = excluded.organization,
			raw_owner = excluded.raw_owner,
			privacy_protected = excluded.privacy_protected,
			resolved_via = excluded.resolved_via,
			resolved_at = excluded.resolved_at,
			expires_at = excluded.expires_at
	`, domain, info.Organization, info.RawOwner, privacy, info.ResolvedVia, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("store cached owner: %w", err)
	}

	return nil
}

// PruneOwnerCache deletes expired cache rows and reports how many were removed.
func (s *Store) PruneOwnerCache(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM owner_cache WHERE expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune owner cache: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune owner cache: %w", err)
	}
	return removed, nil
}
