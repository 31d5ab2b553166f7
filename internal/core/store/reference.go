package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/resolver"
)

// ListBrands loads every brand record from the reference tables.
func (s *Store) ListBrands(ctx context.Context) ([]core.BrandRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, sector, country_code, known_domains, owner_terms, domain_search
		FROM brands
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var records []core.BrandRecord
	for rows.Next() {
		var (
			record      core.BrandRecord
			sector      sql.NullString
			countryCode sql.NullString
			domainsJSON string
			termsJSON   sql.NullString
		)
		if err := rows.Scan(&record.ID, &sector, &countryCode, &domainsJSON, &termsJSON, &record.DomainSearch); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		record.Sector = sector.String
		record.CountryCode = countryCode.String
		if err := json.Unmarshal([]byte(domainsJSON), &record.KnownDomains); err != nil {
			return nil, fmt.Errorf("decode brand %s domains: %w", record.ID, err)
		}
		if termsJSON.Valid && termsJSON.String != "" {
			if err := json.Unmarshal([]byte(termsJSON.String), &record.OwnerTerms); err != nil {
				return nil, fmt.Errorf("decode brand %s owner terms: %w", record.ID, err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	return records, nil
}

// UpsertBrand stores or refreshes one brand record.
func (s *Store) UpsertBrand(ctx context.Context, record core.BrandRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	id := strings.TrimSpace(record.ID)
	if id == "" {
		return errors.New("brand id is required")
	}

	domainsJSON, err := json.Marshal(record.KnownDomains)
	if err != nil {
		return fmt.Errorf("encode brand %s domains: %w", id, err)
	}
	termsJSON, err := json.Marshal(record.OwnerTerms)
	if err != nil {
		return fmt.Errorf("encode brand %s owner terms: %w", id, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO brands (id, sector, country_code, known_domains, owner_terms, domain_search, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sector = excluded.sector,
			country_code = excluded.country_code,
			known_domains = excluded.known_domains,
			owner_terms = excluded.owner_terms,
			domain_search = excluded.domain_search,
			updated_at = excluded.updated_at
	`, id, record.Sector, record.CountryCode, string(domainsJSON), string(termsJSON), record.DomainSearch, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store brand %s: %w", id, err)
	}

	return nil
}

// ListOmitWords returns the generic words excluded from brand search keys.
func (s *Store) ListOmitWords(ctx context.Context) ([]string, error) {
	return s.listSingleColumn(ctx, "omit words", `SELECT word FROM omit_words ORDER BY word`)
}

// ReplaceOmitWords overwrites the omit word list.
func (s *Store) ReplaceOmitWords(ctx context.Context, words []string) error {
	return s.replaceSingleColumn(ctx, "omit words", "omit_words", "word", words)
}

// ListPrivacySignatures returns the registrant values treated as redactions.
func (s *Store) ListPrivacySignatures(ctx context.Context) ([]string, error) {
	return s.listSingleColumn(ctx, "privacy signatures", `SELECT signature FROM privacy_signatures ORDER BY signature`)
}

// ReplacePrivacySignatures overwrites the privacy signature list.
func (s *Store) ReplacePrivacySignatures(ctx context.Context, signatures []string) error {
	return s.replaceSingleColumn(ctx, "privacy signatures", "privacy_signatures", "signature", signatures)
}

// ListMailProviders returns the personal mail provider domains and names.
func (s *Store) ListMailProviders(ctx context.Context) (map[string]string, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT domain, name FROM mail_providers ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list mail providers: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	providers := make(map[string]string)
	for rows.Next() {
		var domain, name string
		if err := rows.Scan(&domain, &name); err != nil {
			return nil, fmt.Errorf("scan mail provider: %w", err)
		}
		providers[domain] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mail providers: %w", err)
	}

	return providers, nil
}

// UpsertMailProvider stores or refreshes one personal provider entry.
func (s *Store) UpsertMailProvider(ctx context.Context, domain, name string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return errors.New("provider domain is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO mail_providers (domain, name)
		VALUES (?, ?)
		ON CONFLICT(domain) DO UPDATE SET name = excluded.name
	`, domain, name)
	if err != nil {
		return fmt.Errorf("store mail provider %s: %w", domain, err)
	}

	return nil
}

// ListTLDSpecs loads every registry resolution spec.
func (s *Store) ListTLDSpecs(ctx context.Context) ([]resolver.TLDSpec, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT tld, country_code, country_name, strategy, server, fallback
		FROM tld_specs
		ORDER BY tld
	`)
	if err != nil {
		return nil, fmt.Errorf("list tld specs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var specs []resolver.TLDSpec
	for rows.Next() {
		var (
			spec         resolver.TLDSpec
			countryCode  sql.NullString
			countryName  sql.NullString
			server       sql.NullString
			fallbackJSON sql.NullString
		)
		if err := rows.Scan(&spec.TLD, &countryCode, &countryName, &spec.Strategy, &server, &fallbackJSON); err != nil {
			return nil, fmt.Errorf("scan tld spec: %w", err)
		}
		spec.CountryCode = countryCode.String
		spec.CountryName = countryName.String
		spec.Server = server.String
		if fallbackJSON.Valid && fallbackJSON.String != "" {
			if err := json.Unmarshal([]byte(fallbackJSON.String), &spec.Fallback); err != nil {
				return nil, fmt.Errorf("decode tld %s fallback: %w", spec.TLD, err)
			}
		}
		specs = append(specs, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tld specs: %w", err)
	}

	return specs, nil
}

// UpsertTLDSpec stores or refreshes one TLD resolution spec.
func (s *Store) UpsertTLDSpec(ctx context.Context, spec resolver.TLDSpec) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tld := strings.ToLower(strings.TrimSpace(spec.TLD))
	if tld == "" {
		return errors.New("tld is required")
	}

	fallbackJSON, err := json.Marshal(spec.Fallback)
	if err != nil {
		return fmt.Errorf("encode tld %s fallback: %w", tld, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO tld_specs (tld, country_code, country_name, strategy, server, fallback, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tld) DO UPDATE SET
			country_code = excluded.country_code,
			country_name = excluded.country_name,
			strategy = excluded.strategy,
			server = excluded.server,
			fallback = excluded.fallback,
			updated_at = excluded.updated_at
	`, tld, spec.CountryCode, spec.CountryName, spec.Strategy, spec.Server, string(fallbackJSON), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store tld spec %s: %w", tld, err)
	}

	return nil
}

// ListGeoTLDs returns the geographic TLD to country-code mapping.
func (s *Store) ListGeoTLDs(ctx context.Context) (map[string]string, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT tld, country_code FROM geo_tlds ORDER BY tld`)
	if err != nil {
		return nil, fmt.Errorf("list geo tlds: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	geo := make(map[string]string)
	for rows.Next() {
		var tld, countryCode string
		if err := rows.Scan(&tld, &countryCode); err != nil {
			return nil, fmt.Errorf("scan geo tld: %w", err)
		}
		geo[tld] = countryCode
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list geo tlds: %w", err)
	}

	return geo, nil
}

// UpsertGeoTLD stores or refreshes one geographic TLD mapping.
func (s *Store) UpsertGeoTLD(ctx context.Context, tld, countryCode string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tld = strings.ToLower(strings.TrimSpace(tld))
	if tld == "" {
		return errors.New("tld is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO geo_tlds (tld, country_code)
		VALUES (?, ?)
		ON CONFLICT(tld) DO UPDATE SET country_code = excluded.country_code
	`, tld, strings.ToLower(strings.TrimSpace(countryCode)))
	if err != nil {
		return fmt.Errorf("store geo tld %s: %w", tld, err)
	}

	return nil
}

func (s *Store) listSingleColumn(ctx context.Context, what, query string) ([]string, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}

	return values, nil
}

func (s *Store) replaceSingleColumn(ctx context.Context, what, table, column string, values []string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace %s: %w", what, err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("replace %s: %w", what, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", table, column)
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, value); err != nil {
			return fmt.Errorf("replace %s: %w", what, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace %s: %w", what, err)
	}

	return nil
}
