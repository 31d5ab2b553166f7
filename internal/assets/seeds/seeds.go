// Package seeds carries the embedded reference data used to bootstrap a
// fresh store: known brands, omit words, personal mail providers, registry
// resolution specs and privacy signatures.
package seeds

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/lex"
	"github.com/mailcred/mailcred/internal/core/resolver"
)

//go:embed brands.yaml
var brandsYAML []byte

//go:embed providers.yaml
var providersYAML []byte

//go:embed tlds.yaml
var tldsYAML []byte

//go:embed lexicon.yaml
var lexiconYAML []byte

// Set is the full parsed seed payload.
type Set struct {
	Brands            []core.BrandRecord
	OmitWords         []string
	MailProviders     map[string]string
	TLDSpecs          []resolver.TLDSpec
	GeoTLDs           map[string]string
	PrivacySignatures []string
}

type brandSeed struct {
	ID           string   `yaml:"id"`
	Sector       string   `yaml:"sector"`
	CountryCode  string   `yaml:"country_code"`
	KnownDomains []string `yaml:"known_domains"`
	OwnerTerms   []string `yaml:"owner_terms"`
	DomainSearch string   `yaml:"domain_search"`
}

type brandsFile struct {
	Brands []brandSeed `yaml:"brands"`
}

type providersFile struct {
	Providers map[string]string `yaml:"providers"`
}

type tldsFile struct {
	Specs []resolver.TLDSpec `yaml:"specs"`
	Geo   map[string]string  `yaml:"geo"`
}

type lexiconFile struct {
	OmitWords         []string `yaml:"omit_words"`
	PrivacySignatures []string `yaml:"privacy_signatures"`
}

// Load parses every embedded seed file into one Set.
func Load() (*Set, error) {
	var brands brandsFile
	if err := yaml.Unmarshal(brandsYAML, &brands); err != nil {
		return nil, fmt.Errorf("parse brand seeds: %w", err)
	}

	var providers providersFile
	if err := yaml.Unmarshal(providersYAML, &providers); err != nil {
		return nil, fmt.Errorf("parse provider seeds: %w", err)
	}

	var tlds tldsFile
	if err := yaml.Unmarshal(tldsYAML, &tlds); err != nil {
		return nil, fmt.Errorf("parse tld seeds: %w", err)
	}

	var lexicon lexiconFile
	if err := yaml.Unmarshal(lexiconYAML, &lexicon); err != nil {
		return nil, fmt.Errorf("parse lexicon seeds: %w", err)
	}

	set := &Set{
		OmitWords:         lexicon.OmitWords,
		MailProviders:     providers.Providers,
		TLDSpecs:          tlds.Specs,
		GeoTLDs:           tlds.Geo,
		PrivacySignatures: lexicon.PrivacySignatures,
	}

	for _, seed := range brands.Brands {
		record, err := seed.toRecord()
		if err != nil {
			return nil, err
		}
		set.Brands = append(set.Brands, record)
	}

	return set, nil
}

func (b brandSeed) toRecord() (core.BrandRecord, error) {
	id := strings.ToLower(strings.TrimSpace(b.ID))
	if id == "" {
		return core.BrandRecord{}, fmt.Errorf("brand seed without id")
	}
	if len(b.KnownDomains) == 0 {
		return core.BrandRecord{}, fmt.Errorf("brand seed %s has no known domains", id)
	}

	search := strings.TrimSpace(b.DomainSearch)
	if search == "" {
		search = lex.Fold(id)
	}

	return core.BrandRecord{
		ID:           id,
		Sector:       b.Sector,
		CountryCode:  strings.ToLower(b.CountryCode),
		KnownDomains: b.KnownDomains,
		OwnerTerms:   b.OwnerTerms,
		DomainSearch: search,
	}, nil
}
