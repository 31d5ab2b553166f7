// Package resolver determines who actually registered a domain. It holds the
// per-TLD adapter registry, the resolution strategies (RDAP, port-43 WHOIS,
// web lookup, IDN-aware dispatch), and the engine that walks fallback chains
// into a guaranteed-non-empty RegistrantInfo.
package resolver

import (
	"context"
	"fmt"

	"github.com/mailcred/mailcred/internal/core"
)

// Strategy identifiers for TLD adapter specs.
const (
	StrategyRDAP  = "rdap"
	StrategyWhois = "whois"
	StrategyWeb   = "web"
	StrategyIDN   = "idn"
)

// ErrorKind classifies a failed resolution attempt.
type ErrorKind int

const (
	ErrTimeout ErrorKind = iota + 1
	ErrParse
	ErrNotFound
	ErrRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTimeout:
		return "timeout"
	case ErrParse:
		return "parse_error"
	case ErrNotFound:
		return "not_found"
	case ErrRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ResolutionError is the typed failure returned by adapters. Adapters never
// fail any other way; unexpected conditions are wrapped before returning.
type ResolutionError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func resolutionErr(kind ErrorKind, op string, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Op: op, Err: err}
}

// TLDSpec describes how one TLD's registry is queried and where to fall back
// when it yields nothing usable.
type TLDSpec struct {
	TLD         string   `yaml:"tld" json:"tld"`
	CountryCode string   `yaml:"country_code,omitempty" json:"country_code,omitempty"`
	CountryName string   `yaml:"country_name,omitempty" json:"country_name,omitempty"`
	Strategy    string   `yaml:"strategy" json:"strategy"`
	Server      string   `yaml:"server,omitempty" json:"server,omitempty"`
	Fallback    []string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Adapter resolves a domain's registrant using one strategy. Implementations
// return either a RegistrantInfo or a *ResolutionError, never panic and never
// return untyped failures.
type Adapter interface {
	Strategy() string
	Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error)
}

// Fetcher is the page-retrieval capability injected into web-based adapters.
// Its implementation (direct HTTP client, scripted browsing) is external.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ownerFieldKeys are the normalized registrant keys probed, in order, when
// extracting an owner from a parsed registry response.
var ownerFieldKeys = []string{
	"registrant_organization",
	"registrant organization",
	"org",
	"organization",
	"organisation",
	"registrant",
	"registrant_name",
	"registrant name",
	"holder",
	"owner",
	"person",
	"name",
}

// extractOwner probes the parsed fields for the first non-empty registrant
// value.
func extractOwner(fields map[string]string) (string, bool) {
	for _, key := range ownerFieldKeys {
		if value, ok := fields[key]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}
