package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/mailcred/mailcred/internal/core"
)

const (
	// UnknownOrganization is the terminal fallback organization. ResolveOwner
	// never returns an empty organization, even when every adapter fails.
	UnknownOrganization = "unknown"

	defaultAttemptTimeout = 8 * time.Second
	defaultMaxAttempts    = 4
)

// defaultPrivacySignatures match registrar privacy-proxy strings in raw owner
// text. Overridden by the seeded privacy list when present.
var defaultPrivacySignatures = []string{
	"redacted",
	"privacy",
	"whois guard",
	"whoisguard",
	"on behalf of",
	"protected",
	"data protected",
	"contact privacy",
	"private registrant",
	"not disclosed",
	"gdpr",
}

// OwnerCache persists resolved registrants between requests. Caching is an
// optional optimization outside the core contract; a nil cache disables it.
type OwnerCache interface {
	GetCachedOwner(ctx context.Context, domain string) (*core.RegistrantInfo, error)
	SetCachedOwner(ctx context.Context, domain string, info core.RegistrantInfo, ttl time.Duration) error
}

// Engine resolves domain registrants by walking the adapter chain in order.
// The first successful adapter wins and the walk stops; later adapters are
// never consulted to re-rank an earlier success.
type Engine struct {
	Registry          *Registry
	AttemptTimeout    time.Duration
	MaxAttempts       int
	PrivacySignatures []string
	Cache             OwnerCache
	CacheTTL          time.Duration
	UseCache          bool
}

// ResolveOwner resolves the registrant for a domain. Total: every path,
// including a fully exhausted or cancelled chain, yields a RegistrantInfo
// with a non-empty organization.
func (e *Engine) ResolveOwner(ctx context.Context, d core.Domain) core.RegistrantInfo {
	if ctx == nil {
		ctx = context.Background()
	}

	if e.UseCache && e.Cache != nil {
		if cached, err := e.Cache.GetCachedOwner(ctx, d.Root()); err == nil && cached != nil {
			return *cached
		}
	}

	chain := e.Registry.ChainFor(d)
	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if len(chain) > maxAttempts {
		chain = chain[:maxAttempts]
	}

	for _, entry := range chain {
		if ctx.Err() != nil {
			break
		}
		if entry.Adapter == nil {
			continue
		}

		info, err := e.attempt(ctx, entry)
		if err != nil {
			continue
		}

		resolved := e.applyPrivacy(*info)
		if resolved.ResolvedVia == "" {
			resolved.ResolvedVia = entry.Spec.TLD
		}
		if e.UseCache && e.Cache != nil {
			_ = e.Cache.SetCachedOwner(ctx, d.Root(), resolved, e.cacheTTL())
		}
		return resolved
	}

	return core.RegistrantInfo{
		Organization:     UnknownOrganization,
		PrivacyProtected: true,
	}
}

func (e *Engine) attempt(ctx context.Context, entry ChainEntry) (*core.RegistrantInfo, error) {
	timeout := e.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	info, err := entry.Adapter.Resolve(attemptCtx, entry.Domain, entry.Spec)
	if err != nil {
		return nil, err
	}
	if info == nil || strings.TrimSpace(info.Organization) == "" {
		return nil, resolutionErr(ErrParse, entry.Adapter.Strategy(), nil)
	}
	return info, nil
}

// applyPrivacy flags privacy-redacted owners. The organization keeps whatever
// residual identifying text the registry returned (typically the privacy
// provider's own name) so the result is never empty under redaction.
func (e *Engine) applyPrivacy(info core.RegistrantInfo) core.RegistrantInfo {
	signatures := e.PrivacySignatures
	if len(signatures) == 0 {
		signatures = defaultPrivacySignatures
	}

	lower := strings.ToLower(info.RawOwner)
	if lower == "" {
		lower = strings.ToLower(info.Organization)
	}
	for _, signature := range signatures {
		if signature == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(signature)) {
			info.PrivacyProtected = true
			break
		}
	}

	if strings.TrimSpace(info.Organization) == "" {
		info.Organization = UnknownOrganization
	}
	return info
}

func (e *Engine) cacheTTL() time.Duration {
	if e.CacheTTL > 0 {
		return e.CacheTTL
	}
	return 24 * time.Hour
}
