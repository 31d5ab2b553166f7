package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openrdap/rdap"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/engine"
)

// defaultRDAPOverrides routes specific TLDs to known-good RDAP servers.
// Keys are normalized TLDs without a leading dot.
var defaultRDAPOverrides = map[string][]string{
	"app": {"https://pubapi.registry.google/rdap"},
	"dev": {"https://pubapi.registry.google/rdap"},
	"fr":  {"https://rdap.nic.fr"},
	"eu":  {"https://rdap.eurid.eu"},
}

// RDAPAdapter resolves registrants for generic TLDs via the RDAP protocol.
type RDAPAdapter struct {
	Client    *rdap.Client
	Overrides map[string][]string
	Timeout   time.Duration
	Limiter   *engine.RateLimiter
}

// Strategy returns the adapter's strategy identifier.
func (a *RDAPAdapter) Strategy() string { return StrategyRDAP }

// Resolve queries RDAP for the domain and extracts the registrant entity.
func (a *RDAPAdapter) Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error) {
	client := a.Client
	if client == nil {
		client = &rdap.Client{}
	}

	req := rdap.NewDomainRequest(domain)
	if server := a.serverFor(spec, domain); server != nil {
		req = req.WithServer(server)
		if a.Limiter != nil {
			endpoint := server.Hostname()
			allowed, wait, err := a.Limiter.Allow(ctx, endpoint)
			if err == nil && !allowed {
				return nil, resolutionErr(ErrRateLimited, "rdap", fmt.Errorf("rate limited, retry in %s", wait.Round(time.Second)))
			}
			_ = a.Limiter.Record(ctx, endpoint)
		}
	}
	if a.Timeout > 0 {
		req.Timeout = a.Timeout
	}
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyRDAPErr(resp, err)
	}

	rdapDomain, ok := resp.Object.(*rdap.Domain)
	if !ok {
		return nil, resolutionErr(ErrParse, "rdap", fmt.Errorf("unexpected rdap object for %s", domain))
	}

	owner := findEntityName(rdapDomain, "registrant")
	if owner == "" {
		// Some registries only publish the registrar entity.
		owner = findEntityName(rdapDomain, "registrar")
	}
	if owner == "" {
		return nil, resolutionErr(ErrParse, "rdap", fmt.Errorf("no registrant entity for %s", domain))
	}

	return &core.RegistrantInfo{
		Organization: owner,
		RawOwner:     owner,
		ResolvedVia:  "rdap",
	}, nil
}

func (a *RDAPAdapter) serverFor(spec TLDSpec, domain string) *url.URL {
	if server := strings.TrimSpace(spec.Server); server != "" {
		if u, err := url.Parse(server); err == nil {
			return u
		}
	}

	tld := spec.TLD
	if tld == "" {
		if idx := strings.LastIndex(domain, "."); idx >= 0 {
			tld = domain[idx+1:]
		}
	}
	tld = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tld), "."))

	overrides := a.Overrides
	if overrides == nil {
		overrides = defaultRDAPOverrides
	}
	for _, server := range overrides[tld] {
		if u, err := url.Parse(server); err == nil {
			return u
		}
	}
	return nil
}

func findEntityName(domain *rdap.Domain, role string) string {
	if domain == nil {
		return ""
	}
	for _, entity := range domain.Entities {
		for _, r := range entity.Roles {
			if r == role && entity.VCard != nil {
				if name := strings.TrimSpace(entity.VCard.Name()); name != "" {
					return name
				}
			}
		}
	}
	return ""
}

func classifyRDAPErr(resp *rdap.Response, err error) *ResolutionError {
	if clientErr, ok := err.(*rdap.ClientError); ok && clientErr.Type == rdap.ObjectDoesNotExist {
		return resolutionErr(ErrNotFound, "rdap", err)
	}

	status := 0
	if resp != nil && len(resp.HTTP) > 0 && resp.HTTP[0] != nil && resp.HTTP[0].Response != nil {
		status = resp.HTTP[0].Response.StatusCode
	}
	switch {
	case status == 404:
		return resolutionErr(ErrNotFound, "rdap", err)
	case status == 429:
		return resolutionErr(ErrRateLimited, "rdap", err)
	case strings.Contains(err.Error(), "deadline exceeded"), strings.Contains(err.Error(), "timeout"):
		return resolutionErr(ErrTimeout, "rdap", err)
	default:
		return resolutionErr(ErrParse, "rdap", err)
	}
}
