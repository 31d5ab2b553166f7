package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/mailcred/mailcred/internal/core"
	"github.com/mailcred/mailcred/internal/core/engine"
)

const (
	whoisIanaServer = "whois.iana.org"
	whoisPort       = "43"
	whoisMaxBytes   = 128 * 1024
)

// WhoisClient performs registrant lookups over the WHOIS protocol.
type WhoisClient interface {
	Lookup(ctx context.Context, tld, domain string) (*WhoisResponse, error)
	LookupWithServer(ctx context.Context, server, domain string) (*WhoisResponse, error)
	ResolveServer(ctx context.Context, tld string) (string, error)
}

// WhoisResponse contains a raw WHOIS response body.
type WhoisResponse struct {
	Server string
	Body   string
}

// DefaultWhoisClient is a TCP WHOIS client with optional per-TLD server
// overrides. Servers without an override are discovered via IANA referral.
type DefaultWhoisClient struct {
	Servers map[string]string
	Timeout time.Duration
}

// Lookup queries the WHOIS server responsible for the domain's TLD.
func (c *DefaultWhoisClient) Lookup(ctx context.Context, tld, domain string) (*WhoisResponse, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, errors.New("whois domain is required")
	}

	server, err := c.ResolveServer(ctx, tld)
	if err != nil {
		return nil, err
	}

	return c.LookupWithServer(ctx, server, domain)
}

// LookupWithServer queries a specific WHOIS server for a domain.
func (c *DefaultWhoisClient) LookupWithServer(ctx context.Context, server, domain string) (*WhoisResponse, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, errors.New("whois domain is required")
	}
	body, err := queryWhois(ctx, server, domain, c.Timeout)
	if err != nil {
		return nil, err
	}
	return &WhoisResponse{Server: server, Body: body}, nil
}

// ResolveServer resolves the WHOIS server for a TLD, preferring overrides and
// falling back to an IANA referral query.
func (c *DefaultWhoisClient) ResolveServer(ctx context.Context, tld string) (string, error) {
	tld = strings.ToLower(strings.TrimSpace(tld))
	if tld == "" {
		return "", errors.New("whois tld is required")
	}
	if c != nil && len(c.Servers) > 0 {
		if server := strings.TrimSpace(c.Servers[tld]); server != "" {
			return server, nil
		}
	}

	response, err := queryWhois(ctx, whoisIanaServer, tld, c.Timeout)
	if err != nil {
		return "", fmt.Errorf("whois iana query failed: %w", err)
	}

	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "refer:") || strings.HasPrefix(lower, "whois:") {
			parts := strings.SplitN(trimmed, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1]), nil
			}
		}
	}

	return "", fmt.Errorf("no whois server for tld %s", tld)
}

func queryWhois(ctx context.Context, server, query string, timeout time.Duration) (string, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", errors.New("whois server is required")
	}

	dialer := &net.Dialer{}
	if timeout > 0 {
		dialer.Timeout = timeout
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, whoisPort))
	if err != nil {
		return "", fmt.Errorf("whois dial failed: %w", err)
	}
	defer conn.Close() // nolint:errcheck // best-effort cleanup on network connection

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", query); err != nil {
		return "", fmt.Errorf("whois query failed: %w", err)
	}

	reader := bufio.NewReader(conn)
	limited := &io.LimitedReader{R: reader, N: whoisMaxBytes}
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("whois read failed: %w", err)
	}

	return string(body), nil
}

// parseWhoisBody converts a raw key:value WHOIS body into a normalized field
// map. Keys are lowercased with spaces collapsed to underscores; the first
// occurrence of a key wins. Comment lines are skipped.
func parseWhoisBody(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">>>") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		key = strings.ReplaceAll(key, " ", "_")
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	}
	return fields
}

var whoisNotFoundPatterns = []string{
	"no match",
	"not found",
	"no data found",
	"no entries found",
	"status: free",
	"object does not exist",
}

// WhoisAdapter resolves registrants for classic ccTLDs and any TLD with a
// standard port-43 endpoint.
type WhoisAdapter struct {
	Client  WhoisClient
	Servers map[string]string
	Timeout time.Duration
	Limiter *engine.RateLimiter
}

// Strategy returns the adapter's strategy identifier.
func (a *WhoisAdapter) Strategy() string { return StrategyWhois }

// Resolve queries WHOIS for the domain and extracts the registrant. All
// failures are returned as *ResolutionError.
func (a *WhoisAdapter) Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error) {
	client := a.Client
	if client == nil {
		client = &DefaultWhoisClient{Servers: a.Servers, Timeout: a.Timeout}
	}

	tld := spec.TLD
	if tld == "" {
		if idx := strings.LastIndex(domain, "."); idx >= 0 {
			tld = domain[idx+1:]
		}
	}

	server := strings.TrimSpace(spec.Server)
	if server == "" {
		resolved, err := client.ResolveServer(ctx, tld)
		if err != nil {
			return nil, classifyWhoisErr("whois resolve server", err)
		}
		server = resolved
	}

	if a.Limiter != nil {
		endpoint := "whois." + server
		allowed, wait, err := a.Limiter.Allow(ctx, endpoint)
		if err == nil && !allowed {
			return nil, resolutionErr(ErrRateLimited, "whois", fmt.Errorf("rate limited, retry in %s", wait.Round(time.Second)))
		}
		_ = a.Limiter.Record(ctx, endpoint)
	}

	resp, err := client.LookupWithServer(ctx, server, domain)
	if err != nil {
		return nil, classifyWhoisErr("whois lookup", err)
	}

	lower := strings.ToLower(resp.Body)
	for _, pattern := range whoisNotFoundPatterns {
		if strings.Contains(lower, pattern) {
			return nil, resolutionErr(ErrNotFound, "whois", fmt.Errorf("domain %s not registered", domain))
		}
	}

	fields := parseWhoisBody(resp.Body)
	owner, ok := extractOwner(fields)
	if !ok {
		return nil, resolutionErr(ErrParse, "whois", fmt.Errorf("no registrant field in %s response", server))
	}

	return &core.RegistrantInfo{
		Organization: owner,
		RawOwner:     owner,
		ResolvedVia:  "whois." + server,
	}, nil
}

func classifyWhoisErr(op string, err error) *ResolutionError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return resolutionErr(ErrTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return resolutionErr(ErrTimeout, op, err)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return resolutionErr(ErrTimeout, op, err)
		}
		return resolutionErr(ErrNotFound, op, err)
	}
}
