package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/mailcred/mailcred/internal/core"
)

// defaultWebEndpoint is the lookup page used when a geo-TLD spec does not
// carry its own endpoint. %s is replaced with the domain.
const defaultWebEndpoint = "https://www.whois.com/whois/%s"

// HTTPFetcher is the default page-retrieval implementation: a plain GET with
// a deadline. Registries that require scripted browsing get their own Fetcher
// injected from outside the core.
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// Fetch retrieves the page body at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on response body

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.New("fetch rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	var b strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		b.Write(buf[:n])
		if readErr != nil {
			break
		}
		if b.Len() > whoisMaxBytes {
			break
		}
	}
	return b.String(), nil
}

// WebAdapter resolves registrants for geo-TLDs and ccTLDs without a standard
// registry endpoint by fetching a lookup page and parsing its labeled fields.
type WebAdapter struct {
	Fetcher Fetcher
}

// Strategy returns the adapter's strategy identifier.
func (a *WebAdapter) Strategy() string { return StrategyWeb }

// Resolve fetches the registry's lookup page for the domain and extracts the
// registrant from its labeled fields.
func (a *WebAdapter) Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error) {
	if a.Fetcher == nil {
		return nil, resolutionErr(ErrParse, "web", errors.New("no fetcher configured"))
	}

	endpoint := strings.TrimSpace(spec.Server)
	if endpoint == "" {
		endpoint = defaultWebEndpoint
	}
	url := endpoint
	if strings.Contains(endpoint, "%s") {
		url = fmt.Sprintf(endpoint, domain)
	}

	body, err := a.Fetcher.Fetch(ctx, url)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, resolutionErr(ErrTimeout, "web", err)
		case strings.Contains(err.Error(), "rate limited"):
			return nil, resolutionErr(ErrRateLimited, "web", err)
		default:
			return nil, resolutionErr(ErrNotFound, "web", err)
		}
	}

	lower := strings.ToLower(body)
	for _, pattern := range whoisNotFoundPatterns {
		if strings.Contains(lower, pattern) {
			return nil, resolutionErr(ErrNotFound, "web", fmt.Errorf("domain %s not registered", domain))
		}
	}

	fields := parseWebFields(body)
	owner, ok := extractOwner(fields)
	if !ok {
		return nil, resolutionErr(ErrParse, "web", fmt.Errorf("no registrant field at %s", url))
	}

	return &core.RegistrantInfo{
		Organization: owner,
		RawOwner:     owner,
		ResolvedVia:  "web." + spec.TLD,
	}, nil
}

// parseWebFields extracts "Label: value" pairs from a lookup page, slugifying
// labels into the shared field-key space ("Registrant Name" becomes
// "registrant_name").
func parseWebFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(stripTags(line))
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := slugify(line[:idx])
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

func slugify(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

func stripTags(line string) string {
	if !strings.ContainsRune(line, '<') {
		return line
	}
	var b strings.Builder
	inTag := false
	for _, r := range line {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// IDNAdapter handles internationalized ccTLDs: it decodes the
// ASCII-compatible encoding for diagnostics and then proceeds over WHOIS like
// any other ccTLD.
type IDNAdapter struct {
	Whois *WhoisAdapter
}

// Strategy returns the adapter's strategy identifier.
func (a *IDNAdapter) Strategy() string { return StrategyIDN }

// Resolve decodes the punycode TLD and dispatches the lookup as a ccTLD.
func (a *IDNAdapter) Resolve(ctx context.Context, domain string, spec TLDSpec) (*core.RegistrantInfo, error) {
	whois := a.Whois
	if whois == nil {
		whois = &WhoisAdapter{}
	}

	// The decoded form is informational; lookups always go out in the
	// ASCII-compatible encoding.
	if decoded, err := idna.ToUnicode(spec.TLD); err == nil && decoded != spec.TLD {
		spec.CountryName = decoded
	}

	info, err := whois.Resolve(ctx, domain, spec)
	if err != nil {
		return nil, err
	}
	info.ResolvedVia = "idn." + spec.TLD
	return info, nil
}
