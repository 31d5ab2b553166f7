package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailcred/mailcred/internal/core"
)

type memoryRateStore struct {
	state map[string]*core.RateLimitState
}

func (m *memoryRateStore) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	if m.state == nil {
		return nil, nil
	}
	if val, ok := m.state[endpoint]; ok {
		return val, nil
	}
	return nil, nil
}

func (m *memoryRateStore) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	if m.state == nil {
		m.state = make(map[string]*core.RateLimitState)
	}
	m.state[endpoint] = state
	return nil
}

func TestRateLimiterWindow(t *testing.T) {
	store := &memoryRateStore{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			"rdap.eurid.eu": {RequestsPerWindow: 1, WindowDuration: time.Minute},
		},
		Clock: func() time.Time { return clock },
	}

	allowed, _, err := limiter.Allow(context.Background(), "rdap.eurid.eu")
	require.NoError(t, err)
	require.True(t, allowed)

	require.NoError(t, limiter.Record(context.Background(), "rdap.eurid.eu"))

	allowed, wait, err := limiter.Allow(context.Background(), "rdap.eurid.eu")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, time.Minute, wait)
}

func TestRateLimiterWindowReset(t *testing.T) {
	store := &memoryRateStore{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			"whois.nic.es": {RequestsPerWindow: 1, WindowDuration: time.Minute},
		},
		Clock: func() time.Time { return clock },
	}

	require.NoError(t, limiter.Record(context.Background(), "whois.nic.es"))

	// A new window clears the counter.
	clock = clock.Add(2 * time.Minute)
	allowed, _, err := limiter.Allow(context.Background(), "whois.nic.es")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestRateLimiterBackoff(t *testing.T) {
	store := &memoryRateStore{}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := &RateLimiter{
		Store: store,
		Clock: func() time.Time { return now },
	}

	require.NoError(t, limiter.Record429(context.Background(), "rdap.verisign.com", 30*time.Second))

	allowed, wait, err := limiter.Allow(context.Background(), "rdap.verisign.com")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 30*time.Second, wait)
}

func TestRateLimiterMargin(t *testing.T) {
	store := &memoryRateStore{}
	limiter := &RateLimiter{
		Store: store,
		Limits: map[string]RateLimit{
			"rdap.verisign.com": {RequestsPerWindow: 10, WindowDuration: time.Minute},
		},
		Clock: func() time.Time { return time.Now().UTC() },
	}

	limiter.ApplySafetyMargin(0.8)
	limit := limiter.getLimit("rdap.verisign.com")
	require.Equal(t, 8, limit.RequestsPerWindow)
}

func TestRateLimiterOverrides(t *testing.T) {
	limiter := &RateLimiter{Store: &memoryRateStore{}}

	limiter.ApplyOverrides(map[string]int{
		"whois":   5,
		"ignored": 0,
	})

	limit := limiter.getLimit("whois")
	require.Equal(t, 5, limit.RequestsPerWindow)
	require.Equal(t, time.Minute, limit.WindowDuration)

	// Defaults survive for endpoints without an override.
	limit = limiter.getLimit("rdap.verisign.com")
	require.Equal(t, 30, limit.RequestsPerWindow)
}

func TestRateLimiterPrefixFallback(t *testing.T) {
	limiter := &RateLimiter{
		Store: &memoryRateStore{},
		Limits: map[string]RateLimit{
			"whois": {RequestsPerWindow: 3, WindowDuration: time.Hour},
		},
	}

	// Registry-specific whois servers inherit the shared whois limit.
	limit := limiter.getLimit("whois.dns.pt")
	require.Equal(t, 3, limit.RequestsPerWindow)
	require.Equal(t, time.Hour, limit.WindowDuration)
}

func TestRateLimiterNilReceiverAllowsEverything(t *testing.T) {
	var limiter *RateLimiter

	allowed, wait, err := limiter.Allow(context.Background(), "whois")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, wait)

	require.NoError(t, limiter.Record(context.Background(), "whois"))
}
