package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRepoRootForTest(t *testing.T) string {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatalf("could not locate repo root containing go.mod from %s", cwd)
	return ""
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	// Regression test: in CI containers the repo checkout may be outside $HOME.
	// When $HOME is not an ancestor of the repo, pathfinder's default home boundary
	// can prevent repo root discovery unless a CI boundary hint is applied.
	t.Run("CIBoundaryHint", func(t *testing.T) {
		repoRoot := findRepoRootForTest(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("CI", "true")
		t.Setenv("FULMEN_WORKSPACE_ROOT", repoRoot)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)
	})

	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Server defaults
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("mailcred"), "mailcred.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)
		assert.Equal(t, "", cfg.Store.AuthToken)

		// Owner cache defaults
		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Cache.OwnerTTL)

		// Analysis thresholds
		assert.Equal(t, 0.45, cfg.Analysis.BrandThreshold)
		assert.Equal(t, 0.70, cfg.Analysis.ShortThreshold)
		assert.Equal(t, 5, cfg.Analysis.ShortLength)
		assert.Equal(t, 0.45, cfg.Analysis.OwnerThreshold)
		assert.Equal(t, 0.90, cfg.Analysis.OwnerSimilarity)
		assert.Equal(t, 0.25, cfg.Analysis.PrivacyPenalty)
		assert.Equal(t, 0.60, cfg.Analysis.BrandWeight)
		assert.Equal(t, 0.40, cfg.Analysis.OwnerWeight)

		// Resolver defaults
		assert.Equal(t, 8*time.Second, cfg.Resolver.AttemptTimeout)
		assert.Equal(t, 4, cfg.Resolver.MaxAttempts)
		assert.Equal(t, "https://www.whois.com/whois/%s", cfg.Resolver.WebEndpoint)

		// Rate limit defaults
		assert.Equal(t, 0.8, cfg.RateLimitMargin)

		// Logging defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)

		// Metrics defaults
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		// Health defaults
		assert.True(t, cfg.Health.Enabled)

		// Debug defaults
		assert.False(t, cfg.Debug.Enabled)
		assert.False(t, cfg.Debug.PprofEnabled)

		// Workers default
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "127.0.0.1",
			},
			"analysis": map[string]any{
				"brand_threshold": 0.55,
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 0.55, cfg.Analysis.BrandThreshold)

		// Non-overridden values remain default
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		require.NoError(t, os.Setenv("MAILCRED_PORT", "3000"))
		require.NoError(t, os.Setenv("MAILCRED_LOG_LEVEL", "warn"))
		require.NoError(t, os.Setenv("MAILCRED_CACHE_ENABLED", "false"))
		require.NoError(t, os.Setenv("MAILCRED_RATE_LIMIT_MARGIN", "0.6"))
		defer func() {
			_ = os.Unsetenv("MAILCRED_PORT")
			_ = os.Unsetenv("MAILCRED_LOG_LEVEL")
			_ = os.Unsetenv("MAILCRED_CACHE_ENABLED")
			_ = os.Unsetenv("MAILCRED_RATE_LIMIT_MARGIN")
		}()

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.False(t, cfg.Cache.Enabled)
		assert.Equal(t, 0.6, cfg.RateLimitMargin)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		require.NoError(t, os.Setenv("MAILCRED_PORT", "4000"))
		defer func() {
			_ = os.Unsetenv("MAILCRED_PORT")
		}()

		// Runtime override wins over the env var.
		overrides := map[string]any{
			"server": map[string]any{
				"port": 5000,
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 5000, cfg.Server.Port)
	})
}

func TestGetConfig(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Run("GetConfigReturnsLoadedConfig", func(t *testing.T) {
		retrieved := GetConfig()
		assert.NotNil(t, retrieved)
		assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
		assert.Equal(t, cfg.Logging.Level, retrieved.Logging.Level)
	})
}

func TestEnvSpecs(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx)
	require.NoError(t, err)

	specs := getEnvSpecs()
	assert.NotEmpty(t, specs)

	envVarNames := make(map[string]bool)
	for _, spec := range specs {
		envVarNames[spec.Name] = true
	}

	assert.True(t, envVarNames["MAILCRED_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_PORT"], "PORT env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_HOST"], "HOST env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_METRICS_PORT"], "METRICS_PORT env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_DB_PATH"], "DB_PATH env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_CACHE_OWNER_TTL"], "CACHE_OWNER_TTL env var must be mapped")
	assert.True(t, envVarNames["MAILCRED_RESOLVER_WEB_ENDPOINT"], "RESOLVER_WEB_ENDPOINT env var must be mapped")
}

func TestDurationParsing(t *testing.T) {
	ctx := context.Background()

	t.Run("DurationFromEnv", func(t *testing.T) {
		require.NoError(t, os.Setenv("MAILCRED_READ_TIMEOUT", "45s"))
		require.NoError(t, os.Setenv("MAILCRED_CACHE_OWNER_TTL", "12h"))
		defer func() {
			_ = os.Unsetenv("MAILCRED_READ_TIMEOUT")
			_ = os.Unsetenv("MAILCRED_CACHE_OWNER_TTL")
		}()

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 12*time.Hour, cfg.Cache.OwnerTTL)
	})
}

func TestConfigReload(t *testing.T) {
	ctx := context.Background()

	cfg1, err := Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg1)
	initialPort := cfg1.Server.Port

	overrides := map[string]any{
		"server": map[string]any{
			"port": initialPort + 1000,
		},
	}

	cfg2, err := Load(ctx, overrides)
	require.NoError(t, err)
	require.NotNil(t, cfg2)

	assert.Equal(t, initialPort+1000, cfg2.Server.Port)

	current := GetConfig()
	assert.Equal(t, cfg2.Server.Port, current.Server.Port)
}
