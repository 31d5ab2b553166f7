package metrics

import (
	"time"

	"github.com/mailcred/mailcred/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Analysis pipeline metrics
	AnalysesTotal    = "app_analyses_total"
	AnalysisDuration = "app_analysis_duration_ms"

	// Registrant resolution metrics
	ResolverAttemptsTotal = "app_resolver_attempts_total"
	OwnerCacheTotal       = "app_owner_cache_total"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordAnalysis records one completed email analysis with its verdict.
func RecordAnalysis(verdict string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AnalysesTotal,
			1,
			map[string]string{
				"verdict": verdict,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			AnalysisDuration,
			duration,
			map[string]string{
				"verdict": verdict,
			},
		)
	}
}

// RecordResolverAttempt records one registrant lookup attempt per strategy.
func RecordResolverAttempt(strategy string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ResolverAttemptsTotal,
			1,
			map[string]string{
				"strategy": strategy,
				"status":   status,
			},
		)
	}
}

// RecordOwnerCache records a registrant cache hit or miss.
func RecordOwnerCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			OwnerCacheTotal,
			1,
			map[string]string{
				"outcome": outcome,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
