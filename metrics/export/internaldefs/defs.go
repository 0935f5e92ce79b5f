// Package internaldefs holds the metric id to exposition-name table shared by
// the prometheus and otel exporters. Not intended for direct use by hosts.
package internaldefs

import (
	authcore "github.com/campuskit/authcore"
)

// CounterDef binds a MetricID to its exposition name and help text.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram MetricID to its exposition name and help text.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login attempts."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful session refreshes."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Failed session refreshes."},
	{ID: authcore.MetricRefreshRateLimited, Name: "authcore_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: authcore.MetricSessionRotated, Name: "authcore_session_rotated_total", Help: "Refresh secret rotations."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations."},
	{ID: authcore.MetricVerificationStarted, Name: "authcore_verification_started_total", Help: "Issued verification tokens."},
	{ID: authcore.MetricVerificationSuccess, Name: "authcore_verification_success_total", Help: "Confirmed email verifications."},
	{ID: authcore.MetricVerificationFailure, Name: "authcore_verification_failure_total", Help: "Failed email verifications."},
	{ID: authcore.MetricVerificationExpired, Name: "authcore_verification_expired_total", Help: "Expired verification tokens triggering re-issue."},
	{ID: authcore.MetricVerificationRateLimited, Name: "authcore_verification_rate_limited_total", Help: "Rate-limited verification attempts."},
}

var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Access token validation latency histogram."},
}

// HistogramBounds are the fixed upper bounds, in seconds, of the latency
// histogram buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bounds rendered as metric-name-safe suffixes
// for backends that cannot carry an le label.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed size.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
