package internaldefs

import (
	authgate "github.com/pulsekjo/authgate"
)

// CounterDef defines a public type used by authgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authgate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the login gate.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginLockedOut, Name: "authgate_login_locked_out_total", Help: "Login attempts denied by an active lockout."},
	{ID: authgate.MetricLockoutTriggered, Name: "authgate_lockout_triggered_total", Help: "Failed attempts that crossed the lockout threshold."},
	{ID: authgate.MetricRosterUnavailable, Name: "authgate_roster_unavailable_total", Help: "Login attempts rejected because the roster could not be loaded."},
	{ID: authgate.MetricOTPIssued, Name: "authgate_otp_issued_total", Help: "Issued OTP challenges."},
	{ID: authgate.MetricOTPSuccess, Name: "authgate_otp_success_total", Help: "Successful OTP verifications."},
	{ID: authgate.MetricOTPFailure, Name: "authgate_otp_failure_total", Help: "Failed OTP verifications."},
	{ID: authgate.MetricOTPExpired, Name: "authgate_otp_expired_total", Help: "OTP verifications rejected past the challenge expiry."},
	{ID: authgate.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: authgate.MetricSessionCleared, Name: "authgate_session_cleared_total", Help: "Cleared sessions."},
	{ID: authgate.MetricRoleRejected, Name: "authgate_role_rejected_total", Help: "Logins rejected for an unrecognized role."},
}

// HistogramDefs is an exported constant or variable used by the login gate.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricLoginLatency, Name: "authgate_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the login gate.
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

// HistogramBoundSuffix is an exported constant or variable used by the login gate.
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

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
