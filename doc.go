// Package authgate provides a roster-backed login gate with brute-force
// lockout, an optional one-time-passcode second factor, and Redis-backed
// session records keyed for role-based redirection.
//
// The package deliberately models a prototype-grade authentication contract:
// roster secrets are compared verbatim and OTP codes are plain pseudo-random
// six-digit strings delivered through a simulated channel. It is a gate for
// an internal analytics frontend, not a hardened credential system.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// sentinel errors, and value types. The user directory lives in the roster
// package, the session record and its store in the session package. All
// internal coordination (lockout accounting, challenge and settings
// persistence, audit dispatch) lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or wire encodings in its public
//     API.
//   - Perform I/O outside of Engine methods and roster loading (construction
//     via Builder is allocation-only until Build).
//   - Harden the credential or OTP comparison beyond the documented
//     contract.
//
// # Concurrency contract
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Login is designed around one
// attempt per logical client at a time; the lockout, challenge, and session
// keyspaces are single-writer between steps.
package authgate
