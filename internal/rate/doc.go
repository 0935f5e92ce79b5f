// Package rate provides the Redis-backed fixed-window counters behind the
// engine's login, refresh, and verification throttles.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — login per-email
//   - ali: — login per-IP
//   - ar:  — refresh per-principal
//   - av:  — verification per-email
//   - avi: — verification per-IP
//
// # What this package must NOT do
//
//   - Decide which operations are throttled (the Service does).
//   - Be imported outside the authcore module.
package rate
