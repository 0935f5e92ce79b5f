// Package authcore is the credential lifecycle engine for campuskit backends:
// password verification, JWT access-token issuance, opaque refresh-secret
// rotation, and email-ownership verification.
//
// The host application owns principal persistence and email delivery. It
// integrates by implementing [CredentialStore] and [Notifier] and constructing
// a [Service] through [Builder.Build]. After construction the Service is
// immutable and safe for concurrent use from any number of request goroutines.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Service], [Builder], [Config],
// the request/response value types, and the error taxonomy. Hashing lives in
// the secret subpackage, token issuance in the token subpackage, and Redis
// rate limiting under internal/rate.
//
// # What this package must NOT do
//
//   - Persist principals itself or assume a storage schema beyond [Principal].
//   - Send email; verification links go through the injected [Notifier].
//   - Distinguish "unknown account" from "wrong password" in any returned
//     value, timing aside.
//
// # Concurrency contract
//
// Refresh rotation is read-modify-write against the store with no isolation:
// two concurrent refreshes for one principal can both validate against the
// same pre-rotation hash, and the later Save wins. The loser's freshly issued
// pair is dead on arrival. Single-session semantics make this harmless for
// well-behaved clients; callers needing stronger guarantees must serialize
// refreshes per principal or add optimistic versioning in their store.
package authcore
