// Package secret hashes and verifies credentials in two cost classes.
//
// ClassPassword uses argon2id with configurable work factors and a random
// per-hash salt, encoded in PHC string format. ClassOpaque uses a single
// unsalted SHA-256 digest, which is appropriate only because the inputs are
// engine-generated 256-bit random secrets; determinism is what allows a store
// to look a principal up by the digest of a presented token.
//
// Verification never reports why a value failed to match. Malformed
// encodings, unsupported algorithms, and plain mismatches all return false.
package secret
