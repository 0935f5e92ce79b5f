// Package token issues and verifies the two credential kinds the engine
// hands out: signed JWT access tokens (ed25519 or HS256) and opaque
// random secrets used for refresh and email verification.
package token
