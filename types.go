package authcore

import (
	"context"
	"time"
)

// Principal is the authenticated account record exchanged with the
// CredentialStore. All hashes are one-way; raw secrets never appear here.
//
// Field pairing invariants the engine maintains and stores must preserve:
// VerificationHash and VerificationExpiry are both set or both zero, and
// RefreshHash and RefreshExpiry are both set or both zero. Verification
// fields are cleared when EmailVerified flips to true.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string

	EmailVerified      bool
	VerificationHash   string
	VerificationExpiry *time.Time

	RefreshHash   string
	RefreshExpiry *time.Time
}

// Clone returns a deep copy. Store implementations should hand copies to the
// engine so a failed Save cannot leave shared state half-mutated.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	if p.Roles != nil {
		out.Roles = append([]string(nil), p.Roles...)
	}
	if p.VerificationExpiry != nil {
		t := *p.VerificationExpiry
		out.VerificationExpiry = &t
	}
	if p.RefreshExpiry != nil {
		t := *p.RefreshExpiry
		out.RefreshExpiry = &t
	}
	return &out
}

// CredentialStore is the interface host applications implement to persist
// principals. Lookups that match nothing must return ErrPrincipalNotFound
// (possibly wrapped); every other error is treated as a backend fault.
//
// FindByVerificationToken receives the engine-computed hash of the raw
// verification token, never the token itself, so stores can index the hash
// column directly.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByEmailWithRoles(ctx context.Context, email string) (*Principal, error)
	FindByVerificationToken(ctx context.Context, tokenHash string) (*Principal, error)
	Save(ctx context.Context, p *Principal) error
}

// Notifier delivers verification links. Implementations own transport,
// templating, and link construction; the engine supplies only the address and
// the raw single-use token.
type Notifier interface {
	SendVerificationLink(ctx context.Context, email, token string) error
}

// SessionPair is the credential pair returned by Login and Refresh. The
// refresh secret is shown to the caller exactly once; only its hash is
// stored.
type SessionPair struct {
	AccessToken   string
	RefreshSecret string
}

// AccessIdentity is the validated content of an access token, returned by
// [Service.ValidateAccess] and exposed to handlers by middleware.Guard.
type AccessIdentity struct {
	PrincipalID string
	Email       string
	Roles       []string
}

// LoginRequest carries the login operation input. Email is normalized
// (trimmed, lowercased) before validation.
type LoginRequest struct {
	Email    string
	Password string
}

// RefreshRequest carries the refresh operation input: the previous access
// token (expiry ignored, signature enforced) and the opaque refresh secret.
type RefreshRequest struct {
	AccessToken   string
	RefreshSecret string
}

// LogoutRequest carries the logout operation input.
type LogoutRequest struct {
	Email string
}

// VerifyEmailRequest carries the email verification input: the raw opaque
// token from the verification link.
type VerifyEmailRequest struct {
	Token string
}
