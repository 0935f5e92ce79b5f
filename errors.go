package authcore

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials covers every credential failure that must stay
	// indistinguishable to callers: unknown email, wrong password, and
	// malformed, tampered, or expired refresh material.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotVerified is returned when credentials are correct but the
	// principal has not proven ownership of the email address.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrVerificationInvalid is returned when a verification token matches no
	// pending verification.
	ErrVerificationInvalid = errors.New("verification token invalid")
	// ErrVerificationExpired is returned when a verification token matched but
	// its expiry has passed. A replacement token has already been issued and
	// dispatched by the time callers see this error.
	ErrVerificationExpired = errors.New("verification token expired")
	// ErrLoginRateLimited is returned when the login attempt budget for an
	// email or client IP is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is returned when the refresh attempt budget for a
	// principal is exhausted.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrVerificationRateLimited is returned when verification attempts for an
	// email or client IP exceed the configured budget.
	ErrVerificationRateLimited = errors.New("verification rate limited")
	// ErrUnexpected is the opaque catch-all for faults the engine did not
	// anticipate (store unavailable, hasher misconfiguration). The cause is
	// logged server-side and attached via %w wrapping; it never carries
	// internal detail in its message.
	ErrUnexpected = errors.New("internal error")
	// ErrServiceNotReady is returned when a Service is used before Build
	// completed its wiring.
	ErrServiceNotReady = errors.New("service not initialized")

	// ErrPrincipalNotFound is the sentinel CredentialStore implementations
	// must return (possibly wrapped) when a lookup matches no principal. The
	// engine maps it to ErrInvalidCredentials or ErrVerificationInvalid
	// depending on the flow; any other store error becomes ErrUnexpected.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// ValidationError reports input-shape failures keyed by field name. It is
// returned before any store access, so it can never leak account existence.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[name], ", "))
	}
	return b.String()
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
