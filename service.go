package authcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campuskit/authcore/internal/rate"
	"github.com/campuskit/authcore/secret"
	"github.com/campuskit/authcore/token"
)

// Service is the session engine. Immutable after Build; all methods are safe
// for concurrent use.
type Service struct {
	config   Config
	store    CredentialStore
	notifier Notifier
	hasher   *secret.Hasher
	tokens   *token.Manager
	limiter  *rate.Limiter
	audit    *auditDispatcher
	metrics  *Metrics
	now      func() time.Time
}

// Close flushes and stops the audit dispatcher. Safe to call more than once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.audit.Close()
}

// Metrics exposes the in-process registry for exporters. Never nil on a built
// Service.
func (s *Service) Metrics() *Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}

// MetricsSnapshot copies the current counters and histograms. Exporters under
// metrics/export read through this.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

// AuditDropped reports events discarded by a full audit buffer.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

func (s *Service) ready() error {
	if s == nil || s.store == nil || s.hasher == nil || s.tokens == nil {
		return ErrServiceNotReady
	}
	return nil
}

// fault wraps an unanticipated backend error. The cause is logged server-side
// and carried only through %w wrapping; the sentinel message stays opaque.
func (s *Service) fault(op string, err error) error {
	log.Printf("authcore: %s: %v", op, err)
	return fmt.Errorf("%w: %v", ErrUnexpected, err)
}

func (s *Service) emit(ctx context.Context, event AuditEvent) {
	if s.audit == nil {
		return
	}
	event.Timestamp = s.now()
	event.IP = clientIPFromContext(ctx)
	s.audit.Emit(ctx, event)
}

/*
====================================
LOGIN
====================================
*/

// Login authenticates an email+password pair and starts a session. Unknown
// email and wrong password are indistinguishable: both return
// ErrInvalidCredentials after comparable work. A correct password against an
// unverified email returns ErrEmailNotVerified, and only then; verification
// status is never revealed before the credential check passes.
//
// Starting a session overwrites any previous refresh secret for the
// principal, so at most one refresh secret is live per account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*SessionPair, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	req.Email = normalizeEmail(req.Email)
	if verr := validateLogin(req); verr != nil {
		return nil, verr
	}

	ip := clientIPFromContext(ctx)

	if err := s.limiter.CheckLogin(ctx, req.Email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			s.metrics.Inc(MetricLoginRateLimited)
			s.emit(ctx, AuditEvent{EventType: AuditLoginRateLimited, Email: req.Email, Error: "rate_limited"})
			return nil, ErrLoginRateLimited
		}
		return nil, s.fault("login: rate check", err)
	}

	principal, err := s.store.FindByEmailWithRoles(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, s.failLogin(ctx, req.Email, req.Password)
		}
		return nil, s.fault("login: lookup", err)
	}

	if !s.hasher.Verify(req.Password, principal.PasswordHash) {
		return nil, s.failLogin(ctx, req.Email, "")
	}

	if !principal.EmailVerified {
		s.metrics.Inc(MetricLoginFailure)
		s.emit(ctx, AuditEvent{
			EventType:   AuditLoginFailure,
			PrincipalID: principal.ID,
			Email:       req.Email,
			Error:       auditErrorCode(ErrEmailNotVerified),
		})
		return nil, ErrEmailNotVerified
	}

	pair, err := s.startSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.ResetLogin(ctx, req.Email, ip); err != nil {
		// Counter reset is best-effort; the window TTL expires it anyway.
		log.Printf("authcore: login: reset limiter: %v", err)
	}

	s.metrics.Inc(MetricLoginSuccess)
	s.emit(ctx, AuditEvent{
		EventType:   AuditLoginSuccess,
		PrincipalID: principal.ID,
		Email:       req.Email,
		Success:     true,
	})

	return pair, nil
}

// failLogin burns a hash verification when the email matched nothing, so the
// unknown-email and wrong-password paths cost about the same, then counts the
// attempt and returns the uniform error.
func (s *Service) failLogin(ctx context.Context, email, burnPassword string) error {
	if burnPassword != "" {
		s.hasher.Verify(burnPassword, decoyPasswordHash)
	}

	ip := clientIPFromContext(ctx)
	if err := s.limiter.IncrementLogin(ctx, email, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		log.Printf("authcore: login: increment limiter: %v", err)
	}

	s.metrics.Inc(MetricLoginFailure)
	s.emit(ctx, AuditEvent{
		EventType: AuditLoginFailure,
		Email:     email,
		Error:     auditErrorCode(ErrInvalidCredentials),
	})

	return ErrInvalidCredentials
}

// decoyPasswordHash is a fixed argon2id hash of random material, used to
// equalize timing when no principal matched the email.
const decoyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=2$" +
	"2Qm2BeYJ1cBKxUduvq+gsg==$" +
	"tW5rXRrO3xqFdBqUKe0NmCXcbpAqnZ1Yz2x3lIqkXW0="

// startSession issues a fresh token pair and persists the rotated refresh
// hash. Any previously stored refresh secret stops validating the moment Save
// succeeds.
func (s *Service) startSession(ctx context.Context, principal *Principal) (*SessionPair, error) {
	access, err := s.tokens.IssueAccess(principal.ID, principal.Email, principal.Roles)
	if err != nil {
		return nil, s.fault("session: issue access", err)
	}

	refresh, err := token.NewOpaqueSecret()
	if err != nil {
		return nil, s.fault("session: generate refresh", err)
	}

	refreshHash, err := s.hasher.Hash(refresh, secret.ClassOpaque)
	if err != nil {
		return nil, s.fault("session: hash refresh", err)
	}

	expiry := s.now().Add(s.config.Token.RefreshTTL)

	updated := principal.Clone()
	updated.RefreshHash = refreshHash
	updated.RefreshExpiry = &expiry

	if err := s.store.Save(ctx, updated); err != nil {
		return nil, s.fault("session: save", err)
	}

	return &SessionPair{
		AccessToken:   access,
		RefreshSecret: refresh,
	}, nil
}

/*
====================================
REFRESH
====================================
*/

// Refresh rotates a session: the caller presents the previous access token
// (expiry ignored, signature enforced) plus the opaque refresh secret, and
// receives a fresh pair. The presented refresh secret is consumed whether or
// not it was still the live one. Every failure mode collapses to
// ErrInvalidCredentials.
//
// Two racing refreshes with the same valid secret may both succeed; the pair
// persisted last is the one that stays valid.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*SessionPair, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	// Malformed refresh material is a credential failure, not a validation
	// one: the shapes here are engine-issued, so anything off is an attack or
	// a stale client, and neither deserves a distinguishable signal.
	if req.AccessToken == "" || req.RefreshSecret == "" {
		s.metrics.Inc(MetricRefreshFailure)
		return nil, ErrInvalidCredentials
	}

	claims, err := s.tokens.ParseAccess(req.AccessToken, true)
	if err != nil {
		return nil, s.failRefresh(ctx, "", "")
	}

	if err := s.limiter.CheckRefresh(ctx, claims.Subject); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			s.metrics.Inc(MetricRefreshRateLimited)
			s.emit(ctx, AuditEvent{
				EventType:   AuditRefreshRateLimited,
				PrincipalID: claims.Subject,
				Error:       "rate_limited",
			})
			return nil, ErrRefreshRateLimited
		}
		return nil, s.fault("refresh: rate check", err)
	}

	principal, err := s.store.FindByEmailWithRoles(ctx, normalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, s.failRefresh(ctx, claims.Subject, claims.Email)
		}
		return nil, s.fault("refresh: lookup", err)
	}

	if principal.RefreshHash == "" || principal.RefreshExpiry == nil {
		return nil, s.failRefresh(ctx, principal.ID, principal.Email)
	}
	if !s.now().Before(*principal.RefreshExpiry) {
		return nil, s.failRefresh(ctx, principal.ID, principal.Email)
	}
	if !s.hasher.Verify(req.RefreshSecret, principal.RefreshHash) {
		return nil, s.failRefresh(ctx, principal.ID, principal.Email)
	}

	pair, err := s.startSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(MetricRefreshSuccess)
	s.metrics.Inc(MetricSessionRotated)
	s.emit(ctx, AuditEvent{
		EventType:   AuditRefreshSuccess,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Success:     true,
	})

	return pair, nil
}

func (s *Service) failRefresh(ctx context.Context, principalID, email string) error {
	s.metrics.Inc(MetricRefreshFailure)
	s.emit(ctx, AuditEvent{
		EventType:   AuditRefreshInvalid,
		PrincipalID: principalID,
		Email:       email,
		Error:       auditErrorCode(ErrInvalidCredentials),
	})
	return ErrInvalidCredentials
}

/*
====================================
LOGOUT
====================================
*/

// Logout invalidates the principal's refresh secret by expiring it in place:
// RefreshExpiry is set to the current instant and the hash is left untouched.
// Any outstanding access token stays usable until its own expiry. Logout of
// an already logged-out principal succeeds and persists a fresh timestamp.
func (s *Service) Logout(ctx context.Context, req LogoutRequest) error {
	if err := s.ready(); err != nil {
		return err
	}

	req.Email = normalizeEmail(req.Email)
	if verr := validateLogout(req); verr != nil {
		return verr
	}

	principal, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return ErrInvalidCredentials
		}
		return s.fault("logout: lookup", err)
	}

	now := s.now()
	updated := principal.Clone()
	updated.RefreshExpiry = &now

	if err := s.store.Save(ctx, updated); err != nil {
		return s.fault("logout: save", err)
	}

	s.metrics.Inc(MetricLogout)
	s.emit(ctx, AuditEvent{
		EventType:   AuditLogout,
		PrincipalID: principal.ID,
		Email:       req.Email,
		Success:     true,
	})

	return nil
}

/*
====================================
VALIDATE
====================================
*/

// ValidateAccess verifies an access token with expiry enforced and returns
// the identity it carries. Resource servers and middleware.Guard use this;
// the refresh flow does not.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (*AccessIdentity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	start := s.now()

	claims, err := s.tokens.ParseAccess(accessToken, false)
	if err != nil {
		s.metrics.Observe(MetricValidateLatency, s.now().Sub(start))
		return nil, ErrInvalidCredentials
	}

	s.metrics.Observe(MetricValidateLatency, s.now().Sub(start))

	return &AccessIdentity{
		PrincipalID: claims.Subject,
		Email:       claims.Email,
		Roles:       claims.Roles,
	}, nil
}
