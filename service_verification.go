package authcore

import (
	"context"
	"errors"
	"log"

	"github.com/campuskit/authcore/internal/rate"
	"github.com/campuskit/authcore/secret"
	"github.com/campuskit/authcore/token"
)

/*
====================================
EMAIL VERIFICATION
====================================
*/

// VerifyEmail consumes a verification token from a link. An unknown token
// returns ErrVerificationInvalid. A known but expired token triggers
// re-issue: a fresh token is generated, persisted, and dispatched through the
// Notifier before ErrVerificationExpired is returned, so the caller's only
// recovery step is checking their inbox again. A live token marks the
// principal verified and clears both verification fields.
func (s *Service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	if err := s.ready(); err != nil {
		return err
	}

	if req.Token == "" {
		s.metrics.Inc(MetricVerificationFailure)
		return ErrVerificationInvalid
	}

	ip := clientIPFromContext(ctx)
	if err := s.limiter.CheckVerification(ctx, "", ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			s.metrics.Inc(MetricVerificationRateLimited)
			s.emit(ctx, AuditEvent{EventType: AuditVerificationRateLimited, Error: "rate_limited"})
			return ErrVerificationRateLimited
		}
		return s.fault("verify: rate check", err)
	}

	tokenHash, err := s.hasher.Hash(req.Token, secret.ClassOpaque)
	if err != nil {
		return s.fault("verify: hash token", err)
	}

	principal, err := s.store.FindByVerificationToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			s.metrics.Inc(MetricVerificationFailure)
			s.emit(ctx, AuditEvent{
				EventType: AuditVerificationFailed,
				Error:     auditErrorCode(ErrVerificationInvalid),
			})
			return ErrVerificationInvalid
		}
		return s.fault("verify: lookup", err)
	}

	if principal.VerificationExpiry == nil || !s.now().Before(*principal.VerificationExpiry) {
		return s.reissueVerification(ctx, principal)
	}

	updated := principal.Clone()
	updated.EmailVerified = true
	updated.VerificationHash = ""
	updated.VerificationExpiry = nil

	if err := s.store.Save(ctx, updated); err != nil {
		return s.fault("verify: save", err)
	}

	s.metrics.Inc(MetricVerificationSuccess)
	s.emit(ctx, AuditEvent{
		EventType:   AuditVerificationConfirmed,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Success:     true,
	})

	return nil
}

// reissueVerification replaces an expired verification token and dispatches
// the new link. The caller still sees ErrVerificationExpired; a Notifier
// failure is logged but does not change the outcome, since the stored token
// is already rotated and a later StartVerification can resend it.
func (s *Service) reissueVerification(ctx context.Context, principal *Principal) error {
	raw, err := token.NewOpaqueSecret()
	if err != nil {
		return s.fault("verify: generate token", err)
	}

	hash, err := s.hasher.Hash(raw, secret.ClassOpaque)
	if err != nil {
		return s.fault("verify: hash token", err)
	}

	expiry := s.now().Add(s.config.Token.VerificationTTL)

	updated := principal.Clone()
	updated.VerificationHash = hash
	updated.VerificationExpiry = &expiry

	if err := s.store.Save(ctx, updated); err != nil {
		return s.fault("verify: save reissue", err)
	}

	if err := s.notifier.SendVerificationLink(ctx, principal.Email, raw); err != nil {
		log.Printf("authcore: verify: send reissued link: %v", err)
	}

	s.metrics.Inc(MetricVerificationExpired)
	s.emit(ctx, AuditEvent{
		EventType:   AuditVerificationStarted,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		Error:       auditErrorCode(ErrVerificationExpired),
		Metadata:    map[string]string{"reason": "expired_reissue"},
	})

	return ErrVerificationExpired
}

// StartVerification issues (or re-issues) a verification token for an email
// address and dispatches the link. It is enumeration-safe: an unknown or
// already-verified address returns nil with no observable difference beyond
// timing noise.
func (s *Service) StartVerification(ctx context.Context, email string) error {
	if err := s.ready(); err != nil {
		return err
	}

	email = normalizeEmail(email)
	if verr := validateStartVerification(email); verr != nil {
		return verr
	}

	ip := clientIPFromContext(ctx)
	if err := s.limiter.CheckVerification(ctx, email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			s.metrics.Inc(MetricVerificationRateLimited)
			s.emit(ctx, AuditEvent{EventType: AuditVerificationRateLimited, Email: email, Error: "rate_limited"})
			return ErrVerificationRateLimited
		}
		return s.fault("start verification: rate check", err)
	}

	principal, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			s.emit(ctx, AuditEvent{
				EventType: AuditVerificationStarted,
				Email:     email,
				Metadata:  map[string]string{"reason": "unknown_email"},
			})
			return nil
		}
		return s.fault("start verification: lookup", err)
	}

	if principal.EmailVerified {
		s.emit(ctx, AuditEvent{
			EventType:   AuditVerificationStarted,
			PrincipalID: principal.ID,
			Email:       email,
			Metadata:    map[string]string{"reason": "already_verified"},
		})
		return nil
	}

	raw, err := token.NewOpaqueSecret()
	if err != nil {
		return s.fault("start verification: generate token", err)
	}

	hash, err := s.hasher.Hash(raw, secret.ClassOpaque)
	if err != nil {
		return s.fault("start verification: hash token", err)
	}

	expiry := s.now().Add(s.config.Token.VerificationTTL)

	updated := principal.Clone()
	updated.VerificationHash = hash
	updated.VerificationExpiry = &expiry

	if err := s.store.Save(ctx, updated); err != nil {
		return s.fault("start verification: save", err)
	}

	if err := s.notifier.SendVerificationLink(ctx, email, raw); err != nil {
		return s.fault("start verification: send link", err)
	}

	s.metrics.Inc(MetricVerificationStarted)
	s.emit(ctx, AuditEvent{
		EventType:   AuditVerificationStarted,
		PrincipalID: principal.ID,
		Email:       email,
		Success:     true,
	})

	return nil
}
