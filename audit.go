package authcore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the Service.
const (
	AuditLoginSuccess            = "login_success"
	AuditLoginFailure            = "login_failure"
	AuditLoginRateLimited        = "login_rate_limited"
	AuditRefreshSuccess          = "refresh_success"
	AuditRefreshInvalid          = "refresh_invalid"
	AuditRefreshRateLimited      = "refresh_rate_limited"
	AuditLogout                  = "logout"
	AuditVerificationStarted     = "verification_started"
	AuditVerificationConfirmed   = "verification_confirmed"
	AuditVerificationFailed      = "verification_failed"
	AuditVerificationRateLimited = "verification_rate_limited"
)

// AuditEvent is the record handed to an AuditSink. It never carries raw
// secrets or hashes; Error holds a short stable code, not the Go error text.
type AuditEvent struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   string            `json:"event_type"`
	PrincipalID string            `json:"principal_id,omitempty"`
	Email       string            `json:"email,omitempty"`
	IP          string            `json:"ip,omitempty"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the async dispatcher. Emit runs on the
// dispatcher goroutine, so slow sinks delay delivery but never the request
// path.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel for in-process consumers.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to w. Writes are serialized;
// marshal failures are dropped silently.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// auditErrorCode maps engine errors to short stable codes for audit records.
// Unknown errors collapse to "internal" so sink output never leaks backend
// detail.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, ErrVerificationInvalid):
		return "verification_invalid"
	case errors.Is(err, ErrVerificationExpired):
		return "verification_expired"
	case errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRefreshRateLimited),
		errors.Is(err, ErrVerificationRateLimited):
		return "rate_limited"
	case IsValidation(err):
		return "validation"
	default:
		return "internal"
	}
}
