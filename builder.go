package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuskit/authcore/internal/rate"
	"github.com/campuskit/authcore/secret"
	"github.com/campuskit/authcore/token"
)

// Builder assembles a Service. Configure, attach collaborators, call Build
// once. A Builder is not safe for concurrent use; the Service it produces is.
type Builder struct {
	config Config
	redis  *redis.Client

	store    CredentialStore
	notifier Notifier

	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder preloaded with defaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis attaches the Redis client used for rate limiting. Optional: a
// Service built without Redis runs with throttles disabled.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore attaches the host's principal persistence. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier attaches the verification-link delivery channel. Required.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink attaches the audit destination. Ignored unless Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source. Tests use this to pin expiry behavior;
// production builds leave it unset.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process metrics registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the ValidateAccess latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every component, and returns the
// immutable Service. The Builder cannot be reused afterwards.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	hasher, err := secret.NewHasher(secret.Config{
		Memory:      cfg.Secret.Memory,
		Time:        cfg.Secret.Time,
		Parallelism: cfg.Secret.Parallelism,
		SaltLength:  cfg.Secret.SaltLength,
		KeyLength:   cfg.Secret.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		SigningMethod: cfg.Token.SigningMethod,
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
	}, now)
	if err != nil {
		return nil, err
	}

	// Without Redis the limiter stays nil; all its methods no-op on nil.
	var limiter *rate.Limiter
	if b.redis != nil {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:   cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:   cfg.Security.MaxLoginAttempts,
			LoginCooldown:      cfg.Security.LoginCooldown,
			MaxRefreshAttempts: cfg.Security.MaxRefreshAttempts,
			RefreshCooldown:    cfg.Security.RefreshCooldown,
			MaxVerifyAttempts:  cfg.Security.MaxVerifyAttempts,
			VerifyCooldown:     cfg.Security.VerifyCooldown,
		})
	}

	svc := &Service{
		config:   cfg,
		store:    b.store,
		notifier: b.notifier,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		now:      now,
	}

	b.built = true

	return svc, nil
}
