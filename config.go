package authcore

import (
	"errors"
	"time"
)

// Config is the value object supplied to [Builder.WithConfig]. It is copied
// on Build; later mutation of the caller's value has no effect on a running
// Service.
type Config struct {
	Token    TokenConfig
	Secret   SecretConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access-token signing and every credential TTL the
// engine owns.
type TokenConfig struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SECRET CONFIG
====================================
*/

// SecretConfig carries the argon2id work factors for the password cost
// class. The opaque class (refresh and verification secrets) has no tunables;
// those secrets are already 256 bits of entropy.
type SecretConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes the Redis-backed fixed-window throttles. All limits
// are skipped when the Service is built without a Redis client.
type SecurityConfig struct {
	EnableIPThrottle bool

	MaxLoginAttempts   int
	LoginCooldown      time.Duration
	MaxRefreshAttempts int
	RefreshCooldown    time.Duration
	MaxVerifyAttempts  int
	VerifyCooldown     time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:       5 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
			VerificationTTL: 24 * time.Hour,
			SigningMethod:   "ed25519",
			Leeway:          30 * time.Second,
		},
		Secret: SecretConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			EnableIPThrottle:   true,
			MaxLoginAttempts:   5,
			LoginCooldown:      15 * time.Minute,
			MaxRefreshAttempts: 20,
			RefreshCooldown:    1 * time.Minute,
			MaxVerifyAttempts:  10,
			VerifyCooldown:     15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. Build calls it; it is exported so
// host applications can fail fast on boot before wiring collaborators.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.VerificationTTL <= 0 {
		return errors.New("Token VerificationTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2 minutes")
	}

	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("unsupported Token signing method")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}

	// Secret
	if c.Secret.Memory < 8*1024 {
		return errors.New("Secret Memory must be >= 8192 KB")
	}
	if c.Secret.Time < 1 {
		return errors.New("Secret Time must be >= 1")
	}
	if c.Secret.Parallelism < 1 {
		return errors.New("Secret Parallelism must be >= 1")
	}
	if c.Secret.SaltLength < 16 {
		return errors.New("Secret SaltLength must be >= 16")
	}
	if c.Secret.KeyLength < 16 {
		return errors.New("Secret KeyLength must be >= 16")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0")
	}
	if c.Security.MaxRefreshAttempts <= 0 {
		return errors.New("Security MaxRefreshAttempts must be > 0")
	}
	if c.Security.RefreshCooldown <= 0 {
		return errors.New("Security RefreshCooldown must be > 0")
	}
	if c.Security.MaxVerifyAttempts <= 0 {
		return errors.New("Security MaxVerifyAttempts must be > 0")
	}
	if c.Security.VerifyCooldown <= 0 {
		return errors.New("Security VerifyCooldown must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}

// DefaultConfig returns the baseline configuration. Callers must still supply
// signing key material before Build.
func DefaultConfig() Config {
	return defaultConfig()
}
