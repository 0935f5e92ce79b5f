package token

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers every parse and verification failure: bad
	// signature, malformed compact form, wrong issuer or audience, and (unless
	// expiry is ignored) an expired token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject is returned when a structurally valid token carries no
	// subject claim.
	ErrMissingSubject = errors.New("token missing subject")
)

// Config carries the signing material and claim policy for access tokens.
type Config struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" or "hs256"
	PrivateKey    []byte // PEM (ed25519) or raw secret (hs256)
	PublicKey     []byte // PEM, ed25519 only
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// AccessClaims is the claim set carried by access tokens. The principal ID
// rides in the registered subject claim.
type AccessClaims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies access tokens. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	config     Config
	method     jwt.SigningMethod
	signingKey any
	verifyKey  any
	now        func() time.Time
}

// NewManager parses the key material in cfg and returns a ready Manager.
// The clock is injectable so expiry behavior is testable; pass nil for
// time.Now.
func NewManager(cfg Config, now func() time.Time) (*Manager, error) {
	if now == nil {
		now = time.Now
	}

	m := &Manager{config: cfg, now: now}

	switch cfg.SigningMethod {
	case "ed25519":
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.method = jwt.SigningMethodEdDSA
		m.signingKey = priv
		m.verifyKey = pub
	case "hs256":
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 secret must be at least 32 bytes")
		}
		m.method = jwt.SigningMethodHS256
		m.signingKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// IssueAccess signs a fresh access token for the principal.
func (m *Manager) IssueAccess(principalID, email string, roles []string) (string, error) {
	now := m.now()

	claims := AccessClaims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.signingKey)
}

// ParseAccess verifies the token signature and claims and returns the claim
// set. With ignoreExpiry set, time-based claims are not checked; the signature
// and static claims are enforced either way. That mode exists for the refresh
// flow, which accepts an expired access token as proof of session identity.
func (m *Manager) ParseAccess(tokenString string, ignoreExpiry bool) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithLeeway(m.config.Leeway),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	} else {
		opts = append(opts, jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.now))
	}

	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.verifyKey, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if ignoreExpiry {
		// WithoutClaimsValidation skips everything, so re-check the static
		// claims by hand; only the time claims get a pass here.
		if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
			return nil, ErrInvalidToken
		}
		if m.config.Audience != "" && !containsAudience(claims.Audience, m.config.Audience) {
			return nil, ErrInvalidToken
		}
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

func parseEdPrivateKey(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid private key PEM")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.New("invalid PKCS8 private key")
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not ed25519")
	}

	return key, nil
}

func parseEdPublicKey(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("invalid public key PEM")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.New("invalid PKIX public key")
	}

	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ed25519")
	}

	return key, nil
}
