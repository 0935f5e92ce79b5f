package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/campuskit/authcore/secret"
)

const (
	testSigningSecret = "0123456789abcdef0123456789abcdef"
	testPassword      = "correct-password-123"
)

// testClock is a mutable time source shared by a Service and its test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockStore is an in-memory CredentialStore with fault injection.
type mockStore struct {
	mu      sync.Mutex
	byID    map[string]*Principal
	byEmail map[string]string

	failWith error
	saves    int
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:    map[string]*Principal{},
		byEmail: map[string]string{},
	}
}

func (m *mockStore) add(p *Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = p.Clone()
	m.byEmail[p.Email] = p.ID
}

func (m *mockStore) get(id string) *Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Clone()
}

func (m *mockStore) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	return m.FindByEmailWithRoles(ctx, email)
}

func (m *mockStore) FindByEmailWithRoles(_ context.Context, email string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return m.byID[id].Clone(), nil
}

func (m *mockStore) FindByVerificationToken(_ context.Context, tokenHash string) (*Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, p := range m.byID {
		if p.VerificationHash != "" && p.VerificationHash == tokenHash {
			return p.Clone(), nil
		}
	}
	return nil, ErrPrincipalNotFound
}

func (m *mockStore) Save(_ context.Context, p *Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.saves++
	m.byID[p.ID] = p.Clone()
	m.byEmail[p.Email] = p.ID
	return nil
}

// mockNotifier records every dispatched verification token.
type mockNotifier struct {
	mu     sync.Mutex
	tokens []string
	emails []string
	err    error
}

func (n *mockNotifier) SendVerificationLink(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.emails = append(n.emails, email)
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *mockNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.tokens...)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte(testSigningSecret)
	cfg.Token.Issuer = "authcore-test"
	// Keep argon2 at the minimum so test runs stay fast.
	cfg.Secret.Memory = 8 * 1024
	cfg.Secret.Time = 1
	cfg.Secret.Parallelism = 1
	return cfg
}

func newTestService(t *testing.T, store *mockStore, notifier *mockNotifier, clock *testClock) *Service {
	t.Helper()

	svc, err := New().
		WithConfig(testConfig()).
		WithStore(store).
		WithNotifier(notifier).
		WithClock(clock.Now).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc
}

func hashTestPassword(t *testing.T, password string) string {
	t.Helper()

	hasher, err := secret.NewHasher(secret.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	hash, err := hasher.Hash(password, secret.ClassPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	return hash
}

// seedPrincipal inserts a verified account ready to log in.
func seedPrincipal(t *testing.T, store *mockStore, email string) *Principal {
	t.Helper()

	p := &Principal{
		ID:            "p-" + email,
		Email:         email,
		PasswordHash:  hashTestPassword(t, testPassword),
		Roles:         []string{"student", "mentor"},
		EmailVerified: true,
	}
	store.add(p)
	return p
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}
