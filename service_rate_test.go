package authcore

import (
	"context"
	"errors"
	"testing"
)

func newThrottledService(t *testing.T, store *mockStore) *Service {
	t.Helper()

	_, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.MaxRefreshAttempts = 2
	cfg.Security.MaxVerifyAttempts = 2

	svc, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(&mockNotifier{}).
		WithRedis(rdb).
		WithClock(newTestClock().Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(svc.Close)

	return svc
}

func TestLoginRateLimiting(t *testing.T) {
	store := newMockStore()
	seedPrincipal(t, store, "alice@example.com")
	svc := newThrottledService(t, store)
	ctx := context.Background()

	bad := LoginRequest{Email: "alice@example.com", Password: "wrong-password"}

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, bad); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Budget exhausted: even the correct password is refused now.
	_, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword})
	if !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("got %v, want ErrLoginRateLimited", err)
	}

	// Other accounts keep their own budget.
	seedPrincipal(t, store, "dave@example.com")
	if _, err := svc.Login(ctx, LoginRequest{Email: "dave@example.com", Password: testPassword}); err != nil {
		t.Fatalf("unrelated account throttled: %v", err)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	store := newMockStore()
	seedPrincipal(t, store, "alice@example.com")
	svc := newThrottledService(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	}
	if _, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword}); err != nil {
		t.Fatalf("login within budget failed: %v", err)
	}

	// Reset means the next bad streak starts from zero.
	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("post-reset attempt %d: got %v", i+1, err)
		}
	}
}

func TestRefreshRateLimiting(t *testing.T) {
	store := newMockStore()
	seedPrincipal(t, store, "alice@example.com")
	svc := newThrottledService(t, store)
	ctx := context.Background()

	pair, err := svc.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Every refresh attempt consumes budget, successful or not.
	current := pair
	for i := 0; i < 2; i++ {
		next, err := svc.Refresh(ctx, RefreshRequest{
			AccessToken:   current.AccessToken,
			RefreshSecret: current.RefreshSecret,
		})
		if err != nil {
			t.Fatalf("refresh %d failed: %v", i+1, err)
		}
		current = next
	}

	_, err = svc.Refresh(ctx, RefreshRequest{
		AccessToken:   current.AccessToken,
		RefreshSecret: current.RefreshSecret,
	})
	if !errors.Is(err, ErrRefreshRateLimited) {
		t.Fatalf("got %v, want ErrRefreshRateLimited", err)
	}
}

func TestVerificationRateLimiting(t *testing.T) {
	store := newMockStore()
	seedUnverified(t, store, "bob@example.com")
	svc := newThrottledService(t, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.StartVerification(ctx, "bob@example.com"); err != nil {
			t.Fatalf("StartVerification %d failed: %v", i+1, err)
		}
	}

	err := svc.StartVerification(ctx, "bob@example.com")
	if !errors.Is(err, ErrVerificationRateLimited) {
		t.Fatalf("got %v, want ErrVerificationRateLimited", err)
	}
}
