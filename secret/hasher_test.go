package secret

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := NewHasher(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestPasswordHashRoundTrip(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct-password-123", ClassPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=") {
		t.Fatalf("unexpected encoding: %q", encoded)
	}

	if !h.Verify("correct-password-123", encoded) {
		t.Fatal("correct password rejected")
	}
	if h.Verify("wrong-password-123", encoded) {
		t.Fatal("wrong password accepted")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("correct-password-123", ClassPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("correct-password-123", ClassPassword)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestPasswordMinimumLength(t *testing.T) {
	h := testHasher(t)

	if _, err := h.Hash("short", ClassPassword); err == nil {
		t.Fatal("expected error for sub-minimum password")
	}
}

func TestOpaqueHashIsDeterministic(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("some-opaque-secret-material", ClassOpaque)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("some-opaque-secret-material", ClassOpaque)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if a != b {
		t.Fatal("opaque hashing must be deterministic for store lookups")
	}
	if !strings.HasPrefix(a, "$sha256$") {
		t.Fatalf("unexpected encoding: %q", a)
	}

	if !h.Verify("some-opaque-secret-material", a) {
		t.Fatal("matching opaque value rejected")
	}
	if h.Verify("different-secret-material", a) {
		t.Fatal("non-matching opaque value accepted")
	}
}

func TestVerifyRejectsMalformedEncodings(t *testing.T) {
	h := testHasher(t)

	malformed := []string{
		"",
		"plaintext",
		"$argon2id$",
		"$argon2id$v=19$m=65536,t=3,p=2$notbase64!$alsonot!",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA==$aGFzaA==",
		"$argon2id$v=19$m=64,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA==$aGFzaA==",
		"$bcrypt$whatever",
		"$sha256$",
	}

	for _, enc := range malformed {
		if h.Verify("any-value-at-all", enc) {
			t.Errorf("Verify accepted malformed encoding %q", enc)
		}
	}
}

func TestNewHasherRejectsWeakConfig(t *testing.T) {
	weak := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8 * 1024, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8 * 1024, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32},
		{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}

	for i, cfg := range weak {
		if _, err := NewHasher(cfg); err == nil {
			t.Errorf("config %d accepted: %+v", i, cfg)
		}
	}
}
