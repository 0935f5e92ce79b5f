package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	authcore "github.com/campuskit/authcore"
)

func TestCreateAndLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Create(&authcore.Principal{
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$...",
		Roles:        []string{"student"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	p, err := store.FindByEmailWithRoles(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmailWithRoles failed: %v", err)
	}
	if p.ID != id || len(p.Roles) != 1 {
		t.Fatalf("principal = %+v", p)
	}

	// The role-less lookup strips roles.
	p, err = store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if p.Roles != nil {
		t.Fatalf("roles = %v, want nil", p.Roles)
	}

	if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, authcore.ErrPrincipalNotFound) {
		t.Fatalf("got %v, want ErrPrincipalNotFound", err)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()

	if _, err := store.Create(&authcore.Principal{Email: "alice@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(&authcore.Principal{Email: "alice@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestVerificationHashIndex(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Create(&authcore.Principal{Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	expiry := time.Now().Add(time.Hour)
	p, _ := store.Get(id)
	p.VerificationHash = "$sha256$abc"
	p.VerificationExpiry = &expiry
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	found, err := store.FindByVerificationToken(ctx, "$sha256$abc")
	if err != nil {
		t.Fatalf("FindByVerificationToken failed: %v", err)
	}
	if found.ID != id {
		t.Fatalf("found id = %q, want %q", found.ID, id)
	}

	// Clearing the hash removes the index entry.
	p.VerificationHash = ""
	p.VerificationExpiry = nil
	p.EmailVerified = true
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.FindByVerificationToken(ctx, "$sha256$abc"); !errors.Is(err, authcore.ErrPrincipalNotFound) {
		t.Fatalf("got %v, want ErrPrincipalNotFound", err)
	}
}

func TestSaveIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Create(&authcore.Principal{Email: "carol@example.com", Roles: []string{"student"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	p, _ := store.Get(id)
	p.Roles[0] = "mutated"

	stored, _ := store.Get(id)
	if stored.Roles[0] != "student" {
		t.Fatal("caller mutation leaked into the store")
	}

	if err := store.Save(ctx, &authcore.Principal{ID: "ghost"}); !errors.Is(err, authcore.ErrPrincipalNotFound) {
		t.Fatalf("got %v, want ErrPrincipalNotFound", err)
	}
}
