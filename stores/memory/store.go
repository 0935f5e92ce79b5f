package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	authcore "github.com/campuskit/authcore"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// Store is an in-memory CredentialStore for tests, examples, and prototypes.
// Principals are deep-copied on every boundary crossing so callers can never
// mutate shared state.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]*authcore.Principal
	byEmail    map[string]string // email -> id
	byVerifTok map[string]string // verification hash -> id
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		byID:       make(map[string]*authcore.Principal),
		byEmail:    make(map[string]string),
		byVerifTok: make(map[string]string),
	}
}

// Create inserts a principal and returns its generated ID. An empty incoming
// ID gets a fresh uuid; a duplicate email is rejected.
func (s *Store) Create(p *authcore.Principal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[p.Email]; exists {
		return "", ErrDuplicateEmail
	}

	stored := p.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	if stored.VerificationHash != "" {
		s.byVerifTok[stored.VerificationHash] = stored.ID
	}

	return stored.ID, nil
}

// FindByEmail returns the principal without role data.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authcore.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}

	out := s.byID[id].Clone()
	out.Roles = nil
	return out, nil
}

// FindByEmailWithRoles returns the full principal including roles.
func (s *Store) FindByEmailWithRoles(ctx context.Context, email string) (*authcore.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}

	return s.byID[id].Clone(), nil
}

// FindByVerificationToken looks a principal up by the hash of its pending
// verification token.
func (s *Store) FindByVerificationToken(ctx context.Context, tokenHash string) (*authcore.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byVerifTok[tokenHash]
	if !ok {
		return nil, authcore.ErrPrincipalNotFound
	}

	return s.byID[id].Clone(), nil
}

// Save overwrites the stored principal and maintains the verification hash
// index.
func (s *Store) Save(ctx context.Context, p *authcore.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byID[p.ID]
	if !ok {
		return authcore.ErrPrincipalNotFound
	}

	if prev.VerificationHash != "" && prev.VerificationHash != p.VerificationHash {
		delete(s.byVerifTok, prev.VerificationHash)
	}
	if p.VerificationHash != "" {
		s.byVerifTok[p.VerificationHash] = p.ID
	}

	s.byID[p.ID] = p.Clone()
	return nil
}

// Get returns a copy of the principal by id, for test assertions.
func (s *Store) Get(id string) (*authcore.Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}
