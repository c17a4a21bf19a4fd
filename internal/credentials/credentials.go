package credentials

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoAccounts     = errors.New("no accounts loaded")
	ErrUnknownAccount = errors.New("unknown account")
)

// Credential is one account's token pair. Refresh may be empty
type Credential struct {
	Access  string
	Refresh string
}

// CanRefresh reports whether a new access token can be minted
func (c Credential) CanRefresh() bool {
	return c.Refresh != ""
}

// Store is the account set. Account ids are 1..N in load order.
// Credentials are replaced whole, never patched
type Store struct {
	mu      sync.RWMutex
	current []Credential
	origin  []Credential
}

// NewStore creates a store from credentials in file order
func NewStore(creds []Credential) (*Store, error) {
	if len(creds) == 0 {
		return nil, ErrNoAccounts
	}

	current := make([]Credential, len(creds))
	copy(current, creds)
	origin := make([]Credential, len(creds))
	copy(origin, creds)

	return &Store{current: current, origin: origin}, nil
}

// Len returns the number of accounts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// IDs returns all account ids in rotation order
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, len(s.current))
	for i := range s.current {
		ids[i] = i + 1
	}
	return ids
}

// Get returns the current credential of an account
func (s *Store) Get(id int) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > len(s.current) {
		return Credential{}, fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	return s.current[id-1], nil
}

// Origin returns the credential as it was loaded from the token file
func (s *Store) Origin(id int) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > len(s.origin) {
		return Credential{}, fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	return s.origin[id-1], nil
}

// Update replaces the credential of an account
func (s *Store) Update(id int, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > len(s.current) {
		return fmt.Errorf("%w: %d", ErrUnknownAccount, id)
	}
	s.current[id-1] = cred
	return nil
}
