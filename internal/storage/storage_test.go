package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/suspectuso/blum-farmer/internal/credentials"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "farmer.db"))
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokens_SaveAndGet(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.GetTokens(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	origin := credentials.Credential{Access: "a1", Refresh: "r1"}
	if err := s.SaveTokens(1, origin, credentials.Credential{Access: "a2", Refresh: "r2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveTokens(1, origin, credentials.Credential{Access: "a3", Refresh: "r3"}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.GetTokens(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OriginAccess != "a1" || got.Access != "a3" || got.Refresh != "r3" {
		t.Errorf("unexpected tokens: %+v", got)
	}
}

func TestRestoreCredentials(t *testing.T) {
	s := newTestStorage(t)

	store, _ := credentials.NewStore([]credentials.Credential{
		{Access: "a1", Refresh: "r1"},
		{Access: "b1-edited", Refresh: "rb"},
		{Access: "c1"},
	})

	s.SaveTokens(1, credentials.Credential{Access: "a1"}, credentials.Credential{Access: "a2", Refresh: "r2"})
	s.SaveTokens(2, credentials.Credential{Access: "b1"}, credentials.Credential{Access: "b2", Refresh: "rb2"})

	n, err := s.RestoreCredentials(store)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 restored account, got %d", n)
	}

	first, _ := store.Get(1)
	if first.Access != "a2" || first.Refresh != "r2" {
		t.Errorf("account 1 should be restored, got %+v", first)
	}
	second, _ := store.Get(2)
	if second.Access != "b1-edited" {
		t.Errorf("edited file line must win over saved tokens, got %+v", second)
	}
}

func TestFriendsClaims(t *testing.T) {
	s := newTestStorage(t)

	last, err := s.LastFriendsClaim(1)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("expected zero time, got %v", last)
	}

	at := time.UnixMilli(1_700_000_000_123)
	if err := s.SaveFriendsClaim(1, at); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveFriendsClaim(1, at.Add(time.Hour)); err != nil {
		t.Fatalf("save again: %v", err)
	}

	last, _ = s.LastFriendsClaim(1)
	if !last.Equal(at.Add(time.Hour)) {
		t.Errorf("expected %v, got %v", at.Add(time.Hour), last)
	}
}
