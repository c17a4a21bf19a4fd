package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Formats(t *testing.T) {
	input := `
# main account
plainToken
access1:refresh1
access2,refresh2

  Bearer access3 , refresh3  
`
	creds, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Credential{
		{Access: "plainToken"},
		{Access: "access1", Refresh: "refresh1"},
		{Access: "access2", Refresh: "refresh2"},
		{Access: "access3", Refresh: "refresh3"},
	}
	if len(creds) != len(want) {
		t.Fatalf("expected %d credentials, got %d", len(want), len(creds))
	}
	for i := range want {
		if creds[i] != want[i] {
			t.Errorf("credential %d: expected %+v, got %+v", i, want[i], creds[i])
		}
	}
	if creds[0].CanRefresh() {
		t.Error("plain token should not be refreshable")
	}
	if !creds[1].CanRefresh() {
		t.Error("token pair should be refreshable")
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader("\n# nothing\n"))
	if !errors.Is(err, ErrNoAccounts) {
		t.Errorf("expected ErrNoAccounts, got %v", err)
	}
}

func TestParse_EmptyAccess(t *testing.T) {
	_, err := Parse(strings.NewReader("ok\n:refresh\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("a1,r1\na2,r2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(creds) != 2 || creds[1].Access != "a2" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStore_GetUpdate(t *testing.T) {
	store, err := NewStore([]Credential{{Access: "a1", Refresh: "r1"}, {Access: "a2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Len() != 2 {
		t.Errorf("expected 2 accounts, got %d", store.Len())
	}
	if ids := store.IDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("expected ids [1 2], got %v", ids)
	}

	if err := store.Update(1, Credential{Access: "new", Refresh: "r9"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.Get(1)
	if got.Access != "new" || got.Refresh != "r9" {
		t.Errorf("update not applied: %+v", got)
	}

	origin, _ := store.Origin(1)
	if origin.Access != "a1" {
		t.Errorf("origin must keep loaded value, got %+v", origin)
	}

	if _, err := store.Get(3); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
	if err := store.Update(0, Credential{}); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestNewStore_Empty(t *testing.T) {
	if _, err := NewStore(nil); !errors.Is(err, ErrNoAccounts) {
		t.Errorf("expected ErrNoAccounts, got %v", err)
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		cursor, count, want int
	}{
		{0, 1, 0},
		{0, 3, 1},
		{1, 3, 2},
		{2, 3, 0},
		{4, 5, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		if got := Advance(tt.cursor, tt.count); got != tt.want {
			t.Errorf("Advance(%d, %d) = %d, want %d", tt.cursor, tt.count, got, tt.want)
		}
	}
}

func TestRotator(t *testing.T) {
	r := NewRotator(3, 2)
	if r.Current() != 2 {
		t.Fatalf("expected account 2, got %d", r.Current())
	}

	if next := r.Advance(); next != 3 {
		t.Errorf("expected account 3, got %d", next)
	}
	if next := r.Advance(); next != 1 {
		t.Errorf("expected wrap to account 1, got %d", next)
	}
	if r.Current() != 1 {
		t.Errorf("current should follow advance, got %d", r.Current())
	}

	if NewRotator(2, 5).Current() != 1 {
		t.Error("out of range start should wrap")
	}
}

func TestRotator_NextDoesNotMove(t *testing.T) {
	r := NewRotator(2, 2)
	if next := r.Next(); next != 1 {
		t.Errorf("expected next account 1, got %d", next)
	}
	if r.Current() != 2 {
		t.Errorf("next should not move the cursor, got %d", r.Current())
	}
}
