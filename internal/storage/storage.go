package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/suspectuso/blum-farmer/internal/credentials"
)

var ErrNotFound = errors.New("not found")

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// New creates a new Storage instance and initializes the database
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS account_tokens (
			account_id INTEGER PRIMARY KEY,
			origin_access TEXT NOT NULL,
			access TEXT NOT NULL,
			refresh TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS friends_claims (
			account_id INTEGER PRIMARY KEY,
			claimed_at INTEGER NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// --- Tokens ---

// SaveTokens stores the current token pair of an account
func (s *Storage) SaveTokens(accountID int, origin, current credentials.Credential) error {
	_, err := s.db.Exec(
		`INSERT INTO account_tokens (account_id, origin_access, access, refresh, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
			origin_access = excluded.origin_access,
			access = excluded.access,
			refresh = excluded.refresh,
			updated_at = excluded.updated_at`,
		accountID, origin.Access, current.Access, current.Refresh, time.Now().Unix(),
	)
	return err
}

// GetTokens returns the saved tokens of an account
func (s *Storage) GetTokens(accountID int) (*AccountTokens, error) {
	var t AccountTokens
	var updatedAt int64

	err := s.db.QueryRow(
		`SELECT account_id, origin_access, access, refresh, updated_at
		 FROM account_tokens WHERE account_id = ?`,
		accountID,
	).Scan(&t.AccountID, &t.OriginAccess, &t.Access, &t.Refresh, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.UpdatedAt = time.Unix(updatedAt, 0)
	return &t, nil
}

// RestoreCredentials replaces credentials in store with saved refreshed tokens
// when the tokens file still holds the pair they were refreshed from.
// Returns the number of restored accounts
func (s *Storage) RestoreCredentials(store *credentials.Store) (int, error) {
	restored := 0

	for _, id := range store.IDs() {
		saved, err := s.GetTokens(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return restored, err
		}

		origin, err := store.Origin(id)
		if err != nil {
			return restored, err
		}
		if saved.OriginAccess != origin.Access {
			continue
		}

		if err := store.Update(id, credentials.Credential{Access: saved.Access, Refresh: saved.Refresh}); err != nil {
			return restored, err
		}
		restored++
	}

	return restored, nil
}

// --- Friends claims ---

// LastFriendsClaim returns when the friends reward was last claimed.
// The zero time means never
func (s *Storage) LastFriendsClaim(accountID int) (time.Time, error) {
	var claimedAt int64
	err := s.db.QueryRow(
		"SELECT claimed_at FROM friends_claims WHERE account_id = ?",
		accountID,
	).Scan(&claimedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(claimedAt), nil
}

// SaveFriendsClaim records a successful friends claim
func (s *Storage) SaveFriendsClaim(accountID int, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO friends_claims (account_id, claimed_at) VALUES (?, ?)`,
		accountID, at.UnixMilli(),
	)
	return err
}
