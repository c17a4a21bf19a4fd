package storage

import "time"

// AccountTokens is a refreshed token pair saved for an account.
// OriginAccess is the access token the account had in the tokens file,
// so a changed file line is not overridden by stale tokens
type AccountTokens struct {
	AccountID    int
	OriginAccess string
	Access       string
	Refresh      string
	UpdatedAt    time.Time
}
