package credentials

import "sync"

// Advance returns the cursor following cursor in a set of count accounts
func Advance(cursor, count int) int {
	if count <= 0 {
		return 0
	}
	return (cursor + 1) % count
}

// Rotator holds the active account cursor
type Rotator struct {
	mu     sync.Mutex
	cursor int
	count  int
}

// NewRotator creates a rotator over count accounts starting at account id start.
// Out of range starts wrap into the set
func NewRotator(count, start int) *Rotator {
	cursor := 0
	if count > 0 && start > 0 {
		cursor = (start - 1) % count
	}
	return &Rotator{cursor: cursor, count: count}
}

// Current returns the active account id
func (r *Rotator) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor + 1
}

// Advance moves to the next account and returns its id
func (r *Rotator) Advance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = Advance(r.cursor, r.count)
	return r.cursor + 1
}

// Next returns the id Advance would move to without moving the cursor
func (r *Rotator) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Advance(r.cursor, r.count) + 1
}
