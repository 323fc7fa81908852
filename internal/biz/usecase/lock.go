package usecase

import "sync"

// MatchLocks tracks which matches are being processed. Only held matches
// have an entry.
type MatchLocks struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewMatchLocks creates an empty lock table
func NewMatchLocks() *MatchLocks {
	return &MatchLocks{held: make(map[int64]struct{})}
}

// TryLock acquires the match lock without waiting
func (l *MatchLocks) TryLock(matchID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[matchID]; ok {
		return false
	}
	l.held[matchID] = struct{}{}
	return true
}

// Unlock releases the match lock and drops its entry
func (l *MatchLocks) Unlock(matchID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, matchID)
}
