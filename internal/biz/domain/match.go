package domain

import "time"

// MatchState is the persisted scheduling state of one match
type MatchState struct {
	MatchID       int64
	TeamID        int64 // team the notifications go to
	EnemyTeamID   int64
	GameDay       int
	ScheduledTime *time.Time
	IsClosed      bool

	// LastProcessedSequenceID is the diff marker. nil means first contact.
	LastProcessedSequenceID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Marker returns the diff marker value and whether one is set
func (m *MatchState) Marker() (int64, bool) {
	if m.LastProcessedSequenceID == nil {
		return 0, false
	}
	return *m.LastProcessedSequenceID, true
}

// AdvanceMarker moves the marker forward. It never moves backwards.
func (m *MatchState) AdvanceMarker(seq int64) bool {
	if cur, ok := m.Marker(); ok && seq <= cur {
		return false
	}
	m.LastProcessedSequenceID = &seq
	m.UpdatedAt = time.Now()
	return true
}

// Reschedule sets the scheduled time
func (m *MatchState) Reschedule(t time.Time) {
	m.ScheduledTime = &t
	m.UpdatedAt = time.Now()
}

// Close marks the match as finalized. Closed matches are not polled again.
func (m *MatchState) Close() {
	m.IsClosed = true
	m.UpdatedAt = time.Now()
}

// IsPollable checks if the match still needs polling
func (m *MatchState) IsPollable() bool {
	return !m.IsClosed
}

// Clone returns a deep copy
func (m *MatchState) Clone() *MatchState {
	c := *m
	if m.ScheduledTime != nil {
		t := *m.ScheduledTime
		c.ScheduledTime = &t
	}
	if m.LastProcessedSequenceID != nil {
		s := *m.LastProcessedSequenceID
		c.LastProcessedSequenceID = &s
	}
	return &c
}
