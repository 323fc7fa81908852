package domain

import (
	"sort"
	"time"
)

// LogKind is the kind of a scheduling log published upstream
type LogKind string

const (
	LogSuggestionCreated       LogKind = "suggestion_created"
	LogSchedulingConfirmed     LogKind = "scheduling_confirmed"
	LogSchedulingAutoConfirmed LogKind = "scheduling_auto_confirmed"
	LogTimeChangedByAdmin      LogKind = "time_changed_by_admin"
	LogLineupPublished         LogKind = "lineup_published"
	LogMatchCreated            LogKind = "match_created"
)

// IsTerminal reports whether the kind fixes the match time.
// Only the latest terminal record of a batch is surfaced.
func (k LogKind) IsTerminal() bool {
	switch k {
	case LogSchedulingConfirmed, LogSchedulingAutoConfirmed, LogTimeChangedByAdmin:
		return true
	}
	return false
}

// LogPayload carries the kind-specific data of a log record.
// Only the fields relevant for the record's kind are set.
type LogPayload struct {
	ProposedTimes []time.Time // SuggestionCreated
	ScheduledTime time.Time   // confirmations and admin time changes
	Players       []string    // LineupPublished
	GameDay       int         // MatchCreated
	EnemyTeamID   int64       // MatchCreated
}

// LogRecord is one scheduling event of a match as published upstream
type LogRecord struct {
	MatchID     int64
	SequenceID  int64
	Kind        LogKind
	Actor       string
	ActorTeamID int64 // 0 when the actor's team is unknown
	CreatedAt   time.Time
	Payload     LogPayload
}

// IsFromTeam checks if the record was created by a member of the given team
func (r *LogRecord) IsFromTeam(teamID int64) bool {
	return teamID != 0 && r.ActorTeamID == teamID
}

// LogBatch is the parsed content of one upstream fetch
type LogBatch struct {
	MatchID int64
	Records []LogRecord // ascending by SequenceID
	Closed  bool        // upstream reports a final result
}

// MaxSequenceID returns the highest sequence id of the batch, 0 if empty
func (b *LogBatch) MaxSequenceID() int64 {
	var max int64
	for _, r := range b.Records {
		if r.SequenceID > max {
			max = r.SequenceID
		}
	}
	return max
}

// SortRecords sorts records ascending by sequence id in place
func SortRecords(records []LogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SequenceID < records[j].SequenceID
	})
}
