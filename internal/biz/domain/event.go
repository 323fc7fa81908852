package domain

import "time"

// EventKind is the semantic kind of a notification
type EventKind string

const (
	EventSuggestion       EventKind = "scheduling_suggestion"
	EventConfirmation     EventKind = "scheduling_confirmation"
	EventAutoConfirmation EventKind = "scheduling_auto_confirmation"
	EventTimeChange       EventKind = "time_change"
	EventNewLineup        EventKind = "new_lineup"
	EventNewGame          EventKind = "new_game"
	EventWeeklyDigest     EventKind = "weekly_digest"
	EventOverview         EventKind = "overview"
)

// AllEventKinds lists every event kind
var AllEventKinds = []EventKind{
	EventSuggestion,
	EventConfirmation,
	EventAutoConfirmation,
	EventTimeChange,
	EventNewLineup,
	EventNewGame,
	EventWeeklyDigest,
	EventOverview,
}

var mentionable = map[EventKind]bool{
	EventSuggestion:       true,
	EventConfirmation:     true,
	EventAutoConfirmation: true,
	EventTimeChange:       true,
	EventNewLineup:        true,
	EventNewGame:          true,
	EventWeeklyDigest:     false,
	EventOverview:         false,
}

// Valid checks if the kind is known
func (k EventKind) Valid() bool {
	_, ok := mentionable[k]
	return ok
}

// Mentionable reports whether notifications of this kind mention the whole channel
func (k EventKind) Mentionable() bool {
	return mentionable[k]
}

// EventForLog maps a log kind to the event kind it produces
func EventForLog(kind LogKind) (EventKind, bool) {
	switch kind {
	case LogSuggestionCreated:
		return EventSuggestion, true
	case LogSchedulingConfirmed:
		return EventConfirmation, true
	case LogSchedulingAutoConfirmed:
		return EventAutoConfirmation, true
	case LogTimeChangedByAdmin:
		return EventTimeChange, true
	case LogLineupPublished:
		return EventNewLineup, true
	case LogMatchCreated:
		return EventNewGame, true
	}
	return "", false
}

// GameSummary is one open match listed in an overview
type GameSummary struct {
	MatchID       int64
	GameDay       int
	EnemyTeamName string
	EnemyTeamTag  string
	ScheduledTime *time.Time
	MatchURL      string
	ScoutingURL   string
}

// EventContext is the data needed to render an event
type EventContext struct {
	TeamName      string
	EnemyTeamName string
	EnemyTeamTag  string
	GameDay       int
	ScheduledTime *time.Time

	// Suggestion events
	Suggestions        []time.Time
	PendingSuggestions int
	OwnSuggestion      bool
	Actor              string

	// Lineup events
	Players []string

	MatchURL    string
	ScoutingURL string

	// Overview events
	Games []GameSummary
}

// Event is a classified, enriched notification trigger
type Event struct {
	Kind       EventKind
	MatchID    int64
	TeamID     int64
	SequenceID int64 // latest log record folded into the event, 0 if not log driven
	Context    EventContext
}
