package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// GroupingMode controls how adjacent suggestion records are merged
type GroupingMode string

const (
	GroupByActor  GroupingMode = "actor"    // adjacent suggestions from the same actor
	GroupAdjacent GroupingMode = "adjacent" // adjacent suggestions from anyone
	GroupNone     GroupingMode = "none"     // one event per suggestion record
)

// ParseGroupingMode parses a grouping mode name
func ParseGroupingMode(s string) (GroupingMode, error) {
	switch m := GroupingMode(s); m {
	case GroupByActor, GroupAdjacent, GroupNone:
		return m, nil
	case "":
		return GroupByActor, nil
	}
	return "", fmt.Errorf("unknown suggestion grouping %q", s)
}

// Classification is the outcome of classifying one unseen batch
type Classification struct {
	Events []domain.Event

	// Match facts learned from the batch, to be persisted with the marker
	ScheduledTime *time.Time
	EnemyTeamID   int64
	GameDay       int

	Dropped int // records dropped as unresolvable
}

// EventClassifier maps unseen log records to enriched events
type EventClassifier struct {
	teamRepo repo.TeamRepo
	grouping GroupingMode
	links    LinkConfig
	logger   *slog.Logger
}

// NewEventClassifier creates a new event classifier
func NewEventClassifier(teamRepo repo.TeamRepo, grouping GroupingMode, links LinkConfig, logger *slog.Logger) *EventClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	if grouping == "" {
		grouping = GroupByActor
	}
	return &EventClassifier{
		teamRepo: teamRepo,
		grouping: grouping,
		links:    links,
		logger:   logger.With("component", "classifier"),
	}
}

// Classify turns the unseen records of a match into events, in ascending
// sequence order. Only the latest terminal record (confirmation,
// auto-confirmation or admin time change) surfaces, and suggestions that
// precede it are superseded. Records pointing at unknown teams are dropped
// but the match facts they carry are kept.
// An error means the batch as a whole could not be classified.
func (c *EventClassifier) Classify(ctx context.Context, state *domain.MatchState, unseen []domain.LogRecord) (*Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Classification{
		ScheduledTime: state.ScheduledTime,
		EnemyTeamID:   state.EnemyTeamID,
		GameDay:       state.GameDay,
	}

	lastTerminal := -1
	for i := range unseen {
		if unseen[i].Kind.IsTerminal() {
			lastTerminal = i
		}
	}

	teams := newTeamCache(c.teamRepo)

	var group *domain.Event
	var groupHead domain.LogRecord
	flush := func() {
		if group != nil {
			out.Events = append(out.Events, *group)
			group = nil
		}
	}

	for i, record := range unseen {
		if record.Kind == domain.LogSuggestionCreated && i < lastTerminal {
			continue
		}
		if record.Kind.IsTerminal() && i != lastTerminal {
			continue
		}

		if record.Kind == domain.LogSuggestionCreated && group != nil && c.mergeable(groupHead, record) {
			group.Context.Suggestions = append(group.Context.Suggestions, record.Payload.ProposedTimes...)
			group.Context.PendingSuggestions = len(group.Context.Suggestions)
			group.SequenceID = record.SequenceID
			continue
		}
		flush()

		event, err := c.classifyRecord(ctx, teams, state, out, record)
		if errors.Is(err, domain.ErrUnresolvableReference) {
			c.logger.WarnContext(ctx, "dropping log record",
				"match_id", state.MatchID, "sequence_id", record.SequenceID, "kind", record.Kind, "error", err)
			out.Dropped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("classify record %d: %w", record.SequenceID, err)
		}
		if event == nil {
			continue
		}

		if record.Kind == domain.LogSuggestionCreated {
			group = event
			groupHead = record
			continue
		}
		out.Events = append(out.Events, *event)
	}
	flush()

	return out, nil
}

func (c *EventClassifier) mergeable(head, next domain.LogRecord) bool {
	switch c.grouping {
	case GroupAdjacent:
		return true
	case GroupByActor:
		return head.Actor == next.Actor && head.ActorTeamID == next.ActorTeamID
	}
	return false
}

func (c *EventClassifier) classifyRecord(
	ctx context.Context,
	teams *teamCache,
	state *domain.MatchState,
	out *Classification,
	record domain.LogRecord,
) (*domain.Event, error) {
	kind, ok := domain.EventForLog(record.Kind)
	if !ok {
		return nil, nil
	}

	if record.Kind == domain.LogMatchCreated {
		if record.Payload.EnemyTeamID != 0 {
			out.EnemyTeamID = record.Payload.EnemyTeamID
		}
		if record.Payload.GameDay != 0 {
			out.GameDay = record.Payload.GameDay
		}
	}
	// Match facts are kept even when the notification cannot be resolved
	if record.Kind.IsTerminal() {
		t := record.Payload.ScheduledTime
		out.ScheduledTime = &t
	}

	// Only lineups of the enemy team are announced. Own lineups and
	// lineups without a known actor team are not.
	if record.Kind == domain.LogLineupPublished && !record.IsFromTeam(out.EnemyTeamID) {
		return nil, nil
	}

	team, err := teams.get(ctx, state.TeamID)
	if err != nil {
		return nil, err
	}
	enemy, err := teams.get(ctx, out.EnemyTeamID)
	if err != nil {
		return nil, err
	}

	ec := domain.EventContext{
		TeamName:      team.Name,
		EnemyTeamName: enemy.Name,
		EnemyTeamTag:  enemy.Tag,
		GameDay:       out.GameDay,
		ScheduledTime: out.ScheduledTime,
		MatchURL:      c.links.Match(state.MatchID),
		ScoutingURL:   c.links.Scouting(enemy.ID, nil),
	}

	switch record.Kind {
	case domain.LogSuggestionCreated:
		ec.Suggestions = append([]time.Time(nil), record.Payload.ProposedTimes...)
		ec.PendingSuggestions = len(ec.Suggestions)
		ec.OwnSuggestion = record.IsFromTeam(state.TeamID)
		ec.Actor = record.Actor
	case domain.LogLineupPublished:
		ec.Players = append([]string(nil), record.Payload.Players...)
		ec.ScoutingURL = c.links.Scouting(enemy.ID, ec.Players)
	}

	return &domain.Event{
		Kind:       kind,
		MatchID:    state.MatchID,
		TeamID:     state.TeamID,
		SequenceID: record.SequenceID,
		Context:    ec,
	}, nil
}

// teamCache memoizes team lookups for one batch
type teamCache struct {
	repo  repo.TeamRepo
	teams map[int64]*domain.Team
}

func newTeamCache(r repo.TeamRepo) *teamCache {
	return &teamCache{repo: r, teams: make(map[int64]*domain.Team)}
}

func (tc *teamCache) get(ctx context.Context, teamID int64) (*domain.Team, error) {
	if team, ok := tc.teams[teamID]; ok {
		if team == nil {
			return nil, fmt.Errorf("%w: team %d", domain.ErrUnresolvableReference, teamID)
		}
		return team, nil
	}
	if teamID == 0 {
		tc.teams[teamID] = nil
		return nil, fmt.Errorf("%w: no team reference", domain.ErrUnresolvableReference)
	}

	team, err := tc.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team %d: %w", teamID, err)
	}
	tc.teams[teamID] = team
	if team == nil {
		return nil, fmt.Errorf("%w: team %d", domain.ErrUnresolvableReference, teamID)
	}
	return team, nil
}
