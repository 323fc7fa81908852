package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// DefaultFetchTimeout bounds one upstream fetch
const DefaultFetchTimeout = 15 * time.Second

// PollResult describes one poll cycle of one match
type PollResult struct {
	MatchID      int64
	Stage        domain.Stage // last stage reached
	Unseen       int
	Dropped      int
	Events       []domain.Event
	Reports      []domain.DeliveryReport
	MarkerBefore *int64
	MarkerAfter  *int64
	Closed       bool

	// BuildErr holds build failures after the marker was committed.
	// They are reported only and never retried.
	BuildErr error
}

// Delivered counts delivered payloads
func (r *PollResult) Delivered() int {
	n := 0
	for i := range r.Reports {
		if r.Reports[i].OK() {
			n++
		}
	}
	return n
}

// PollUsecase runs the per-match pipeline:
// fetch, parse, diff, classify, commit marker, build, dispatch.
type PollUsecase struct {
	sourceRepo   repo.SourceRepo
	matchRepo    repo.MatchRepo
	parser       *LogParser
	classifier   *EventClassifier
	announcer    *Announcer
	locks        *MatchLocks
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewPollUsecase creates a new poll usecase
func NewPollUsecase(
	sourceRepo repo.SourceRepo,
	matchRepo repo.MatchRepo,
	parser *LogParser,
	classifier *EventClassifier,
	announcer *Announcer,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) *PollUsecase {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PollUsecase{
		sourceRepo:   sourceRepo,
		matchRepo:    matchRepo,
		parser:       parser,
		classifier:   classifier,
		announcer:    announcer,
		locks:        NewMatchLocks(),
		fetchTimeout: fetchTimeout,
		logger:       logger.With("component", "poll"),
	}
}

// PollMatch runs one poll cycle for a match. It returns domain.ErrMatchBusy
// when a cycle for the same match is already running. Errors before the
// marker commit leave the stored state untouched; failures after it are
// recorded in the result.
func (uc *PollUsecase) PollMatch(ctx context.Context, matchID int64) (*PollResult, error) {
	result := &PollResult{MatchID: matchID, Stage: domain.StageIdle}

	if !uc.locks.TryLock(matchID) {
		return result, domain.ErrMatchBusy
	}
	state, err := uc.classify(ctx, result)
	uc.locks.Unlock(matchID)
	if err != nil {
		return result, err
	}
	if len(result.Events) == 0 {
		result.Stage = domain.StageIdle
		return result, nil
	}

	result.Stage = domain.StageBuilding
	reports, buildErr := uc.announcer.Announce(ctx, result.Events)
	if buildErr != nil {
		result.BuildErr = &domain.StageError{Stage: domain.StageBuilding, MatchID: matchID, Err: buildErr}
		uc.logger.WarnContext(ctx, "building notifications failed", "match_id", matchID, "team_id", state.TeamID, "error", buildErr)
	}
	if len(reports) > 0 {
		result.Stage = domain.StageDispatching
	}
	result.Reports = reports

	uc.logger.InfoContext(ctx, "match polled",
		"match_id", matchID,
		"unseen", result.Unseen,
		"events", len(result.Events),
		"delivered", result.Delivered(),
		"payloads", len(reports))

	result.Stage = domain.StageIdle
	return result, nil
}

// classify runs Fetching through Classifying and commits the new state.
// Must be called with the match lock held.
func (uc *PollUsecase) classify(ctx context.Context, result *PollResult) (*domain.MatchState, error) {
	matchID := result.MatchID

	state, err := uc.matchRepo.LoadMatchState(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match state: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrMatchNotFound, matchID)
	}
	result.MarkerBefore = state.LastProcessedSequenceID
	result.MarkerAfter = state.LastProcessedSequenceID
	result.Closed = state.IsClosed
	if !state.IsPollable() {
		return state, nil
	}

	result.Stage = domain.StageFetching
	fetchCtx, cancel := context.WithTimeout(ctx, uc.fetchTimeout)
	raw, err := uc.sourceRepo.FetchMatchLog(fetchCtx, matchID)
	cancel()
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageFetching, MatchID: matchID, Err: err}
	}

	result.Stage = domain.StageParsing
	batch, err := uc.parser.Parse(matchID, raw)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageParsing, MatchID: matchID, Err: err}
	}

	result.Stage = domain.StageDiffing
	diff := DiffRecords(batch.Records, state.LastProcessedSequenceID)
	result.Unseen = len(diff.Unseen)
	if len(diff.Unseen) == 0 && !batch.Closed {
		return state, nil
	}

	result.Stage = domain.StageClassifying
	classification, err := uc.classifier.Classify(ctx, state, diff.Unseen)
	if err != nil {
		return nil, &domain.StageError{Stage: domain.StageClassifying, MatchID: matchID, Err: err}
	}

	next := state.Clone()
	if diff.Marker != nil {
		next.AdvanceMarker(*diff.Marker)
	}
	if classification.ScheduledTime != nil {
		next.Reschedule(*classification.ScheduledTime)
	}
	next.EnemyTeamID = classification.EnemyTeamID
	next.GameDay = classification.GameDay
	if batch.Closed {
		next.Close()
	}

	// Single commit point of the cycle
	if err := ctx.Err(); err != nil {
		return nil, &domain.StageError{Stage: domain.StageClassifying, MatchID: matchID, Err: err}
	}
	if err := uc.matchRepo.SaveMatchState(ctx, next); err != nil {
		return nil, &domain.StageError{Stage: domain.StageClassifying, MatchID: matchID, Err: fmt.Errorf("save match state: %w", err)}
	}

	result.MarkerAfter = next.LastProcessedSequenceID
	result.Closed = next.IsClosed
	result.Dropped = classification.Dropped
	result.Events = classification.Events
	return next, nil
}
