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

// CurrentGameDay returns the 1-based game day of now for a split that
// started at splitStart. It returns 0 before the split started.
func CurrentGameDay(splitStart, now time.Time) int {
	if splitStart.IsZero() || now.Before(splitStart) {
		return 0
	}
	days := int(now.Sub(splitStart) / (24 * time.Hour))
	return days/7 + 1
}

// WeeklyResult summarizes one weekly digest run
type WeeklyResult struct {
	GameDay int
	Teams   int // teams with a match on the game day
	Reports []domain.DeliveryReport
}

// WeeklyUsecase sends the weekly digest for a game day
type WeeklyUsecase struct {
	matchRepo repo.MatchRepo
	teamRepo  repo.TeamRepo
	announcer *Announcer
	links     LinkConfig
	logger    *slog.Logger
}

// NewWeeklyUsecase creates a new weekly digest usecase
func NewWeeklyUsecase(matchRepo repo.MatchRepo, teamRepo repo.TeamRepo, announcer *Announcer, links LinkConfig, logger *slog.Logger) *WeeklyUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyUsecase{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		announcer: announcer,
		links:     links,
		logger:    logger.With("component", "weekly"),
	}
}

// Run sends a digest to every team that enabled weekly digests and has an
// open match on gameDay
func (uc *WeeklyUsecase) Run(ctx context.Context, gameDay int) (*WeeklyResult, error) {
	if gameDay <= 0 {
		return nil, fmt.Errorf("invalid game day %d", gameDay)
	}

	teamIDs, err := uc.teamRepo.ListSubscribedTeams(ctx, domain.EventWeeklyDigest)
	if err != nil {
		return nil, fmt.Errorf("list subscribed teams: %w", err)
	}

	result := &WeeklyResult{GameDay: gameDay}
	teams := newTeamCache(uc.teamRepo)

	var events []domain.Event
	for _, teamID := range teamIDs {
		match, err := uc.matchRepo.FindByGameDay(ctx, teamID, gameDay)
		if err != nil {
			return nil, fmt.Errorf("find match of team %d: %w", teamID, err)
		}
		if match == nil || match.IsClosed {
			continue
		}

		event, err := uc.digest(ctx, teams, match)
		if errors.Is(err, domain.ErrUnresolvableReference) {
			uc.logger.Warn("skipping weekly digest", "team_id", teamID, "match_id", match.MatchID, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	result.Teams = len(events)

	reports, err := uc.announcer.Announce(ctx, events)
	result.Reports = reports
	if err != nil {
		uc.logger.Warn("building weekly digest failed", "game_day", gameDay, "error", err)
	}

	uc.logger.Info("weekly digest sent", "game_day", gameDay, "teams", result.Teams, "payloads", len(reports))
	return result, nil
}

func (uc *WeeklyUsecase) digest(ctx context.Context, teams *teamCache, match *domain.MatchState) (*domain.Event, error) {
	team, err := teams.get(ctx, match.TeamID)
	if err != nil {
		return nil, err
	}
	enemy, err := teams.get(ctx, match.EnemyTeamID)
	if err != nil {
		return nil, err
	}

	return &domain.Event{
		Kind:    domain.EventWeeklyDigest,
		MatchID: match.MatchID,
		TeamID:  match.TeamID,
		Context: domain.EventContext{
			TeamName:      team.Name,
			EnemyTeamName: enemy.Name,
			EnemyTeamTag:  enemy.Tag,
			GameDay:       match.GameDay,
			ScheduledTime: match.ScheduledTime,
			MatchURL:      uc.links.Match(match.MatchID),
			ScoutingURL:   uc.links.Scouting(enemy.ID, nil),
		},
	}, nil
}
