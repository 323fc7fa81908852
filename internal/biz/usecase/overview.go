package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// OverviewUsecase lists the open matches of a team
type OverviewUsecase struct {
	matchRepo repo.MatchRepo
	teamRepo  repo.TeamRepo
	announcer *Announcer
	links     LinkConfig
}

// NewOverviewUsecase creates a new overview usecase
func NewOverviewUsecase(matchRepo repo.MatchRepo, teamRepo repo.TeamRepo, announcer *Announcer, links LinkConfig) *OverviewUsecase {
	return &OverviewUsecase{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		announcer: announcer,
		links:     links,
	}
}

// Overview builds the overview event of a team. A team without open
// matches yields an overview with no games.
func (uc *OverviewUsecase) Overview(ctx context.Context, teamID int64) (*domain.Event, error) {
	teams := newTeamCache(uc.teamRepo)
	team, err := teams.get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	matches, err := uc.matchRepo.ListOpenMatchesByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list open matches: %w", err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].GameDay < matches[j].GameDay
	})

	games := make([]domain.GameSummary, 0, len(matches))
	for _, m := range matches {
		game := domain.GameSummary{
			MatchID:       m.MatchID,
			GameDay:       m.GameDay,
			ScheduledTime: m.ScheduledTime,
			MatchURL:      uc.links.Match(m.MatchID),
			ScoutingURL:   uc.links.Scouting(m.EnemyTeamID, nil),
		}
		enemy, err := teams.get(ctx, m.EnemyTeamID)
		switch {
		case err == nil:
			game.EnemyTeamName = enemy.Name
			game.EnemyTeamTag = enemy.Tag
		case !errors.Is(err, domain.ErrUnresolvableReference):
			return nil, fmt.Errorf("resolve enemy of match %d: %w", m.MatchID, err)
		}
		games = append(games, game)
	}

	return &domain.Event{
		Kind:   domain.EventOverview,
		TeamID: teamID,
		Context: domain.EventContext{
			TeamName: team.Name,
			Games:    games,
		},
	}, nil
}

// Preview renders the overview for every subscribed channel without sending
func (uc *OverviewUsecase) Preview(ctx context.Context, teamID int64) ([]domain.NotificationPayload, error) {
	event, err := uc.Overview(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return uc.announcer.Build(ctx, []domain.Event{*event})
}

// SendOverview sends the overview to every subscribed channel of the team
func (uc *OverviewUsecase) SendOverview(ctx context.Context, teamID int64) ([]domain.DeliveryReport, error) {
	event, err := uc.Overview(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return uc.announcer.Announce(ctx, []domain.Event{*event})
}
