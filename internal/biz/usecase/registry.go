package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// RegistryUsecase manages the teams, matches and subscriptions the notifier knows about
type RegistryUsecase struct {
	matchRepo repo.MatchRepo
	teamRepo  repo.TeamRepo
}

// NewRegistryUsecase creates a new registry usecase
func NewRegistryUsecase(matchRepo repo.MatchRepo, teamRepo repo.TeamRepo) *RegistryUsecase {
	return &RegistryUsecase{
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
	}
}

// RegisterTeam creates or renames a team
func (uc *RegistryUsecase) RegisterTeam(ctx context.Context, team *domain.Team) error {
	if team.ID <= 0 {
		return fmt.Errorf("%w: team id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(team.Name) == "" {
		return fmt.Errorf("%w: team name is required", domain.ErrInvalidInput)
	}
	if err := uc.teamRepo.SaveTeam(ctx, team); err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	return nil
}

// RegisterMatch starts tracking a match. Re-registering keeps the diff marker.
func (uc *RegistryUsecase) RegisterMatch(ctx context.Context, matchID, teamID, enemyTeamID int64, gameDay int) (*domain.MatchState, error) {
	if matchID <= 0 {
		return nil, fmt.Errorf("%w: match id is required", domain.ErrInvalidInput)
	}
	team, err := uc.teamRepo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return nil, fmt.Errorf("%w: team %d", domain.ErrUnresolvableReference, teamID)
	}

	state, err := uc.matchRepo.LoadMatchState(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match state: %w", err)
	}
	now := time.Now()
	if state == nil {
		state = &domain.MatchState{MatchID: matchID, CreatedAt: now}
	}
	state.TeamID = teamID
	if enemyTeamID != 0 {
		state.EnemyTeamID = enemyTeamID
	}
	if gameDay != 0 {
		state.GameDay = gameDay
	}
	state.UpdatedAt = now

	if err := uc.matchRepo.SaveMatchState(ctx, state); err != nil {
		return nil, fmt.Errorf("save match state: %w", err)
	}
	return state, nil
}

// Subscribe binds a channel to a team. A channel belongs to exactly one
// team, so subscribing moves it.
func (uc *RegistryUsecase) Subscribe(ctx context.Context, sub *domain.TeamSubscription) error {
	if sub.ChannelID == "" {
		return fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if _, err := domain.ParsePlatform(string(sub.Platform)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	team, err := uc.teamRepo.GetTeam(ctx, sub.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	if team == nil {
		return fmt.Errorf("%w: team %d", domain.ErrUnresolvableReference, sub.TeamID)
	}
	if sub.EnabledKinds == nil {
		sub.EnabledKinds = domain.NewEventKindSet(domain.AllEventKinds...)
	}
	if sub.PinKinds == nil {
		sub.PinKinds = domain.NewEventKindSet()
	}
	if err := uc.teamRepo.SaveSubscription(ctx, sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

// Unsubscribe removes a channel
func (uc *RegistryUsecase) Unsubscribe(ctx context.Context, channelID string) error {
	return uc.teamRepo.DeleteSubscription(ctx, channelID)
}
