package repo

import (
	"context"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// TeamRepo is the team and subscription repository interface
type TeamRepo interface {
	// Team operations. GetTeam returns nil, nil when the team is unknown.
	GetTeam(ctx context.Context, teamID int64) (*domain.Team, error)
	SaveTeam(ctx context.Context, team *domain.Team) error

	// Subscription operations
	LoadSubscriptions(ctx context.Context, teamID int64) ([]*domain.TeamSubscription, error)
	SaveSubscription(ctx context.Context, sub *domain.TeamSubscription) error
	DeleteSubscription(ctx context.Context, channelID string) error
	ListSubscribedTeams(ctx context.Context, kind domain.EventKind) ([]int64, error)
}
