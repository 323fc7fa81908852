package repo

import (
	"context"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// MatchRepo is the match state repository interface
type MatchRepo interface {
	// LoadMatchState returns nil, nil when the match is unknown
	LoadMatchState(ctx context.Context, matchID int64) (*domain.MatchState, error)

	// SaveMatchState upserts the state. It is atomic per match.
	SaveMatchState(ctx context.Context, state *domain.MatchState) error

	ListOpenMatches(ctx context.Context) ([]*domain.MatchState, error)
	ListOpenMatchesByTeam(ctx context.Context, teamID int64) ([]*domain.MatchState, error)
	FindByGameDay(ctx context.Context, teamID int64, gameDay int) (*domain.MatchState, error)
	DeleteMatch(ctx context.Context, matchID int64) error

	Close() error
}
