package data

import (
	"context"
	"errors"
	"net/http"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
	"github.com/leaguewatch/schedule-notifier/internal/infra/upstream"
)

// MatchLogFetcher is the upstream call the source adapter needs
type MatchLogFetcher interface {
	MatchLog(ctx context.Context, matchID int64) ([]byte, error)
}

var _ MatchLogFetcher = (*upstream.Client)(nil)

type sourceRepo struct {
	client MatchLogFetcher
}

// NewSourceRepo wraps the upstream client as a SourceRepo
func NewSourceRepo(client MatchLogFetcher) repo.SourceRepo {
	return &sourceRepo{client: client}
}

// FetchMatchLog fetches the raw log and maps failures to fetch reasons
func (r *sourceRepo) FetchMatchLog(ctx context.Context, matchID int64) ([]byte, error) {
	raw, err := r.client.MatchLog(ctx, matchID)
	if err == nil {
		return raw, nil
	}
	return nil, &domain.FetchError{MatchID: matchID, Reason: fetchReason(ctx, err), Err: err}
}

func fetchReason(ctx context.Context, err error) domain.FetchReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.FetchTimeout
	}
	var se *upstream.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone) {
		return domain.FetchNotFound
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.FetchTimeout
	}
	return domain.FetchServerError
}
