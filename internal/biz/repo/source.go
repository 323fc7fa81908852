package repo

import "context"

// SourceRepo fetches raw match data from the upstream league site
type SourceRepo interface {
	// FetchMatchLog returns the raw log blob of a match.
	// Errors are *domain.FetchError.
	FetchMatchLog(ctx context.Context, matchID int64) ([]byte, error)
}
