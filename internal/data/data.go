package data

import (
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// Repositories contains all storage backed repositories
type Repositories struct {
	Store  *Store
	Match  repo.MatchRepo
	Team   repo.TeamRepo
	Source repo.SourceRepo
}

// NewRepositories opens the database at dbPath and creates all repositories
func NewRepositories(dbPath string, upstream MatchLogFetcher) (*Repositories, error) {
	store, err := OpenStore(dbPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Store:  store,
		Match:  NewMatchRepo(store),
		Team:   NewTeamRepo(store),
		Source: NewSourceRepo(upstream),
	}, nil
}

// Close closes the shared database
func (r *Repositories) Close() error {
	return r.Store.Close()
}
