package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// matchRepo implements the match state repository
type matchRepo struct {
	store *Store
}

// NewMatchRepo creates a new match repository
func NewMatchRepo(store *Store) repo.MatchRepo {
	return &matchRepo{store: store}
}

const matchColumns = `match_id, team_id, enemy_team_id, game_day, scheduled_time, is_closed,
	last_processed_sequence_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*domain.MatchState, error) {
	var m domain.MatchState
	var scheduled, marker sql.NullInt64
	var closed int
	var createdAt, updatedAt int64

	err := row.Scan(&m.MatchID, &m.TeamID, &m.EnemyTeamID, &m.GameDay, &scheduled, &closed,
		&marker, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if scheduled.Valid {
		t := time.Unix(scheduled.Int64, 0)
		m.ScheduledTime = &t
	}
	if marker.Valid {
		v := marker.Int64
		m.LastProcessedSequenceID = &v
	}
	m.IsClosed = closed != 0
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)
	return &m, nil
}

// LoadMatchState gets a match by id
func (r *matchRepo) LoadMatchState(ctx context.Context, matchID int64) (*domain.MatchState, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE match_id = ?`, matchID)

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return m, nil
}

// SaveMatchState upserts the match in one statement
func (r *matchRepo) SaveMatchState(ctx context.Context, m *domain.MatchState) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	var scheduled, marker sql.NullInt64
	if m.ScheduledTime != nil {
		scheduled = sql.NullInt64{Int64: m.ScheduledTime.Unix(), Valid: true}
	}
	if m.LastProcessedSequenceID != nil {
		marker = sql.NullInt64{Int64: *m.LastProcessedSequenceID, Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			team_id = excluded.team_id,
			enemy_team_id = excluded.enemy_team_id,
			game_day = excluded.game_day,
			scheduled_time = excluded.scheduled_time,
			is_closed = excluded.is_closed,
			last_processed_sequence_id = excluded.last_processed_sequence_id,
			updated_at = excluded.updated_at
	`, m.MatchID, m.TeamID, m.EnemyTeamID, m.GameDay, scheduled, boolToInt(m.IsClosed),
		marker, m.CreatedAt.Unix(), m.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// ListOpenMatches lists all matches that still need polling
func (r *matchRepo) ListOpenMatches(ctx context.Context) ([]*domain.MatchState, error) {
	return r.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE is_closed = 0 ORDER BY match_id`)
}

// ListOpenMatchesByTeam lists the open matches of a team by game day
func (r *matchRepo) ListOpenMatchesByTeam(ctx context.Context, teamID int64) ([]*domain.MatchState, error) {
	return r.queryMatches(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE team_id = ? AND is_closed = 0
		ORDER BY game_day, match_id
	`, teamID)
}

// FindByGameDay gets the match of a team on a game day
func (r *matchRepo) FindByGameDay(ctx context.Context, teamID int64, gameDay int) (*domain.MatchState, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE team_id = ? AND game_day = ?
		ORDER BY is_closed, match_id
		LIMIT 1
	`, teamID, gameDay)

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return m, nil
}

// DeleteMatch stops tracking a match
func (r *matchRepo) DeleteMatch(ctx context.Context, matchID int64) error {
	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM matches WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

// Close closes the underlying store
func (r *matchRepo) Close() error {
	return r.store.Close()
}

func (r *matchRepo) queryMatches(ctx context.Context, query string, args ...any) ([]*domain.MatchState, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.MatchState
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
