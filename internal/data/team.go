package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
	"github.com/leaguewatch/schedule-notifier/internal/biz/repo"
)

// teamRepo implements the team and subscription repository
type teamRepo struct {
	store *Store
}

// NewTeamRepo creates a new team repository
func NewTeamRepo(store *Store) repo.TeamRepo {
	return &teamRepo{store: store}
}

// GetTeam gets a team by id
func (r *teamRepo) GetTeam(ctx context.Context, teamID int64) (*domain.Team, error) {
	var team domain.Team
	err := r.store.db.QueryRowContext(ctx, `SELECT id, name, tag FROM teams WHERE id = ?`, teamID).
		Scan(&team.ID, &team.Name, &team.Tag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	return &team, nil
}

// SaveTeam upserts a team
func (r *teamRepo) SaveTeam(ctx context.Context, team *domain.Team) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, tag, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			tag = excluded.tag,
			updated_at = excluded.updated_at
	`, team.ID, team.Name, team.Tag, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

// LoadSubscriptions lists the channels of a team
func (r *teamRepo) LoadSubscriptions(ctx context.Context, teamID int64) ([]*domain.TeamSubscription, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT team_id, channel_id, platform, enabled_kinds, pin_kinds, locale
		FROM subscriptions
		WHERE team_id = ?
		ORDER BY created_at, channel_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.TeamSubscription
	for rows.Next() {
		var sub domain.TeamSubscription
		var platform, enabled, pins string
		if err := rows.Scan(&sub.TeamID, &sub.ChannelID, &platform, &enabled, &pins, &sub.Locale); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Platform = domain.Platform(platform)
		if sub.EnabledKinds, err = domain.ParseEventKindSet(enabled); err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.ChannelID, err)
		}
		if sub.PinKinds, err = domain.ParseEventKindSet(pins); err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.ChannelID, err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// SaveSubscription upserts a subscription keyed by channel
func (r *teamRepo) SaveSubscription(ctx context.Context, sub *domain.TeamSubscription) error {
	now := time.Now().Unix()
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO subscriptions (channel_id, team_id, platform, enabled_kinds, pin_kinds, locale, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET
			team_id = excluded.team_id,
			platform = excluded.platform,
			enabled_kinds = excluded.enabled_kinds,
			pin_kinds = excluded.pin_kinds,
			locale = excluded.locale,
			updated_at = excluded.updated_at
	`, sub.ChannelID, sub.TeamID, string(sub.Platform), sub.EnabledKinds.String(), sub.PinKinds.String(), sub.Locale, now, now)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a channel
func (r *teamRepo) DeleteSubscription(ctx context.Context, channelID string) error {
	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// ListSubscribedTeams lists teams with at least one channel enabling kind
func (r *teamRepo) ListSubscribedTeams(ctx context.Context, kind domain.EventKind) ([]int64, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT DISTINCT team_id FROM subscriptions
		WHERE ',' || enabled_kinds || ',' LIKE '%,' || ? || ',%'
		ORDER BY team_id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribed teams: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
