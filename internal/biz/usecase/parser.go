package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// upstream action names
var actionKinds = map[string]domain.LogKind{
	"scheduling_suggest":     domain.LogSuggestionCreated,
	"scheduling_confirm":     domain.LogSchedulingConfirmed,
	"scheduling_autoconfirm": domain.LogSchedulingAutoConfirmed,
	"change_time":            domain.LogTimeChangedByAdmin,
	"lineup_submit":          domain.LogLineupPublished,
	"match_created":          domain.LogMatchCreated,
}

type rawEnvelope struct {
	Match *struct {
		ID     int64  `json:"id"`
		Closed bool   `json:"closed"`
		Result string `json:"result"`
	} `json:"match"`
	Logs *[]json.RawMessage `json:"logs"`
}

type rawRecord struct {
	ID      int64           `json:"id"`
	Action  string          `json:"action"`
	User    string          `json:"user"`
	TeamID  int64           `json:"team_id"`
	Time    int64           `json:"time"`
	Details json.RawMessage `json:"details"`
}

type rawDetails struct {
	Times       []int64  `json:"times"`
	Time        int64    `json:"time"`
	Players     []string `json:"players"`
	GameDay     int      `json:"game_day"`
	EnemyTeamID int64    `json:"enemy_team_id"`
}

// LogParser turns raw upstream match data into ordered log records
type LogParser struct {
	logger *slog.Logger
}

// NewLogParser creates a new log parser
func NewLogParser(logger *slog.Logger) *LogParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogParser{logger: logger.With("component", "parser")}
}

// Parse decodes raw into a batch sorted by sequence id.
// Unknown actions are skipped and corrupt records are dropped. Only an
// undecodable envelope fails with domain.ErrMalformedSourceData.
func (p *LogParser) Parse(matchID int64, raw []byte) (*domain.LogBatch, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSourceData, err)
	}
	if env.Logs == nil {
		return nil, fmt.Errorf("%w: missing logs collection", domain.ErrMalformedSourceData)
	}
	if env.Match != nil && env.Match.ID != 0 && env.Match.ID != matchID {
		return nil, fmt.Errorf("%w: data belongs to match %d", domain.ErrMalformedSourceData, env.Match.ID)
	}

	batch := &domain.LogBatch{MatchID: matchID}
	if env.Match != nil {
		batch.Closed = env.Match.Closed || env.Match.Result != ""
	}

	seen := make(map[int64]bool, len(*env.Logs))
	for i, item := range *env.Logs {
		record, err := p.parseRecord(matchID, item)
		if errors.Is(err, errUnknownAction) {
			p.logger.Debug("skipping unknown log action", "match_id", matchID, "index", i)
			continue
		}
		if err != nil {
			p.logger.Warn("dropping corrupt log record", "match_id", matchID, "index", i, "error", err)
			continue
		}
		if seen[record.SequenceID] {
			p.logger.Warn("dropping duplicate log record", "match_id", matchID, "sequence_id", record.SequenceID)
			continue
		}
		seen[record.SequenceID] = true
		batch.Records = append(batch.Records, *record)
	}

	domain.SortRecords(batch.Records)
	return batch, nil
}

var errUnknownAction = errors.New("unknown action")

func (p *LogParser) parseRecord(matchID int64, item json.RawMessage) (*domain.LogRecord, error) {
	var rec rawRecord
	if err := json.Unmarshal(item, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	kind, ok := actionKinds[rec.Action]
	if !ok {
		return nil, errUnknownAction
	}
	if rec.ID <= 0 {
		return nil, fmt.Errorf("invalid sequence id %d", rec.ID)
	}

	var details rawDetails
	if len(rec.Details) > 0 && string(rec.Details) != "null" {
		if err := json.Unmarshal(rec.Details, &details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
	}

	record := &domain.LogRecord{
		MatchID:     matchID,
		SequenceID:  rec.ID,
		Kind:        kind,
		Actor:       rec.User,
		ActorTeamID: rec.TeamID,
	}
	if rec.Time > 0 {
		record.CreatedAt = time.Unix(rec.Time, 0)
	}

	switch kind {
	case domain.LogSuggestionCreated:
		if len(details.Times) == 0 {
			return nil, errors.New("suggestion without proposed times")
		}
		for _, ts := range details.Times {
			if ts <= 0 {
				return nil, fmt.Errorf("invalid proposed time %d", ts)
			}
			record.Payload.ProposedTimes = append(record.Payload.ProposedTimes, time.Unix(ts, 0))
		}
	case domain.LogSchedulingConfirmed, domain.LogSchedulingAutoConfirmed, domain.LogTimeChangedByAdmin:
		if details.Time <= 0 {
			return nil, errors.New("missing scheduled time")
		}
		record.Payload.ScheduledTime = time.Unix(details.Time, 0)
	case domain.LogLineupPublished:
		record.Payload.Players = details.Players
	case domain.LogMatchCreated:
		record.Payload.GameDay = details.GameDay
		record.Payload.EnemyTeamID = details.EnemyTeamID
	}

	return record, nil
}
