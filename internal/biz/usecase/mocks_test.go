package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

// Mock implementations

type mockMatchRepo struct {
	mu      sync.Mutex
	matches map[int64]*domain.MatchState
	saves   int
	saveErr error
}

func newMockMatchRepo(states ...*domain.MatchState) *mockMatchRepo {
	m := &mockMatchRepo{matches: make(map[int64]*domain.MatchState)}
	for _, s := range states {
		m.matches[s.MatchID] = s
	}
	return m
}

func (m *mockMatchRepo) LoadMatchState(ctx context.Context, matchID int64) (*domain.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.matches[matchID]; ok {
		return s.Clone(), nil
	}
	return nil, nil
}

func (m *mockMatchRepo) SaveMatchState(ctx context.Context, state *domain.MatchState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.matches[state.MatchID] = state.Clone()
	return nil
}

func (m *mockMatchRepo) ListOpenMatches(ctx context.Context) ([]*domain.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.MatchState
	for _, s := range m.matches {
		if !s.IsClosed {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

func (m *mockMatchRepo) ListOpenMatchesByTeam(ctx context.Context, teamID int64) ([]*domain.MatchState, error) {
	all, _ := m.ListOpenMatches(ctx)
	var result []*domain.MatchState
	for _, s := range all {
		if s.TeamID == teamID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockMatchRepo) FindByGameDay(ctx context.Context, teamID int64, gameDay int) (*domain.MatchState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.matches {
		if s.TeamID == teamID && s.GameDay == gameDay {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

func (m *mockMatchRepo) DeleteMatch(ctx context.Context, matchID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, matchID)
	return nil
}

func (m *mockMatchRepo) Close() error {
	return nil
}

func (m *mockMatchRepo) marker(matchID int64) *int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches[matchID].LastProcessedSequenceID
}

type mockTeamRepo struct {
	mu     sync.Mutex
	teams  map[int64]*domain.Team
	subs   map[int64][]*domain.TeamSubscription
	getErr error
	errFor map[int64]error
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{
		teams: map[int64]*domain.Team{
			1: {ID: 1, Name: "Home Team", Tag: "HOME"},
			2: {ID: 2, Name: "Enemy Team", Tag: "ENMY"},
		},
		subs: make(map[int64][]*domain.TeamSubscription),
	}
}

func (m *mockTeamRepo) GetTeam(ctx context.Context, teamID int64) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if err := m.errFor[teamID]; err != nil {
		return nil, err
	}
	return m.teams[teamID], nil
}

func (m *mockTeamRepo) SaveTeam(ctx context.Context, team *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[team.ID] = team
	return nil
}

func (m *mockTeamRepo) LoadSubscriptions(ctx context.Context, teamID int64) ([]*domain.TeamSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[teamID], nil
}

func (m *mockTeamRepo) SaveSubscription(ctx context.Context, sub *domain.TeamSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.TeamID] = append(m.subs[sub.TeamID], sub)
	return nil
}

func (m *mockTeamRepo) DeleteSubscription(ctx context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for teamID, subs := range m.subs {
		kept := subs[:0]
		for _, s := range subs {
			if s.ChannelID != channelID {
				kept = append(kept, s)
			}
		}
		m.subs[teamID] = kept
	}
	return nil
}

func (m *mockTeamRepo) ListSubscribedTeams(ctx context.Context, kind domain.EventKind) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for teamID, subs := range m.subs {
		for _, s := range subs {
			if s.Wants(kind) {
				ids = append(ids, teamID)
				break
			}
		}
	}
	return ids, nil
}

type mockSource struct {
	mu    sync.Mutex
	data  map[int64][]byte
	err   error
	block bool
	calls int
}

func (m *mockSource) FetchMatchLog(ctx context.Context, matchID int64) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	block, err, raw := m.block, m.err, m.data[matchID]
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, &domain.FetchError{MatchID: matchID, Reason: domain.FetchTimeout, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &domain.FetchError{MatchID: matchID, Reason: domain.FetchNotFound}
	}
	return raw, nil
}

func (m *mockSource) set(matchID int64, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[int64][]byte)
	}
	m.data[matchID] = raw
}

type sentMessage struct {
	ChannelID   string
	Text        string
	Mentionable bool
}

type mockChannel struct {
	mu       sync.Mutex
	platform domain.Platform
	canPin   bool
	pinOK    bool
	outcomes map[string]domain.DeliveryOutcome // per channel, default Delivered
	sent     []sentMessage
	pinned   []string
}

func newMockChannel(platform domain.Platform, canPin bool) *mockChannel {
	return &mockChannel{
		platform: platform,
		canPin:   canPin,
		pinOK:    true,
		outcomes: make(map[string]domain.DeliveryOutcome),
	}
}

func (m *mockChannel) Platform() domain.Platform { return m.platform }

func (m *mockChannel) SupportsPin() bool { return m.canPin }

func (m *mockChannel) Send(ctx context.Context, channelID, text string, mentionable bool) domain.DeliveryResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outcome, ok := m.outcomes[channelID]; ok && outcome != domain.Delivered {
		return domain.DeliveryResult{Outcome: outcome, Err: errors.New("send failed")}
	}
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Text: text, Mentionable: mentionable})
	return domain.DeliveryResult{Outcome: domain.Delivered, MessageRef: fmt.Sprintf("msg-%d", len(m.sent))}
}

func (m *mockChannel) Pin(ctx context.Context, channelID, messageRef string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pinOK {
		return false
	}
	m.pinned = append(m.pinned, messageRef)
	return true
}

func (m *mockChannel) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockRenderer struct {
	failKeys map[string]bool
}

func (m *mockRenderer) Render(key, locale string, data domain.EventContext) (string, error) {
	if m.failKeys[key] {
		return "", errors.New("template failed")
	}
	return fmt.Sprintf("%s:%s:%s:%d:%d", locale, key, data.EnemyTeamTag, len(data.Suggestions), len(data.Games)), nil
}

func (m *mockRenderer) HasLocale(locale string) bool {
	return locale == "de" || locale == "en"
}

type staticPins map[domain.Platform]bool

func (p staticPins) SupportsPin(platform domain.Platform) bool { return p[platform] }

// Fixtures

func subscription(teamID int64, channelID string, platform domain.Platform, kinds ...domain.EventKind) *domain.TeamSubscription {
	return &domain.TeamSubscription{
		TeamID:       teamID,
		ChannelID:    channelID,
		Platform:     platform,
		EnabledKinds: domain.NewEventKindSet(kinds...),
		PinKinds:     domain.NewEventKindSet(),
	}
}

func rawLog(id int64, action, user string, teamID int64, details string) string {
	return fmt.Sprintf(`{"id":%d,"action":%q,"user":%q,"team_id":%d,"time":1700000000,"details":%s}`,
		id, action, user, teamID, details)
}

func rawSuggestion(id int64, user string, teamID int64, times ...int64) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = fmt.Sprint(t)
	}
	return rawLog(id, "scheduling_suggest", user, teamID, `{"times":[`+strings.Join(parts, ",")+`]}`)
}

func rawTime(id int64, action string, t int64) string {
	return rawLog(id, action, "admin", 0, fmt.Sprintf(`{"time":%d}`, t))
}

func envelopeJSON(matchID int64, closed bool, logs ...string) []byte {
	return []byte(fmt.Sprintf(`{"match":{"id":%d,"closed":%t},"logs":[%s]}`, matchID, closed, strings.Join(logs, ",")))
}

func int64p(v int64) *int64 { return &v }
