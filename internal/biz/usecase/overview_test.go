package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

func newOverviewFixture(states ...*domain.MatchState) (*OverviewUsecase, *mockTeamRepo, *mockChannel) {
	teams := newMockTeamRepo()
	teams.subs[1] = []*domain.TeamSubscription{
		subscription(1, "tg-1", domain.PlatformTelegram, domain.EventOverview),
	}
	tg := newMockChannel(domain.PlatformTelegram, true)
	dispatcher := NewDispatcher(nil, tg)
	announcer := NewAnnouncer(teams, NewNotificationBuilder(&mockRenderer{}, dispatcher, "de"), dispatcher)
	return NewOverviewUsecase(newMockMatchRepo(states...), teams, announcer, DefaultLinkConfig), teams, tg
}

func TestOverview_ScenarioD_NoOpenMatches(t *testing.T) {
	uc, _, tg := newOverviewFixture(&domain.MatchState{MatchID: 7, TeamID: 1, EnemyTeamID: 2, IsClosed: true})

	reports, err := uc.SendOverview(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(reports) != 1 || !reports[0].OK() {
		t.Fatalf("Expected one delivered overview, got %+v", reports)
	}
	if !strings.Contains(tg.sent[0].Text, TemplateOverviewEmpty) {
		t.Errorf("Expected fixed no-matches text, got %q", tg.sent[0].Text)
	}
	if tg.sent[0].Mentionable {
		t.Error("Expected overview not to be mentionable")
	}
}

func TestOverview_ListsOpenMatchesByGameDay(t *testing.T) {
	uc, _, _ := newOverviewFixture(
		&domain.MatchState{MatchID: 30, TeamID: 1, EnemyTeamID: 2, GameDay: 3},
		&domain.MatchState{MatchID: 10, TeamID: 1, EnemyTeamID: 2, GameDay: 1},
		&domain.MatchState{MatchID: 20, TeamID: 1, EnemyTeamID: 2, GameDay: 2, IsClosed: true},
		&domain.MatchState{MatchID: 40, TeamID: 2, EnemyTeamID: 1, GameDay: 1},
	)

	event, err := uc.Overview(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	games := event.Context.Games
	if len(games) != 2 {
		t.Fatalf("Expected 2 open games, got %d", len(games))
	}
	if games[0].MatchID != 10 || games[1].MatchID != 30 {
		t.Errorf("Expected games ordered by game day, got %d, %d", games[0].MatchID, games[1].MatchID)
	}
	if games[0].EnemyTeamName != "Enemy Team" {
		t.Errorf("Expected enemy name resolved, got %q", games[0].EnemyTeamName)
	}

	payloads, err := uc.Preview(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(payloads) != 1 || !strings.Contains(payloads[0].Text, ":overview:") {
		t.Errorf("Expected overview payload, got %+v", payloads)
	}
}

func TestOverview_UnknownTeam(t *testing.T) {
	uc, _, _ := newOverviewFixture()

	if _, err := uc.Overview(context.Background(), 99); !errors.Is(err, domain.ErrUnresolvableReference) {
		t.Errorf("Expected ErrUnresolvableReference, got %v", err)
	}
}

func TestOverview_UnregisteredEnemyKeepsGame(t *testing.T) {
	uc, _, _ := newOverviewFixture(&domain.MatchState{MatchID: 10, TeamID: 1, EnemyTeamID: 99, GameDay: 1})

	event, err := uc.Overview(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(event.Context.Games) != 1 || event.Context.Games[0].EnemyTeamName != "" {
		t.Errorf("Expected one game without enemy name, got %+v", event.Context.Games)
	}
}

func TestOverview_EnemyLookupFailure(t *testing.T) {
	uc, teams, _ := newOverviewFixture(&domain.MatchState{MatchID: 10, TeamID: 1, EnemyTeamID: 2, GameDay: 1})
	repoErr := errors.New("database is locked")
	teams.errFor = map[int64]error{2: repoErr}

	_, err := uc.Overview(context.Background(), 1)
	if !errors.Is(err, repoErr) {
		t.Errorf("Expected repository error, got %v", err)
	}
	if errors.Is(err, domain.ErrUnresolvableReference) {
		t.Errorf("Expected infrastructure error, got %v", err)
	}
}
