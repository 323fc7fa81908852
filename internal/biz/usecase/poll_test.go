package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

type pollFixture struct {
	uc       *PollUsecase
	source   *mockSource
	matches  *mockMatchRepo
	teams    *mockTeamRepo
	telegram *mockChannel
	discord  *mockChannel
	renderer *mockRenderer
}

func newPollFixture(t *testing.T, state *domain.MatchState) *pollFixture {
	t.Helper()

	f := &pollFixture{
		source:   &mockSource{},
		matches:  newMockMatchRepo(state),
		teams:    newMockTeamRepo(),
		telegram: newMockChannel(domain.PlatformTelegram, true),
		discord:  newMockChannel(domain.PlatformDiscord, true),
		renderer: &mockRenderer{},
	}
	f.teams.subs[1] = []*domain.TeamSubscription{
		subscription(1, "tg-1", domain.PlatformTelegram, domain.AllEventKinds...),
		subscription(1, "dc-1", domain.PlatformDiscord, domain.EventSuggestion, domain.EventTimeChange),
	}

	dispatcher := NewDispatcher(nil, f.telegram, f.discord)
	builder := NewNotificationBuilder(f.renderer, dispatcher, "de")
	announcer := NewAnnouncer(f.teams, builder, dispatcher)
	classifier := NewEventClassifier(f.teams, GroupByActor, DefaultLinkConfig, nil)
	f.uc = NewPollUsecase(f.source, f.matches, NewLogParser(nil), classifier, announcer, 50*time.Millisecond, nil)
	return f
}

func TestPollMatch_ScenarioA_MergedSuggestions(t *testing.T) {
	f := newPollFixture(t, testState())
	f.source.set(100, envelopeJSON(100, false,
		rawSuggestion(1, "enemy-captain", 2, 1700000000),
		rawSuggestion(2, "enemy-captain", 2, 1700003600),
		rawSuggestion(3, "enemy-captain", 2, 1700007200),
	))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Events) != 1 || len(result.Events[0].Context.Suggestions) != 3 {
		t.Fatalf("Expected one event with 3 suggestions, got %+v", result.Events)
	}
	if len(result.Reports) != 2 {
		t.Errorf("Expected one payload per subscribed channel, got %d", len(result.Reports))
	}
	if f.telegram.sentCount() != 1 || f.discord.sentCount() != 1 {
		t.Errorf("Expected one message per channel, got telegram=%d discord=%d", f.telegram.sentCount(), f.discord.sentCount())
	}
	if m := f.matches.marker(100); m == nil || *m != 3 {
		t.Errorf("Expected marker 3, got %v", m)
	}
}

func TestPollMatch_ScenarioB_OnlyNewRecords(t *testing.T) {
	state := testState()
	state.LastProcessedSequenceID = int64p(5)
	f := newPollFixture(t, state)
	f.source.set(100, envelopeJSON(100, false,
		rawSuggestion(3, "enemy-captain", 2, 1700000000),
		rawLog(4, "lineup_submit", "x", 2, `{"players":["a"]}`),
		rawTime(5, "scheduling_confirm", 1700000000),
		rawSuggestion(6, "enemy-captain", 2, 1700090000),
	))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Unseen != 1 {
		t.Errorf("Expected 1 unseen record, got %d", result.Unseen)
	}
	if len(result.Events) != 1 || result.Events[0].SequenceID != 6 {
		t.Errorf("Expected only record 6 classified, got %+v", result.Events)
	}
	if *result.MarkerBefore != 5 || *result.MarkerAfter != 6 {
		t.Errorf("Expected marker 5 -> 6, got %d -> %d", *result.MarkerBefore, *result.MarkerAfter)
	}
}

func TestPollMatch_ScenarioC_LaterTerminalWins(t *testing.T) {
	f := newPollFixture(t, testState())
	f.source.set(100, envelopeJSON(100, false,
		rawTime(10, "scheduling_confirm", 1700000000),
		rawTime(11, "change_time", 1700086400),
	))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(result.Events) != 1 || result.Events[0].Kind != domain.EventTimeChange {
		t.Fatalf("Expected only the time change event, got %+v", result.Events)
	}
	for _, r := range result.Reports {
		if r.Payload.EventKind == domain.EventConfirmation {
			t.Error("Expected no confirmation payload")
		}
	}

	saved, _ := f.matches.LoadMatchState(context.Background(), 100)
	if saved.ScheduledTime == nil || saved.ScheduledTime.Unix() != 1700086400 {
		t.Errorf("Expected scheduled time 1700086400 persisted, got %v", saved.ScheduledTime)
	}
}

func TestPollMatch_ScenarioE_TimeoutKeepsMarker(t *testing.T) {
	state := testState()
	state.LastProcessedSequenceID = int64p(2)
	f := newPollFixture(t, state)
	raw := envelopeJSON(100, false,
		rawSuggestion(1, "enemy-captain", 2, 1700000000),
		rawSuggestion(2, "enemy-captain", 2, 1700003600),
		rawSuggestion(3, "enemy-captain", 2, 1700007200),
	)
	f.source.set(100, raw)
	f.source.block = true

	result, err := f.uc.PollMatch(context.Background(), 100)
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Reason != domain.FetchTimeout {
		t.Fatalf("Expected fetch timeout, got %v", err)
	}
	if domain.StageOf(err) != domain.StageFetching {
		t.Errorf("Expected failure in fetching stage, got %s", domain.StageOf(err))
	}
	if result.Stage != domain.StageFetching {
		t.Errorf("Expected result stage fetching, got %s", result.Stage)
	}
	if m := f.matches.marker(100); *m != 2 {
		t.Errorf("Expected marker unchanged at 2, got %d", *m)
	}
	if f.telegram.sentCount() != 0 {
		t.Errorf("Expected no messages, got %d", f.telegram.sentCount())
	}

	f.source.block = false
	result, err = f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Events) != 1 || result.Events[0].SequenceID != 3 {
		t.Errorf("Expected only record 3 after retry, got %+v", result.Events)
	}
	if m := f.matches.marker(100); *m != 3 {
		t.Errorf("Expected marker 3, got %d", *m)
	}
}

func TestPollMatch_Idempotent(t *testing.T) {
	f := newPollFixture(t, testState())
	f.source.set(100, envelopeJSON(100, false,
		rawSuggestion(1, "enemy-captain", 2, 1700000000),
		rawTime(2, "scheduling_confirm", 1700000000),
	))

	if _, err := f.uc.PollMatch(context.Background(), 100); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	sent := f.telegram.sentCount()

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Events) != 0 || len(result.Reports) != 0 {
		t.Errorf("Expected nothing on second run, got %d events %d reports", len(result.Events), len(result.Reports))
	}
	if f.telegram.sentCount() != sent {
		t.Errorf("Expected no new messages, got %d more", f.telegram.sentCount()-sent)
	}
}

func TestPollMatch_MalformedKeepsMarker(t *testing.T) {
	state := testState()
	state.LastProcessedSequenceID = int64p(4)
	f := newPollFixture(t, state)
	f.source.set(100, []byte(`<html>502 Bad Gateway</html>`))

	_, err := f.uc.PollMatch(context.Background(), 100)
	if !errors.Is(err, domain.ErrMalformedSourceData) {
		t.Fatalf("Expected malformed source data, got %v", err)
	}
	if m := f.matches.marker(100); *m != 4 {
		t.Errorf("Expected marker unchanged at 4, got %d", *m)
	}
	if f.matches.saves != 0 {
		t.Errorf("Expected no save, got %d", f.matches.saves)
	}
}

func TestPollMatch_ClassifyFailureKeepsMarker(t *testing.T) {
	f := newPollFixture(t, testState())
	f.source.set(100, envelopeJSON(100, false, rawSuggestion(1, "enemy-captain", 2, 1700000000)))
	f.teams.getErr = errors.New("database is locked")

	_, err := f.uc.PollMatch(context.Background(), 100)
	if domain.StageOf(err) != domain.StageClassifying {
		t.Fatalf("Expected classifying failure, got %v", err)
	}
	if m := f.matches.marker(100); m != nil {
		t.Errorf("Expected no marker, got %d", *m)
	}
}

func TestPollMatch_BuildFailureDoesNotRollBack(t *testing.T) {
	f := newPollFixture(t, testState())
	f.renderer.failKeys = map[string]bool{TemplateSuggestionEnemy: true}
	f.source.set(100, envelopeJSON(100, false, rawSuggestion(1, "enemy-captain", 2, 1700000000)))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.BuildErr == nil {
		t.Error("Expected build error to be reported")
	}
	if m := f.matches.marker(100); m == nil || *m != 1 {
		t.Errorf("Expected marker committed at 1, got %v", m)
	}

	// Not retried on the next cycle
	f.renderer.failKeys = nil
	result, err = f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Reports) != 0 {
		t.Errorf("Expected no retry, got %d reports", len(result.Reports))
	}
}

func TestPollMatch_DeliveryFailureDoesNotRollBack(t *testing.T) {
	f := newPollFixture(t, testState())
	f.telegram.outcomes["tg-1"] = domain.ChannelUnreachable
	f.source.set(100, envelopeJSON(100, false, rawSuggestion(1, "enemy-captain", 2, 1700000000)))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Delivered() != 1 {
		t.Errorf("Expected 1 delivered payload, got %d", result.Delivered())
	}
	if m := f.matches.marker(100); *m != 1 {
		t.Errorf("Expected marker 1, got %d", *m)
	}
}

func TestPollMatch_ClosesMatch(t *testing.T) {
	f := newPollFixture(t, testState())
	f.source.set(100, envelopeJSON(100, true))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Closed {
		t.Error("Expected match closed")
	}

	calls := f.source.calls
	if _, err := f.uc.PollMatch(context.Background(), 100); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if f.source.calls != calls {
		t.Error("Expected closed match not to be fetched again")
	}
}

func TestPollMatch_BusyAndUnknown(t *testing.T) {
	f := newPollFixture(t, testState())

	f.uc.locks.TryLock(100)
	if _, err := f.uc.PollMatch(context.Background(), 100); !errors.Is(err, domain.ErrMatchBusy) {
		t.Errorf("Expected ErrMatchBusy, got %v", err)
	}
	f.uc.locks.Unlock(100)

	if _, err := f.uc.PollMatch(context.Background(), 999); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Errorf("Expected ErrMatchNotFound, got %v", err)
	}
}

func TestPollMatch_MonotonicMarker(t *testing.T) {
	state := testState()
	state.LastProcessedSequenceID = int64p(8)
	f := newPollFixture(t, state)
	f.source.set(100, envelopeJSON(100, false,
		rawSuggestion(2, "enemy-captain", 2, 1700000000),
		rawSuggestion(5, "enemy-captain", 2, 1700000000),
	))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if *result.MarkerAfter != 8 {
		t.Errorf("Expected marker to stay 8, got %d", *result.MarkerAfter)
	}
}

func TestPollMatch_KeepsConfirmedTimeWhenEnemyUnknown(t *testing.T) {
	state := testState()
	state.EnemyTeamID = 99
	f := newPollFixture(t, state)
	f.source.set(100, envelopeJSON(100, false,
		rawTime(7, "scheduling_confirm", 1700000000),
	))

	result, err := f.uc.PollMatch(context.Background(), 100)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Dropped != 1 {
		t.Errorf("Expected 1 dropped record, got %d", result.Dropped)
	}
	if m := f.matches.marker(100); m == nil || *m != 7 {
		t.Errorf("Expected marker 7, got %v", m)
	}

	saved, _ := f.matches.LoadMatchState(context.Background(), 100)
	if saved.ScheduledTime == nil || saved.ScheduledTime.Unix() != 1700000000 {
		t.Errorf("Expected scheduled time 1700000000 persisted, got %v", saved.ScheduledTime)
	}
}
