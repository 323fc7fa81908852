package usecase

import (
	"context"
	"testing"

	"github.com/leaguewatch/schedule-notifier/internal/biz/domain"
)

func TestDispatch_RecordsOutcomes(t *testing.T) {
	tg := newMockChannel(domain.PlatformTelegram, true)
	tg.outcomes["tg-gone"] = domain.ChannelUnreachable
	dc := newMockChannel(domain.PlatformDiscord, true)
	dc.outcomes["dc-bad"] = domain.PlatformRejected

	d := NewDispatcher(nil, tg, dc)
	payloads := []domain.NotificationPayload{
		{ChannelID: "tg-1", Platform: domain.PlatformTelegram, Text: "a"},
		{ChannelID: "dc-bad", Platform: domain.PlatformDiscord, Text: "b"},
		{ChannelID: "tg-gone", Platform: domain.PlatformTelegram, Text: "c"},
		{ChannelID: "fs-1", Platform: domain.PlatformFeishu, Text: "d"},
		{ChannelID: "dc-1", Platform: domain.PlatformDiscord, Text: "e"},
	}

	reports := d.Dispatch(context.Background(), payloads)

	want := []domain.DeliveryOutcome{
		domain.Delivered,
		domain.PlatformRejected,
		domain.ChannelUnreachable,
		domain.PlatformRejected,
		domain.Delivered,
	}
	if len(reports) != len(want) {
		t.Fatalf("Expected %d reports, got %d", len(want), len(reports))
	}
	for i, r := range reports {
		if r.Outcome != want[i] {
			t.Errorf("Report %d: expected %s, got %s", i, want[i], r.Outcome)
		}
		if r.Payload.ChannelID != payloads[i].ChannelID {
			t.Errorf("Report %d: expected channel %s, got %s", i, payloads[i].ChannelID, r.Payload.ChannelID)
		}
	}
	if tg.sentCount() != 1 || dc.sentCount() != 1 {
		t.Errorf("Expected one message per platform, got telegram=%d discord=%d", tg.sentCount(), dc.sentCount())
	}
}

func TestDispatch_PinsBestEffort(t *testing.T) {
	tg := newMockChannel(domain.PlatformTelegram, true)
	d := NewDispatcher(nil, tg)

	reports := d.Dispatch(context.Background(), []domain.NotificationPayload{
		{ChannelID: "tg-1", Platform: domain.PlatformTelegram, Text: "pin me", Pinnable: true},
		{ChannelID: "tg-1", Platform: domain.PlatformTelegram, Text: "leave me"},
	})
	if !reports[0].Pinned || reports[1].Pinned {
		t.Errorf("Expected only the first message pinned, got %v and %v", reports[0].Pinned, reports[1].Pinned)
	}

	tg.pinOK = false
	reports = d.Dispatch(context.Background(), []domain.NotificationPayload{
		{ChannelID: "tg-1", Platform: domain.PlatformTelegram, Text: "pin fails", Pinnable: true},
	})
	if reports[0].Outcome != domain.Delivered {
		t.Errorf("Expected pin failure to keep delivery, got %s", reports[0].Outcome)
	}
	if reports[0].Pinned {
		t.Error("Expected message not pinned")
	}
}

func TestDispatch_SupportsPin(t *testing.T) {
	d := NewDispatcher(nil, newMockChannel(domain.PlatformTelegram, true), newMockChannel(domain.PlatformFeishu, false))

	if !d.SupportsPin(domain.PlatformTelegram) {
		t.Error("Expected telegram to support pinning")
	}
	if d.SupportsPin(domain.PlatformFeishu) {
		t.Error("Expected feishu not to support pinning")
	}
	if d.SupportsPin(domain.PlatformDiscord) {
		t.Error("Expected unregistered platform not to support pinning")
	}
}
