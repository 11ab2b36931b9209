package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/domain"
	"github.com/juncraft/craftboard/internal/domain/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.MonitorMetrics {
	return metrics.New(prometheus.NewRegistry())
}

func newTestRouter(events *mocks.MockEventRepository, sessions *mocks.MockSessionRepository, spool domain.EventSpool) *EventRouter {
	return NewEventRouter(events, sessions, spool, nil, testLogger(), testMetrics())
}

func drain(ch <-chan domain.StreamMessage) []domain.StreamMessage {
	var out []domain.StreamMessage
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestEventRouter_JoinPersistsThenSignalsThenBroadcasts(t *testing.T) {
	events := &mocks.MockEventRepository{}
	sessions := &mocks.MockSessionRepository{}
	router := newTestRouter(events, sessions, nil)

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	router.HandleLogEvent(context.Background(), domain.Event{
		Kind:      domain.EventJoin,
		Player:    "Notch",
		Message:   "Notch joined the game",
		IPAddress: "10.0.0.5",
	})

	if len(events.StoredEvents()) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(events.StoredEvents()))
	}
	if sessions.OpenCount("Notch") != 1 {
		t.Fatalf("expected an open session for Notch")
	}

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("expected player-join + event messages, got %d", len(msgs))
	}
	if msgs[0].Type != domain.MessagePlayerJoin {
		t.Errorf("first message: got %q, want %q", msgs[0].Type, domain.MessagePlayerJoin)
	}
	if msgs[1].Type != domain.MessageEvent {
		t.Errorf("second message: got %q, want %q", msgs[1].Type, domain.MessageEvent)
	}
	event, ok := msgs[1].Data.(domain.Event)
	if !ok {
		t.Fatalf("event payload has wrong type: %T", msgs[1].Data)
	}
	if event.ID == 0 {
		t.Error("broadcast event should carry its persisted ID")
	}
}

func TestEventRouter_CreationTimeIsStampedBeforePersistence(t *testing.T) {
	events := &mocks.MockEventRepository{}
	sessions := &mocks.MockSessionRepository{}
	spool := &mocks.MockEventSpool{}
	router := newTestRouter(events, sessions, spool)

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	router.HandleLogEvent(context.Background(), domain.Event{
		Kind:    domain.EventChat,
		Player:  "Eve",
		Message: "<Eve> hi",
	})

	stored := events.StoredEvents()
	if len(stored) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(stored))
	}
	if stored[0].CreatedAt.IsZero() {
		t.Error("persisted event should carry a creation time")
	}

	msgs := drain(ch)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 broadcast message, got %d", len(msgs))
	}
	broadcast, ok := msgs[0].Data.(domain.Event)
	if !ok {
		t.Fatalf("event payload has wrong type: %T", msgs[0].Data)
	}
	if !broadcast.CreatedAt.Equal(stored[0].CreatedAt) {
		t.Errorf("broadcast CreatedAt %v differs from stored %v", broadcast.CreatedAt, stored[0].CreatedAt)
	}

	// A failed store write must spool the stamped copy so replay keeps
	// the original creation time.
	events.AppendErr = errors.New("db down")
	router.HandleLogEvent(context.Background(), domain.Event{
		Kind:    domain.EventChat,
		Player:  "Eve",
		Message: "<Eve> still here?",
	})
	if len(spool.Spooled) != 1 {
		t.Fatalf("expected 1 spooled event, got %d", len(spool.Spooled))
	}
	if spool.Spooled[0].CreatedAt.IsZero() {
		t.Error("spooled event should carry a creation time")
	}
}

func TestEventRouter_SessionInvariantAcrossJoinLeaveInterleavings(t *testing.T) {
	events := &mocks.MockEventRepository{}
	sessions := &mocks.MockSessionRepository{}
	router := newTestRouter(events, sessions, nil)
	ctx := context.Background()

	feed := []domain.EventKind{
		domain.EventJoin, domain.EventJoin, // duplicate join lines
		domain.EventLeave,
		domain.EventLeave, // leave with nothing open
		domain.EventJoin,
	}
	for _, kind := range feed {
		router.HandleLogEvent(ctx, domain.Event{Kind: kind, Player: "Steve", Message: "x"})
		if n := sessions.OpenCount("Steve"); n > 1 {
			t.Fatalf("session invariant violated: %d open sessions", n)
		}
	}
	if sessions.OpenCount("Steve") != 1 {
		t.Errorf("expected 1 open session at end, got %d", sessions.OpenCount("Steve"))
	}
}

func TestEventRouter_LeaveEmitsLifecycleBeforeGenericEvent(t *testing.T) {
	events := &mocks.MockEventRepository{}
	sessions := &mocks.MockSessionRepository{}
	router := newTestRouter(events, sessions, nil)

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	router.HandleLogEvent(ctx, domain.Event{Kind: domain.EventJoin, Player: "Alex", Message: "j"})
	router.HandleLogEvent(ctx, domain.Event{Kind: domain.EventLeave, Player: "Alex", Message: "l"})

	msgs := drain(ch)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[2].Type != domain.MessagePlayerLeave || msgs[3].Type != domain.MessageEvent {
		t.Errorf("leave ordering wrong: %q then %q", msgs[2].Type, msgs[3].Type)
	}
	// The session must already be closed by the time the messages are
	// observable.
	if sessions.OpenCount("Alex") != 0 {
		t.Error("session should be closed before broadcast")
	}
}

func TestEventRouter_NonPlayerEventsDoNotTouchSessions(t *testing.T) {
	events := &mocks.MockEventRepository{}
	sessions := &mocks.MockSessionRepository{}
	router := newTestRouter(events, sessions, nil)

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	router.HandleLogEvent(context.Background(), domain.Event{
		Kind:    domain.EventWarning,
		Message: "Can't keep up! Is the server overloaded?",
	})

	if len(sessions.Calls) != 0 {
		t.Errorf("warning event must not touch sessions, calls: %v", sessions.Calls)
	}
	msgs := drain(ch)
	if len(msgs) != 1 || msgs[0].Type != domain.MessageEvent {
		t.Errorf("expected single generic event message, got %+v", msgs)
	}
}

func TestEventRouter_StoreFailureFallsBackToSpool(t *testing.T) {
	events := &mocks.MockEventRepository{AppendErr: errors.New("connection refused")}
	sessions := &mocks.MockSessionRepository{}
	spool := &mocks.MockEventSpool{}
	router := newTestRouter(events, sessions, spool)

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	router.HandleLogEvent(context.Background(), domain.Event{
		Kind: domain.EventChat, Player: "Eve", Message: "<Eve> hello",
	})

	if len(spool.Spooled) != 1 {
		t.Fatalf("expected 1 spooled event, got %d", len(spool.Spooled))
	}
	// The broadcast still happens so live viewers are not blinded by a
	// store outage.
	if msgs := drain(ch); len(msgs) != 1 {
		t.Errorf("expected the event to still broadcast, got %d messages", len(msgs))
	}
}

func TestEventRouter_SpoolReplayDrainsIntoStore(t *testing.T) {
	events := &mocks.MockEventRepository{}
	spool := &mocks.MockEventSpool{}
	router := newTestRouter(events, &mocks.MockSessionRepository{}, spool)
	ctx := context.Background()

	spool.Spooled = []domain.Event{
		{Kind: domain.EventJoin, Player: "A", Message: "A joined the game"},
		{Kind: domain.EventLeave, Player: "A", Message: "A left the game"},
	}

	router.replaySpool(ctx)

	if got := len(events.StoredEvents()); got != 2 {
		t.Fatalf("expected 2 replayed events in store, got %d", got)
	}
	if len(spool.Spooled) != 0 {
		t.Errorf("expected spool truncated after replay, %d left", len(spool.Spooled))
	}
}

func TestEventRouter_SubscriberIsolation(t *testing.T) {
	router := newTestRouter(&mocks.MockEventRepository{}, &mocks.MockSessionRepository{}, nil)
	ctx := context.Background()

	early, unsubEarly := router.Subscribe()
	router.HandleLogEvent(ctx, domain.Event{Kind: domain.EventChat, Player: "A", Message: "first"})

	late, unsubLate := router.Subscribe()
	defer unsubLate()
	router.HandleLogEvent(ctx, domain.Event{Kind: domain.EventChat, Player: "A", Message: "second"})

	unsubEarly()
	router.HandleLogEvent(ctx, domain.Event{Kind: domain.EventChat, Player: "A", Message: "third"})

	if got := len(drain(early)); got != 2 {
		t.Errorf("early subscriber: expected 2 messages (first, second), got %d", got)
	}
	if got := len(drain(late)); got != 2 {
		t.Errorf("late subscriber: expected 2 messages (second, third), got %d", got)
	}
}

func TestEventRouter_PublishStatusReachesSubscribers(t *testing.T) {
	live := &mocks.MockLiveRepository{}
	router := NewEventRouter(&mocks.MockEventRepository{}, &mocks.MockSessionRepository{}, nil, live, testLogger(), testMetrics())

	ch, unsubscribe := router.Subscribe()
	defer unsubscribe()

	status := domain.StatusSnapshot{Online: true, PlayerCount: 3, MaxPlayers: 20}
	router.PublishStatus(context.Background(), status)

	msgs := drain(ch)
	if len(msgs) != 1 || msgs[0].Type != domain.MessageServerStatus {
		t.Fatalf("expected one server-status message, got %+v", msgs)
	}
	if len(live.Statuses) != 1 || live.Statuses[0].PlayerCount != 3 {
		t.Errorf("expected status cached in live repository, got %+v", live.Statuses)
	}
}
