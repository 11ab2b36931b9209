package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juncraft/craftboard/internal/adapter/tailer"
	"github.com/juncraft/craftboard/internal/domain"
	"github.com/juncraft/craftboard/internal/domain/mocks"
)

// Exercises the full log path: file append, tail, classify, persist,
// session update, broadcast.
func TestLogPipeline(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "latest.log")
	if err := os.WriteFile(logPath, []byte("[09:00:00] [Server thread/INFO]: Done (3.14s)!\n"), 0644); err != nil {
		t.Fatalf("seed log file: %v", err)
	}

	eventRepo := &mocks.MockEventRepository{}
	sessionRepo := &mocks.MockSessionRepository{}
	router := NewEventRouter(eventRepo, sessionRepo, nil, nil, testLogger(), testMetrics())
	messages, unsubscribe := router.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tl := tailer.New(logPath, 20*time.Millisecond, testLogger(), testMetrics())
	stop := tl.Subscribe(func(event domain.Event) {
		router.HandleLogEvent(ctx, event)
	})
	defer stop()

	if err := tl.Start(ctx); err != nil {
		t.Fatalf("start tailer: %v", err)
	}
	defer tl.Stop()

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString("[09:00:05] [Server thread/INFO]: Steve joined the game\n"); err != nil {
		t.Fatalf("append log line: %v", err)
	}

	// The existing line was behind the anchor and must never surface;
	// the appended join must flow all the way through.
	var got []domain.StreamMessage
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-messages:
			got = append(got, msg)
		case <-deadline:
			t.Fatalf("timed out, received %d messages: %+v", len(got), got)
		}
	}

	if got[0].Type != domain.MessagePlayerJoin {
		t.Errorf("first message type = %q, want %q", got[0].Type, domain.MessagePlayerJoin)
	}
	if got[1].Type != domain.MessageEvent {
		t.Errorf("second message type = %q, want %q", got[1].Type, domain.MessageEvent)
	}

	stored := eventRepo.StoredEvents()
	if len(stored) != 1 {
		t.Fatalf("stored %d events, want 1", len(stored))
	}
	if stored[0].Kind != domain.EventJoin || stored[0].Player != "Steve" {
		t.Errorf("unexpected stored event: %+v", stored[0])
	}
	if sessionRepo.OpenCount("Steve") != 1 {
		t.Errorf("expected one open session for Steve")
	}
}
