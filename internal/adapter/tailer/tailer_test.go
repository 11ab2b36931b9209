package tailer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTailer(t *testing.T, path string) *Tailer {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return New(path, time.Hour, testLogger(), m)
}

type eventCollector struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *eventCollector) handle(event domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) all() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Event, len(c.events))
	copy(out, c.events)
	return out
}

func appendLines(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
}

func TestTailer_StartAnchorsAtEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "[10:00:00 INFO]: Notch joined the game\n")

	tl := newTestTailer(t, path)
	collector := &eventCollector{}
	tl.Subscribe(collector.handle)

	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer tl.Stop()

	// Pre-existing content must not be replayed.
	tl.readNew()
	if got := collector.all(); len(got) != 0 {
		t.Fatalf("expected no events from pre-start content, got %d", len(got))
	}

	appendLines(t, path, "[10:01:00 INFO]: Alice joined the game\n")
	tl.readNew()

	events := collector.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Player != "Alice" || events[0].Kind != domain.EventJoin {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestTailer_StartFailsForMissingFile(t *testing.T) {
	tl := newTestTailer(t, filepath.Join(t.TempDir(), "missing.log"))
	if err := tl.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail for a missing file")
	}
	if tl.State() != StateStopped {
		t.Errorf("expected tailer to remain stopped, state=%s", tl.State())
	}

	// A later start succeeds once the file exists.
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "")
	tl2 := newTestTailer(t, path)
	if err := tl2.Start(context.Background()); err != nil {
		t.Fatalf("retry start failed: %v", err)
	}
	tl2.Stop()
}

func TestTailer_PartialLineIsBuffered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "")

	tl := newTestTailer(t, path)
	collector := &eventCollector{}
	tl.Subscribe(collector.handle)
	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer tl.Stop()

	appendLines(t, path, "[10:00:00 INFO]: Bob joi")
	tl.readNew()
	if got := collector.all(); len(got) != 0 {
		t.Fatalf("incomplete line must not emit, got %d events", len(got))
	}

	appendLines(t, path, "ned the game\n")
	tl.readNew()

	events := collector.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event after completing the line, got %d", len(events))
	}
	if events[0].Player != "Bob" {
		t.Errorf("unexpected player %q", events[0].Player)
	}
}

func TestTailer_RotationResetsCursorWithoutReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "")

	tl := newTestTailer(t, path)
	collector := &eventCollector{}
	tl.Subscribe(collector.handle)
	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer tl.Stop()

	appendLines(t, path, "[10:00:00 INFO]: Carol joined the game\n")
	tl.readNew()
	if len(collector.all()) != 1 {
		t.Fatal("expected the pre-rotation event")
	}

	// Rotation: truncate in place, then new content arrives.
	if err := os.Truncate(path, 0); err != nil {
		t.Fatal(err)
	}
	appendLines(t, path, "[10:05:00 INFO]: Dave joined the game\n")
	tl.readNew()

	events := collector.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 events across rotation, got %d", len(events))
	}
	if events[1].Player != "Dave" {
		t.Errorf("post-rotation event: got player %q, want Dave", events[1].Player)
	}
	for _, e := range events[1:] {
		if e.Player == "Carol" {
			t.Error("pre-rotation event was re-emitted after rotation")
		}
	}
}

func TestTailer_IdempotentReplayFromZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	content := "[10:00:00 INFO]: A joined the game\n" +
		"[10:00:01 INFO]: <A> hello\n" +
		"[10:00:02 INFO]: A left the game\n"

	run := func() []domain.Event {
		tl := newTestTailer(t, path)
		collector := &eventCollector{}
		tl.Subscribe(collector.handle)
		if err := tl.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		defer tl.Stop()
		// Anchor the cursor at zero and feed the whole file.
		tl.mu.Lock()
		tl.offset = 0
		tl.mu.Unlock()
		tl.readNew()
		return collector.all()
	}

	appendLines(t, path, content)
	first := run()
	second := run()

	if len(first) != 3 {
		t.Fatalf("expected 3 events, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("replay produced %d events, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].Message != second[i].Message {
			t.Errorf("event %d differs between replays: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTailer_UnsubscribeStopsDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path, "")

	tl := newTestTailer(t, path)
	collector := &eventCollector{}
	unsubscribe := tl.Subscribe(collector.handle)
	if err := tl.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer tl.Stop()

	unsubscribe()
	appendLines(t, path, "[10:00:00 INFO]: Erin joined the game\n")
	tl.readNew()

	if got := collector.all(); len(got) != 0 {
		t.Errorf("expected no events after unsubscribe, got %d", len(got))
	}
}

func TestTailer_ReadLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	appendLines(t, path,
		"[10:00:00 INFO]: A joined the game\n"+
			"[10:00:01 INFO]: noise line\n"+
			"[10:00:02 INFO]: B joined the game\n"+
			"[10:00:03 INFO]: <B> hi\n")

	tl := newTestTailer(t, path)
	events, err := tl.ReadLastLines(3)
	if err != nil {
		t.Fatalf("read last lines: %v", err)
	}
	// Only the last 3 lines are considered, and the noise line is not an
	// event.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Player != "B" || events[0].Kind != domain.EventJoin {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Kind != domain.EventChat {
		t.Errorf("unexpected second event: %+v", events[1])
	}
}
