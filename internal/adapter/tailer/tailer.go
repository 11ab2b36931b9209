// Package tailer follows the server's live log file, feeding every
// complete line through the classifier and delivering typed events to
// subscribers. It mirrors "tail -f": starting anchors at the current end
// of file, and a restart intentionally skips history.
package tailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/juncraft/craftboard/internal/adapter/logparse"
	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/domain"
)

// State reports the tailer's lifecycle phase.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

// EventHandler receives classified events. Handlers are invoked from the
// tailer's single reader goroutine, in file order; a slow handler delays
// the whole pipeline, so handlers must hand off quickly.
type EventHandler func(event domain.Event)

const defaultPollInterval = 1 * time.Second

// Tailer follows one fixed log file path. The read cursor lives only in
// memory: byte offset plus the trailing partial-line fragment. The
// offset never decreases except on detected truncation, which resets it
// to zero and clears the fragment.
type Tailer struct {
	path         string
	pollInterval time.Duration
	logger       *slog.Logger
	metrics      *metrics.MonitorMetrics

	state atomic.Int32

	subMu   sync.RWMutex
	subs    map[int]EventHandler
	nextSub int

	mu      sync.Mutex // guards file, offset, pending
	file    *os.File
	offset  int64
	pending []byte

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a tailer for the given path. It does not touch the file
// until Start is called.
func New(path string, pollInterval time.Duration, logger *slog.Logger, m *metrics.MonitorMetrics) *Tailer {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Tailer{
		path:         path,
		pollInterval: pollInterval,
		logger:       logger.With("component", "tailer", "path", path),
		metrics:      m,
		subs:         make(map[int]EventHandler),
	}
}

// Subscribe registers a handler for classified events and returns its
// unsubscribe function. A handler registered mid-stream only sees events
// read after registration.
func (t *Tailer) Subscribe(handler EventHandler) func() {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = handler
	return func() {
		t.subMu.Lock()
		defer t.subMu.Unlock()
		delete(t.subs, id)
	}
}

// State returns the tailer's current lifecycle state.
func (t *Tailer) State() State {
	return State(t.state.Load())
}

// Start anchors the cursor at the current end of file and begins
// following changes. A missing or unreadable file is reported once as an
// error and the tailer stays stopped; callers may retry Start later.
func (t *Tailer) Start(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("tailer already started")
	}

	file, err := os.Open(t.path)
	if err != nil {
		t.state.Store(int32(StateStopped))
		return fmt.Errorf("open log file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		t.state.Store(int32(StateStopped))
		return fmt.Errorf("stat log file: %w", err)
	}

	t.mu.Lock()
	t.file = file
	t.offset = stat.Size()
	t.pending = nil
	t.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.state.Store(int32(StateRunning))

	go t.run(runCtx)

	t.logger.Info("tailer started", "offset", stat.Size())
	return nil
}

// Stop ends the change-reaction loop and releases the file handle. It
// blocks until the loop has exited.
func (t *Tailer) Stop() {
	if !t.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return
	}
	t.cancel()
	<-t.done

	t.mu.Lock()
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
	t.mu.Unlock()

	t.logger.Info("tailer stopped")
}

func (t *Tailer) run(ctx context.Context) {
	defer close(t.done)

	// The poll ticker covers both the no-watcher fallback and change
	// notifications lost during rotation.
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("fsnotify unavailable, falling back to polling", "error", err)
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(t.path); err != nil {
			t.logger.Warn("failed to watch log file, falling back to polling", "error", err)
			watcher.Close()
			watcher = nil
		}
	}

	var events chan fsnotify.Event
	var errors chan error
	if watcher != nil {
		events = watcher.Events
		errors = watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.readNew()
			}
		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			t.logger.Warn("file watcher error", "error", err)
		case <-ticker.C:
			t.readNew()
		}
	}
}

// readNew re-stats the file and processes the delta since the last
// offset. Read errors are logged and swallowed; the tailer retries on
// the next change notification.
func (t *Tailer) readNew() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return
	}

	stat, err := os.Stat(t.path)
	if err != nil {
		t.readError("stat log file", err)
		return
	}
	size := stat.Size()

	if size < t.offset {
		// Rotation: the truncated tail is deliberately lost, not
		// reprocessed.
		t.logger.Info("log rotation detected", "old_offset", t.offset, "new_size", size)
		if t.metrics != nil {
			t.metrics.RotationsTotal.Inc()
		}
		t.file.Close()
		file, err := os.Open(t.path)
		if err != nil {
			t.file = nil
			t.readError("reopen rotated log file", err)
			return
		}
		t.file = file
		t.offset = 0
		t.pending = nil
	}

	if size == t.offset {
		return
	}

	delta := make([]byte, size-t.offset)
	n, err := t.file.ReadAt(delta, t.offset)
	if err != nil && err != io.EOF {
		t.readError("read log delta", err)
		return
	}
	t.offset += int64(n)

	t.pending = append(t.pending, delta[:n]...)
	lines := strings.Split(string(t.pending), "\n")
	// The final fragment may be an incomplete line; keep it buffered.
	t.pending = []byte(lines[len(lines)-1])

	for _, line := range lines[:len(lines)-1] {
		if t.metrics != nil {
			t.metrics.LinesRead.Inc()
		}
		event := logparse.Classify(line)
		if event == nil {
			continue
		}
		if t.metrics != nil {
			t.metrics.EventsTotal.WithLabelValues(string(event.Kind)).Inc()
		}
		t.emit(*event)
	}
}

func (t *Tailer) readError(op string, err error) {
	if t.metrics != nil {
		t.metrics.TailReadErrors.Inc()
	}
	t.logger.Warn("tail read error, will retry on next change", "op", op, "error", err)
}

func (t *Tailer) emit(event domain.Event) {
	t.subMu.RLock()
	defer t.subMu.RUnlock()
	for _, handler := range t.subs {
		handler(event)
	}
}

// ReadLastLines classifies the last count lines of the file, oldest
// first, for the initial dashboard backfill. It does not move the tail
// cursor.
func (t *Tailer) ReadLastLines(count int) ([]domain.Event, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > count {
		lines = lines[len(lines)-count:]
	}
	var events []domain.Event
	for _, line := range lines {
		if event := logparse.Classify(line); event != nil {
			events = append(events, *event)
		}
	}
	return events, nil
}
