package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/domain"
)

const subscriberBuffer = 64

// EventRouter persists classified events and status snapshots, then
// broadcasts them to all live subscribers in arrival order. Aside from
// the subscriber registry it is stateless.
type EventRouter struct {
	events   domain.EventRepository
	sessions domain.SessionRepository
	spool    domain.EventSpool
	live     domain.LiveRepository
	logger   *slog.Logger
	metrics  *metrics.MonitorMetrics

	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan domain.StreamMessage
}

// NewEventRouter creates a router. spool and live are optional; pass nil
// to disable the store fallback and the live cache respectively.
func NewEventRouter(
	events domain.EventRepository,
	sessions domain.SessionRepository,
	spool domain.EventSpool,
	live domain.LiveRepository,
	logger *slog.Logger,
	m *metrics.MonitorMetrics,
) *EventRouter {
	return &EventRouter{
		events:      events,
		sessions:    sessions,
		spool:       spool,
		live:        live,
		logger:      logger.With("component", "event_router"),
		metrics:     m,
		subscribers: make(map[uuid.UUID]chan domain.StreamMessage),
	}
}

// Subscribe registers a live subscriber and returns its message channel
// plus an unsubscribe function. A new subscriber only receives messages
// published after it joins; unsubscribing closes the channel and stops
// delivery immediately.
func (r *EventRouter) Subscribe() (<-chan domain.StreamMessage, func()) {
	id := uuid.New()
	ch := make(chan domain.StreamMessage, subscriberBuffer)

	r.mu.Lock()
	r.subscribers[id] = ch
	count := len(r.subscribers)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.Subscribers.Set(float64(count))
	}
	r.logger.Info("subscriber connected", "id", id, "total", count)

	return ch, func() {
		r.mu.Lock()
		if existing, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(existing)
		}
		count := len(r.subscribers)
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.Subscribers.Set(float64(count))
		}
		r.logger.Info("subscriber disconnected", "id", id, "total", count)
	}
}

// HandleLogEvent is the tailer's event handler: persist first, then
// update session state for join/leave, then broadcast. The session
// update happens before any broadcast so every observer reacting to the
// event sees a consistent session view.
func (r *EventRouter) HandleLogEvent(ctx context.Context, event domain.Event) {
	// Stamp before persisting so the stored row, the spooled copy, and
	// every broadcast carry the same creation time.
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	id, err := r.events.AppendEvent(ctx, event)
	if err != nil {
		r.logger.Error("failed to persist event, spooling", "error", err, "kind", event.Kind)
		r.spoolEvent(ctx, event)
	} else {
		event.ID = id
	}

	switch event.Kind {
	case domain.EventJoin:
		if event.Player != "" {
			if err := r.sessions.UpsertOpenSession(ctx, event.Player, event.IPAddress); err != nil {
				r.logger.Error("failed to open session", "error", err, "player", event.Player)
			}
			r.broadcast(domain.StreamMessage{
				Type: domain.MessagePlayerJoin,
				Data: domain.PlayerLifecycle{Username: event.Player, Timestamp: event.CreatedAt},
			})
		}
	case domain.EventLeave:
		if event.Player != "" {
			if err := r.sessions.CloseOpenSession(ctx, event.Player); err != nil {
				r.logger.Error("failed to close session", "error", err, "player", event.Player)
			}
			r.broadcast(domain.StreamMessage{
				Type: domain.MessagePlayerLeave,
				Data: domain.PlayerLifecycle{Username: event.Player, Timestamp: event.CreatedAt},
			})
		}
	}

	r.broadcast(domain.StreamMessage{Type: domain.MessageEvent, Data: event})

	if r.live != nil {
		if err := r.live.MirrorEvent(ctx, event); err != nil {
			r.logger.Debug("live event mirror skipped", "error", err)
		}
	}
}

// PublishStatus broadcasts a status snapshot and refreshes the live
// cache.
func (r *EventRouter) PublishStatus(ctx context.Context, status domain.StatusSnapshot) {
	r.broadcast(domain.StreamMessage{Type: domain.MessageServerStatus, Data: status})
	if r.live != nil {
		if err := r.live.SetStatus(ctx, status); err != nil {
			r.logger.Debug("live status cache skipped", "error", err)
		}
	}
}

func (r *EventRouter) broadcast(msg domain.StreamMessage) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.subscribers {
		select {
		case ch <- msg:
		default:
			// Slow subscriber: drop rather than block the pipeline.
		}
	}
}

func (r *EventRouter) spoolEvent(ctx context.Context, event domain.Event) {
	if r.spool == nil {
		return
	}
	if err := r.spool.Write(ctx, event); err != nil {
		r.logger.Error("failed to spool event", "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.SpoolActive.Set(1)
	}
}

// StartSpoolReplay periodically drains the spool back into the primary
// store until the context is cancelled. Replayed events keep their
// original payload; their IDs are assigned on the late insert.
func (r *EventRouter) StartSpoolReplay(ctx context.Context, interval time.Duration) {
	if r.spool == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.replaySpool(ctx)
		}
	}
}

func (r *EventRouter) replaySpool(ctx context.Context) {
	replayed := 0
	err := r.spool.Replay(ctx, func(event domain.Event) error {
		if _, err := r.events.AppendEvent(ctx, event); err != nil {
			return err
		}
		replayed++
		return nil
	})
	if err != nil {
		if replayed > 0 {
			r.logger.Warn("spool replay interrupted, will retry", "replayed", replayed, "error", err)
		}
		return
	}
	if replayed == 0 {
		return
	}
	if err := r.spool.Truncate(ctx); err != nil {
		r.logger.Error("failed to truncate spool after replay", "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.SpoolActive.Set(0)
	}
	r.logger.Info("spool replayed into store", "events", replayed)
}
