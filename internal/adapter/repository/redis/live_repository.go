// Package redis caches the latest status snapshot and mirrors events to
// a capped stream so out-of-process consumers (the dashboard's HTTP
// layer) can read live state without talking to the daemon directly.
// Every operation is best-effort: Redis being down degrades the live
// cache, never the pipeline.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/juncraft/craftboard/internal/domain"
)

const (
	statusKey      = "craftboard:status"
	eventStreamKey = "craftboard:events"
	statusTTL      = 30 * time.Second
	streamMaxLen   = 1000
)

// ErrUnavailable is returned when Redis is known to be down.
var ErrUnavailable = errors.New("redis unavailable")

// LiveRepository implements domain.LiveRepository on Redis.
type LiveRepository struct {
	client      *redis.Client
	logger      *slog.Logger
	isAvailable atomic.Bool
}

// NewLiveRepository creates a Redis-backed live repository. An initial
// ping failure marks the repository unavailable; the health check
// recovers it.
func NewLiveRepository(client *redis.Client, logger *slog.Logger) *LiveRepository {
	r := &LiveRepository{
		client: client,
		logger: logger.With("component", "live_repository"),
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("redis unavailable at startup, live cache degraded", "error", err)
	} else {
		r.isAvailable.Store(true)
	}
	return r
}

// StartHealthCheck monitors connectivity on the given interval until the
// context is cancelled.
func (r *LiveRepository) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := r.client.Ping(ctx).Err()
			if err != nil {
				if r.isAvailable.CompareAndSwap(true, false) {
					r.logger.Warn("redis connection lost", "error", err)
				}
			} else if r.isAvailable.CompareAndSwap(false, true) {
				r.logger.Info("redis connection recovered")
			}
		}
	}
}

// SetStatus caches the latest snapshot with a TTL so stale state expires
// when the daemon stops.
func (r *LiveRepository) SetStatus(ctx context.Context, status domain.StatusSnapshot) error {
	if !r.isAvailable.Load() {
		return ErrUnavailable
	}
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// LatestStatus returns the cached snapshot, or nil when none is cached.
func (r *LiveRepository) LatestStatus(ctx context.Context) (*domain.StatusSnapshot, error) {
	if !r.isAvailable.Load() {
		return nil, ErrUnavailable
	}
	data, err := r.client.Get(ctx, statusKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	var status domain.StatusSnapshot
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &status, nil
}

// MirrorEvent appends the event to a capped stream.
func (r *LiveRepository) MirrorEvent(ctx context.Context, event domain.Event) error {
	if !r.isAvailable.Load() {
		return ErrUnavailable
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStreamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"event": data},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd event: %w", err)
	}
	return nil
}
