package domain

import (
	"context"
	"time"
)

// EventRepository persists classified events and serves the read queries
// used by the dashboard layer.
type EventRepository interface {
	// AppendEvent inserts a single event and returns its assigned ID.
	AppendEvent(ctx context.Context, event Event) (int64, error)

	// RecentEvents returns the newest events, newest first. kind filters
	// by event kind when non-empty.
	RecentEvents(ctx context.Context, kind EventKind, limit int) ([]Event, error)

	// EventCounts returns the number of stored events per kind.
	EventCounts(ctx context.Context) (map[EventKind]int64, error)

	// PruneEvents deletes events older than the cutoff and reports how
	// many rows were removed.
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// SessionRepository tracks player presence intervals. Implementations
// must guarantee at most one open session per username: UpsertOpenSession
// for a username that already has an open session refreshes that session
// instead of creating a second one.
type SessionRepository interface {
	UpsertOpenSession(ctx context.Context, username, ipAddress string) error
	CloseOpenSession(ctx context.Context, username string) error

	// OpenSessions lists sessions with no leave time, newest join first.
	OpenSessions(ctx context.Context) ([]PlayerSession, error)

	// SessionsForPlayer returns a player's session history, newest first.
	SessionsForPlayer(ctx context.Context, username string, limit int) ([]PlayerSession, error)

	// StatsForPlayer aggregates a player's session history. It returns
	// (nil, nil) for a player with no recorded sessions.
	StatsForPlayer(ctx context.Context, username string) (*PlayerStats, error)
}

// MetricsRepository persists periodic performance samples.
type MetricsRepository interface {
	AppendMetricSample(ctx context.Context, sample MetricSample) error
	MetricsSince(ctx context.Context, since time.Time) ([]MetricSample, error)
	PruneMetrics(ctx context.Context, before time.Time) (int64, error)
}

// EventSpool is the file-backed fallback used when the primary store is
// unavailable. Spooled events are replayed in write order once the store
// recovers.
type EventSpool interface {
	Write(ctx context.Context, event Event) error
	Replay(ctx context.Context, handler func(event Event) error) error
	Truncate(ctx context.Context) error
}

// LiveRepository caches the latest status snapshot and mirrors events to
// out-of-process consumers. All methods are best-effort: callers treat
// failures as non-fatal.
type LiveRepository interface {
	SetStatus(ctx context.Context, status StatusSnapshot) error
	LatestStatus(ctx context.Context) (*StatusSnapshot, error)
	MirrorEvent(ctx context.Context, event Event) error
}

// ConfigReader is a snapshot reader of the server's static
// configuration. ReadConfig never fails past this boundary; callers fall
// back to defaults when IsReadable reports false.
type ConfigReader interface {
	IsReadable() bool
	ReadConfig() ServerConfig
}

// Commander executes a remote command synchronously. Implementations
// never return a Go error for command failures; all failure modes are
// folded into the CommandResult.
type Commander interface {
	Execute(ctx context.Context, command string) CommandResult
}
