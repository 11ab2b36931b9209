package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/juncraft/craftboard/internal/domain"
)

// EventRepository implements domain.EventRepository on PostgreSQL.
type EventRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(db *sql.DB, logger *slog.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger.With("component", "event_repository")}
}

// AppendEvent inserts a single event and returns its assigned ID. The
// caller's CreatedAt is stored as-is so spool replays keep their
// original creation time; a zero value falls back to insert time.
func (r *EventRepository) AppendEvent(ctx context.Context, event domain.Event) (int64, error) {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO server_events (created_at, log_time, event_type, player, message, raw_line)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id`,
		createdAt, event.LogTime, string(event.Kind), event.Player, event.Message, event.RawLine,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// RecentEvents returns the newest events, newest first, optionally
// filtered by kind.
func (r *EventRepository) RecentEvents(ctx context.Context, kind domain.EventKind, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, log_time, event_type, COALESCE(player, ''), message, COALESCE(raw_line, '')
		FROM server_events
		WHERE ($1 = '' OR event_type = $1)
		ORDER BY id DESC
		LIMIT $2`,
		string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var kindText string
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.LogTime, &kindText, &e.Player, &e.Message, &e.RawLine); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.Kind = domain.EventKind(kindText)
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventCounts returns the number of stored events per kind.
func (r *EventRepository) EventCounts(ctx context.Context) (map[domain.EventKind]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM server_events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("query event counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventKind]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[domain.EventKind(kind)] = count
	}
	return counts, rows.Err()
}

// PruneEvents deletes events older than the cutoff.
func (r *EventRepository) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM server_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}
