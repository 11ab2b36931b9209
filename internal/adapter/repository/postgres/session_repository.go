package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/juncraft/craftboard/internal/domain"
)

// SessionRepository implements domain.SessionRepository on PostgreSQL.
// The one-open-session-per-username invariant is enforced by a partial
// unique index on (username) WHERE leave_time IS NULL, so a duplicate
// join line upserts the existing open session instead of creating a
// second one.
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(db *sql.DB, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger.With("component", "session_repository")}
}

// UpsertOpenSession opens a session for the username, or refreshes the
// already-open one.
func (r *SessionRepository) UpsertOpenSession(ctx context.Context, username, ipAddress string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_sessions (username, join_time, ip_address)
		VALUES ($1, now(), NULLIF($2, ''))
		ON CONFLICT (username) WHERE leave_time IS NULL
		DO UPDATE SET ip_address = COALESCE(EXCLUDED.ip_address, player_sessions.ip_address)`,
		username, ipAddress,
	)
	if err != nil {
		return fmt.Errorf("upsert open session: %w", err)
	}
	return nil
}

// CloseOpenSession sets the leave time and duration on the username's
// open session. Closing with no open session is a no-op.
func (r *SessionRepository) CloseOpenSession(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE player_sessions
		SET leave_time = now(),
		    duration_seconds = EXTRACT(EPOCH FROM (now() - join_time))::BIGINT
		WHERE username = $1 AND leave_time IS NULL`,
		username,
	)
	if err != nil {
		return fmt.Errorf("close open session: %w", err)
	}
	return nil
}

// OpenSessions lists sessions with no leave time, newest join first.
func (r *SessionRepository) OpenSessions(ctx context.Context) ([]domain.PlayerSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, join_time, leave_time, duration_seconds, COALESCE(ip_address, '')
		FROM player_sessions
		WHERE leave_time IS NULL
		ORDER BY join_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("query open sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// SessionsForPlayer returns a player's session history, newest first.
func (r *SessionRepository) SessionsForPlayer(ctx context.Context, username string, limit int) ([]domain.PlayerSession, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, join_time, leave_time, duration_seconds, COALESCE(ip_address, '')
		FROM player_sessions
		WHERE username = $1
		ORDER BY join_time DESC
		LIMIT $2`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query player sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// StatsForPlayer aggregates a player's session history. It returns nil
// for a player with no recorded sessions so callers can distinguish an
// unknown player from one with empty stats.
func (r *SessionRepository) StatsForPlayer(ctx context.Context, username string) (*domain.PlayerStats, error) {
	stats := &domain.PlayerStats{Username: username}
	var firstSeen, lastSeen sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(duration_seconds), 0),
		       MIN(join_time),
		       MAX(join_time)
		FROM player_sessions
		WHERE username = $1`,
		username,
	).Scan(&stats.TotalSessions, &stats.TotalPlaySeconds, &firstSeen, &lastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	// The aggregate always yields a row; zero sessions means the
	// player has never been seen.
	if stats.TotalSessions == 0 {
		return nil, nil
	}
	if firstSeen.Valid {
		stats.FirstSeen = &firstSeen.Time
	}
	if lastSeen.Valid {
		stats.LastSeen = &lastSeen.Time
	}
	return stats, nil
}

func scanSessions(rows *sql.Rows) ([]domain.PlayerSession, error) {
	var sessions []domain.PlayerSession
	for rows.Next() {
		var s domain.PlayerSession
		var leave sql.NullTime
		var duration sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Username, &s.JoinTime, &leave, &duration, &s.IPAddress); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if leave.Valid {
			s.LeaveTime = &leave.Time
		}
		if duration.Valid {
			s.DurationSeconds = &duration.Int64
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
