package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/juncraft/craftboard/internal/domain"
)

// MetricsRepository implements domain.MetricsRepository on PostgreSQL.
type MetricsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMetricsRepository creates a new PostgreSQL metrics repository.
func NewMetricsRepository(db *sql.DB, logger *slog.Logger) *MetricsRepository {
	return &MetricsRepository{db: db, logger: logger.With("component", "metrics_repository")}
}

// AppendMetricSample inserts one performance sample.
func (r *MetricsRepository) AppendMetricSample(ctx context.Context, sample domain.MetricSample) error {
	ts := sample.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO server_metrics (ts, tps, player_count, max_players)
		VALUES ($1, $2, $3, $4)`,
		ts, sample.TPS, sample.PlayerCount, sample.MaxPlayers,
	)
	if err != nil {
		return fmt.Errorf("insert metric sample: %w", err)
	}
	return nil
}

// MetricsSince returns samples newer than the given time, oldest first.
func (r *MetricsRepository) MetricsSince(ctx context.Context, since time.Time) ([]domain.MetricSample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, tps, player_count, max_players
		FROM server_metrics
		WHERE ts >= $1
		ORDER BY ts ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var samples []domain.MetricSample
	for rows.Next() {
		var s domain.MetricSample
		if err := rows.Scan(&s.Timestamp, &s.TPS, &s.PlayerCount, &s.MaxPlayers); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// PruneMetrics deletes samples older than the cutoff.
func (r *MetricsRepository) PruneMetrics(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM server_metrics WHERE ts < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune metrics: %w", err)
	}
	return result.RowsAffected()
}
