package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/adapter/rcon"
	"github.com/juncraft/craftboard/internal/domain"
)

// Fallbacks when server.properties is unreadable.
const (
	defaultMOTD       = "§bJunCraft §7- §aWelcome!"
	defaultMaxPlayers = 20
)

// ServerQuerier is the poller's view of the command gateway: a liveness
// probe plus the three read queries issued every cycle.
type ServerQuerier interface {
	Online(ctx context.Context) bool
	Players(ctx context.Context) rcon.PlayerList
	TPS(ctx context.Context) domain.TPS
	Version(ctx context.Context) string
}

// StatusPoller observes the remote server on a fixed wall-clock interval
// and publishes a complete StatusSnapshot every cycle. A cycle never
// fails: unreachable endpoints yield an explicit offline snapshot and
// unparsable replies fall back to safe defaults inside the querier.
type StatusPoller struct {
	querier     ServerQuerier
	config      domain.ConfigReader
	metricsRepo domain.MetricsRepository
	router      *EventRouter
	interval    time.Duration
	logger      *slog.Logger
	metrics     *metrics.MonitorMetrics

	now func() time.Time

	// anchor is the first-reachable observation since the last offline
	// observation; uptime is measured from it and it is cleared on every
	// offline cycle.
	anchor time.Time

	lastMu sync.RWMutex
	last   domain.StatusSnapshot
}

// NewStatusPoller creates a poller. The interval is constant and
// independent of external load.
func NewStatusPoller(
	querier ServerQuerier,
	config domain.ConfigReader,
	metricsRepo domain.MetricsRepository,
	router *EventRouter,
	interval time.Duration,
	logger *slog.Logger,
	m *metrics.MonitorMetrics,
) *StatusPoller {
	return &StatusPoller{
		querier:     querier,
		config:      config,
		metricsRepo: metricsRepo,
		router:      router,
		interval:    interval,
		logger:      logger.With("component", "status_poller"),
		metrics:     m,
		now:         time.Now,
	}
}

// Run polls until the context is cancelled. The first cycle runs
// immediately so subscribers get a snapshot without waiting a full
// interval.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("status poller stopped")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// LastStatus returns the snapshot from the most recent poll cycle. The
// zero snapshot is returned before the first cycle completes.
func (p *StatusPoller) LastStatus() domain.StatusSnapshot {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	return p.last
}

// Poll executes one poll cycle and publishes the resulting snapshot.
func (p *StatusPoller) Poll(ctx context.Context) {
	snapshot := p.observe(ctx)
	p.lastMu.Lock()
	p.last = snapshot
	p.lastMu.Unlock()
	p.router.PublishStatus(ctx, snapshot)

	if p.metrics != nil {
		if snapshot.Online {
			p.metrics.ServerOnline.Set(1)
			p.metrics.PollCyclesTotal.WithLabelValues("online").Inc()
		} else {
			p.metrics.ServerOnline.Set(0)
			p.metrics.PollCyclesTotal.WithLabelValues("offline").Inc()
		}
		p.metrics.PlayerCount.Set(float64(snapshot.PlayerCount))
		p.metrics.ServerTPS.Set(snapshot.TPS.OneMin)
	}

	if !snapshot.Online {
		return
	}
	sample := domain.MetricSample{
		Timestamp:   p.now().UTC(),
		TPS:         snapshot.TPS.OneMin,
		PlayerCount: snapshot.PlayerCount,
		MaxPlayers:  snapshot.MaxPlayers,
	}
	if err := p.metricsRepo.AppendMetricSample(ctx, sample); err != nil {
		p.logger.Error("failed to persist metric sample", "error", err)
	}
}

func (p *StatusPoller) observe(ctx context.Context) domain.StatusSnapshot {
	if !p.querier.Online(ctx) {
		// Offline: clear the uptime anchor so the next online
		// observation restarts uptime at zero.
		p.anchor = time.Time{}
		return domain.StatusSnapshot{Online: false, Version: "Unknown", TPS: domain.TPS{}}
	}

	if p.anchor.IsZero() {
		p.anchor = p.now()
	}

	// The three read queries are independent; issue them concurrently.
	var (
		wg      sync.WaitGroup
		players rcon.PlayerList
		tps     domain.TPS
		version string
	)
	wg.Add(3)
	go func() { defer wg.Done(); players = p.querier.Players(ctx) }()
	go func() { defer wg.Done(); tps = p.querier.TPS(ctx) }()
	go func() { defer wg.Done(); version = p.querier.Version(ctx) }()
	wg.Wait()

	motd := defaultMOTD
	fallbackMax := defaultMaxPlayers
	if p.config != nil && p.config.IsReadable() {
		cfg := p.config.ReadConfig()
		motd = cfg.MOTD
		fallbackMax = cfg.MaxPlayers
	}
	maxPlayers := players.Max
	if maxPlayers == 0 {
		maxPlayers = fallbackMax
	}

	return domain.StatusSnapshot{
		Online:        true,
		MOTD:          motd,
		Version:       version,
		PlayerCount:   players.Online,
		MaxPlayers:    maxPlayers,
		Players:       players.Players,
		TPS:           tps,
		UptimeSeconds: int64(p.now().Sub(p.anchor).Seconds()),
	}
}
