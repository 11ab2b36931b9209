// Package rcon owns the single reusable control connection to the game
// server. Command execution is serialized on that connection, bounded by
// a per-command timeout and a rate limit, and every failure mode is
// normalized into a CommandResult rather than an error.
package rcon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorcon/rcon"
	"golang.org/x/time/rate"

	"github.com/juncraft/craftboard/internal/adapter/mctext"
	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/domain"
)

const historyCapacity = 100

// Gateway is the sole owner of the RCON connection. The connection is
// dialed lazily on first use and reused while healthy; a broken
// connection is discarded so the next call re-establishes it.
type Gateway struct {
	addr     string
	password string
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.MonitorMetrics
	limiter  *rate.Limiter
	history  *historyRing

	// mu serializes connection establishment and command round-trips:
	// one command is sent and its response awaited before the next, no
	// multiplexing within the connection.
	mu   sync.Mutex
	conn executor

	dial func() (executor, error)
}

// executor is the connection surface the gateway depends on. *rcon.Conn
// satisfies it; tests substitute a fake via the dial hook.
type executor interface {
	Execute(command string) (string, error)
	Close() error
}

// NewGateway creates a gateway for the given RCON address. commandRate
// bounds command execution per second across all callers.
func NewGateway(addr, password string, timeout time.Duration, commandRate float64, logger *slog.Logger, m *metrics.MonitorMetrics) *Gateway {
	g := &Gateway{
		addr:     addr,
		password: password,
		timeout:  timeout,
		logger:   logger.With("component", "rcon", "addr", addr),
		metrics:  m,
		limiter:  rate.NewLimiter(rate.Limit(commandRate), int(commandRate)+1),
		history:  newHistoryRing(historyCapacity),
	}
	g.dial = func() (executor, error) {
		return rcon.Dial(g.addr, g.password,
			rcon.SetDialTimeout(g.timeout),
			rcon.SetDeadline(g.timeout),
		)
	}
	return g
}

// Execute runs a command against the server. The command text passes
// through unmodified; the response has display-formatting codes stripped.
// Timeouts, connection failures and auth failures are reported in the
// result, never as errors.
func (g *Gateway) Execute(ctx context.Context, command string) domain.CommandResult {
	result := g.execute(ctx, command)
	g.history.record(command, result)
	if g.metrics != nil {
		status := "ok"
		if !result.Success {
			status = "error"
		}
		g.metrics.CommandsTotal.WithLabelValues(status).Inc()
	}
	return result
}

func (g *Gateway) execute(ctx context.Context, command string) domain.CommandResult {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.CommandResult{Success: false, Error: "rate limit: " + err.Error()}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	conn, err := g.ensureConnLocked()
	if err != nil {
		g.logger.Warn("rcon connection failed", "command", command, "error", err)
		return domain.CommandResult{Success: false, Error: err.Error()}
	}

	response, err := conn.Execute(command)
	if err != nil {
		// Broken connection: discard the handle, the next call re-dials.
		g.dropConnLocked()
		g.logger.Warn("rcon command failed", "command", command, "error", err)
		return domain.CommandResult{Success: false, Error: err.Error()}
	}

	return domain.CommandResult{Success: true, Response: mctext.Strip(response)}
}

// Online probes liveness by ensuring a connection exists. Concurrent
// probes and commands serialize on the same mutex, so at most one
// connection attempt is ever in flight.
func (g *Gateway) Online(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.ensureConnLocked()
	return err == nil
}

// History returns the most recent command invocations, oldest first.
func (g *Gateway) History() []domain.CommandRecord {
	return g.history.all()
}

// Close discards the connection. Safe to call at shutdown regardless of
// connection state.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dropConnLocked()
}

func (g *Gateway) ensureConnLocked() (executor, error) {
	if g.conn != nil {
		return g.conn, nil
	}
	conn, err := g.dial()
	if err != nil {
		return nil, err
	}
	g.conn = conn
	if g.metrics != nil {
		g.metrics.Reconnects.Inc()
	}
	g.logger.Info("rcon connection established")
	return conn, nil
}

func (g *Gateway) dropConnLocked() {
	if g.conn == nil {
		return
	}
	g.conn.Close()
	g.conn = nil
}
