package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MonitorMetrics holds all Prometheus metrics for the monitor daemon.
type MonitorMetrics struct {
	LinesRead       prometheus.Counter
	EventsTotal     *prometheus.CounterVec
	RotationsTotal  prometheus.Counter
	TailReadErrors  prometheus.Counter
	CommandsTotal   *prometheus.CounterVec
	Reconnects      prometheus.Counter
	PollCyclesTotal *prometheus.CounterVec
	Subscribers     prometheus.Gauge
	ServerOnline    prometheus.Gauge
	PlayerCount     prometheus.Gauge
	ServerTPS       prometheus.Gauge
	SpoolActive     prometheus.Gauge
}

// New initializes and registers the monitor metrics on the given
// registerer. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *MonitorMetrics {
	factory := promauto.With(reg)
	return &MonitorMetrics{
		LinesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "tailer",
			Name:      "lines_read_total",
			Help:      "Total number of complete log lines read from the server log.",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "tailer",
			Name:      "events_total",
			Help:      "Total number of classified events by kind.",
		}, []string{"kind"}),
		RotationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "tailer",
			Name:      "rotations_total",
			Help:      "Total number of detected log file rotations.",
		}),
		TailReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "tailer",
			Name:      "read_errors_total",
			Help:      "Total number of swallowed read errors while tailing.",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "rcon",
			Name:      "commands_total",
			Help:      "Total number of RCON commands by status.",
		}, []string{"status"}), // status: ok, error
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "rcon",
			Name:      "reconnects_total",
			Help:      "Total number of RCON connection (re)establishments.",
		}),
		PollCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "craftboard",
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of status poll cycles by outcome.",
		}, []string{"outcome"}), // outcome: online, offline
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "craftboard",
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Number of currently connected live subscribers.",
		}),
		ServerOnline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "craftboard",
			Subsystem: "server",
			Name:      "online",
			Help:      "Whether the game server is reachable (1) or not (0).",
		}),
		PlayerCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "craftboard",
			Subsystem: "server",
			Name:      "player_count",
			Help:      "Players currently online as reported by the last poll.",
		}),
		ServerTPS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "craftboard",
			Subsystem: "server",
			Name:      "tps_one_minute",
			Help:      "One-minute TPS average from the last poll.",
		}),
		SpoolActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "craftboard",
			Subsystem: "store",
			Name:      "spool_active",
			Help:      "Indicates if the event spool holds unreplayed events (1) or not (0).",
		}),
	}
}
