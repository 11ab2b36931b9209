package domain

import "time"

// EventKind identifies the category of a classified log event.
type EventKind string

const (
	EventJoin        EventKind = "join"
	EventLeave       EventKind = "leave"
	EventDeath       EventKind = "death"
	EventAdvancement EventKind = "advancement"
	EventChat        EventKind = "chat"
	EventWarning     EventKind = "warning"
	EventError       EventKind = "error"
)

// Event is a typed domain event produced by classifying a single log line.
// It is immutable once created; the ID is assigned at persistence time.
type Event struct {
	ID        int64     `json:"id,omitempty"`
	LogTime   string    `json:"timestamp"` // HH:MM:SS token from the log line
	Kind      EventKind `json:"eventType"`
	Player    string    `json:"player,omitempty"`
	Message   string    `json:"message"`
	RawLine   string    `json:"rawLog"`
	IPAddress string    `json:"-"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// TPS holds the server's ticks-per-second averages. The ideal value is 20.
type TPS struct {
	OneMin     float64 `json:"oneMin"`
	FiveMin    float64 `json:"fiveMin"`
	FifteenMin float64 `json:"fifteenMin"`
}

// StatusSnapshot is a complete observation of the remote server's state.
// It is recomputed from scratch every poll cycle and never partially
// updated. When Online is false, every other field is zero.
type StatusSnapshot struct {
	Online        bool     `json:"online"`
	MOTD          string   `json:"motd"`
	Version       string   `json:"version"`
	PlayerCount   int      `json:"playerCount"`
	MaxPlayers    int      `json:"maxPlayers"`
	Players       []string `json:"players,omitempty"`
	TPS           TPS      `json:"tps"`
	UptimeSeconds int64    `json:"uptime"`
}

// MetricSample is one persisted performance data point.
type MetricSample struct {
	Timestamp   time.Time `json:"timestamp"`
	TPS         float64   `json:"tps"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
}

// Stream message types pushed to live subscribers.
const (
	MessageServerStatus = "server-status"
	MessagePlayerJoin   = "player-join"
	MessagePlayerLeave  = "player-leave"
	MessageEvent        = "event"
)

// StreamMessage is the envelope delivered to live subscribers, in publish
// order.
type StreamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PlayerLifecycle is the narrow payload for player-join / player-leave
// stream messages.
type PlayerLifecycle struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}
