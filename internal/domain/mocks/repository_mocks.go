package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/juncraft/craftboard/internal/domain"
)

// MockEventRepository is a mock implementation of domain.EventRepository
// for testing.
type MockEventRepository struct {
	mu           sync.Mutex
	Events       []domain.Event
	RecentResult []domain.Event
	AppendErr    error
	RecentErr    error
	nextID       int64
	PrunedEvents int64
}

func (m *MockEventRepository) AppendEvent(ctx context.Context, event domain.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return 0, m.AppendErr
	}
	m.nextID++
	event.ID = m.nextID
	m.Events = append(m.Events, event)
	return event.ID, nil
}

// RecentEvents serves the appended events newest first, honoring the
// kind filter and limit the way the Postgres repository does. A preset
// RecentResult overrides the computed answer.
func (m *MockEventRepository) RecentEvents(ctx context.Context, kind domain.EventKind, limit int) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	if m.RecentResult != nil {
		return m.RecentResult, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Event
	for i := len(m.Events) - 1; i >= 0 && len(out) < limit; i-- {
		if kind != "" && m.Events[i].Kind != kind {
			continue
		}
		out = append(out, m.Events[i])
	}
	return out, nil
}

func (m *MockEventRepository) EventCounts(ctx context.Context) (map[domain.EventKind]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.EventKind]int64)
	for _, e := range m.Events {
		counts[e.Kind]++
	}
	return counts, nil
}

func (m *MockEventRepository) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	return m.PrunedEvents, nil
}

// StoredEvents returns a copy of the events appended so far.
func (m *MockEventRepository) StoredEvents() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.Events))
	copy(out, m.Events)
	return out
}

// MockSessionRepository is a mock implementation of
// domain.SessionRepository. It enforces the one-open-session-per-username
// contract the same way the Postgres implementation does, so tests can
// assert the invariant.
type MockSessionRepository struct {
	mu        sync.Mutex
	Sessions  []domain.PlayerSession
	UpsertErr error
	CloseErr  error
	Calls     []string
	nextID    int64
}

func (m *MockSessionRepository) UpsertOpenSession(ctx context.Context, username, ipAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "upsert:"+username)
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	for i := range m.Sessions {
		if m.Sessions[i].Username == username && m.Sessions[i].LeaveTime == nil {
			if ipAddress != "" {
				m.Sessions[i].IPAddress = ipAddress
			}
			return nil
		}
	}
	m.nextID++
	m.Sessions = append(m.Sessions, domain.PlayerSession{
		ID:        m.nextID,
		Username:  username,
		JoinTime:  time.Now(),
		IPAddress: ipAddress,
	})
	return nil
}

func (m *MockSessionRepository) CloseOpenSession(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "close:"+username)
	if m.CloseErr != nil {
		return m.CloseErr
	}
	now := time.Now()
	for i := range m.Sessions {
		if m.Sessions[i].Username == username && m.Sessions[i].LeaveTime == nil {
			dur := int64(now.Sub(m.Sessions[i].JoinTime).Seconds())
			m.Sessions[i].LeaveTime = &now
			m.Sessions[i].DurationSeconds = &dur
		}
	}
	return nil
}

func (m *MockSessionRepository) OpenSessions(ctx context.Context) ([]domain.PlayerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []domain.PlayerSession
	for _, s := range m.Sessions {
		if s.LeaveTime == nil {
			open = append(open, s)
		}
	}
	return open, nil
}

func (m *MockSessionRepository) SessionsForPlayer(ctx context.Context, username string, limit int) ([]domain.PlayerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PlayerSession
	for _, s := range m.Sessions {
		if s.Username == username {
			out = append(out, s)
		}
	}
	return out, nil
}

// StatsForPlayer returns nil for a player with no sessions, matching
// the Postgres implementation's unknown-player contract.
func (m *MockSessionRepository) StatsForPlayer(ctx context.Context, username string) (*domain.PlayerStats, error) {
	sessions, _ := m.SessionsForPlayer(ctx, username, 0)
	if len(sessions) == 0 {
		return nil, nil
	}
	stats := &domain.PlayerStats{Username: username, TotalSessions: len(sessions)}
	for _, s := range sessions {
		if s.DurationSeconds != nil {
			stats.TotalPlaySeconds += *s.DurationSeconds
		}
	}
	return stats, nil
}

// OpenCount reports how many open sessions exist for a username.
func (m *MockSessionRepository) OpenCount(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.Sessions {
		if s.Username == username && s.LeaveTime == nil {
			n++
		}
	}
	return n
}

// MockMetricsRepository is a mock implementation of
// domain.MetricsRepository.
type MockMetricsRepository struct {
	mu        sync.Mutex
	Samples   []domain.MetricSample
	AppendErr error
}

func (m *MockMetricsRepository) AppendMetricSample(ctx context.Context, sample domain.MetricSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Samples = append(m.Samples, sample)
	return nil
}

func (m *MockMetricsRepository) MetricsSince(ctx context.Context, since time.Time) ([]domain.MetricSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MetricSample, len(m.Samples))
	copy(out, m.Samples)
	return out, nil
}

func (m *MockMetricsRepository) PruneMetrics(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// SampleCount returns the number of samples appended so far.
func (m *MockMetricsRepository) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Samples)
}

// MockEventSpool is an in-memory stand-in for the file-backed spool.
type MockEventSpool struct {
	mu       sync.Mutex
	Spooled  []domain.Event
	WriteErr error
}

func (m *MockEventSpool) Write(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Spooled = append(m.Spooled, event)
	return nil
}

func (m *MockEventSpool) Replay(ctx context.Context, handler func(event domain.Event) error) error {
	m.mu.Lock()
	events := make([]domain.Event, len(m.Spooled))
	copy(events, m.Spooled)
	m.mu.Unlock()
	for _, e := range events {
		if err := handler(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockEventSpool) Truncate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Spooled = nil
	return nil
}

// MockCommander is a scriptable domain.Commander. Responses maps a
// command to its canned result; unmatched commands fail.
type MockCommander struct {
	mu        sync.Mutex
	Responses map[string]domain.CommandResult
	Offline   bool
	Executed  []string
}

func (m *MockCommander) Execute(ctx context.Context, command string) domain.CommandResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, command)
	if m.Offline {
		return domain.CommandResult{Success: false, Error: "connection refused"}
	}
	if result, ok := m.Responses[command]; ok {
		return result
	}
	return domain.CommandResult{Success: false, Error: "unknown command"}
}

// MockConfigReader is a scriptable domain.ConfigReader.
type MockConfigReader struct {
	Readable bool
	Config   domain.ServerConfig
}

func (m *MockConfigReader) IsReadable() bool { return m.Readable }

func (m *MockConfigReader) ReadConfig() domain.ServerConfig { return m.Config }

// MockLiveRepository records best-effort live-cache calls.
type MockLiveRepository struct {
	mu       sync.Mutex
	Statuses []domain.StatusSnapshot
	Mirrored []domain.Event
	Err      error
}

func (m *MockLiveRepository) SetStatus(ctx context.Context, status domain.StatusSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Statuses = append(m.Statuses, status)
	return nil
}

func (m *MockLiveRepository) LatestStatus(ctx context.Context) (*domain.StatusSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Statuses) == 0 {
		return nil, nil
	}
	latest := m.Statuses[len(m.Statuses)-1]
	return &latest, nil
}

func (m *MockLiveRepository) MirrorEvent(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Mirrored = append(m.Mirrored, event)
	return nil
}
