package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/juncraft/craftboard/internal/adapter/rcon"
	"github.com/juncraft/craftboard/internal/domain"
	"github.com/juncraft/craftboard/internal/domain/mocks"
)

// fakeQuerier is a scriptable ServerQuerier.
type fakeQuerier struct {
	mu      sync.Mutex
	online  bool
	players rcon.PlayerList
	tps     domain.TPS
	version string
}

func (f *fakeQuerier) Online(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeQuerier) Players(ctx context.Context) rcon.PlayerList {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players
}

func (f *fakeQuerier) TPS(ctx context.Context) domain.TPS {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tps
}

func (f *fakeQuerier) Version(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *fakeQuerier) setOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}

type pollerFixture struct {
	poller      *StatusPoller
	querier     *fakeQuerier
	metricsRepo *mocks.MockMetricsRepository
	messages    <-chan domain.StreamMessage
	clock       *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newPollerFixture(t *testing.T, config domain.ConfigReader) *pollerFixture {
	t.Helper()
	querier := &fakeQuerier{
		online:  true,
		players: rcon.PlayerList{Online: 2, Max: 20, Players: []string{"Alice", "Bob"}},
		tps:     domain.TPS{OneMin: 19.8, FiveMin: 20, FifteenMin: 20},
		version: "Paper 1.21.1",
	}
	metricsRepo := &mocks.MockMetricsRepository{}
	router := newTestRouter(&mocks.MockEventRepository{}, &mocks.MockSessionRepository{}, nil)
	ch, unsubscribe := router.Subscribe()
	t.Cleanup(unsubscribe)

	poller := NewStatusPoller(querier, config, metricsRepo, router, time.Second, testLogger(), testMetrics())
	clock := &fakeClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
	poller.now = clock.Now

	return &pollerFixture{
		poller:      poller,
		querier:     querier,
		metricsRepo: metricsRepo,
		messages:    ch,
		clock:       clock,
	}
}

func lastStatus(t *testing.T, msgs []domain.StreamMessage) domain.StatusSnapshot {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == domain.MessageServerStatus {
			status, ok := msgs[i].Data.(domain.StatusSnapshot)
			if !ok {
				t.Fatalf("status payload has wrong type: %T", msgs[i].Data)
			}
			return status
		}
	}
	t.Fatal("no server-status message published")
	return domain.StatusSnapshot{}
}

func TestPoller_OnlineCycle(t *testing.T) {
	f := newPollerFixture(t, nil)
	f.poller.Poll(context.Background())

	status := lastStatus(t, drain(f.messages))
	if !status.Online {
		t.Fatal("expected online snapshot")
	}
	if status.PlayerCount != 2 || status.MaxPlayers != 20 {
		t.Errorf("players: got %d/%d, want 2/20", status.PlayerCount, status.MaxPlayers)
	}
	if status.TPS.OneMin != 19.8 {
		t.Errorf("tps: got %v", status.TPS)
	}
	if status.Version != "Paper 1.21.1" {
		t.Errorf("version: got %q", status.Version)
	}
	if status.MOTD != defaultMOTD {
		t.Errorf("motd should fall back to the default, got %q", status.MOTD)
	}
	if f.metricsRepo.SampleCount() != 1 {
		t.Errorf("expected 1 persisted metric sample, got %d", f.metricsRepo.SampleCount())
	}
}

func TestPoller_OfflineSnapshotIsFullyZeroed(t *testing.T) {
	f := newPollerFixture(t, nil)
	f.querier.setOnline(false)

	f.poller.Poll(context.Background())

	status := lastStatus(t, drain(f.messages))
	if status.Online {
		t.Fatal("expected offline snapshot")
	}
	if status.PlayerCount != 0 || status.MaxPlayers != 0 {
		t.Errorf("player counts not zeroed: %d/%d", status.PlayerCount, status.MaxPlayers)
	}
	if status.TPS != (domain.TPS{}) {
		t.Errorf("tps not zeroed: %+v", status.TPS)
	}
	if status.UptimeSeconds != 0 {
		t.Errorf("uptime not zeroed: %d", status.UptimeSeconds)
	}
	if f.metricsRepo.SampleCount() != 0 {
		t.Error("offline cycles must not persist metric samples")
	}
}

func TestPoller_UptimeAnchorsAtFirstOnlineObservation(t *testing.T) {
	f := newPollerFixture(t, nil)
	ctx := context.Background()

	// Offline first: anchor must be cleared.
	f.querier.setOnline(false)
	f.poller.Poll(ctx)

	// Back online: uptime starts at zero.
	f.querier.setOnline(true)
	f.poller.Poll(ctx)
	status := lastStatus(t, drain(f.messages))
	if status.UptimeSeconds != 0 {
		t.Fatalf("uptime should start at 0, got %d", status.UptimeSeconds)
	}

	// Later cycles count from the anchor.
	f.clock.Advance(42 * time.Second)
	f.poller.Poll(ctx)
	status = lastStatus(t, drain(f.messages))
	if status.UptimeSeconds != 42 {
		t.Errorf("uptime: got %d, want 42", status.UptimeSeconds)
	}

	// An offline observation resets the anchor entirely.
	f.querier.setOnline(false)
	f.poller.Poll(ctx)
	f.clock.Advance(10 * time.Second)
	f.querier.setOnline(true)
	f.poller.Poll(ctx)
	status = lastStatus(t, drain(f.messages))
	if status.UptimeSeconds != 0 {
		t.Errorf("uptime should restart at 0 after an offline gap, got %d", status.UptimeSeconds)
	}
}

func TestPoller_ConfigReaderSuppliesMOTDAndMaxPlayers(t *testing.T) {
	config := &mocks.MockConfigReader{
		Readable: true,
		Config:   domain.ServerConfig{MOTD: "§aCustom MOTD", MaxPlayers: 64},
	}
	f := newPollerFixture(t, config)
	// The list reply did not include a max; fall back to the config.
	f.querier.mu.Lock()
	f.querier.players = rcon.PlayerList{Online: 1, Max: 0, Players: []string{"Alice"}}
	f.querier.mu.Unlock()

	f.poller.Poll(context.Background())

	status := lastStatus(t, drain(f.messages))
	if status.MOTD != "§aCustom MOTD" {
		t.Errorf("motd: got %q", status.MOTD)
	}
	if status.MaxPlayers != 64 {
		t.Errorf("max players: got %d, want config fallback 64", status.MaxPlayers)
	}
}

func TestPoller_UnreadableConfigFallsBackToDefaults(t *testing.T) {
	config := &mocks.MockConfigReader{Readable: false}
	f := newPollerFixture(t, config)
	f.querier.mu.Lock()
	f.querier.players = rcon.PlayerList{Online: 0, Max: 0}
	f.querier.mu.Unlock()

	f.poller.Poll(context.Background())

	status := lastStatus(t, drain(f.messages))
	if status.MOTD != defaultMOTD {
		t.Errorf("motd: got %q, want default", status.MOTD)
	}
	if status.MaxPlayers != defaultMaxPlayers {
		t.Errorf("max players: got %d, want default %d", status.MaxPlayers, defaultMaxPlayers)
	}
}
