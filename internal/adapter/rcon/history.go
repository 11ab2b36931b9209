package rcon

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/juncraft/craftboard/internal/domain"
)

// historyRing keeps the last N command invocations for the operator
// console. Oldest entries are overwritten once the ring is full.
type historyRing struct {
	mu      sync.Mutex
	entries []domain.CommandRecord
	start   int
	size    int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{entries: make([]domain.CommandRecord, capacity)}
}

func (r *historyRing) record(command string, result domain.CommandResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := (r.start + r.size) % len(r.entries)
	r.entries[idx] = domain.CommandRecord{
		ID:      uuid.NewString(),
		Command: command,
		Result:  result,
		At:      time.Now(),
	}
	if r.size < len(r.entries) {
		r.size++
		return
	}
	r.start = (r.start + 1) % len(r.entries)
}

func (r *historyRing) all() []domain.CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CommandRecord, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}
