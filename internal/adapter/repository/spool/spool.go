// Package spool is the file-backed fallback for classified events while
// the primary store is unreachable. Events are appended as JSON lines
// and replayed in write order once the store recovers.
package spool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/juncraft/craftboard/internal/domain"
)

const spoolFileName = "events.spool"

// Spool implements domain.EventSpool over a single append-only file.
type Spool struct {
	path    string
	maxSize int64
	logger  *slog.Logger

	mu   sync.Mutex
	file *os.File
	size int64
}

// New creates the spool directory if needed and opens the spool file.
func New(dir string, maxSize int64, logger *slog.Logger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory %s: %w", dir, err)
	}
	s := &Spool{
		path:    filepath.Join(dir, spoolFileName),
		maxSize: maxSize,
		logger:  logger.With("component", "spool"),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spool) open() error {
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open spool file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat spool file: %w", err)
	}
	s.file = file
	s.size = stat.Size()
	return nil
}

// Write appends one event. Writes beyond the size cap are rejected so a
// long store outage cannot fill the disk.
func (s *Spool) Write(ctx context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for spool: %w", err)
	}
	data = append(data, '\n')

	if s.maxSize > 0 && s.size+int64(len(data)) > s.maxSize {
		return fmt.Errorf("spool size cap exceeded (%d bytes)", s.maxSize)
	}

	n, err := s.file.Write(data)
	if err != nil {
		return fmt.Errorf("write to spool: %w", err)
	}
	s.size += int64(n)
	return nil
}

// Len reports how many bytes are currently spooled.
func (s *Spool) Len() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Replay feeds every spooled event to the handler in write order. A
// handler error stops the replay; already-handled events are replayed
// again next time, so handlers must tolerate duplicates.
func (s *Spool) Replay(ctx context.Context, handler func(event domain.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open spool for replay: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var event domain.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			s.logger.Warn("skipping malformed spool line", "error", err)
			continue
		}
		if err := handler(event); err != nil {
			return fmt.Errorf("replay handler: %w", err)
		}
	}
	return scanner.Err()
}

// Truncate discards all spooled events.
func (s *Spool) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return s.open()
}

// Close releases the spool file handle.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
