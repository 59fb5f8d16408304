package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// DefaultIdleTTL is how long an untouched session is kept in memory.
const DefaultIdleTTL = 24 * time.Hour

// Loader fetches a previously persisted session. It returns ErrNotFound when
// the id is unknown.
type Loader interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*State
	loader   Loader
	idleTTL  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Manager)

// WithLoader enables hydrating sessions from persistent storage.
func WithLoader(l Loader) Option {
	return func(m *Manager) { m.loader = l }
}

func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*State),
		idleTTL:  DefaultIdleTTL,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new empty session with a fresh id.
func (m *Manager) Create() *State {
	st := NewState(uuid.NewString(), m.now)

	m.mu.Lock()
	m.sessions[st.ID()] = st
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", st.ID())
	return st
}

// Get returns the live session for id, hydrating it from the loader if it is
// not in memory.
func (m *Manager) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	m.mu.Lock()
	st, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return st, nil
	}

	if m.loader == nil {
		return nil, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	snap, err := m.loader.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have hydrated it meanwhile.
	if st, ok := m.sessions[id]; ok {
		return st, nil
	}
	st = NewState(id, m.now)
	st.restore(*snap)
	m.sessions[id] = st
	m.logger.Info("session restored", "session_id", id, "detections", len(snap.History), "messages", len(snap.Messages))
	return st, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// created reports whether a new session was started.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (st *State, created bool) {
	st, err := m.Get(ctx, id)
	if err == nil {
		return st, false
	}
	if !errors.Is(err, ErrNotFound) {
		m.logger.Error("failed to restore session, starting a new one", "session_id", id, "error", err)
	}
	return m.Create(), true
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Persisted data is left alone.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, st := range m.sessions {
		if st.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("idle sessions swept", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
