package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/google/uuid"
)

// Manager keeps sessions addressable by ID, for adapters serving many operators.
// Sessions nobody touched for longer than the idle TTL are closed and forgotten.
type Manager struct {
	settings

	mu       sync.Mutex
	sessions map[string]*Machine

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager creates a Manager. Machine options (scripts, player, hooks, timings) are
// applied to every session it creates.
func NewManager(opts ...Option) *Manager {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	m := &Manager{
		settings: s,
		sessions: make(map[string]*Machine),
		stop:     make(chan struct{}),
	}
	if m.idleTTL > 0 {
		m.wg.Add(1)
		go m.janitor(janitorInterval(m.idleTTL))
	}
	return m
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

// Create starts a new IDLE session with a random UUID.
func (m *Manager) Create(ctx context.Context) (*Machine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.stop:
		return nil, domain.ErrSessionClosed
	default:
	}

	id := uuid.NewString()
	opts := []Option{func(s *settings) { *s = m.settings }}
	if m.rng != nil {
		// A shared source would race between sessions.
		rng := rand.New(rand.NewPCG(m.rng.Uint64(), m.rng.Uint64()))
		opts = append(opts, WithRand(rng))
	}
	machine := NewMachine(id, opts...)
	m.sessions[id] = machine

	m.logger.Debug("Session created", "session_id", id)
	return machine, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Machine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	machine, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return machine, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	machine, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	err := machine.Close()
	m.removed(sessionID)
	return err
}

// List returns the IDs of every live session, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict closes sessions idle since before the cutoff. Running sessions are kept.
// It returns the number of sessions removed.
func (m *Manager) Evict(cutoff time.Time) int {
	m.mu.Lock()
	var stale []*Machine
	for id, machine := range m.sessions {
		if machine.Busy() || machine.IdleSince().After(cutoff) {
			continue
		}
		stale = append(stale, machine)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, machine := range stale {
		err := machine.Close()
		m.removed(machine.ID())
		if err != nil {
			m.logger.Warn("Failed to close evicted session", "session_id", machine.ID(), "err", err)
			continue
		}
		m.logger.Debug("Session evicted", "session_id", machine.ID())
	}
	return len(stale)
}

func (m *Manager) removed(sessionID string) {
	if m.onRemove != nil {
		m.onRemove(sessionID)
	}
}

func (m *Manager) janitor(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.Evict(now.Add(-m.idleTTL))
		}
	}
}

// Close stops the janitor and closes every session.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Machine)
	m.mu.Unlock()

	for id, machine := range sessions {
		_ = machine.Close()
		m.removed(id)
	}
	return nil
}
