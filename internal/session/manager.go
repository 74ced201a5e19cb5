package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"postdeck/internal/media"

	"github.com/google/uuid"
)

const (
	defaultIdleTimeout  = 30 * time.Minute
	defaultReapInterval = time.Minute
)

var (
	// ErrNotFound is returned for unknown or already ended session ids.
	ErrNotFound = errors.New("session not found")
	// ErrLimitReached is returned by Create when MaxSessions are live.
	ErrLimitReached = errors.New("session limit reached")
)

// EndReason says why a session ended.
type EndReason string

const (
	EndExplicit EndReason = "explicit"
	EndIdle     EndReason = "idle"
	EndShutdown EndReason = "shutdown"
)

// Config controls session lifetime. A zero MaxSessions means unlimited.
type Config struct {
	IdleTimeout  time.Duration
	ReapInterval time.Duration
	MaxSessions  int
	Now          func() time.Time
	Logger       *slog.Logger
}

// Hooks observe session activity. Every field is optional.
type Hooks struct {
	OnChange func(State)
	OnEnd    func(id string, reason EndReason)
	OnCount  func(n int)
}

// Info summarizes a live session.
type Info struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	Handles    int       `json:"preview_handles"`
}

// Manager is the registry of live sessions.
type Manager struct {
	cfg      Config
	hooks    Hooks
	registry *media.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager creates a manager whose sessions keep their media in registry.
func NewManager(registry *media.Registry, cfg Config, hooks Hooks) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = media.NewRegistry(nil)
	}
	return &Manager{
		cfg:      cfg,
		hooks:    hooks,
		registry: registry,
		logger:   logger,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
}

// Registry returns the media registry shared by all sessions.
func (m *Manager) Registry() *media.Registry { return m.registry }

// Create starts a session with an empty draft.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, ErrLimitReached
	}
	s := newSession(uuid.NewString(), m.registry.NewCache(), m.cfg.Now, m.hooks.OnChange)
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", slog.String("session_id", s.ID))
	m.count(n)
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// End ends a session explicitly. Unknown ids report false.
func (m *Manager) End(id string) bool {
	return m.end(id, EndExplicit)
}

func (m *Manager) end(id string, reason EndReason) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.end()
	m.logger.Info("session ended",
		slog.String("session_id", id),
		slog.String("reason", string(reason)),
	)
	m.count(n)
	if m.hooks.OnEnd != nil {
		m.hooks.OnEnd(id, reason)
	}
	return true
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, Info{
			ID:         s.ID,
			CreatedAt:  s.CreatedAt,
			LastActive: s.LastActive(),
			Handles:    s.Handles(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ReapIdle ends every session idle for longer than the idle timeout and
// returns how many were ended.
func (m *Manager) ReapIdle() int {
	cutoff := m.cfg.Now().Add(-m.cfg.IdleTimeout)

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if m.end(id, EndIdle) {
			reaped++
		}
	}
	return reaped
}

// StartReaper ends idle sessions every ReapInterval until ctx is cancelled or
// Shutdown is called.
func (m *Manager) StartReaper(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.ReapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				if n := m.ReapIdle(); n > 0 {
					m.logger.Info("reaped idle sessions", slog.Int("count", n))
				}
			}
		}
	}()
}

// Shutdown stops the reaper and ends every session.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.end(id, EndShutdown)
	}
}

func (m *Manager) count(n int) {
	if m.hooks.OnCount != nil {
		m.hooks.OnCount(n)
	}
}
