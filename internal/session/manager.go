package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/genops/internal/identity"
)

// forgetter is implemented by providers that keep per-client state.
type forgetter interface {
	Forget(clientID string)
}

// Manager owns one Session per browser client.
type Manager struct {
	provider identity.Provider
	profiles ProfileLookup
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(provider identity.Provider, profiles ProfileLookup, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session of clientID, starting one on first use.
func (m *Manager) Get(clientID string) *Session {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if !ok {
		s = New(clientID, m.provider, m.profiles, m.logger)
		m.sessions[clientID] = s
	}
	m.mu.Unlock()

	s.Touch()
	if !ok {
		s.Start(m.ctx)
	}
	return s
}

// Drop closes the session of clientID and forgets the client.
func (m *Manager) Drop(clientID string) {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	delete(m.sessions, clientID)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	if f, ok := m.provider.(forgetter); ok {
		f.Forget(clientID)
	}
}

// EvictIdle drops every session not used within ttl and returns how many were dropped.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	var idle []string
	for clientID, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, clientID)
		}
	}
	m.mu.Unlock()

	for _, clientID := range idle {
		m.Drop(clientID)
	}
	if len(idle) > 0 {
		m.logger.Info("evicted idle sessions", "count", len(idle), "ttl", ttl.String())
	}
	return len(idle)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
