// Package session tracks who is signed in on each browser client and which dashboard
// role they get. A Session follows the identity provider's auth state for its client
// and resolves the role from users/{uid} on every change.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/identity"
	"github.com/frahmantamala/genops/internal/role"
	"github.com/frahmantamala/genops/internal/user"
)

const lookupTimeout = 5 * time.Second

// State is the auth state a client renders from.
type State struct {
	IsLoggedIn bool      `json:"isLoggedIn"`
	Role       role.Role `json:"role"`
	Email      string    `json:"email"`
	IsLoading  bool      `json:"isLoading"`
	UID        string    `json:"-"`
}

func loadingState() State {
	return State{IsLoading: true, Role: role.Admin}
}

func signedOutState() State {
	return State{Role: role.Admin}
}

// ProfileLookup reads the stored profile of a signed-in user.
type ProfileLookup interface {
	GetByUID(ctx context.Context, uid string) (*user.User, error)
}

type Session struct {
	clientID string
	provider identity.Provider
	profiles ProfileLookup
	logger   *slog.Logger

	mu          sync.RWMutex
	state       State
	unsubscribe func()
	started     bool
	closed      bool

	lastSeen atomic.Int64
}

func New(clientID string, provider identity.Provider, profiles ProfileLookup, logger *slog.Logger) *Session {
	s := &Session{
		clientID: clientID,
		provider: provider,
		profiles: profiles,
		logger:   logger.With("client_id", clientID),
		state:    loadingState(),
	}
	s.Touch()
	return s
}

// Start subscribes to auth state changes. Subscription failures are logged and leave
// the session signed out and no longer loading.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	unsubscribe, err := s.provider.OnAuthStateChanged(s.clientID, func(id *identity.Identity) {
		s.handle(ctx, id)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "auth state subscription failed", "error", err)
		s.set(signedOutState())
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

func (s *Session) handle(ctx context.Context, id *identity.Identity) {
	if id == nil {
		s.set(signedOutState())
		s.logger.DebugContext(ctx, "auth state: signed out")
		return
	}

	resolved := role.Admin
	lookupCtx, cancel := internal.WithTimeout(internal.ContextWithUserID(ctx, id.UID), lookupTimeout)
	defer cancel()

	profile, err := s.profiles.GetByUID(lookupCtx, id.UID)
	switch {
	case errors.Is(err, internal.ErrUserNotFound):
		s.logger.InfoContext(ctx, "no role record, using admin", "uid", id.UID)
	case err != nil:
		s.logger.WarnContext(ctx, "role lookup failed, using admin", "uid", id.UID, "error", err)
	case profile != nil:
		resolved = role.FromStored(profile.Role)
	}

	s.set(State{
		IsLoggedIn: true,
		Role:       resolved,
		Email:      id.Email,
		UID:        id.UID,
	})
	s.logger.InfoContext(ctx, "auth state: signed in", "uid", id.UID, "role", resolved)
}

func (s *Session) set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = state
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) ClientID() string {
	return s.clientID
}

func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Close unsubscribes from the provider. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
