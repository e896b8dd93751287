package identity

import (
	"context"
	"log/slog"
	"sync"
)

// TokenVerifier turns an ID token into the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// Hub is the in-process Provider. It keeps the current identity of each client and
// fans state changes out to that client's listeners in arrival order.
type Hub struct {
	verifier TokenVerifier
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*clientState
	nextID  int
}

type clientState struct {
	// deliver serialises listener calls so they observe changes in order
	deliver   sync.Mutex
	current   *Identity
	listeners map[int]Listener
}

func NewHub(verifier TokenVerifier, logger *slog.Logger) *Hub {
	return &Hub{
		verifier: verifier,
		logger:   logger,
		clients:  make(map[string]*clientState),
	}
}

// SignIn verifies idToken and makes its identity the current state of clientID.
func (h *Hub) SignIn(ctx context.Context, clientID, idToken string) (*Identity, error) {
	if clientID == "" {
		return nil, ErrMissingClient
	}

	id, err := h.verifier.Verify(idToken)
	if err != nil {
		h.logger.WarnContext(ctx, "id token rejected", "client_id", clientID, "error", err)
		return nil, err
	}

	h.publish(clientID, id)
	h.logger.InfoContext(ctx, "client signed in", "client_id", clientID, "uid", id.UID)
	return id, nil
}

func (h *Hub) SignOut(ctx context.Context, clientID string) error {
	if clientID == "" {
		return ErrMissingClient
	}
	h.publish(clientID, nil)
	h.logger.InfoContext(ctx, "client signed out", "client_id", clientID)
	return nil
}

func (h *Hub) OnAuthStateChanged(clientID string, listener Listener) (func(), error) {
	if clientID == "" {
		return nil, ErrMissingClient
	}

	h.mu.Lock()
	state := h.client(clientID)
	id := h.nextID
	h.nextID++
	h.mu.Unlock()

	state.deliver.Lock()
	h.mu.Lock()
	state.listeners[id] = listener
	current := state.current
	h.mu.Unlock()
	listener(current)
	state.deliver.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(state.listeners, id)
		if len(state.listeners) == 0 && state.current == nil {
			delete(h.clients, clientID)
		}
	}, nil
}

// Current returns the signed-in identity of clientID, if any.
func (h *Hub) Current(clientID string) *Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state, ok := h.clients[clientID]; ok {
		return state.current
	}
	return nil
}

// Forget drops everything the hub knows about clientID without notifying listeners.
func (h *Hub) Forget(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientID)
}

func (h *Hub) publish(clientID string, id *Identity) {
	h.mu.Lock()
	state := h.client(clientID)
	h.mu.Unlock()

	state.deliver.Lock()
	defer state.deliver.Unlock()

	h.mu.Lock()
	state.current = id
	listeners := make([]Listener, 0, len(state.listeners))
	for _, l := range state.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(id)
	}
}

// client must be called with h.mu held.
func (h *Hub) client(clientID string) *clientState {
	state, ok := h.clients[clientID]
	if !ok {
		state = &clientState{listeners: make(map[int]Listener)}
		h.clients[clientID] = state
	}
	return state
}
