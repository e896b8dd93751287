// Package identity adapts the external identity provider. The provider signs ID tokens
// for its users; this service only verifies them and tracks the signed-in identity of
// every browser client so sessions can follow auth state changes.
package identity

import (
	"context"
	"errors"
)

// Identity is the signed-in user as asserted by the provider.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Listener receives auth state changes for one client. A nil identity means signed out.
type Listener func(id *Identity)

// Provider is the part of the identity provider the dashboard depends on.
type Provider interface {
	// OnAuthStateChanged registers listener for clientID and immediately delivers the
	// current state. The returned function unsubscribes.
	OnAuthStateChanged(clientID string, listener Listener) (unsubscribe func(), err error)
	SignOut(ctx context.Context, clientID string) error
}

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrMissingClient  = errors.New("client id is required")
	ErrMissingSubject = errors.New("token has no subject")
)
