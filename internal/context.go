package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey   ctxKey = "userID"
	ContextRoleKey   ctxKey = "role"
	ContextClientKey ctxKey = "clientID"
	ContextSystemKey ctxKey = "system"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// ContextWithClientID stores the id of the browser client issuing the request.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ContextClientKey, clientID)
}

func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	clientID, _ := ctx.Value(ContextClientKey).(string)
	return clientID
}

// ContextWithRole stores the dashboard role resolved for the signed-in user.
func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextRoleKey, role)
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(ContextRoleKey).(string)
	return role
}

// ContextAsSystem marks ctx as issued by a background job rather than a signed-in user.
func ContextAsSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextSystemKey, true)
}

func IsSystemContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	system, _ := ctx.Value(ContextSystemKey).(bool)
	return system
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
