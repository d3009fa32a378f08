// Package auth resolves the identity of the caller making a request.
package auth

import (
	"context"
	"time"
)

// Caller is the authenticated identity attached to a request context.
type Caller struct {
	UserID    uint
	Email     string
	Name      string
	AvatarURL string
	TokenID   string
	ExpiresAt time.Time
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any.
func CallerFrom(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*Caller)
	return c, ok && c != nil
}

// UserIDFrom returns the caller's user ID, or 0 for anonymous requests.
func UserIDFrom(ctx context.Context) uint {
	if c, ok := CallerFrom(ctx); ok {
		return c.UserID
	}
	return 0
}
