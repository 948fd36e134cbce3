// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping this package free of
// net/http lets services and workers depend on it directly.
//
// Usage in services:
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, requestcontext.Principal{UserID: buyer, Role: id.RoleBuyer})
package requestcontext

import (
	"context"
	"time"

	id "homeloan/pkg/domain"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyActor       = actorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Principal is the authenticated caller. BankID is set for reviewers only.
type Principal struct {
	UserID id.UserID
	Role   id.Role
	BankID id.BankID
}

// IsZero reports whether no caller was authenticated.
func (p Principal) IsZero() bool {
	return p.UserID.IsNil() && p.Role == ""
}

// -----------------------------------------------------------------------------
// Actor
// -----------------------------------------------------------------------------

// Actor retrieves the authenticated caller. Returns the zero Principal if not set.
func Actor(ctx context.Context) Principal {
	if p, ok := ctx.Value(ContextKeyActor).(Principal); ok {
		return p
	}
	return Principal{}
}

// WithActor injects the authenticated caller into the context.
func WithActor(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKeyActor, p)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (cron sweeps, event handlers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Sweeps use it so every mortgage in a batch sees the same instant.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
