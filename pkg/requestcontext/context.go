// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services read them without importing net/http.
//
//	caller := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "finwell/pkg/domain"
)

type (
	callerKey      struct{}
	operatorKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyOperator    = operatorKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Caller retrieves the authenticated caller identity.
// Returns the zero identity if not set.
func Caller(ctx context.Context) id.Identity {
	if caller, ok := ctx.Value(ContextKeyCaller).(id.Identity); ok {
		return caller
	}
	return id.Identity{}
}

// WithCaller injects the authenticated caller identity.
func WithCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// IsOperator reports whether the caller authenticated with operator rights.
func IsOperator(ctx context.Context) bool {
	v, _ := ctx.Value(ContextKeyOperator).(bool)
	return v
}

// WithOperator marks the context as carrying operator rights.
func WithOperator(ctx context.Context, operator bool) context.Context {
	return context.WithValue(ctx, ContextKeyOperator, operator)
}

// RequestID retrieves the request correlation id.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time.
// Falls back to time.Now() outside HTTP requests (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time, mainly for workers and tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
