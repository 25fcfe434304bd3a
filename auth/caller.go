// Package auth carries the caller identity resolved by the external session
// layer. Engine services receive a Caller explicitly on every operation
// instead of reading ambient state.
package auth

import "context"

// Caller identifies the authenticated user of one request.
type Caller struct {
	UserID  string
	Name    string
	IsAdmin bool
}

type callerKey struct{}

// WithCaller returns a context carrying the caller; used by the HTTP layer.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom extracts the caller from the context; ok is false when the
// request was not authenticated.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
