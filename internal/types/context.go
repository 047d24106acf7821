package types

import "context"

// contextKey is a private type for context keys to prevent collisions with
// keys defined in other packages.
type contextKey int

const (
	requestIDKey contextKey = iota
)

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request ID from the context, or "" when absent.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
