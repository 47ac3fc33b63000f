package services

import "context"

type contextKey string

const (
	providerIDKey contextKey = "provider_id"
	eventKey      contextKey = "event"
	requestIDKey  contextKey = "request_id"
)

// WithProviderID annotates context with the provider definition identifier.
func WithProviderID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, providerIDKey, id)
}

// ProviderIDFromContext extracts the provider definition identifier if present.
func ProviderIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(providerIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithEvent annotates context with the lifecycle event being handled.
func WithEvent(ctx context.Context, event string) context.Context {
	if event == "" {
		return ctx
	}
	return context.WithValue(ctx, eventKey, event)
}

// EventFromContext returns the lifecycle event name if present.
func EventFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(eventKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
