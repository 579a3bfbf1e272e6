package context

import (
	"context"

	"github.com/google/uuid"
)

type key int

const (
	requestIDKey key = iota
)

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

func GetRequestID(ctx context.Context) string {
	if val, ok := ctx.Value(requestIDKey).(string); ok {
		return val
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request id, generating one when the
// transport didn't supply it.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id := GetRequestID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

type transportKey struct{}

// WithTransport tags ctx with the adapter that received the request (lambda, http, rabbitmq).
func WithTransport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, transportKey{}, name)
}

func GetTransport(ctx context.Context) string {
	if val, ok := ctx.Value(transportKey{}).(string); ok && val != "" {
		return val
	}
	return "direct"
}
