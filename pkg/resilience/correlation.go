package resilience

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id carried by ctx, or an empty string.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func NewCorrelationID() string {
	return uuid.NewString()
}

// EnsureCorrelationID returns ctx unchanged when it already carries an id.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := NewCorrelationID()
	return WithCorrelationID(ctx, id), id
}

// BranchID derives the correlation id of one fan-out branch from its parent operation id.
func BranchID(parent, target string) string {
	return parent + "/" + target
}
