package llm

import (
	"context"

	"github.com/caldrin/answerhub/internal/models"
	"github.com/caldrin/answerhub/internal/types"
	"github.com/caldrin/answerhub/pkg/limiter"
)

// Limited wraps a ChatModel so every call holds a permit from the shared
// limiter for its full duration. All pipeline stages go through this
// wrapper, which keeps the provider fan-out bounded in one place.
type Limited struct {
	inner   types.ChatModel
	limiter *limiter.Limiter
}

// NewLimited wraps model with the given limiter.
func NewLimited(model types.ChatModel, l *limiter.Limiter) *Limited {
	return &Limited{inner: model, limiter: l}
}

// Invoke acquires a permit, runs the call, and releases on return.
func (m *Limited) Invoke(ctx context.Context, msgs []models.ChatMessage) (string, error) {
	if err := m.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	defer m.limiter.Release()
	return m.inner.Invoke(ctx, msgs)
}

// Stream acquires a permit for the whole streaming call.
func (m *Limited) Stream(ctx context.Context, msgs []models.ChatMessage, fn types.StreamFunc) error {
	if err := m.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer m.limiter.Release()
	return m.inner.Stream(ctx, msgs, fn)
}
