package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireBlocksAtCapacity(t *testing.T) {
	l := New(2, 0)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(blocked), context.DeadlineExceeded)

	l.Release()
	require.NoError(t, l.Acquire(ctx))
	l.Release()
	l.Release()
}

func TestAcquireHonorsCancellation(t *testing.T) {
	l := New(1, 0)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)

	l.Release()
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := Unlimited()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
}
