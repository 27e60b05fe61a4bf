package media

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_bounds_concurrency(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Acquire(context.Background()))

	// Second acquire must block until the slot frees; a short deadline
	// proves it.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Acquire(ctx))

	p.Release()
	require.NoError(t, p.Acquire(context.Background()))
	p.Release()
}

func TestNewPool_minimum_size(t *testing.T) {
	p := NewPool(0)
	require.NoError(t, p.Acquire(context.Background()))
	p.Release()
}
