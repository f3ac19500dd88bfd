package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(60))
	assert.Equal(t, int64(60), c.MemoryUsage())

	err := c.AcquireMemory(50)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(60), c.MemoryUsage())

	c.ReleaseMemory(60)
	assert.Equal(t, int64(0), c.MemoryUsage())
	require.NoError(t, c.AcquireMemory(50))
}

func TestController_TryAcquireMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	assert.True(t, c.TryAcquireMemory(10))
	assert.False(t, c.TryAcquireMemory(1))
	c.ReleaseMemory(10)
	assert.True(t, c.TryAcquireMemory(1))
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(1<<30))
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.True(t, c.TryAcquireBackground())
	require.NoError(t, c.AcquireBackground(context.Background()))
	assert.True(t, c.TryAcquireIO(1<<20))
}

func TestController_Background(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 1})
	require.NoError(t, c.AcquireBackground(context.Background()))
	assert.False(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_IOLimit(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})
	assert.True(t, c.TryAcquireIO(500))
	assert.False(t, c.TryAcquireIO(10000))
}
