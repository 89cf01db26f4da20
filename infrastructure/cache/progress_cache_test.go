package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/domain/model"
	"clipforge/infrastructure/cache"
)

// A nil Redis client disables the cache without breaking callers.
func TestProgressCache_NilClient(t *testing.T) {
	c := cache.NewProgressCache(nil, 0)

	ctx := context.Background()
	require.NoError(t, c.SetLast(ctx, "j1", model.ProgressEvent{Status: model.ProgressRendering, Progress: 42}))

	evt, err := c.GetLast(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, evt)

	require.NoError(t, c.Clear(ctx, "j1"))
}
