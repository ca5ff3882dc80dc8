package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, ok, err := store.Load(ctx, "app_mode")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`"adding"`)
	require.NoError(t, store.Save(ctx, "app_mode", value))
	value[1] = 'X'

	got, ok, err := store.Load(ctx, "app_mode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"adding"`, string(got), "store must not alias the caller's slice")

	require.NoError(t, store.Save(ctx, "app_serving_size", []byte("2")))
	require.NoError(t, store.Clear(ctx, "app_mode", "never_saved"))

	_, ok, _ = store.Load(ctx, "app_mode")
	assert.False(t, ok)
	_, ok, _ = store.Load(ctx, "app_serving_size")
	assert.True(t, ok)
}
