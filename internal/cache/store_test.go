package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Orders  int   `json:"orders"`
	Revenue int64 `json:"revenue"`
}

func TestMemoryStore_JSONAndString(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{Prefix: "shop"})

	require.NoError(t, store.SetJSON(ctx, "dashboard", summary{Orders: 3, Revenue: 4500}, time.Minute))
	var got summary
	ok, err := store.GetJSON(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, summary{Orders: 3, Revenue: 4500}, got)

	require.NoError(t, store.SetString(ctx, "token", "abc", time.Minute))
	val, ok, err := store.GetString(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", val)

	require.NoError(t, store.Delete(ctx, "token", "dashboard"))
	_, ok, _ = store.GetString(ctx, "token")
	assert.False(t, ok)
	ok, err = store.GetJSON(ctx, "dashboard", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Namespace(t *testing.T) {
	ctx := context.Background()
	root := NewStore(Options{})
	products := root.Namespace("product")
	orders := root.Namespace(":order:")

	require.NoError(t, products.SetString(ctx, "1", "p", 0))
	require.NoError(t, orders.SetString(ctx, "1", "o", 0))

	p, _, _ := products.GetString(ctx, "1")
	o, _, _ := orders.GetString(ctx, "1")
	assert.Equal(t, "p", p)
	assert.Equal(t, "o", o)

	raw, ok, _ := root.GetString(ctx, "order:1")
	assert.True(t, ok)
	assert.Equal(t, "o", raw)
}

func TestMemoryStore_Increment(t *testing.T) {
	ctx := context.Background()
	store := NewStore(Options{})

	for i := int64(1); i <= 3; i++ {
		got, err := store.Increment(ctx, "login:1.2.3.4", 1, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}

	require.NoError(t, store.SetString(ctx, "text", "x", 0))
	_, err := store.Increment(ctx, "text", 1, 0)
	assert.ErrorIs(t, err, ErrNotInteger)

	_, err = store.Increment(ctx, "short", 1, 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	got, err := store.Increment(ctx, "short", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
