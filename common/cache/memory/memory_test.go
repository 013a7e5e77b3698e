package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shenanigigs/common/cache"
)

type payload struct {
	data string
}

func (p payload) MarshalBinary() ([]byte, error) {
	return []byte(p.data), nil
}

func (p *payload) UnmarshalBinary(b []byte) error {
	p.data = string(b)
	return nil
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := New(cache.DefaultOptions())
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "s", "text", 0))
	var s string
	require.NoError(t, c.Get(ctx, "s", &s))
	assert.Equal(t, "text", s)

	require.NoError(t, c.Set(ctx, "p", payload{data: "enriched"}, time.Minute))
	var p payload
	require.NoError(t, c.Get(ctx, "p", &p))
	assert.Equal(t, "enriched", p.data)

	var b []byte
	assert.ErrorIs(t, c.Get(ctx, "missing", &b), cache.ErrNotFound)
	assert.ErrorIs(t, c.Set(ctx, "", "x", 0), cache.ErrInvalidKey)
	assert.ErrorIs(t, c.Set(ctx, "n", 42, 0), cache.ErrInvalidValue)
	assert.ErrorIs(t, c.Get(ctx, "s", new(int)), cache.ErrInvalidValue)

	require.NoError(t, c.Delete(ctx, "s"))
	assert.ErrorIs(t, c.Get(ctx, "s", &s), cache.ErrNotFound)

	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	c := New(cache.DefaultOptions())
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(50 * time.Millisecond)

	var s string
	assert.ErrorIs(t, c.Get(ctx, "k", &s), cache.ErrNotFound)
}

func TestCacheClosed(t *testing.T) {
	t.Parallel()

	c := New(cache.DefaultOptions())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Set(context.Background(), "k", "v", 0), cache.ErrClosed)
}
