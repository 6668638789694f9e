package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"teknologiumum.com/pesto/models"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Should report absent keys without an error", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		_, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		values, err := store.ListRange(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("Should expire values once the ttl has elapsed", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.SetClock(func() time.Time { return now })

		require.NoError(t, store.SetWithExpiry(ctx, "k", "v", time.Hour))
		ttl, ok := store.TTL("k")
		require.True(t, ok)
		assert.Equal(t, time.Hour, ttl)

		now = now.Add(59 * time.Minute)
		value, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", value)

		now = now.Add(time.Minute)
		_, ok, err = store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should keep the remaining expiry when replacing a value", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.SetClock(func() time.Time { return now })

		require.NoError(t, store.SetWithExpiry(ctx, "k", "v1", time.Hour))
		now = now.Add(10 * time.Minute)
		require.NoError(t, store.Replace(ctx, "k", "v2"))

		value, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", value)
		ttl, ok := store.TTL("k")
		require.True(t, ok)
		assert.Equal(t, 50*time.Minute, ttl)

		require.NoError(t, store.Replace(ctx, "plain", "v"))
		_, ok = store.TTL("plain")
		assert.False(t, ok)
	})

	t.Run("Should keep list order and drop the list on delete", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		for _, v := range []string{"a", "b", "c"} {
			require.NoError(t, store.ListAppend(ctx, "list", v))
		}
		values, err := store.ListRange(ctx, "list")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, values)

		require.NoError(t, store.Delete(ctx, "list"))
		values, err = store.ListRange(ctx, "list")
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("Should report a decode error when the key holds the other type", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "str", "v"))
		require.NoError(t, store.ListAppend(ctx, "list", "v"))

		_, err := store.ListRange(ctx, "str")
		assert.ErrorIs(t, err, models.ErrDecode)
		_, _, err = store.Get(ctx, "list")
		assert.ErrorIs(t, err, models.ErrDecode)
	})

	t.Run("Should grant a lock to one caller until it expires", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.SetClock(func() time.Time { return now })

		locked, err := store.Acquire(ctx, "lock", time.Minute)
		require.NoError(t, err)
		assert.True(t, locked)

		locked, err = store.Acquire(ctx, "lock", time.Minute)
		require.NoError(t, err)
		assert.False(t, locked)

		now = now.Add(time.Minute)
		locked, err = store.Acquire(ctx, "lock", time.Minute)
		require.NoError(t, err)
		assert.True(t, locked)
	})
}
