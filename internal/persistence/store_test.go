package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace-booking/internal/persistence"
)

func TestProfileKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default:user", persistence.ProfileKey("", persistence.KeyUser))
	assert.Equal(t, "kiosk:cart", persistence.ProfileKey(" kiosk ", persistence.KeyCart))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := persistence.NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	value := []byte("hello")
	require.NoError(t, store.Put(ctx, "k", value))
	value[0] = 'j'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSealedStore(t *testing.T) {
	t.Parallel()

	t.Run("round trips and hides plaintext", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		inner := persistence.NewMemoryStore()
		sealed, err := persistence.NewSealedStore(inner, "secret")
		require.NoError(t, err)

		require.NoError(t, sealed.Put(ctx, "default:user", []byte(`{"id":"u-1"}`)))

		raw, err := inner.Get(ctx, "default:user")
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "u-1")

		plain, err := sealed.Get(ctx, "default:user")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"u-1"}`, string(plain))
	})

	t.Run("rejects values sealed under another key or secret", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		inner := persistence.NewMemoryStore()
		sealed, err := persistence.NewSealedStore(inner, "secret")
		require.NoError(t, err)
		require.NoError(t, sealed.Put(ctx, "a", []byte("payload")))

		raw, err := inner.Get(ctx, "a")
		require.NoError(t, err)
		require.NoError(t, inner.Put(ctx, "b", raw))
		_, err = sealed.Get(ctx, "b")
		assert.ErrorIs(t, err, persistence.ErrSealed)

		other, err := persistence.NewSealedStore(inner, "different")
		require.NoError(t, err)
		_, err = other.Get(ctx, "a")
		assert.ErrorIs(t, err, persistence.ErrSealed)

		require.NoError(t, inner.Put(ctx, "short", []byte("x")))
		_, err = sealed.Get(ctx, "short")
		assert.ErrorIs(t, err, persistence.ErrSealed)
	})

	t.Run("passes not found through", func(t *testing.T) {
		t.Parallel()

		sealed, err := persistence.NewSealedStore(persistence.NewMemoryStore(), "secret")
		require.NoError(t, err)
		_, err = sealed.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("requires inner store and secret", func(t *testing.T) {
		t.Parallel()

		_, err := persistence.NewSealedStore(nil, "secret")
		assert.Error(t, err)
		_, err = persistence.NewSealedStore(persistence.NewMemoryStore(), "")
		assert.Error(t, err)
	})
}
