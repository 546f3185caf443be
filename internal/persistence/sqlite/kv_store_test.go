package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace-booking/internal/persistence"
)

func setupPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "nested", "booking.db")
	pool, err := Open(context.Background(), DefaultConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	require.NoError(t, pool.Migrate(context.Background()))
	return pool
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	pool := setupPool(t)
	ctx := context.Background()

	require.NoError(t, pool.Migrate(ctx), "second run should be a no-op")

	versions, err := pool.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_kv_entries"}, versions)
}

func TestKVStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewKVStore(setupPool(t))

	_, err := store.Get(ctx, "default:user")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.Put(ctx, "default:user", []byte("first")))
	require.NoError(t, store.Put(ctx, "default:user", []byte("second")))

	got, err := store.Get(ctx, "default:user")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	require.NoError(t, store.Delete(ctx, "default:user"))
	require.NoError(t, store.Delete(ctx, "default:user"))
	_, err = store.Get(ctx, "default:user")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestKVStore_Sealed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sealed, err := persistence.NewSealedStore(NewKVStore(setupPool(t)), "secret")
	require.NoError(t, err)

	require.NoError(t, sealed.Put(ctx, "default:user", []byte(`{"id":"u-1"}`)))
	got, err := sealed.Get(ctx, "default:user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1"}`, string(got))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := setupPool(t)
	store := NewKVStore(pool)
	boom := errors.New("boom")

	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (key, value, updated_at) VALUES ('k', x'01', 'now')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestOpen_RequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}
