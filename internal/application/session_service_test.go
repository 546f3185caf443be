package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace-booking/internal/persistence"
)

func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type failingStore struct {
	err error
}

func (s failingStore) Get(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingStore) Put(context.Context, string, []byte) error   { return s.err }
func (s failingStore) Delete(context.Context, string) error        { return s.err }

func TestSessionService_SaveAndLoad(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)
	store := persistence.NewMemoryStore()
	svc := NewSessionService(store, "test", func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.Load(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	token := signedToken(t, "u-42", now.Add(time.Hour))
	saved, err := svc.Save(ctx, Session{Name: " Ada ", Email: "ada@example.com", Token: token})
	require.NoError(t, err)
	assert.Equal(t, "u-42", saved.UserID, "subject fills the user id")
	assert.Equal(t, "Ada", saved.Name)
	assert.True(t, saved.ExpiresAt.Equal(now.Add(time.Hour)))

	raw, err := store.Get(ctx, "test:user")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"u-42"`)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-42", loaded.UserID)
	assert.Equal(t, token, loaded.Token)

	principal, err := svc.Principal(ctx)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "u-42", Token: token}, principal)

	got, err := svc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	require.NoError(t, svc.Clear(ctx))
	_, err = svc.Load(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err = svc.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionService_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)
	store := persistence.NewMemoryStore()
	svc := NewSessionService(store, "test", func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.Save(ctx, Session{Token: signedToken(t, "u-1", now.Add(-time.Minute))})
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.Save(ctx, Session{Token: signedToken(t, "u-1", now.Add(time.Minute))})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.Load(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = store.Get(ctx, "test:user")
	assert.ErrorIs(t, err, persistence.ErrNotFound, "expired session is cleared")
}

func TestSessionService_OpaqueTokens(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(persistence.NewMemoryStore(), "test", nil)
	ctx := context.Background()

	_, err := svc.Save(ctx, Session{Token: "opaque-token"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.FieldErrors, "id")

	saved, err := svc.Save(ctx, Session{UserID: "u-7", Token: "opaque-token"})
	require.NoError(t, err)
	assert.True(t, saved.ExpiresAt.IsZero())

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-7", loaded.UserID)

	_, err = svc.Save(ctx, Session{UserID: "u-7"})
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.FieldErrors, "token")
}

func TestSessionService_UnreadableBlob(t *testing.T) {
	t.Parallel()

	store := persistence.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "test:user", []byte("{not json")))

	svc := NewSessionService(store, "test", nil)
	_, err := svc.Load(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = store.Get(ctx, "test:user")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSessionService_StoreFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	svc := NewSessionService(failingStore{err: boom}, "test", nil)

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.Token(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.Save(context.Background(), Session{UserID: "u-1", Token: "tok"})
	assert.ErrorIs(t, err, boom)
}

func TestSessionService_SealedWithAnotherSecret(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(failingStore{err: persistence.ErrSealed}, "test", nil)

	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	token, err := svc.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}
