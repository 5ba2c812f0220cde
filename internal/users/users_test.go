package users

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moodtunes/internal/core"
	"moodtunes/internal/storage"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	shared, err := storage.OpenSQLite(context.Background(), storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shared.Close() })

	store, err := NewStore(shared)
	require.NoError(t, err)
	return store
}

func storeBackends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
			u := &core.User{ID: "u1", Username: "TestUser", PasswordHash: "hash", CreatedAt: created}
			require.NoError(t, store.Create(ctx, u))

			got, err := store.GetByUsername(ctx, "testuser")
			require.NoError(t, err)
			assert.Equal(t, "u1", got.ID)
			assert.Equal(t, "TestUser", got.Username)
			assert.Equal(t, "hash", got.PasswordHash)
			assert.True(t, created.Equal(got.CreatedAt))

			err = store.Create(ctx, &core.User{ID: "u2", Username: "TESTUSER", PasswordHash: "x", CreatedAt: created})
			assert.ErrorIs(t, err, ErrExists)

			_, err = store.GetByUsername(ctx, "nobody")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, store.Close())
		})
	}
}

func TestNewStore_NilStorageIsMemory(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "testuser", want: "testuser"},
		{in: "  padded_name ", want: "padded_name"},
		{in: "a.b-c", want: "a.b-c"},
		{in: "ab", wantErr: true},
		{in: "has space", wantErr: true},
		{in: "<script>", wantErr: true},
		{in: "abcdefghijklmnopqrstuvwxyz0123456789", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeUsername(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), bcrypt.MinCost)

	first, created, err := svc.Login(ctx, "testuser", "hunter2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, "hunter2", first.PasswordHash)

	again, created, err := svc.Login(ctx, "testuser", "hunter2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = svc.Login(ctx, "testuser", "wrong")
	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, core.ErrorTypeAuthentication, appErr.Type)

	_, _, err = svc.Login(ctx, "testuser", "")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, core.ErrorTypeInvalidRequest, appErr.Type)

	_, _, err = svc.Login(ctx, "x", "pw")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, core.ErrorTypeInvalidRequest, appErr.Type)
}

func TestService_ConcurrentFirstLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), bcrypt.MinCost)

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, _, err := svc.Login(ctx, "racer", "same-password")
			errs[i] = err
			if u != nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

type failingStore struct{ Store }

func (failingStore) GetByUsername(context.Context, string) (*core.User, error) {
	return nil, errors.New("connection refused")
}

func TestService_StorageFailure(t *testing.T) {
	svc := NewService(failingStore{NewMemoryStore()}, bcrypt.MinCost)
	_, _, err := svc.Login(context.Background(), "testuser", "pw")

	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, core.ErrorTypeStorage, appErr.Type)
}
