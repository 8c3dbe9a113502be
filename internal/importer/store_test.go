package importer

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-sheets-service/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := NewSession("s1", "tenant-1", "user-1", t0)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	now := t0
	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, NewSession("s1", "t", "", t0)))

	now = t0.Add(9 * time.Minute)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	now = t0.Add(11 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrImportInFlight)

	other, err := store.Lock(ctx, "s2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := store.Lock(ctx, "s1")
	require.NoError(t, err)
	again()
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 15*time.Minute), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	s, err := NewSession("s1", "tenant-1", "user-1", t0).Load("a.xlsx", rows(2), nil,
		[]models.ValidationError{{Row: 3, Messages: []string{"Giá bán phải là số"}}}, t0)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists(sessionKey("s1")))
	assert.Equal(t, 15*time.Minute, mr.TTL(sessionKey("s1")))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatePreview, got.State)
	assert.Equal(t, "a.xlsx", got.FileName)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Sản phẩm 1", got.Rows[0].Text(models.KeyName))
	assert.Equal(t, s.ValidationErrors, got.ValidationErrors)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, NewSession("s1", "t", "", t0)))
	mr.FastForward(16 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreLock(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey("s1")))

	_, err = store.Lock(ctx, "s1")
	assert.ErrorIs(t, err, ErrImportInFlight)

	unlock()
	assert.False(t, mr.Exists(lockKey("s1")))

	// a stale release must not drop a lock taken by someone else
	require.NoError(t, mr.Set(lockKey("s1"), "other-token"))
	unlock()
	assert.True(t, mr.Exists(lockKey("s1")))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewRedisStore(client, time.Minute)
	mr.Close()

	_, err = store.Get(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}
