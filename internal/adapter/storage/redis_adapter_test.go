package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_SetGet(t *testing.T) {
	store, mr := getRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stock_notified_p1", `{"key":"stock_notified_p1"}`))

	value, ok, err := store.Get(ctx, "stock_notified_p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"key":"stock_notified_p1"}`, value)

	// keys are namespaced
	raw, err := mr.Get("cartengine:stock_notified_p1")
	require.NoError(t, err)
	assert.Equal(t, value, raw)
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := getRedisStore(t)

	value, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisStore_Remove(t *testing.T) {
	store, _ := getRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Remove(ctx, "k"))
	require.NoError(t, store.Remove(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_WithPrefix(t *testing.T) {
	store, mr := getRedisStore(t)
	ctx := context.Background()

	other := store.WithPrefix("tenant-b:")
	require.NoError(t, other.Set(ctx, "k", "b"))
	require.NoError(t, store.Set(ctx, "k", "a"))

	assert.True(t, mr.Exists("tenant-b:k"))
	v, _, _ := other.Get(ctx, "k")
	assert.Equal(t, "b", v)
}

func TestRedisStore_ConcurrentWrites(t *testing.T) {
	store, _ := getRedisStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Set(ctx, "price_history_p1", `{"price":"10"}`); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	v, ok, err := store.Get(ctx, "price_history_p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"price":"10"}`, v)
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db)
	ctx := context.Background()
	boom := errors.New("connection refused")

	mock.ExpectGet("cartengine:k").SetErr(boom)
	_, ok, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)

	mock.ExpectSet("cartengine:k", "v", 0).SetErr(boom)
	assert.ErrorIs(t, store.Set(ctx, "k", "v"), boom)

	mock.ExpectDel("cartengine:k").SetErr(boom)
	assert.ErrorIs(t, store.Remove(ctx, "k"), boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClient(t *testing.T) {
	_, err := NewRedisClient("  ")
	assert.Error(t, err)

	client, err := NewRedisClient("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", client.Options().Addr)

	client, err = NewRedisClient("redis://:secret@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", client.Options().Addr)
	assert.Equal(t, "secret", client.Options().Password)
	assert.Equal(t, 2, client.Options().DB)

	_, err = NewRedisClient("redis://cache:notaport/x")
	assert.Error(t, err)
}
