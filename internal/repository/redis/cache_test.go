package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrSetJSON_CachesLoadedValue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb)
	ctx := context.Background()
	entry := ScheduleEntry(7)

	calls := 0
	loader := func(context.Context) (int, error) {
		calls++
		return 12, nil
	}

	for range 3 {
		v, err := GetOrSetJSON(ctx, cache, entry, 15*time.Second, loader)
		require.NoError(t, err)
		assert.Equal(t, 12, v)
	}

	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(entry.Key))
	assert.Equal(t, 15*time.Second, mr.TTL(entry.Key))
}

func TestInvalidateSchedule_DropsEntryAndBumpsGeneration(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb)
	ctx := context.Background()
	entry := ScheduleEntry(7)

	_, err := GetOrSetJSON(ctx, cache, entry, time.Minute, func(context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	require.True(t, mr.Exists(entry.Key))

	require.NoError(t, cache.InvalidateSchedule(ctx, 7))

	assert.False(t, mr.Exists(entry.Key))
	gen, err := mr.Get(entry.GenKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
}

// A load that overlaps an invalidation must not write its stale result
// back, or readers would see it until the TTL runs out.
func TestGetOrSetJSON_InvalidationDuringLoadIsNotCached(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb)
	ctx := context.Background()
	entry := ScheduleEntry(7)

	available := 10
	first := true
	loader := func(ctx context.Context) (int, error) {
		v := available
		if first {
			first = false
			// A booking takes the last seats and invalidates while this
			// load is still in flight.
			available = 0
			require.NoError(t, cache.InvalidateSchedule(ctx, 7))
		}
		return v, nil
	}

	v, err := GetOrSetJSON(ctx, cache, entry, time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.False(t, mr.Exists(entry.Key))

	v, err = GetOrSetJSON(ctx, cache, entry, time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	cached, err := mr.Get(entry.Key)
	require.NoError(t, err)
	assert.Equal(t, "0", cached)
}

func TestGetOrSetJSON_UnguardedEntry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewCache(rdb)

	v, err := GetOrSetJSON(context.Background(), cache, Entry{Key: "busgo:v1:test"}, 0,
		func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	cached, err := mr.Get("busgo:v1:test")
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, cached)
	assert.Zero(t, mr.TTL("busgo:v1:test"))
}

func TestGetOrSetJSON_RedisDownFallsThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := NewCache(rdb)

	v, err := GetOrSetJSON(context.Background(), cache, ScheduleEntry(1), time.Minute,
		func(context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}
