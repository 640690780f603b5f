package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "busgo:v1:schedule:42:availability", KeyScheduleAvailability(42))
	assert.Equal(t, "busgo:v1:schedule:42:gen", KeyScheduleGeneration(42))
	assert.Equal(t, "busgo:v1:rl:bookings", KeyRateLimit("bookings"))
	assert.Equal(t, "busgo:v1:idem:booking:abc", KeyIdemBooking("abc"))
	assert.Equal(t, "busgo:v1:schedules:changed", ChannelSchedulesChanged())
}

func TestNilComponentsAreNoops(t *testing.T) {
	ctx := context.Background()

	var cache *Cache
	require.NoError(t, cache.InvalidateSchedule(ctx, 1))

	calls := 0
	v, err := GetOrSetJSON(ctx, cache, Entry{Key: "k"}, 0, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = GetOrSetJSON(ctx, cache, Entry{Key: "k"}, 0, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	var ps *SchedulesPubSub
	require.NoError(t, ps.PublishScheduleChanged(ctx, 1))
	_, err = ps.Listen(ctx)
	assert.ErrorIs(t, err, ErrPubSubDisabled)

	var rl *SlidingWindowLimiter
	ok, retry, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retry)

	var idem *IdempotencyStore
	claim, err := idem.Claim(ctx, "key")
	require.NoError(t, err)
	assert.True(t, claim.Acquired)
	assert.Nil(t, claim.Replay)
	require.NoError(t, idem.Save(ctx, "key", StoredResponse{Status: 201}))
	require.NoError(t, idem.Release(ctx, "key"))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, int64(3), toInt(int64(3)))
	assert.Equal(t, int64(4), toInt(4))
	assert.Equal(t, int64(15), toInt("15"))
	assert.Equal(t, int64(0), toInt(nil))
}
