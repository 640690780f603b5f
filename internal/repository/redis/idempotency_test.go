package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore_ClaimSaveReplay(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewIdempotencyStore(rdb, time.Hour, 0)
	ctx := context.Background()

	claim, err := store.Claim(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, claim.Acquired)
	assert.Nil(t, claim.Replay)

	lock, err := mr.Get(KeyIdemBooking("k1"))
	require.NoError(t, err)
	assert.Equal(t, "LOCK", lock)
	assert.Equal(t, 30*time.Second, mr.TTL(KeyIdemBooking("k1")))

	// A second request while the first is running owns nothing.
	claim, err = store.Claim(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, claim.Acquired)
	assert.Nil(t, claim.Replay)

	require.NoError(t, store.Save(ctx, "k1", StoredResponse{
		Status:      201,
		Body:        []byte(`{"pnr":"AB12CD34"}`),
		Fingerprint: "f00d",
	}))
	assert.Equal(t, time.Hour, mr.TTL(KeyIdemBooking("k1")))

	claim, err = store.Claim(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, claim.Acquired)
	require.NotNil(t, claim.Replay)
	assert.Equal(t, 201, claim.Replay.Status)
	assert.JSONEq(t, `{"pnr":"AB12CD34"}`, string(claim.Replay.Body))
	assert.Equal(t, "f00d", claim.Replay.Fingerprint)
}

func TestIdempotencyStore_ReleaseAllowsRetry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewIdempotencyStore(rdb, time.Hour, 5*time.Second)
	ctx := context.Background()

	claim, err := store.Claim(ctx, "k2")
	require.NoError(t, err)
	require.True(t, claim.Acquired)
	assert.Equal(t, 5*time.Second, mr.TTL(KeyIdemBooking("k2")))

	require.NoError(t, store.Release(ctx, "k2"))
	assert.False(t, mr.Exists(KeyIdemBooking("k2")))

	claim, err = store.Claim(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, claim.Acquired)
}

func TestIdempotencyStore_LockExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewIdempotencyStore(rdb, time.Hour, 5*time.Second)
	ctx := context.Background()

	claim, err := store.Claim(ctx, "k3")
	require.NoError(t, err)
	require.True(t, claim.Acquired)

	mr.FastForward(6 * time.Second)

	claim, err = store.Claim(ctx, "k3")
	require.NoError(t, err)
	assert.True(t, claim.Acquired)
}

func TestIdempotencyStore_CorruptResult(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewIdempotencyStore(rdb, time.Hour, 0)
	require.NoError(t, mr.Set(KeyIdemBooking("k4"), "RES:{not json"))

	_, err := store.Claim(context.Background(), "k4")
	assert.Error(t, err)
}
