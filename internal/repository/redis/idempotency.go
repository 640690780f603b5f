package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock   = "LOCK"
	idemResult = "RES:"
)

// StoredResponse is the response replayed for a repeated Idempotency-Key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
	// Fingerprint is a hash of the request that produced the response.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Claim is the outcome of IdempotencyStore.Claim.
type Claim struct {
	// Acquired means the caller owns the key and must Save or Release it.
	Acquired bool
	// Replay is set when an earlier request with the key already finished.
	Replay *StoredResponse
}

// IdempotencyStore keeps one value per key: "LOCK" while the first request
// runs, then "RES:<json>" for ttl. A nil *IdempotencyStore always grants
// the claim.
type IdempotencyStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl, lockTTL time.Duration) *IdempotencyStore {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL}
}

func (s *IdempotencyStore) enabled() bool {
	return s != nil && s.rdb != nil
}

// Claim takes ownership of key, or reports a stored response, or neither
// when another request holding the key is still running.
func (s *IdempotencyStore) Claim(ctx context.Context, idemKey string) (Claim, error) {
	if !s.enabled() {
		return Claim{Acquired: true}, nil
	}

	key := KeyIdemBooking(idemKey)

	ok, err := s.rdb.SetNX(ctx, key, idemLock, s.lockTTL).Result()
	if err != nil {
		return Claim{}, err
	}
	if ok {
		return Claim{Acquired: true}, nil
	}

	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; let the caller retry.
		return Claim{}, nil
	}
	if err != nil {
		return Claim{}, err
	}

	if !strings.HasPrefix(v, idemResult) {
		return Claim{}, nil
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(strings.TrimPrefix(v, idemResult)), &resp); err != nil {
		return Claim{}, err
	}

	return Claim{Replay: &resp}, nil
}

// Save replaces the lock with the final response.
func (s *IdempotencyStore) Save(ctx context.Context, idemKey string, resp StoredResponse) error {
	if !s.enabled() {
		return nil
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, KeyIdemBooking(idemKey), idemResult+string(b), s.ttl).Err()
}

// Release drops the lock so the request can be retried with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, idemKey string) error {
	if !s.enabled() {
		return nil
	}

	return s.rdb.Del(ctx, KeyIdemBooking(idemKey)).Err()
}
