package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a JSON read-through cache. A nil *Cache is valid and caches
// nothing, so callers work the same with Redis disabled.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

// InvalidateSchedule drops everything cached for a schedule and bumps its
// generation, so loads that started before the call do not write back.
func (c *Cache) InvalidateSchedule(ctx context.Context, scheduleID int64) error {
	if !c.enabled() {
		return nil
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, KeyScheduleGeneration(scheduleID))
		pipe.Del(ctx, KeyScheduleAvailability(scheduleID))
		return nil
	})
	return err
}

// ScheduleEntry names the cached availability of a schedule together with
// the generation key guarding it.
func ScheduleEntry(scheduleID int64) Entry {
	return Entry{
		Key:    KeyScheduleAvailability(scheduleID),
		GenKey: KeyScheduleGeneration(scheduleID),
	}
}

// Entry is a cache key, optionally guarded by a generation counter. A
// loaded value is written back only if GenKey still holds the value read
// before the load started.
type Entry struct {
	Key    string
	GenKey string
}

// KEYS[1] = generation key
// KEYS[2] = value key
// ARGV[1] = generation seen before the load
// ARGV[2] = value
// ARGV[3] = ttl_ms (0 keeps the value until deleted)
const luaSetIfGeneration = `
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`

var setIfGeneration = redis.NewScript(luaSetIfGeneration)

func (c *Cache) generation(ctx context.Context, genKey string) (string, error) {
	v, err := c.rdb.Get(ctx, genKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func getJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}

	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return out, false, err
	}

	return out, true, nil
}

func setJSON(ctx context.Context, c *Cache, e Entry, gen string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	if e.GenKey == "" {
		return c.rdb.Set(ctx, e.Key, b, ttl).Err()
	}

	return setIfGeneration.Run(ctx, c.rdb,
		[]string{e.GenKey, e.Key},
		gen, b, ttl.Milliseconds(),
	).Err()
}

// GetOrSetJSON returns the cached value under e.Key, or runs loader once
// per key across concurrent callers and caches its result for ttl. When
// e.GenKey changes while loader runs the result is returned but not cached.
//
// A Redis failure on the read path falls through to loader.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	e Entry,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if !c.enabled() {
		return loader(ctx)
	}

	if v, ok, err := getJSON[T](ctx, c, e.Key); err == nil && ok {
		return v, nil
	}

	vAny, err, _ := c.sf.Do(e.Key, func() (any, error) {
		if v, ok, err := getJSON[T](ctx, c, e.Key); err == nil && ok {
			return v, nil
		}

		var (
			gen    string
			genErr error
		)
		if e.GenKey != "" {
			gen, genErr = c.generation(ctx, e.GenKey)
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			_ = setJSON(ctx, c, e, gen, v, ttl)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		var zero T
		return zero, errors.New("cache: unexpected value type")
	}

	return v, nil
}
