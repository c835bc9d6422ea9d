package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

const keyPrefix = "stancastle:availability:v1:"

// Cache read-through кэш открытых слотов по датам
// Источник истины всегда БД: кэш живёт TTL секунд и сбрасывается при записи бронирований
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key ключ для даты
func Key(date time.Time) string {
	return keyPrefix + date.Format(domain.DateFormat)
}

// Get возвращает слоты даты. found=false при промахе
func (c *Cache) Get(ctx context.Context, date time.Time) ([]types.TimeString, bool, error) {
	raw, err := c.client.Get(ctx, Key(date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheRead, err)
	}

	var slots []types.TimeString
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCacheDecode, err)
	}
	if slots == nil {
		slots = []types.TimeString{}
	}
	return slots, true, nil
}

// Set кладёт слоты даты с TTL
func (c *Cache) Set(ctx context.Context, date time.Time, slots []types.TimeString) error {
	if slots == nil {
		slots = []types.TimeString{}
	}
	payload, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCacheWrite, err)
	}

	if err := c.client.Set(ctx, Key(date), string(payload), c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}

// Invalidate сбрасывает кэш дат
func (c *Cache) Invalidate(ctx context.Context, dates ...time.Time) error {
	if len(dates) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		k := Key(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrCacheWrite, err)
	}
	return nil
}

// NoopCache используется, когда Redis не настроен
type NoopCache struct{}

func (NoopCache) Get(context.Context, time.Time) ([]types.TimeString, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, time.Time, []types.TimeString) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, ...time.Time) error {
	return nil
}
