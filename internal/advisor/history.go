package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/cache"
	"github.com/redis/go-redis/v9"
)

// History keeps the most recent chat messages per conversation key.
type History interface {
	Load(ctx context.Context, key string) ([]Message, error)
	Append(ctx context.Context, key string, msgs ...Message) error
	Clear(ctx context.Context, key string) error
}

type MemoryHistory struct {
	entries *cache.Cache[[]Message]
	limit   int
}

func NewMemoryHistory(ttl time.Duration, limit int) *MemoryHistory {
	return &MemoryHistory{entries: cache.New[[]Message](ttl), limit: limit}
}

func (h *MemoryHistory) Load(_ context.Context, key string) ([]Message, error) {
	msgs, _ := h.entries.Get(key)
	return append([]Message(nil), msgs...), nil
}

func (h *MemoryHistory) Append(_ context.Context, key string, msgs ...Message) error {
	h.entries.Update(key, func(cur []Message, _ bool) []Message {
		next := append(append([]Message(nil), cur...), msgs...)
		return tail(next, h.limit)
	})
	return nil
}

func (h *MemoryHistory) Clear(_ context.Context, key string) error {
	h.entries.Delete(key)
	return nil
}

type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
	limit  int
}

func NewRedisHistory(client *redis.Client, ttl time.Duration, limit int) *RedisHistory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisHistory{client: client, ttl: ttl, limit: limit}
}

func (h *RedisHistory) Load(ctx context.Context, key string) ([]Message, error) {
	raw, err := h.client.LRange(ctx, h.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load history: %w", err)
	}

	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (h *RedisHistory) Append(ctx context.Context, key string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode history entry: %w", err)
		}
		values = append(values, b)
	}

	k := h.key(key)
	_, err := h.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, k, values...)
		if h.limit > 0 {
			p.LTrim(ctx, k, int64(-h.limit), -1)
		}
		p.Expire(ctx, k, h.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Clear(ctx context.Context, key string) error {
	if err := h.client.Del(ctx, h.key(key)).Err(); err != nil {
		return fmt.Errorf("redis clear history: %w", err)
	}
	return nil
}

func (h *RedisHistory) key(k string) string {
	return "advisor:history:" + k
}

func tail(msgs []Message, limit int) []Message {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}
