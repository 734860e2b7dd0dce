package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list that holds processed phrases
const DefaultRedisKey = "seo-keywords:processed"

// RedisLog keeps processed phrases in a Redis list. RPUSH is append-only,
// so the list mirrors the line file exactly, duplicates included.
type RedisLog struct {
	client *redis.Client
	key    string
}

// RedisConfig describes how to reach the Redis server
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// OpenRedisLog connects to Redis and verifies the connection with PING
func OpenRedisLog(ctx context.Context, cfg RedisConfig) (*RedisLog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key}, nil
}

func (l *RedisLog) Load(ctx context.Context) (PhraseSet, error) {
	entries, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis list %s: %w", l.key, err)
	}
	return NewPhraseSet(entries...), nil
}

func (l *RedisLog) Append(ctx context.Context, phrases []string) error {
	if len(phrases) == 0 {
		return nil
	}

	values := make([]interface{}, len(phrases))
	for i, p := range phrases {
		values[i] = p
	}
	if err := l.client.RPush(ctx, l.key, values...).Err(); err != nil {
		return fmt.Errorf("append redis list %s: %w", l.key, err)
	}
	return nil
}

func (l *RedisLog) Close() error {
	return l.client.Close()
}

func (l *RedisLog) Describe() string {
	return fmt.Sprintf("redis:%s/%s", l.client.Options().Addr, l.key)
}
