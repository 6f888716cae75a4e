package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"question-paper-rag/internal/models"

	goredis "github.com/redis/go-redis/v9"
)

const redisPrefix = "question_cache:"

// RedisStore keeps cache entries in Redis hashes
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// OpenRedis connects to addr and verifies the connection. A zero ttl keeps entries forever.
func OpenRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotInitialized
	}

	k := redisPrefix + key
	vals, err := r.client.HGetAll(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	used, err := r.client.HIncrBy(ctx, k, "used_count", 1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to update use count: %w", err)
	}

	e := models.CacheEntry{Key: key, Fingerprint: vals["blueprint_hash"], UsedCount: int(used)}
	if err := json.Unmarshal([]byte(vals["question"]), &e.Question); err != nil {
		return nil, fmt.Errorf("failed to decode cached question: %w", err)
	}
	if ms, err := strconv.ParseInt(vals["created_at"], 10, 64); err == nil {
		e.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return &e, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, question models.AssembledQuestion, fingerprint string) error {
	if r == nil || r.client == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(question)
	if err != nil {
		return fmt.Errorf("failed to encode question: %w", err)
	}

	k := redisPrefix + key
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k,
			"question", string(data),
			"blueprint_hash", fingerprint,
			"created_at", time.Now().UnixMilli(),
			"used_count", 0,
		)
		if r.ttl > 0 {
			p.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	err := r.client.Close()
	if errors.Is(err, goredis.ErrClosed) {
		return nil
	}
	return err
}
