package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// redisKV 以 Redis 實作 KVStore
type redisKV struct {
	client *redis.Client
}

// NewRedisClient init Redis connection. When sentinel addresses are given a
// failover client is built against masterName, otherwise a plain client to addr.
func NewRedisClient(c RedisConnection) (*redis.Client, error) {
	var rdb *redis.Client
	if len(c.SentinelAddrs) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    c.MasterName,    // 哨兵主节点名称
			SentinelAddrs: c.SentinelAddrs, // 哨兵地址列表
			Password:      c.Password,
			DB:            c.DB,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
		})
	}

	// 测试连接
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// NewRedisKV wraps an existing client as a KVStore
func NewRedisKV(client *redis.Client) KVStore {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	// 不設定過期時間
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (r *redisKV) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		if strings.Contains(err.Error(), "not an integer") {
			return 0, fmt.Errorf("failed to incr key %s: %w", key, ErrNotInteger)
		}
		return 0, fmt.Errorf("failed to incr key %s: %w", key, err)
	}
	return val, nil
}

func (r *redisKV) Close() error {
	return r.client.Close()
}
