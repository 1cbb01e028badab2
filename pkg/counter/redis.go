package counter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCounter Redis 计数，多个实例可共享同一个键
type redisCounter struct {
	client redis.UniversalClient
	key    string
}

// newRedisCounter 创建 Redis 计数器并检查连接
func newRedisCounter(cfg *Config) (Counter, error) {
	client := newRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrConnection.WithError(err)
	}

	return &redisCounter{client: client, key: cfg.Key}, nil
}

// newRedisClient 按模式创建客户端
func newRedisClient(cfg *RedisConfig) redis.UniversalClient {
	switch cfg.Mode {
	case RedisCluster:
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	case RedisSentinel:
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.Addrs,
			Username:      cfg.Username,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			MinIdleConns:  cfg.MinIdleConns,
			MaxRetries:    cfg.MaxRetries,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
		})
	default:
		return redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})
	}
}

func (r *redisCounter) Incr(ctx context.Context) (uint64, error) {
	n, err := r.client.Incr(ctx, r.key).Uint64()
	if err != nil {
		return 0, ErrOperation.WithError(err)
	}
	return n, nil
}

// Load 键不存在时视为 0
func (r *redisCounter) Load(ctx context.Context) (uint64, error) {
	n, err := r.client.Get(ctx, r.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, ErrOperation.WithError(err)
	}
	return n, nil
}

func (r *redisCounter) Reset(ctx context.Context) error {
	if err := r.client.Set(ctx, r.key, 0, 0).Err(); err != nil {
		return ErrOperation.WithError(err)
	}
	return nil
}

func (r *redisCounter) Close() error {
	return r.client.Close()
}
