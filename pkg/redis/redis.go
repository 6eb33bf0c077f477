package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": opts.Addr,
		"db":   opts.DB,
	})

	client = redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": opts.Addr,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock is a Redis lease that lets one migration run at a time across
// server instances. The TTL frees the lease if its holder dies mid-run.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRunLock(c *redis.Client, key string, ttl time.Duration) *RunLock {
	return &RunLock{client: c, key: key, ttl: ttl}
}

// TryLock takes the lease without waiting.
func (l *RunLock) TryLock(ctx context.Context) (bool, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		logger.Error("Failed to acquire run lock", err, map[string]interface{}{
			"key": l.key,
		})
		return false, err
	}
	if ok {
		l.token = token
		logger.Debug("Run lock acquired", map[string]interface{}{
			"key": l.key,
			"ttl": l.ttl.String(),
		})
	}
	return ok, nil
}

// Unlock releases the lease if it is still ours.
func (l *RunLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
		logger.Error("Failed to release run lock", err, map[string]interface{}{
			"key": l.key,
		})
		return err
	}
	logger.Debug("Run lock released", map[string]interface{}{"key": l.key})
	return nil
}
