// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"morningfocus/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient holds short-lived state such as pending OAuth states.
	CacheClient *redis.Client
	// QueueClient shares the database the reminder queue runs on; used for health checks.
	QueueClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis connects both Redis clients.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	QueueClient = newRedisClient(config.AppConfig.RedisQueueDB, "Queue")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}

// GetQueueClient returns the client bound to the queue database.
func GetQueueClient() *redis.Client {
	if QueueClient == nil {
		QueueClient = newRedisClient(config.AppConfig.RedisQueueDB, "Queue")
	}
	return QueueClient
}
