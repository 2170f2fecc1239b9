package intelligence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"morningfocus/models"

	"github.com/go-redis/redis/v8"
)

const planCachePrefix = "ai:plan:"

// PlanCacheTTL bounds how long an identical prompt reuses a generated plan.
const PlanCacheTTL = 6 * time.Hour

// RedisPlanCache keeps generated plans keyed by prompt digest.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = PlanCacheTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

func planKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return planCachePrefix + hex.EncodeToString(sum[:])
}

// Get returns nil, nil on a miss.
func (s *RedisPlanCache) Get(ctx context.Context, prompt string) (*models.PlanOutput, error) {
	data, err := s.client.Get(ctx, planKey(prompt)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out models.PlanOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisPlanCache) Set(ctx context.Context, prompt string, out *models.PlanOutput) error {
	b, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, planKey(prompt), b, s.ttl).Err()
}
