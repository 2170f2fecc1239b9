// File: morningfocus/utils/oauth_state.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const OAuthStatePrefix = "oauth:state:"

// OAuthStateTTL bounds how long an authorization redirect may take.
const OAuthStateTTL = 10 * time.Minute

// OAuthStateStore keeps pending OAuth states in Redis so each authorization
// request owns its own state and a state can be consumed once.
type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOAuthStateStore(client *redis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = OAuthStateTTL
	}
	return &OAuthStateStore{client: client, ttl: ttl}
}

func stateKey(provider, state string) string {
	return OAuthStatePrefix + provider + ":" + state
}

// Issue generates a random 32-hex-char state for provider and stores it with the TTL.
func (s *OAuthStateStore) Issue(ctx context.Context, provider string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)

	if err := s.client.Set(ctx, stateKey(provider, state), time.Now().Unix(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}
	return state, nil
}

// Consume reports whether state was pending for provider and removes it.
// A state can be consumed at most once.
func (s *OAuthStateStore) Consume(ctx context.Context, provider, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := s.client.Del(ctx, stateKey(provider, state)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return n == 1, nil
}
