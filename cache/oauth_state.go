package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStateKey = "oauth:state:%s"

// OAuthStateStore remembers the state parameters of sign-in redirects so
// each callback can be matched exactly once.
type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOAuthStateStore 创建 OAuth state 存储
func NewOAuthStateStore(client *redis.Client, ttl time.Duration) *OAuthStateStore {
	return &OAuthStateStore{client: client, ttl: ttl}
}

// Save records state with the page to return to after sign-in.
func (s *OAuthStateStore) Save(ctx context.Context, state, returnTo string) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	ok, err := s.client.SetNX(ctx, fmt.Sprintf(oauthStateKey, state), returnTo, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	if !ok {
		return fmt.Errorf("oauth state already in use")
	}
	return nil
}

// Consume deletes state and returns its return-to page. ok is false for
// unknown, expired or already used states.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (returnTo string, ok bool, err error) {
	if s.client == nil {
		return "", false, fmt.Errorf("Redis client not initialized")
	}
	if state == "" {
		return "", false, nil
	}
	val, err := s.client.GetDel(ctx, fmt.Sprintf(oauthStateKey, state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return val, true, nil
}
