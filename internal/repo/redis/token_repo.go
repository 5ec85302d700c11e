package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const consumedTokenPrefix = "unlock:consumed:"

// TokenRepo tracks consumed unlock tokens when single-use enforcement is on.
// Keys expire together with the token itself, so the set stays bounded.
type TokenRepo struct {
	client *goredis.Client
}

func NewTokenRepo(client *goredis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

// MarkConsumed claims the token identified by fingerprint. It returns false
// when another request already consumed it.
func (r *TokenRepo) MarkConsumed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if fingerprint == "" || ttl <= 0 {
		return false, fmt.Errorf("invalid consumed token payload")
	}

	ok, err := r.client.SetNX(ctx, consumedTokenPrefix+fingerprint, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark token consumed: %w", err)
	}

	return ok, nil
}
