package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const adminSessionPrefix = "admin_sessions:"

var ErrSessionNotFound = errors.New("admin session not found")

// SessionRepo stores admin sessions with an idle timeout. A session that is
// not touched within the timeout disappears on its own.
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, sid string, idleTimeout time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" || idleTimeout <= 0 {
		return fmt.Errorf("invalid admin session payload")
	}

	if err := r.client.Set(ctx, adminSessionPrefix+sid, 1, idleTimeout).Err(); err != nil {
		return fmt.Errorf("create admin session: %w", err)
	}

	return nil
}

// Touch verifies the session exists and slides its expiry forward.
func (r *SessionRepo) Touch(ctx context.Context, sid string, idleTimeout time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" || idleTimeout <= 0 {
		return fmt.Errorf("invalid admin session payload")
	}

	ok, err := r.client.Expire(ctx, adminSessionPrefix+sid, idleTimeout).Result()
	if err != nil {
		return fmt.Errorf("touch admin session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}

	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, sid string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(sid) == "" {
		return fmt.Errorf("admin session id is required")
	}

	if err := r.client.Del(ctx, adminSessionPrefix+sid).Err(); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}

	return nil
}
