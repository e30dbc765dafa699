package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// luaReleaseIfMatch deletes the lock only when it still holds our token, so
// a slow save cannot release a lock a later save has since acquired.
const luaReleaseIfMatch = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// OrderLock is a best-effort per-order save lock. The TTL bounds how long a
// crashed save can block others; it does not provide mutual exclusion and
// the reconciliation engine stays correct without it.
type OrderLock struct {
	client *rd.Client
	ttl    time.Duration
}

func NewOrderLock(client *rd.Client, ttl time.Duration) *OrderLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &OrderLock{client: client, ttl: ttl}
}

func lockKey(orderID uuid.UUID) string {
	return fmt.Sprintf("procurement:order_lock:%s", orderID)
}

func (l *OrderLock) TryAcquire(ctx context.Context, orderID uuid.UUID) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(orderID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("cannot acquire order lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *OrderLock) Release(ctx context.Context, orderID uuid.UUID, token string) error {
	_, err := l.client.Eval(ctx, luaReleaseIfMatch, []string{lockKey(orderID)}, token).Int()
	if err != nil {
		return fmt.Errorf("cannot release order lock: %w", err)
	}
	return nil
}

func (l *OrderLock) IsHeld(ctx context.Context, orderID uuid.UUID) (bool, error) {
	n, err := l.client.Exists(ctx, lockKey(orderID)).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check order lock: %w", err)
	}
	return n > 0, nil
}
