package webhooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger remembers deliveries that were processed so redeliveries are
// acknowledged without touching state.
type Ledger interface {
	// Claim reports false when key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a retry of a failed delivery runs again.
	Release(ctx context.Context, key string) error
}

// RedisLedger shares claims between replicas.
type RedisLedger struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{redis: client, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.redis.SetNX(ctx, ledgerKey(key), time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook delivery: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, ledgerKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release webhook delivery: %w", err)
	}
	return nil
}

func ledgerKey(key string) string {
	return fmt.Sprintf("webhook:delivery:%s", key)
}

// MemoryLedger is a process-local ledger for single-instance deployments.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (l *MemoryLedger) Claim(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if at, ok := l.seen[key]; ok && (l.ttl <= 0 || now.Sub(at) < l.ttl) {
		return false, nil
	}
	l.seen[key] = now
	l.prune(now)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, key)
	return nil
}

// prune drops expired claims. Caller holds mu.
func (l *MemoryLedger) prune(now time.Time) {
	if l.ttl <= 0 {
		return
	}
	for k, at := range l.seen {
		if now.Sub(at) >= l.ttl {
			delete(l.seen, k)
		}
	}
}
