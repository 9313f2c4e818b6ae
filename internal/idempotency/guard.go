package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/redis"
)

var (
	// ErrInFlight means another request holds the key and has not finished yet.
	ErrInFlight = errors.New("idempotency key is being processed")
)

type Config struct {
	// LockTTL bounds how long an unfinished request blocks its key.
	LockTTL time.Duration
	// DoneTTL is how long a completed key keeps resolving to its transaction.
	DoneTTL time.Duration

	LockKeyPrefix string
	DoneKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:       30 * time.Second,
		DoneTTL:       24 * time.Hour,
		LockKeyPrefix: "idem:lock:",
		DoneKeyPrefix: "idem:done:",
	}
}

// Record is what a completed key resolves to. Fingerprint identifies the
// row by content, since a deleted row's id can be handed out again.
type Record struct {
	TransactionID int64  `json:"transaction_id"`
	Fingerprint   string `json:"fingerprint"`
}

// Guard remembers which transaction a client-supplied submission key
// produced, so a retried submit returns the original record.
type Guard struct {
	redis  redis.RedisAdapter
	config Config
}

func NewGuard(adapter redis.RedisAdapter, config Config) *Guard {
	def := DefaultConfig()
	if config.LockTTL <= 0 {
		config.LockTTL = def.LockTTL
	}
	if config.DoneTTL <= 0 {
		config.DoneTTL = def.DoneTTL
	}
	if config.LockKeyPrefix == "" {
		config.LockKeyPrefix = def.LockKeyPrefix
	}
	if config.DoneKeyPrefix == "" {
		config.DoneKeyPrefix = def.DoneKeyPrefix
	}
	return &Guard{
		redis:  adapter,
		config: config,
	}
}

// Lookup returns the record stored for key, if any.
func (g *Guard) Lookup(ctx context.Context, key string) (Record, bool, error) {
	raw, err := g.redis.Get(ctx, g.config.DoneKeyPrefix+key)
	if errors.Is(err, redis.NilError) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.TransactionID <= 0 {
		return Record{}, false, fmt.Errorf("corrupt idempotency record %q", key)
	}
	return rec, true, nil
}

// Acquire takes the short-lived processing lock for key. ErrInFlight is
// returned when another caller already holds it.
func (g *Guard) Acquire(ctx context.Context, key string) error {
	value := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := g.redis.SetNX(ctx, g.config.LockKeyPrefix+key, value, g.config.LockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrInFlight
	}
	logger.Debug("idempotency lock acquired", "key", key, "lock_ttl", g.config.LockTTL)
	return nil
}

// Complete stores rec for key and drops the lock.
func (g *Guard) Complete(ctx context.Context, key string, rec Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	err = g.redis.Set(ctx, g.config.DoneKeyPrefix+key, value, g.config.DoneTTL)
	if err != nil {
		return fmt.Errorf("record idempotency key: %w", err)
	}
	return g.Release(ctx, key)
}

// Release drops the lock without recording anything, letting the key be retried.
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.redis.Del(ctx, g.config.LockKeyPrefix+key); err != nil {
		logger.Warn("failed to release idempotency lock", "key", key, "error", err)
		return err
	}
	return nil
}

// Forget removes a completed key whose transaction no longer exists.
func (g *Guard) Forget(ctx context.Context, key string) error {
	return g.redis.Del(ctx, g.config.DoneKeyPrefix+key)
}
