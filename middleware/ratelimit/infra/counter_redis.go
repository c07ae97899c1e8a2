package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implementa domain.CounterStore com INCR/EXPIRE do Redis.
//
// Aceita redis.Cmdable, então funciona com *redis.Client, *redis.ClusterClient
// ou *redis.Ring. Erros (exceto redis.Nil) viram domain.ErrStoreUnavailable.
type RedisCounterStore struct {
	rdb redis.Cmdable
	// timeout por operação; 0 usa apenas o ctx do chamador.
	timeout time.Duration
}

type RedisCounterOption func(*RedisCounterStore)

func WithOpTimeout(d time.Duration) RedisCounterOption {
	return func(s *RedisCounterStore) { s.timeout = d }
}

func NewRedisCounterStore(rdb redis.Cmdable, opts ...RedisCounterOption) *RedisCounterStore {
	s := &RedisCounterStore{rdb: rdb}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisCounterStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, domain.Unavailable("incr", key, err)
	}
	return n, nil
}

// Expire usa PEXPIRE: EXPIRE truncaria janelas como 1500ms para segundos inteiros.
func (s *RedisCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ok, err := s.rdb.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return false, domain.Unavailable("expire", key, err)
	}
	return ok, nil
}

func (s *RedisCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, domain.Unavailable("get", key, err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("counter %q is not an integer: %w", key, err)
	}
	return n, true, nil
}

func (s *RedisCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	d, err := s.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, domain.Unavailable("ttl", key, err)
	}
	return d, nil
}

func (s *RedisCounterStore) Del(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	n, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, domain.Unavailable("del", key, err)
	}
	return n > 0, nil
}
