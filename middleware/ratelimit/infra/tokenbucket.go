package infra

import (
	"context"
	"sync"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// TokenBucket é um domain.Limiter local baseado em token-bucket (x/time/rate),
// com cache por chave e limpeza periódica.
//
// Só vale para uma instância: o estado não é compartilhado entre processos.
// Count é o número de tokens em uso depois da decisão (burst - tokens livres).
type TokenBucket struct {
	mu           sync.Mutex
	entries      map[string]*bucketEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type TokenBucketOption func(*TokenBucket)

func WithIdleTTL(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) TokenBucketOption {
	return func(s *TokenBucket) { s.cleanupEvery = d }
}

func NewTokenBucket(rps float64, burst int, opts ...TokenBucketOption) *TokenBucket {
	s := &TokenBucket{
		entries:      make(map[string]*bucketEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenBucket) RPS() float64 { return float64(s.rps) }
func (s *TokenBucket) Burst() int   { return s.burst }

// Admit implementa domain.Limiter.
func (s *TokenBucket) Admit(ctx context.Context, key domain.Key) (domain.AdmitResult, error) {
	if key == "" {
		return domain.AdmitResult{}, domain.ErrEmptyIdentity
	}
	if err := ctx.Err(); err != nil {
		return domain.AdmitResult{}, err
	}

	now := time.Now()
	lim := s.limiter(string(key), now)
	r := lim.ReserveN(now, 1)

	res := domain.AdmitResult{Limit: int64(s.burst)}
	if !r.OK() || r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		res.Count = int64(s.burst) + 1
		if r.OK() {
			res.ResetAfter = r.DelayFrom(now)
		}
		return res, nil
	}

	free := int64(lim.TokensAt(now))
	res.Allowed = true
	res.Remaining = max(0, free)
	res.Count = int64(s.burst) - res.Remaining
	return res, nil
}

func (s *TokenBucket) limiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *TokenBucket) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

func (s *TokenBucket) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *TokenBucket) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
