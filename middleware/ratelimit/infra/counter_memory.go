package infra

import (
	"context"
	"sync"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"
)

// MemoryCounterStore é um CounterStore em memória com semântica de expiração
// igual à do Redis (INCR cria com 1, chave expirada conta como ausente).
//
// Serve como fake em testes e para rodar um único processo sem Redis. Não é
// compartilhado entre instâncias.
type MemoryCounterStore struct {
	mu           sync.Mutex
	entries      map[string]*counterEntry
	now          func() time.Time
	cleanupEvery time.Duration
}

type counterEntry struct {
	value int64
	// zero = sem expiração
	expiresAt time.Time
}

type MemoryCounterOption func(*MemoryCounterStore)

// WithClock troca o relógio (útil para simular o fim da janela em testes).
func WithClock(now func() time.Time) MemoryCounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func WithCounterCleanupEvery(d time.Duration) MemoryCounterOption {
	return func(s *MemoryCounterStore) { s.cleanupEvery = d }
}

func NewMemoryCounterStore(opts ...MemoryCounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries:      make(map[string]*counterEntry),
		now:          time.Now,
		cleanupEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lookup precisa ser chamado com mu travado.
func (s *MemoryCounterStore) lookup(key string, now time.Time) (*counterEntry, bool) {
	ent, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return ent, true
}

func (s *MemoryCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Unavailable("incr", key, err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookup(key, now)
	if !ok {
		ent = &counterEntry{}
		s.entries[key] = ent
	}
	ent.value++
	return ent.value, nil
}

func (s *MemoryCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.Unavailable("expire", key, err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookup(key, now)
	if !ok {
		return false, nil
	}
	if ttl <= 0 {
		delete(s.entries, key)
		return true, nil
	}
	ent.expiresAt = now.Add(ttl)
	return true, nil
}

func (s *MemoryCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, domain.Unavailable("get", key, err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookup(key, now)
	if !ok {
		return 0, false, nil
	}
	return ent.value, true, nil
}

func (s *MemoryCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, domain.Unavailable("ttl", key, err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.lookup(key, now)
	switch {
	case !ok:
		return -2, nil
	case ent.expiresAt.IsZero():
		return -1, nil
	}
	return ent.expiresAt.Sub(now), nil
}

func (s *MemoryCounterStore) Del(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.Unavailable("del", key, err)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key, now); !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Len retorna quantas chaves (expiradas ou não) ainda estão no mapa.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove as chaves já expiradas.
func (s *MemoryCounterStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves expiradas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryCounterStore) StartJanitor(ctx DoneContext) {
	startJanitor(ctx, s.cleanupEvery, s.Cleanup)
}
