package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"
)

// FixedWindow é o rate limiter de janela fixa sobre um contador atômico com TTL.
//
// A janela começa no primeiro request (INCR 0->1, que também aplica o EXPIRE) e
// termina quando o store remove a chave. Incrementos seguintes nunca mexem no
// TTL; se mexessem, a janela nunca fecharia.
//
// Não guarda estado nem locks: pode ser chamado concorrentemente.
type FixedWindow struct {
	Store  domain.CounterStore
	Limit  int64
	Window time.Duration
	// Prefix é o namespace das chaves (padrão "rate").
	Prefix string
}

func NewFixedWindow(store domain.CounterStore, limit int64, window time.Duration, prefix string) (*FixedWindow, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be > 0, got %s", window)
	}
	return &FixedWindow{Store: store, Limit: limit, Window: window, Prefix: prefix}, nil
}

func (f *FixedWindow) key(identity domain.Key) string {
	return domain.RateKey(f.Prefix, identity)
}

// Admit implementa domain.Limiter.
//
// Falhas do store voltam como domain.ErrStoreUnavailable, sem retry.
func (f *FixedWindow) Admit(ctx context.Context, identity domain.Key) (domain.AdmitResult, error) {
	if identity == "" {
		return domain.AdmitResult{}, domain.ErrEmptyIdentity
	}
	key := f.key(identity)

	count, err := f.Store.Incr(ctx, key)
	if err != nil {
		return domain.AdmitResult{}, err
	}

	res := domain.AdmitResult{
		Allowed:   count <= f.Limit,
		Count:     count,
		Limit:     f.Limit,
		Remaining: max(0, f.Limit-count),
	}

	// só quem observou a transição 0->1 define o TTL.
	if count == 1 {
		if _, err := f.Store.Expire(ctx, key, f.Window); err != nil {
			return res, err
		}
		res.ResetAfter = f.Window
	}

	// rejeição: um TTL a mais para o Retry-After. A decisão já está tomada,
	// então falha aqui só deixa ResetAfter em 0.
	if !res.Allowed {
		if ttl, err := f.Store.TTL(ctx, key); err == nil && ttl > 0 {
			res.ResetAfter = ttl
		}
	}
	return res, nil
}

// Status lê o contador e o TTL da janela atual sem incrementar.
func (f *FixedWindow) Status(ctx context.Context, identity domain.Key) (domain.WindowStatus, error) {
	if identity == "" {
		return domain.WindowStatus{}, domain.ErrEmptyIdentity
	}
	key := f.key(identity)

	count, _, err := f.Store.Get(ctx, key)
	if err != nil {
		return domain.WindowStatus{}, err
	}
	ttl, err := f.Store.TTL(ctx, key)
	if err != nil {
		return domain.WindowStatus{}, err
	}
	return domain.WindowStatus{
		Key:     key,
		Count:   count,
		Limit:   f.Limit,
		TTL:     ttl,
		Limited: count >= f.Limit,
	}, nil
}

// Reset apaga o contador da identidade, abrindo uma nova janela no próximo request.
func (f *FixedWindow) Reset(ctx context.Context, identity domain.Key) (bool, error) {
	if identity == "" {
		return false, domain.ErrEmptyIdentity
	}
	return f.Store.Del(ctx, f.key(identity))
}
