package application

import (
	"context"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Erros do limiter são devolvidos como estão: a política (fail-open/fail-closed)
// é de quem chama.
type Service struct {
	Limiter domain.Limiter
	// RetryAfter é usado quando o limiter não sabe quando a janela fecha.
	RetryAfter time.Duration
}

func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Limiter == nil {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	res, err := s.Limiter.Admit(ctx, key)
	if err != nil {
		return domain.Decision{}, err
	}

	dec := domain.Decision{
		Allowed:   res.Allowed,
		Count:     res.Count,
		Limit:     res.Limit,
		Remaining: res.Remaining,
		Reset:     res.ResetAfter,
	}
	if !res.Allowed {
		dec.RetryAfter = s.RetryAfter
		if res.ResetAfter > 0 {
			dec.RetryAfter = res.ResetAfter
		}
	}
	return dec, nil
}
