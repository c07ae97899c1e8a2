package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o chamador (ex: IP, API key, usuário).
type Key string

// AdmitResult é o resultado de uma tentativa de admissão.
type AdmitResult struct {
	Allowed bool
	// Count é o valor do contador depois do incremento.
	Count int64
	Limit int64
	// Remaining nunca é negativo.
	Remaining int64
	// ResetAfter é conhecido quando a janela acabou de abrir (Count == 1) e
	// quando a requisição é rejeitada. Se 0, o tempo restante não é conhecido.
	ResetAfter time.Duration
}

// Limiter decide se uma requisição da chave pode ser admitida agora.
//
// A implementação pode ser fixed-window (contador no Redis), token-bucket, etc.
// Erros de infraestrutura devem ser devolvidos, nunca convertidos em allow/deny.
type Limiter interface {
	Admit(ctx context.Context, key Key) (AdmitResult, error)
}

type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	// Remaining é o saldo de requisições na janela atual.
	Remaining int64
	// Reset é o tempo até a janela fechar, quando conhecido.
	Reset time.Duration
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
