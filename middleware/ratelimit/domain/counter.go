package domain

import (
	"context"
	"time"
)

// CounterStore é o key-value store externo que guarda os contadores das janelas.
//
// Incr precisa ser atômico (ler+escrever em um passo só), criando a chave com 1
// quando ela não existe. Toda a sincronização entre requisições concorrentes é
// delegada a ele.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	// Expire define o TTL da chave. Retorna false se a chave não existe mais.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get retorna (0, false, nil) quando a chave não existe.
	Get(ctx context.Context, key string) (int64, bool, error)
	// TTL retorna o tempo restante; negativo quando a chave não existe ou não expira
	// (mesma convenção do Redis: -2 ausente, -1 sem expiração).
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, key string) (bool, error)
}

// WindowStatus é uma leitura (sem efeito colateral) da janela de uma chave.
type WindowStatus struct {
	Key   string
	Count int64
	Limit int64
	TTL   time.Duration
	// Limited indica que o próximo Admit da janela seria rejeitado.
	Limited bool
}
