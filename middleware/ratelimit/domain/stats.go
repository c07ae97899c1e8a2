package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do rate limit.
//
// Method/Path são strings genéricas (web, gRPC, CLI...).
//
// Observação: cuidado com cardinalidade ao salvar Key/Path.
type StatsEvent struct {
	Key     Key
	Allowed bool
	// Failed marca decisões em que o store falhou (Allowed reflete a política).
	Failed bool
	Count  int64

	Method string
	Path   string

	At time.Time
}

// StatsStore persiste estatísticas do rate limit.
// O middleware trata erro como best-effort (não derruba a request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
