package domain

import "context"

// SlotPool representa um recurso com capacidade finita (ex: conexões concorrentes).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar; nesse caso
// retorna o erro do ctx. A função de release deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), err error)
}
