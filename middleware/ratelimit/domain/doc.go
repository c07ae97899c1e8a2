// Package domain define contratos e tipos de domínio para rate limit e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas: o store
// de contadores (Redis, memória) entra como CounterStore, permitindo testes de
// unidade com um fake em memória.
package domain
