// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisCounterStore: contadores de janela com INCR/EXPIRE (go-redis)
//   - MemoryCounterStore: o mesmo contrato em memória, para testes e dev
//   - TokenBucket: limiter local por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - RedisStatsStore / MemoryStatsStore: estatísticas das decisões
package infra
