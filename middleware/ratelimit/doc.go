// Package ratelimit fornece adapters HTTP (net/http) para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (janela fixa, decisão allow/deny, acquire/timeout)
//   - infra: implementações concretas (Redis, memória, token bucket, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (IP/header/XFF)
//  2. Chama a camada application, que faz INCR (+EXPIRE na primeira request da janela)
//  3. Se bloqueado, responde 429 (rate limit) ou 503 (concorrência)
//  4. Se o store falhar, aplica a FailurePolicy (503 por padrão, ou deixa passar)
//  5. Se permitido, chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como RATE_LIMIT, RATE_WINDOW, REDIS_ADDR, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package ratelimit
