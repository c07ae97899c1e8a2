// Package application contém os casos de uso (regras de aplicação) para rate limit
// e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: FixedWindow.Admit(ctx, key) incrementa o contador da janela e
// Service.Decide(ctx, key) traduz o resultado em uma Decision (allow/deny + retry-after).
package application
