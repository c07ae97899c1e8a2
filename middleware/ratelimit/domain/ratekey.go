package domain

import "strings"

const DefaultKeyPrefix = "rate"

// RateKey monta a chave do contador: "<prefix>:<identity>".
//
// O prefixo pode carregar o endpoint (ex: "rate:api"), gerando uma chave por
// par (identidade, endpoint).
func RateKey(prefix string, identity Key) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + ":" + string(identity)
}
