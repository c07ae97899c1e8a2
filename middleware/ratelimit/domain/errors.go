package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable indica falha de conexão/timeout com o store externo.
	// Quem integra decide se falha aberto ou fechado.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
	ErrEmptyIdentity    = errors.New("empty identity")
	// ErrNoSlot indica que nenhuma vaga de concorrência foi obtida a tempo.
	ErrNoSlot = errors.New("no concurrency slot available")
)

// StoreError descreve a operação do store que falhou.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Unavailable embrulha err como ErrStoreUnavailable, preservando a causa.
func Unavailable(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}
