package infra

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChanPool_BlocksWhenFull(t *testing.T) {
	p := NewChanPool(1)

	release, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected first slot, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	release()
	release2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
	release2()
}
