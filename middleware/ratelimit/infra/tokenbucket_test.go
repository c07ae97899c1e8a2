package infra

import (
	"context"
	"testing"
	"time"

	"ratelimit-gateway/middleware/ratelimit/domain"
)

func TestTokenBucket_LowBurstRejectsSecondImmediateAdmit(t *testing.T) {
	s := NewTokenBucket(0.02, 1)
	ctx := context.Background()

	res, err := s.Admit(ctx, domain.Key("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.Count != 1 || res.Remaining != 0 {
		t.Fatalf("expected first admit allowed with count=1, got %+v", res)
	}

	res, err = s.Admit(ctx, domain.Key("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed {
		t.Fatalf("expected second immediate admit to be rejected (burst=1)")
	}
	if res.ResetAfter <= 0 {
		t.Fatalf("expected ResetAfter > 0 when rejected, got %s", res.ResetAfter)
	}
}

func TestTokenBucket_KeysAreIndependent(t *testing.T) {
	s := NewTokenBucket(0.02, 1)
	ctx := context.Background()

	for _, k := range []domain.Key{"a", "b"} {
		res, err := s.Admit(ctx, k)
		if err != nil || !res.Allowed {
			t.Fatalf("expected %q to be allowed, got %+v err=%v", k, res, err)
		}
	}
}

func TestTokenBucket_CleanupRemovesIdleEntries(t *testing.T) {
	s := NewTokenBucket(10, 1, WithIdleTTL(2*time.Millisecond), WithCleanupEvery(0))

	if _, err := s.Admit(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(4 * time.Millisecond)

	s.Cleanup()

	if s.Len() != 0 {
		t.Fatalf("expected idle limiter to be removed, got %d entries", s.Len())
	}
}

func TestTokenBucket_EmptyKey(t *testing.T) {
	s := NewTokenBucket(10, 1)
	if _, err := s.Admit(context.Background(), ""); err != domain.ErrEmptyIdentity {
		t.Fatalf("expected ErrEmptyIdentity, got %v", err)
	}
}
