package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ratelimit-gateway/middleware/ratelimit/application"
	"ratelimit-gateway/middleware/ratelimit/domain"
	"ratelimit-gateway/middleware/ratelimit/infra"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type downLimiter struct{}

func (downLimiter) Admit(context.Context, domain.Key) (domain.AdmitResult, error) {
	return domain.AdmitResult{}, domain.Unavailable("incr", "rate:x", errors.New("connection refused"))
}

func fixedWindow(t *testing.T, limit int64, window time.Duration) *application.FixedWindow {
	t.Helper()
	fw, err := application.NewFixedWindow(infra.NewMemoryCounterStore(), limit, window, "rate:test")
	require.NoError(t, err)
	return fw
}

func serve(h http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/showTela", nil)
	r.RemoteAddr = remoteAddr
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsLimitThenRejects(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Middleware(Options{
		Limiter:             fixedWindow(t, 5, 10*time.Second),
		AddRateLimitHeaders: true,
	})(next)

	for i := 1; i <= 5; i++ {
		w := serve(h, "192.168.1.10:1234", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		require.Equal(t, "192.168.1.10", w.Header().Get("X-RateLimit-Key"))
		require.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, formatInt64(int64(5-i)), w.Header().Get("X-RateLimit-Remaining"))
		if i == 1 {
			require.Equal(t, "10", w.Header().Get("X-RateLimit-Reset"))
		} else {
			require.Empty(t, w.Header().Get("X-RateLimit-Reset"))
		}
	}

	w := serve(h, "192.168.1.10:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	// rejeição devolve o TTL restante da janela (10s, menos o tempo do teste).
	require.Contains(t, []string{"9", "10"}, w.Header().Get("Retry-After"))
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, 5, calls)
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Limiter:   fixedWindow(t, 1, time.Minute),
		KeyHeader: "X-Api-Key",
	})(next)

	// chaves diferentes => contadores diferentes, mesmo vindo do mesmo IP
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k1"}).Code)
	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k2"}).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k1"}).Code)
}

// unknownResetLimiter rejeita sem saber quando a janela fecha.
type unknownResetLimiter struct{}

func (unknownResetLimiter) Admit(context.Context, domain.Key) (domain.AdmitResult, error) {
	return domain.AdmitResult{Allowed: false, Count: 2, Limit: 1}, nil
}

func TestMiddleware_RetryAfterUsesSeconds(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Limiter:    unknownResetLimiter{},
		RetryAfter: 2500 * time.Millisecond,
	})(next)

	w := serve(h, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	// int(2.5s) == 2
	require.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestMiddleware_StoreErrorFailClosed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	stats := infra.NewMemoryStatsStore()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	h := Middleware(Options{
		Limiter: downLimiter{},
		Stats:   stats,
		Logger:  zap.New(core),
	})(next)

	w := serve(h, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.False(t, called)
	require.Equal(t, 1, logs.FilterMessage("rate_limit_store_error").Len())
	require.Equal(t, infra.Counters{Failed: 1}, stats.Total())
}

func TestMiddleware_StoreErrorFailOpen(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(Options{
		Limiter:      downLimiter{},
		OnStoreError: FailOpen,
	})(next)

	w := serve(h, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, called)
}

func TestMiddleware_RecordsStats(t *testing.T) {
	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	h := Middleware(Options{
		Limiter: fixedWindow(t, 1, time.Minute),
		Stats:   stats,
	})(next)

	serve(h, "10.0.0.1:1234", nil)
	serve(h, "10.0.0.1:1234", nil)

	require.Equal(t, infra.Counters{Allowed: 1, Denied: 1}, stats.Total())
	require.Equal(t, infra.Counters{Allowed: 1, Denied: 1}, stats.ByRoute()["GET /showTela"])
	require.Equal(t, infra.Counters{Allowed: 1, Denied: 1}, stats.ByKey()["10.0.0.1"])
}

func TestMiddleware_TokenBucketLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	h := Middleware(Options{Limiter: infra.NewTokenBucket(0.02, 1)})(next)

	require.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1234", nil).Code)
	w := serve(h, "10.0.0.1:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("open")
	require.NoError(t, err)
	require.Equal(t, FailOpen, p)

	p, err = ParseFailurePolicy("")
	require.NoError(t, err)
	require.Equal(t, FailClosed, p)

	_, err = ParseFailurePolicy("sometimes")
	require.Error(t, err)
}
