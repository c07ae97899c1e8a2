package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"ratelimit-gateway/middleware/ratelimit/application"
	"ratelimit-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// FailurePolicy define o que fazer com a request quando o store falha.
type FailurePolicy int

const (
	// FailClosed responde UnavailableStatus (padrão).
	FailClosed FailurePolicy = iota
	// FailOpen deixa a request passar.
	FailOpen
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", "closed", "fail-closed":
		return FailClosed, nil
	case "open", "fail-open":
		return FailOpen, nil
	}
	return FailClosed, errors.New("unknown failure policy: " + s)
}

func (p FailurePolicy) String() string {
	if p == FailOpen {
		return "open"
	}
	return "closed"
}

type Options struct {
	Limiter            domain.Limiter
	Stats              domain.StatsStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	RejectStatus       int
	// RetryAfter é usado quando o limiter não sabe quando a janela fecha.
	RetryAfter          time.Duration
	AddRateLimitHeaders bool

	OnStoreError      FailurePolicy
	UnavailableStatus int
	Logger            *zap.Logger
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.UnavailableStatus == 0 {
		opts.UnavailableStatus = http.StatusServiceUnavailable
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	svc := application.Service{
		Limiter:    opts.Limiter,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			dec, err := svc.Decide(r.Context(), key)
			if err != nil {
				log.Warn("rate_limit_store_error",
					zap.Error(err),
					zap.String("key", string(key)),
					zap.String("policy", opts.OnStoreError.String()),
				)
				allowed := opts.OnStoreError == FailOpen
				record(r, opts.Stats, log, domain.StatsEvent{Key: key, Allowed: allowed, Failed: true})
				if !allowed {
					http.Error(w, http.StatusText(opts.UnavailableStatus), opts.UnavailableStatus)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", string(key))
				if dec.Limit > 0 {
					w.Header().Set("X-RateLimit-Limit", formatInt64(dec.Limit))
					w.Header().Set("X-RateLimit-Remaining", formatInt64(dec.Remaining))
				}
				if dec.Reset > 0 {
					w.Header().Set("X-RateLimit-Reset", formatSeconds(dec.Reset))
				}
			}

			record(r, opts.Stats, log, domain.StatsEvent{Key: key, Allowed: dec.Allowed, Count: dec.Count})

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// record é best-effort: erro de estatística não derruba a request.
func record(r *http.Request, stats domain.StatsStore, log *zap.Logger, ev domain.StatsEvent) {
	if stats == nil {
		return
	}
	ev.Method = r.Method
	ev.Path = r.URL.Path
	ev.At = time.Now()
	if err := stats.Record(r.Context(), ev); err != nil {
		log.Debug("rate_limit_stats_error", zap.Error(err))
	}
}
