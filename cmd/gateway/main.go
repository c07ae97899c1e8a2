package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratelimit-gateway/internal/logger"
	"ratelimit-gateway/middleware/ratelimit"
	"ratelimit-gateway/middleware/ratelimit/application"
	"ratelimit-gateway/middleware/ratelimit/domain"
	"ratelimit-gateway/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	os.Exit(gatewayMain(viper.New()))
}

// gatewayMain devolve o exit code, assim Sync e os defers de run rodam antes do os.Exit.
func gatewayMain(v *viper.Viper) int {
	cfg, err := readConfig(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.logFormat, cfg.logDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Error("gateway_failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config, log *zap.Logger) error {
	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("proxy_error", zap.Error(err), zap.String("path", r.URL.Path))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rdb *redis.Client
	if cfg.needsRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancelPing()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	limiter, err := buildLimiter(ctx, cfg, rdb)
	if err != nil {
		return err
	}

	var statsStore domain.StatsStore
	if cfg.rateStatsEnabled {
		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.rateStatsPrefix),
			infra.WithStatsTTL(cfg.rateStatsTTL),
			infra.WithStatsBucket(cfg.rateStatsBucket),
			infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
		)
	}

	h := http.Handler(proxy)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         log,
	})(h)
	if cfg.rateEnabled {
		h = ratelimit.Middleware(ratelimit.Options{
			Limiter:             limiter,
			Stats:               statsStore,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			RetryAfter:          cfg.retryAfter,
			AddRateLimitHeaders: cfg.addHeaders,
			OnStoreError:        cfg.ratePolicy,
			Logger:              log,
		})(h)
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("gateway_listening",
		zap.String("addr", cfg.listenAddr),
		zap.Stringer("upstream", target),
	)
	log.Info("rate_config",
		zap.Bool("enabled", cfg.rateEnabled),
		zap.String("mode", cfg.rateMode),
		zap.Int64("limit", cfg.rateLimit),
		zap.Duration("window", cfg.rateWindow),
		zap.String("prefix", cfg.ratePrefix),
		zap.Stringer("failure_policy", cfg.ratePolicy),
		zap.String("key_header", cfg.rateKeyHeader),
		zap.Bool("trust_xff", cfg.trustXFF),
	)
	log.Info("concurrency_config",
		zap.Int("max", cfg.concurrencyMax),
		zap.Duration("acquire_timeout", cfg.concurrencyTimeout),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func buildLimiter(ctx context.Context, cfg config, rdb redis.Cmdable) (domain.Limiter, error) {
	if !cfg.rateEnabled {
		return nil, nil
	}
	if cfg.rateMode == modeTokenBucket {
		tb := infra.NewTokenBucket(cfg.rateRPS, cfg.rateBurst)
		tb.StartJanitor(ctx)
		return tb, nil
	}
	store := infra.NewRedisCounterStore(rdb, infra.WithOpTimeout(cfg.redisTimeout))
	fw, err := application.NewFixedWindow(store, cfg.rateLimit, cfg.rateWindow, cfg.ratePrefix)
	if err != nil {
		return nil, err
	}
	return fw, nil
}
