package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ratelimit-gateway/middleware/ratelimit"

	"github.com/spf13/viper"
)

const (
	modeFixedWindow = "fixed-window"
	modeTokenBucket = "token-bucket"
)

type config struct {
	listenAddr  string
	upstreamURL string

	rateEnabled   bool
	rateMode      string
	rateLimit     int64
	rateWindow    time.Duration
	ratePrefix    string
	ratePolicy    ratelimit.FailurePolicy
	rateKeyHeader string
	trustXFF      bool
	retryAfter    time.Duration
	addHeaders    bool

	// token-bucket
	rateRPS   float64
	rateBurst int

	redisAddr     string
	redisPassword string
	redisDB       int
	redisTimeout  time.Duration

	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled   bool
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	logDebug  bool
	logFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("upstream_url", "")

	v.SetDefault("rate_enabled", true)
	v.SetDefault("rate_mode", modeFixedWindow)
	v.SetDefault("rate_limit", 5)
	v.SetDefault("rate_window", "60s")
	v.SetDefault("rate_prefix", "rate")
	v.SetDefault("rate_failure_policy", "closed")
	v.SetDefault("rate_key_header", "")
	v.SetDefault("trust_xff", false)
	v.SetDefault("retry_after", "1s")
	v.SetDefault("add_ratelimit_headers", false)
	v.SetDefault("rate_rps", 10)
	v.SetDefault("rate_burst", 20)

	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_timeout", "500ms")

	v.SetDefault("concurrency_max", 100)
	v.SetDefault("concurrency_timeout", "0s")

	v.SetDefault("rate_stats_enabled", false)
	v.SetDefault("rate_stats_prefix", "ratelimit:stats")
	v.SetDefault("rate_stats_ttl", "24h")
	v.SetDefault("rate_stats_bucket", "minute")
	v.SetDefault("rate_stats_track_keys", false)

	v.SetDefault("log_debug", false)
	v.SetDefault("log_format", "json")
}

// readConfig lê a configuração das variáveis de ambiente (ex: RATE_LIMIT, REDIS_ADDR).
func readConfig(v *viper.Viper) (config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	policy, err := ratelimit.ParseFailurePolicy(strings.ToLower(strings.TrimSpace(v.GetString("rate_failure_policy"))))
	if err != nil {
		return config{}, fmt.Errorf("RATE_FAILURE_POLICY: %w", err)
	}

	cfg := config{
		listenAddr:  v.GetString("listen_addr"),
		upstreamURL: strings.TrimSpace(v.GetString("upstream_url")),

		rateEnabled:   v.GetBool("rate_enabled"),
		rateMode:      strings.ToLower(strings.TrimSpace(v.GetString("rate_mode"))),
		rateLimit:     v.GetInt64("rate_limit"),
		rateWindow:    v.GetDuration("rate_window"),
		ratePrefix:    v.GetString("rate_prefix"),
		ratePolicy:    policy,
		rateKeyHeader: v.GetString("rate_key_header"),
		trustXFF:      v.GetBool("trust_xff"),
		retryAfter:    v.GetDuration("retry_after"),
		addHeaders:    v.GetBool("add_ratelimit_headers"),
		rateRPS:       v.GetFloat64("rate_rps"),
		rateBurst:     v.GetInt("rate_burst"),

		redisAddr:     strings.TrimSpace(v.GetString("redis_addr")),
		redisPassword: v.GetString("redis_password"),
		redisDB:       v.GetInt("redis_db"),
		redisTimeout:  v.GetDuration("redis_timeout"),

		concurrencyMax:     v.GetInt("concurrency_max"),
		concurrencyTimeout: v.GetDuration("concurrency_timeout"),

		rateStatsEnabled:   v.GetBool("rate_stats_enabled"),
		rateStatsPrefix:    v.GetString("rate_stats_prefix"),
		rateStatsTTL:       v.GetDuration("rate_stats_ttl"),
		rateStatsBucket:    v.GetString("rate_stats_bucket"),
		rateStatsTrackKeys: v.GetBool("rate_stats_track_keys"),

		logDebug:  v.GetBool("log_debug"),
		logFormat: strings.ToLower(v.GetString("log_format")),
	}

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	switch cfg.rateMode {
	case modeFixedWindow:
		if cfg.rateLimit <= 0 {
			return config{}, errors.New("RATE_LIMIT must be > 0")
		}
		if cfg.rateWindow < time.Second {
			return config{}, errors.New("RATE_WINDOW must be >= 1s")
		}
	case modeTokenBucket:
		if cfg.rateRPS <= 0 {
			return config{}, errors.New("RATE_RPS must be > 0")
		}
		if cfg.rateBurst <= 0 {
			return config{}, errors.New("RATE_BURST must be > 0")
		}
	default:
		return config{}, fmt.Errorf("RATE_MODE must be %q or %q, got %q", modeFixedWindow, modeTokenBucket, cfg.rateMode)
	}
	if cfg.needsRedis() && cfg.redisAddr == "" {
		return config{}, errors.New("REDIS_ADDR is required for fixed-window mode or RATE_STATS_ENABLED=true")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func (c config) needsRedis() bool {
	return (c.rateEnabled && c.rateMode == modeFixedWindow) || c.rateStatsEnabled
}
