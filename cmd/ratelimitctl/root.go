package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"ratelimit-gateway/middleware/ratelimit/application"
	"ratelimit-gateway/middleware/ratelimit/infra"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "RATELIMIT"

// newRootCmd monta a CLI. Flags podem vir do ambiente: --redis-addr = RATELIMIT_REDIS_ADDR.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "ratelimitctl",
		Short:         "Inspect and exercise fixed-window rate limit counters in Redis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("redis-addr", "127.0.0.1:6379", "Redis address")
	pf.String("redis-password", "", "Redis password")
	pf.Int("redis-db", 0, "Redis database")
	pf.Duration("timeout", 2*time.Second, "timeout for each Redis call")
	pf.String("prefix", "rate", "rate key prefix (namespace)")
	pf.Int64("limit", 5, "requests admitted per window")
	pf.Duration("window", 60*time.Second, "window length")
	pf.Bool("json", false, "print JSON instead of text")

	_ = v.BindPFlags(pf)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(newAdmitCmd(v), newStatusCmd(v), newResetCmd(v))
	return root
}

// openLimiter conecta no Redis e devolve o limiter; o close fecha o client.
func openLimiter(ctx context.Context, v *viper.Viper) (*application.FixedWindow, func() error, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     v.GetString("redis-addr"),
		Password: v.GetString("redis-password"),
		DB:       v.GetInt("redis-db"),
	})

	timeout := v.GetDuration("timeout")
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", v.GetString("redis-addr"), err)
	}

	store := infra.NewRedisCounterStore(rdb, infra.WithOpTimeout(timeout))
	fw, err := application.NewFixedWindow(store, v.GetInt64("limit"), v.GetDuration("window"), v.GetString("prefix"))
	if err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	return fw, rdb.Close, nil
}

func writeJSON(w io.Writer, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
