package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, mr *miniredis.Miniredis, args ...string) (string, error) {
	t.Helper()
	return runAt(t, mr.Addr(), args...)
}

func runAt(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(viper.New())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--redis-addr", addr, "--limit", "2", "--window", "10s"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestAdmit_CountsAndDenies(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := run(t, mr, "admit", "192.168.1.10")
	require.NoError(t, err)
	require.Contains(t, out, "allowed=true count=1 limit=2 remaining=1")
	require.Contains(t, out, "new window, expires in 10s")
	require.Equal(t, 10*time.Second, mr.TTL("rate:192.168.1.10"))

	_, err = run(t, mr, "admit", "192.168.1.10")
	require.NoError(t, err)

	out, err = run(t, mr, "admit", "192.168.1.10")
	require.NoError(t, err)
	require.Contains(t, out, "allowed=false count=3")
	require.Contains(t, out, "window resets in 10s")
}

func TestStatusAndReset(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := run(t, mr, "status", "a")
	require.NoError(t, err)
	require.Contains(t, out, "count=0")
	require.Contains(t, out, "ttl=none")

	_, err = run(t, mr, "admit", "a")
	require.NoError(t, err)
	_, err = run(t, mr, "admit", "a")
	require.NoError(t, err)

	out, err = run(t, mr, "--json", "status", "a")
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	require.Equal(t, "rate:a", st["key"])
	require.EqualValues(t, 2, st["count"])
	require.Equal(t, true, st["limited"])
	require.Equal(t, "10s", st["ttl"])

	out, err = run(t, mr, "reset", "a")
	require.NoError(t, err)
	require.Equal(t, "reset a\n", out)
	require.False(t, mr.Exists("rate:a"))

	out, err = run(t, mr, "reset", "a")
	require.NoError(t, err)
	require.Equal(t, "no window for a\n", out)
}

func TestAdmit_RedisDown(t *testing.T) {
	// porta 1 não tem Redis escutando
	_, err := runAt(t, "127.0.0.1:1", "--timeout", "200ms", "admit", "a")
	require.Error(t, err)
	require.ErrorContains(t, err, "connect to redis")
}
