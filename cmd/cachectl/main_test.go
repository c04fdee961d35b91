package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/typedcache"
	"github.com/unkn0wn-root/typedcache/store/memory"
)

func setupCLI(t *testing.T) *memory.Store {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CACHECTL_LOG_LEVEL", "error")

	m := memory.New()
	storeOverride = m
	t.Cleanup(func() {
		storeOverride = nil
		_ = m.Close(context.Background())
	})
	return m
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestSetGetDel(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "set", "user:1", `{"id":1,"name":"Ada"}`)
	require.NoError(t, err)
	assert.Equal(t, `"OK"`, out)

	out, err = execute(t, "get", "user:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Ada"}`, out)

	out, err = execute(t, "del", "user:1", "user:2")
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = execute(t, "get", "user:1")
	assert.ErrorIs(t, err, errNotFound)
}

func TestSetRejectsInvalidJSON(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "set", "k", "{oops")
	assert.ErrorContains(t, err, "value must be JSON")
}

func TestSetPolicyNoops(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "set", "k", "null", "--not-nullable")
	assert.ErrorIs(t, err, errNotWritten)

	_, err = execute(t, "set", "k", "1", "--ttl=-1s")
	assert.ErrorIs(t, err, errNotWritten)

	_, err = execute(t, "set", "k", "1", "--ttl", "0s")
	assert.ErrorIs(t, err, errNotWritten)

	out, err := execute(t, "ttl", "k")
	require.NoError(t, err)
	assert.Equal(t, "-2", out)

	_, err = execute(t, "get", "k")
	assert.ErrorIs(t, err, errNotFound)
}

func TestTTLAndExpire(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "ttl", "missing")
	require.NoError(t, err)
	assert.Equal(t, "-2", out)

	_, err = execute(t, "set", "k", `"v"`)
	require.NoError(t, err)
	out, err = execute(t, "ttl", "k")
	require.NoError(t, err)
	assert.Equal(t, "-1", out)

	out, err = execute(t, "expire", "k", "1m")
	require.NoError(t, err)
	assert.Equal(t, "true", out)
	out, err = execute(t, "ttl", "k")
	require.NoError(t, err)
	assert.Equal(t, "60", out)

	_, err = execute(t, "set", "t", `"v"`, "--ttl", "30s")
	require.NoError(t, err)
	out, err = execute(t, "ttl", "t")
	require.NoError(t, err)
	assert.Equal(t, "30", out)
}

func TestScan(t *testing.T) {
	setupCLI(t)
	for _, k := range []string{"user:1", "user:2", "order:1"} {
		_, err := execute(t, "set", k, "true")
		require.NoError(t, err)
	}

	out, err := execute(t, "scan", "user:*")
	require.NoError(t, err)
	assert.JSONEq(t, `["user:1","user:2"]`, out)

	out, err = execute(t, "scan", "nothing:*")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestHashCommands(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "hset", "users", "a", `{"id":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, "1", out)

	_, err = execute(t, "hmset", "users", "b", `{"id":"b"}`, "c", `{"id":"c"}`)
	require.NoError(t, err)

	_, err = execute(t, "hmset", "users", "--key-field", "id", `[{"id":"d","n":4},{"id":"e","n":5}]`)
	require.NoError(t, err)

	out, err = execute(t, "hget", "users", "d")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d","n":4}`, out)

	out, err = execute(t, "hmget", "users", "a", "zz")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field":"a","found":true,"value":{"id":"a"}},{"field":"zz","found":false}]`, out)

	out, err = execute(t, "hgetall", "users")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"a":{"id":"a"},"b":{"id":"b"},"c":{"id":"c"},
		"d":{"id":"d","n":4},"e":{"id":"e","n":5}
	}`, out)

	out, err = execute(t, "hdel", "users", "a", "b", "zz")
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	_, err = execute(t, "hmset", "users", "x")
	assert.ErrorIs(t, err, typedcache.ErrOddFieldValues)

	_, err = execute(t, "hmset", "users", "--key-field", "nope", `[{"id":"f"}]`)
	assert.ErrorIs(t, err, typedcache.ErrMissingKeyField)
}

func TestHashWriteToScalarFails(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "set", "plain", "1")
	require.NoError(t, err)

	_, err = execute(t, "hset", "plain", "f", "1")
	var opErr *typedcache.OpError
	require.ErrorAs(t, err, &opErr)
	assert.ErrorIs(t, err, memory.ErrWrongType)
}

func TestSetOptions(t *testing.T) {
	assert.Empty(t, setOptions(0, false, false))
	assert.Len(t, setOptions(0, true, false), 1)
	assert.Len(t, setOptions(time.Minute, true, true), 2)
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, int64(-1), ttlSeconds(typedcache.NoExpiry))
	assert.Equal(t, int64(-2), ttlSeconds(typedcache.KeyNotFound))
	assert.Equal(t, int64(90), ttlSeconds(90*time.Second))
	assert.Equal(t, int64(2), ttlSeconds(1500*time.Millisecond))
}
