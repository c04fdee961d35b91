package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/typedcache"
)

type entry struct {
	msg string
	f   typedcache.Fields
}

type memLogger struct {
	typedcache.NopLogger
	errs  []entry
	warns []entry
}

func (m *memLogger) Error(msg string, f typedcache.Fields) { m.errs = append(m.errs, entry{msg, f}) }
func (m *memLogger) Warn(msg string, f typedcache.Fields)  { m.warns = append(m.warns, entry{msg, f}) }

func TestRedactsKeyFields(t *testing.T) {
	inner := &memLogger{}
	l := New(inner, Options{})

	in := typedcache.Fields{
		"key":    "session:alice@example.com",
		"keys":   []string{"a", "b"},
		"hash":   "users",
		"field":  "alice",
		"fields": []string{"alice", "bob"},
		"err":    "boom",
	}
	l.Error("cache get failed", in)

	require.Len(t, inner.errs, 1)
	got := inner.errs[0].f
	assert.Len(t, got["key"], 16)
	assert.NotContains(t, got["key"], "alice")
	assert.Len(t, got["keys"], 2)
	assert.NotEqual(t, "users", got["hash"])
	assert.NotEqual(t, "alice", got["field"])
	assert.Len(t, got["field"], 16)
	assert.NotContains(t, got["fields"], "alice")
	assert.Len(t, got["fields"], 2)
	assert.Equal(t, "boom", got["err"])

	// caller's map is not modified
	assert.Equal(t, "session:alice@example.com", in["key"])
}

func TestRedactIsStable(t *testing.T) {
	inner := &memLogger{}
	l := New(inner, Options{})
	l.Error("a", typedcache.Fields{"key": "k1"})
	l.Error("b", typedcache.Fields{"key": "k1"})
	assert.Equal(t, inner.errs[0].f["key"], inner.errs[1].f["key"])
}

func TestCustomRedactorAndFields(t *testing.T) {
	inner := &memLogger{}
	l := New(inner, Options{
		Fields: []string{"field"},
		Redact: func(s string) string { return strings.Repeat("*", len(s)) },
	})
	l.Warn("w", typedcache.Fields{"key": "visible", "field": "secret"})

	require.Len(t, inner.warns, 1)
	assert.Equal(t, "visible", inner.warns[0].f["key"])
	assert.Equal(t, "******", inner.warns[0].f["field"])
}

func TestSampling(t *testing.T) {
	inner := &memLogger{}
	l := New(inner, Options{ErrorEvery: 3})
	for i := 0; i < 9; i++ {
		l.Error("e", nil)
		l.Warn("w", nil)
	}
	assert.Len(t, inner.errs, 3)
	assert.Len(t, inner.warns, 9)
}
