package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/typedcache"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base, "typedcache")

	l.Debug("d", nil)
	l.Error("cache get failed", typedcache.Fields{"key": "u:1", "err": "timeout"})

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.DebugLevel, hook.Entries[0].Level)

	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "cache get failed", last.Message)
	assert.Equal(t, "u:1", last.Data["key"])
	assert.Equal(t, "timeout", last.Data["err"])
	assert.Equal(t, "typedcache", last.Data["component"])
}

func TestLogrusLoggerRespectsLevel(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.WarnLevel)
	l := New(base, "")

	l.Info("skipped", nil)
	l.Warn("kept", typedcache.Fields{"from": "closed", "to": "open"})

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "kept", hook.LastEntry().Message)
	assert.NotContains(t, hook.LastEntry().Data, "component")
}
