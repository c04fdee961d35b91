package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/typedcache"
)

var _ typedcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New adapts l; component is attached to every entry when non-empty.
func New(l *logrus.Logger, component string) LogrusLogger {
	e := logrus.NewEntry(l)
	if component != "" {
		e = e.WithField("component", component)
	}
	return LogrusLogger{E: e}
}

func (l LogrusLogger) Debug(msg string, f typedcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f typedcache.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f typedcache.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f typedcache.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
