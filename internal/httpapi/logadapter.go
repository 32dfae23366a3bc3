package httpapi

import (
	"github.com/sirupsen/logrus"

	"github.com/relayterm/termcore/supervisor"
)

// logrusAdapter lets the HTTP layer and the supervisor share one logging
// backend: logrus, the structured-logging library the rest of the example
// pack reaches for at HTTP scope, while the supervisor package itself
// stays dependency-free behind the small supervisor.Logger interface.
type logrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter wraps l so it satisfies supervisor.Logger.
func NewLogrusAdapter(l *logrus.Logger) supervisor.Logger {
	if l == nil {
		l = logrus.New()
	}
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

func (a *logrusAdapter) Debug(msg string, kv ...any) { a.withFields(kv...).Debug(msg) }
func (a *logrusAdapter) Info(msg string, kv ...any)  { a.withFields(kv...).Info(msg) }
func (a *logrusAdapter) Warn(msg string, kv ...any)  { a.withFields(kv...).Warn(msg) }
func (a *logrusAdapter) Error(msg string, kv ...any) { a.withFields(kv...).Error(msg) }

func (a *logrusAdapter) withFields(kv ...any) *logrus.Entry {
	if len(kv) == 0 {
		return a.entry
	}
	fields := make(logrus.Fields, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			key = "field"
		}
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		fields[key] = val
	}
	return a.entry.WithFields(fields)
}
