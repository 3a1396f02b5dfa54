// Package logrus adapts a logrus entry to nosql.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/nosql"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ nosql.Logger = LogrusLogger{}

// New tags every record with component=nosql.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "nosql")}
}

func (l LogrusLogger) Debug(msg string, f nosql.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f nosql.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f nosql.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f nosql.Fields) { l.with(f).Error(msg) }

// with moves an "err" field to logrus' own error key so hooks/formatters see it.
func (l LogrusLogger) with(f nosql.Fields) *logrus.Entry {
	e := l.E
	if len(f) == 0 {
		return e
	}
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		fields[k] = v
	}
	return e.WithFields(fields)
}
