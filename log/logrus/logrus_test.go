package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/nosql"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := New(base)

	l.Warn("disconnect failed (suppressed)", nosql.Fields{"backend": "bolt", "err": errors.New("closed")})

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel {
		t.Fatalf("missing warn entry: %+v", e)
	}
	if e.Data["component"] != "nosql" || e.Data["backend"] != "bolt" {
		t.Fatalf("fields: %v", e.Data)
	}
	if err, ok := e.Data[logrus.ErrorKey].(error); !ok || err.Error() != "closed" {
		t.Fatalf("err should be under logrus.ErrorKey: %v", e.Data)
	}
}
