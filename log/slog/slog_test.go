package slog

import (
	"bytes"
	"errors"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/nosql"
)

func TestLoggerWritesSortedGroupedFields(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("hidden", nosql.Fields{"k": 1})
	l.Warn("disconnect failed (suppressed)", nosql.Fields{"err": errors.New("boom"), "backend": "redis"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	want := "nosql.backend=redis nosql.err=boom"
	if !strings.Contains(out, want) {
		t.Fatalf("got %q, want it to contain %q", out, want)
	}
}
