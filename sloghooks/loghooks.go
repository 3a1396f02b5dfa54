package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/nosql"
)

type Options struct {
	// Sampling to avoid floods from a flapping backend; 0/1 = log all.
	ConnectFailedEvery uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	connectFailedCtr atomic.Uint64
}

var _ nosql.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Connected(backend string) {
	if h.l == nil {
		return
	}
	h.l.Info("nosql.connected", "backend", backend)
}

func (h *Hooks) ConnectFailed(backend string, err error) {
	if h.l == nil || !sample(h.opts.ConnectFailedEvery, &h.connectFailedCtr) {
		return
	}
	h.l.Error("nosql.connect_failed",
		"backend", backend,
		"err", err)
}

func (h *Hooks) TeardownSuppressed(backend string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("nosql.teardown_suppressed",
		"backend", backend,
		"err", err)
}
