// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{})
//	hooks := asynchook.New(raw, 1, 64) // 1 worker; queue 64 events
//	defer hooks.Close()
//
//	nosql.Default().Configure(nosql.Options{Hooks: hooks})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/nosql"
)

// Hooks forwards events to inner on worker goroutines. When the queue is
// full, events are dropped rather than blocking the manager.
type Hooks struct {
	inner nosql.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.RWMutex // guards closed against sends on a closed q
	closed bool
}

var _ nosql.Hooks = (*Hooks)(nil)

func New(inner nosql.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Connected(b string)                { h.try(func() { h.inner.Connected(b) }) }
func (h *Hooks) ConnectFailed(b string, err error) { h.try(func() { h.inner.ConnectFailed(b, err) }) }
func (h *Hooks) TeardownSuppressed(b string, err error) {
	h.try(func() { h.inner.TeardownSuppressed(b, err) })
}
