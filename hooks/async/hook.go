// Package asynchook moves hook work off request paths.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	store, _ := cachefetch.NewStore(cachefetch.StoreOptions{
//	    Namespace: "app:prod:users",
//	    Provider:  provider,
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachefetch"
)

// Hooks queues events for a fixed worker pool. Events that do not fit in the
// queue are dropped and counted.
type Hooks struct {
	inner   cachefetch.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cachefetch.Hooks = (*Hooks)(nil)

func New(inner cachefetch.Hooks, workers, qlen int) *Hooks {
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

// Dropped reports how many events were discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(k, r string)             { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) StoreSkipped(k, r string)         { h.try(func() { h.inner.StoreSkipped(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)     { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) StoreError(k string, err error)   { h.try(func() { h.inner.StoreError(k, err) }) }
func (h *Hooks) GenBumpError(k string, err error) { h.try(func() { h.inner.GenBumpError(k, err) }) }
func (h *Hooks) GenSnapshotError(k string, err error) {
	h.try(func() { h.inner.GenSnapshotError(k, err) })
}
func (h *Hooks) FallbackServed(u string, age time.Duration) {
	h.try(func() { h.inner.FallbackServed(u, age) })
}
func (h *Hooks) FallbackMiss(u string, cause error) {
	h.try(func() { h.inner.FallbackMiss(u, cause) })
}
