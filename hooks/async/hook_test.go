package asynchook

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/cachefetch"
)

type recorder struct {
	cachefetch.NopHooks
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (r *recorder) add(ev string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) SelfHeal(k, reason string)                { r.add("self_heal:" + k + ":" + reason) }
func (r *recorder) FallbackServed(u string, _ time.Duration) { r.add("served:" + u) }
func (r *recorder) FallbackMiss(u string, _ error)           { r.add("miss:" + u) }

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestEventsReachInnerAfterClose(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 2, 16)

	h.SelfHeal("k", "corrupt")
	h.FallbackServed("https://a", time.Second)
	h.FallbackMiss("https://b", errors.New("dial"))
	h.Close()

	got := rec.snapshot()
	if len(got) != 3 {
		t.Fatalf("got %d events (%v), want 3", len(got), got)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped %d, want 0", h.Dropped())
	}
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	h := New(rec, 1, 1)

	// worker takes the first event and blocks; second fills the queue; rest drop
	for i := 0; i < 10; i++ {
		h.FallbackMiss("https://x", nil)
	}
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked worker and a 1-slot queue")
	}
	close(rec.block)
	h.Close()
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 1, 4)
	h.Close()
	h.Close() // idempotent

	h.SelfHeal("k", "gen_mismatch")
	if h.Dropped() != 1 {
		t.Fatalf("dropped %d, want 1", h.Dropped())
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("inner saw %d events after Close", n)
	}
}
