package cachefetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/cachefetch/provider"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu     sync.Mutex
	m      map[string]memEntry
	getErr error
	delErr error
	reject bool
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: append([]byte(nil), value...), exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

func (p *memProvider) put(key string, v []byte) {
	p.mu.Lock()
	p.m[key] = memEntry{v: v}
	p.mu.Unlock()
}

type geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     geo    `json:"geo"`
}

type user struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Address  address `json:"address"`
}

const philJSON = `{"id":1,"name":"Phil","username":"phil","address":{"street":"Kulas Light","city":"Gwenborough","zipcode":"92998-3874","geo":{"lat":"-37.3159","lng":"81.1496"}}}`

var phil = user{
	ID: 1, Name: "Phil", Username: "phil",
	Address: address{
		Street: "Kulas Light", City: "Gwenborough", Zipcode: "92998-3874",
		Geo: geo{Lat: "-37.3159", Lng: "81.1496"},
	},
}

// countingTransport answers every request with resp/err and counts calls.
type countingTransport struct {
	calls atomic.Int32
	resp  *Response
	err   error
	last  atomic.Pointer[Request]
}

func (c *countingTransport) Perform(_ context.Context, req *Request) (*Response, error) {
	c.calls.Add(1)
	c.last.Store(req)
	if c.err != nil {
		return nil, c.err
	}
	return c.resp.clone(), nil
}

func jsonResponse(code int, body string) *Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &Response{StatusCode: code, Header: h, Body: []byte(body), ReceivedAt: time.Now()}
}

var errDial = errors.New("dial tcp 127.0.0.1:1: connect: connection refused")

func newTestStore(t *testing.T, mp pr.Provider, optsOpt func(*StoreOptions)) *Store {
	t.Helper()
	opts := StoreOptions{
		Namespace: "test",
		Provider:  mp,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	s, err := NewStore(opts)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// recHooks records hook calls for assertions.
type recHooks struct {
	NopHooks
	mu       sync.Mutex
	selfHeal []string
	skipped  []string
	served   int
	missed   int
	rejected int
	storeErr int
}

func (h *recHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.selfHeal = append(h.selfHeal, reason)
	h.mu.Unlock()
}
func (h *recHooks) StoreSkipped(_, reason string) {
	h.mu.Lock()
	h.skipped = append(h.skipped, reason)
	h.mu.Unlock()
}
func (h *recHooks) ProviderSetRejected(string) { h.mu.Lock(); h.rejected++; h.mu.Unlock() }
func (h *recHooks) StoreError(string, error)   { h.mu.Lock(); h.storeErr++; h.mu.Unlock() }
func (h *recHooks) FallbackServed(string, time.Duration) {
	h.mu.Lock()
	h.served++
	h.mu.Unlock()
}
func (h *recHooks) FallbackMiss(string, error) { h.mu.Lock(); h.missed++; h.mu.Unlock() }
