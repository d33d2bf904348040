package cachefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pquerna/cachecontrol"
)

// Transport performs one request. It returns a *TransportError when no HTTP
// response was obtained; any status code is a successful Perform.
type Transport interface {
	Perform(ctx context.Context, req *Request) (*Response, error)
}

// CacheReader looks up the response a transport stored for req.
type CacheReader interface {
	CachedResponse(ctx context.Context, req *Request) (*Response, bool, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Perform(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPOptions configure HTTPTransport. The zero value is usable.
type HTTPOptions struct {
	// Client performs the exchange. Timeouts, pooling, TLS and redirects are its
	// configuration. nil => a client with no timeout.
	Client *http.Client
	// Store keeps the last cacheable 2xx response per request. nil => nothing is stored.
	Store *Store
	// PrivateCache evaluates Cache-Control as a single-user cache (private
	// responses may be stored). Default is shared-cache semantics.
	PrivateCache bool
	// UserAgent is set on requests that do not carry one.
	UserAgent string

	Logger Logger
	Hooks  Hooks
}

// HTTPTransport is the default Transport. It owns the response store: storing is
// decided here, by the response's own cache headers, never by callers.
type HTTPTransport struct {
	client    *http.Client
	store     *Store
	private   bool
	userAgent string
	log       Logger
	hooks     Hooks
	now       func() time.Time
}

var (
	_ Transport   = (*HTTPTransport)(nil)
	_ CacheReader = (*HTTPTransport)(nil)
)

func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	t := &HTTPTransport{
		client:    opts.Client,
		store:     opts.Store,
		private:   opts.PrivateCache,
		userAgent: opts.UserAgent,
		now:       time.Now,
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	t.log = coalesce[Logger](opts.Logger, NopLogger{})
	t.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return t
}

// Store returns the configured store, or nil.
func (t *HTTPTransport) Store() *Store { return t.store }

func (t *HTTPTransport) Perform(ctx context.Context, req *Request) (*Response, error) {
	if _, err := req.validate(); err != nil {
		return nil, err
	}
	hr, err := req.httpRequest(ctx)
	if err != nil {
		return nil, &TransportError{Method: req.method(), URL: req.URL, Err: err}
	}
	if t.userAgent != "" && hr.Header.Get("User-Agent") == "" {
		hr.Header.Set("User-Agent", t.userAgent)
	}

	// observe the generation before the exchange so an Invalidate that lands
	// mid-flight defeats this write
	var (
		key    string
		obsGen uint64
		canPut bool
	)
	if t.store != nil && t.store.Enabled() {
		if key, err = t.store.Key(req); err == nil {
			obsGen, err = t.store.SnapshotGen(ctx, key)
			canPut = err == nil
		}
	}

	hresp, err := t.client.Do(hr)
	if err != nil {
		return nil, &TransportError{Method: req.method(), URL: req.URL, Err: err}
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.method(), URL: req.URL, Err: fmt.Errorf("read body: %w", err)}
	}

	resp := &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header.Clone(),
		Body:       body,
		ReceivedAt: t.now(),
	}
	if canPut && resp.ok() {
		t.store.maybePut(ctx, key, hr, hresp, resp, obsGen, t.private)
	}
	return resp, nil
}

// CachedResponse returns the stored response for req, if any.
func (t *HTTPTransport) CachedResponse(ctx context.Context, req *Request) (*Response, bool, error) {
	if t.store == nil {
		return nil, false, nil
	}
	key, err := t.store.Key(req)
	if err != nil {
		return nil, false, err
	}
	return t.store.Get(ctx, key)
}

// maybePut stores resp when its cache headers allow it. Failures are reported
// through hooks only: storing is a side effect of a fetch that already succeeded.
func (s *Store) maybePut(ctx context.Context, key string, hr *http.Request, hresp *http.Response, resp *Response, obsGen uint64, private bool) {
	reasons, _, err := cachecontrol.CachableResponse(hr, hresp, cachecontrol.Options{PrivateCache: private})
	if err != nil {
		s.hooks.StoreSkipped(key, "cache-control: "+err.Error())
		return
	}
	if len(reasons) > 0 {
		s.hooks.StoreSkipped(key, fmt.Sprint(reasons))
		return
	}
	if err := s.PutWithGen(ctx, key, resp, obsGen); err != nil {
		s.hooks.StoreError(key, err)
		return
	}
	s.log.Debug("stored response", Fields{"key": key, "status": resp.StatusCode, "bytes": len(resp.Body)})
}
