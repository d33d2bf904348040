package cachefetch

import (
	"context"
	"errors"
	"time"
)

// CachedOptions configure Cached.
type CachedOptions struct {
	// Transport performs the live request. Required.
	Transport Transport
	// Cache answers fallback lookups. nil => Transport, when it is a CacheReader.
	Cache CacheReader
	// FallbackOnError is the useCacheOnError toggle applied by Perform.
	FallbackOnError bool

	Logger Logger
	Hooks  Hooks
}

// Cached decorates a Transport: when the transport fails and fallback is
// requested, it answers with the response stored for the exact same request.
// It never writes to the cache and never retries.
type Cached struct {
	transport Transport
	cache     CacheReader
	fallback  bool
	log       Logger
	hooks     Hooks
	now       func() time.Time
}

var _ Transport = (*Cached)(nil)

func NewCached(opts CachedOptions) (*Cached, error) {
	if opts.Transport == nil {
		return nil, ErrNilTransport
	}
	c := &Cached{
		transport: opts.Transport,
		cache:     opts.Cache,
		fallback:  opts.FallbackOnError,
		now:       time.Now,
	}
	if c.cache == nil {
		c.cache, _ = opts.Transport.(CacheReader)
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	return c, nil
}

// Perform is Request with the configured FallbackOnError toggle, so Cached can
// sit under a Fetcher.
func (c *Cached) Perform(ctx context.Context, req *Request) (*Response, error) {
	return c.Request(ctx, req, c.fallback)
}

// Request performs req once. On a transport failure with useCacheOnError set,
// the stored response for req is returned instead (FromCache=true) and the
// failure is discarded. Without a stored response the original failure is
// returned verbatim. Non-2xx responses are not failures here.
func (c *Cached) Request(ctx context.Context, req *Request, useCacheOnError bool) (*Response, error) {
	if _, err := req.validate(); err != nil {
		return nil, err
	}
	resp, err := c.transport.Perform(ctx, req)
	if err == nil {
		return resp, nil
	}
	// a caller that gave up wants no answer, stale or otherwise
	if !useCacheOnError || c.cache == nil || ctx.Err() != nil || errors.Is(err, ErrInvalidRequest) {
		return nil, err
	}

	stored, ok, lerr := c.cache.CachedResponse(ctx, req)
	if lerr != nil || !ok || stored == nil {
		c.hooks.FallbackMiss(req.URL, err)
		return nil, err
	}
	out := stored.clone()
	out.FromCache = true
	age := out.Age(c.now())
	c.hooks.FallbackServed(req.URL, age)
	c.log.Debug("served stored response after transport failure",
		Fields{"method": req.method(), "url": req.URL, "age": age.String()})
	return out, nil
}
