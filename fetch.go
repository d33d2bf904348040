package cachefetch

import (
	"context"
	"errors"
	"net/http"

	"github.com/unkn0wn-root/cachefetch/codec"
)

type fetcher[T any] struct {
	transport Transport
	codec     codec.Codec[T]
	log       Logger
}

func newFetcher[T any](opts Options[T]) *fetcher[T] {
	f := &fetcher[T]{
		transport: opts.Transport,
		codec:     opts.Codec,
	}
	if f.transport == nil {
		f.transport = NewHTTPTransport(HTTPOptions{Logger: opts.Logger})
	}
	if f.codec == nil {
		f.codec = codec.JSON[T]{}
	}
	f.log = coalesce[Logger](opts.Logger, NopLogger{})
	return f
}

func (f *fetcher[T]) Get(ctx context.Context, rawURL string) (T, error) {
	return f.Do(ctx, &Request{Method: http.MethodGet, URL: rawURL})
}

func (f *fetcher[T]) Do(ctx context.Context, req *Request) (T, error) {
	var zero T
	if _, err := req.validate(); err != nil {
		return zero, err
	}
	r := req.clone()

	resp, err := f.transport.Perform(ctx, r)
	if err != nil {
		if IsTransport(err) || errors.Is(err, ErrInvalidRequest) {
			return zero, err
		}
		return zero, &TransportError{Method: r.Method, URL: r.URL, Err: err}
	}
	if resp == nil {
		return zero, &TransportError{Method: r.Method, URL: r.URL, Err: errNoResponse}
	}
	return Decode(f.codec, resp)
}

func (f *fetcher[T]) Start(ctx context.Context, req *Request, done func(T, error)) *Task {
	return startTask(ctx, f.log, func(ctx context.Context) (T, error) {
		return f.Do(ctx, req)
	}, done)
}

// Decode validates resp and decodes its body with c:
// non-2xx => *StatusError (response attached), no body => ErrEmptyBody,
// codec failure => *DecodeError.
func Decode[T any](c codec.Codec[T], resp *Response) (T, error) {
	var zero T
	if !resp.ok() {
		return zero, &StatusError{Code: resp.StatusCode, Response: resp}
	}
	if len(resp.Body) == 0 {
		return zero, ErrEmptyBody
	}
	v, err := c.Decode(resp.Body)
	if err != nil {
		return zero, &DecodeError{ContentType: resp.Header.Get("Content-Type"), Err: err}
	}
	return v, nil
}
