package cachefetch

import (
	"context"

	"github.com/unkn0wn-root/cachefetch/codec"
)

// Fetcher performs a request and decodes a 2xx body into T.
// Implementations are stateless per call and safe for concurrent use.
type Fetcher[T any] interface {
	// Do performs req and decodes the response. On error the value is the zero T.
	Do(ctx context.Context, req *Request) (T, error)
	// Get is Do for a plain GET of rawURL.
	Get(ctx context.Context, rawURL string) (T, error)
	// Start runs Do in the background and hands the result to done at most once.
	// done is never called after the returned Task has been cancelled.
	Start(ctx context.Context, req *Request, done func(T, error)) *Task
}

// Options configure a Fetcher. The zero value fetches JSON over a plain
// http.Client with no response store.
type Options[T any] struct {
	Transport Transport      // nil => NewHTTPTransport(HTTPOptions{})
	Codec     codec.Codec[T] // nil => codec.JSON[T]{}
	Logger    Logger         // if nil, NopLogger is used
}

func New[T any](opts Options[T]) Fetcher[T] {
	return newFetcher[T](opts)
}
