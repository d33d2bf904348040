package cachefetch

import "context"

// Fetchable is anything that can produce a T on demand. Hold one by interface
// to hide which source or request stands behind it.
type Fetchable[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// FetchableFunc adapts a function to Fetchable.
type FetchableFunc[T any] func(ctx context.Context) (T, error)

func (f FetchableFunc[T]) Fetch(ctx context.Context) (T, error) { return f(ctx) }

// Bind fixes req to f. The request is copied; later changes to req do not
// affect the returned Fetchable.
func Bind[T any](f Fetcher[T], req *Request) Fetchable[T] {
	var r *Request
	if req != nil {
		r = req.clone()
	}
	return FetchableFunc[T](func(ctx context.Context) (T, error) {
		return f.Do(ctx, r)
	})
}

// Map converts the result of src with fn. Errors from src pass through unchanged.
func Map[T, U any](src Fetchable[T], fn func(T) (U, error)) Fetchable[U] {
	return FetchableFunc[U](func(ctx context.Context) (U, error) {
		v, err := src.Fetch(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}
