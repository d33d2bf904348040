// Package cachefetch issues a single HTTP request, validates the response and
// decodes its body into a caller-chosen type. When the network fails it can
// substitute the last stored response for the same request.
//
// Components:
//   - Fetcher[T]: request -> transport -> status/body checks -> Codec[T] decode.
//   - Cached: a Transport decorator that serves the stored response for a request
//     whose transport call failed (and only then).
//   - HTTPTransport: the default Transport over *http.Client. With a Store it keeps
//     the last cacheable 2xx response per request, honoring Cache-Control and Date.
//   - Store: provider-agnostic response store with per-key generations, so an
//     Invalidate also defeats writes that were in flight when it happened.
//
// Keys:
//
//	resp:<ns>:<hash>  - hash over method, normalized URL and the configured key headers
//
// Typical wiring:
//
//	store, _ := cachefetch.NewStore(cachefetch.StoreOptions{Namespace: "users", Provider: p})
//	tr := cachefetch.NewHTTPTransport(cachefetch.HTTPOptions{Store: store})
//	cached, _ := cachefetch.NewCached(cachefetch.CachedOptions{Transport: tr, FallbackOnError: true})
//	users := cachefetch.New[[]User](cachefetch.Options[[]User]{Transport: cached})
//	list, err := users.Get(ctx, "https://jsonplaceholder.typicode.com/users")
package cachefetch
