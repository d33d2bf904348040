package cachefetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/unkn0wn-root/cachefetch/codec"
)

// Request describes one HTTP exchange. The library copies it before use, so
// callers may reuse or mutate their value after a call returns.
type Request struct {
	Method string // "" means GET
	URL    string // absolute http(s) URL
	Header http.Header
	Body   []byte
}

// NewRequest returns a request for method and rawURL with an optional body.
func NewRequest(method, rawURL string, body []byte) *Request {
	return &Request{Method: method, URL: rawURL, Header: make(http.Header), Body: body}
}

// EncodeRequest returns a request whose body is v encoded with c.
// contentType, if set, becomes the Content-Type header.
func EncodeRequest[V any](method, rawURL string, c codec.Codec[V], contentType string, v V) (*Request, error) {
	b, err := c.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", ErrInvalidRequest, err)
	}
	req := NewRequest(method, rawURL, b)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r *Request) clone() *Request {
	out := &Request{
		Method: r.method(),
		URL:    r.URL,
		Header: r.Header.Clone(),
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// validate checks the request before any I/O and returns the parsed URL.
func (r *Request) validate() (*url.URL, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if !validMethod(r.method()) {
		return nil, fmt.Errorf("%w: bad method %q", ErrInvalidRequest, r.Method)
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: URL %q is not absolute", ErrInvalidRequest, r.URL)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRequest, u.Scheme)
	}
	return u, nil
}

func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, r.method(), r.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		hr.Header[k] = append([]string(nil), vs...)
	}
	return hr, nil
}

// validMethod reports whether m is an RFC 9110 token.
func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for i := 0; i < len(m); i++ {
		c := m[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`"(),/:;<=>?@[\]{}`, c) >= 0 {
			return false
		}
	}
	return true
}
