package cachefetch

import (
	"net/http"
	"time"
)

// Response is what the transport received, or a copy of what it stored.
// Treat it as read-only.
type Response struct {
	StatusCode int
	Header     http.Header // canonical names; lookups via Header.Get are case-insensitive
	Body       []byte
	ReceivedAt time.Time
	FromCache  bool // served by Cached after a transport failure
}

// Age reports how long ago the response was received.
func (r *Response) Age(now time.Time) time.Duration {
	if r.ReceivedAt.IsZero() {
		return 0
	}
	return now.Sub(r.ReceivedAt)
}

func (r *Response) clone() *Response {
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

func (r *Response) ok() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }
