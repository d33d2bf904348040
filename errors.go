package cachefetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest is returned before any I/O for a request that cannot be sent.
	ErrInvalidRequest = errors.New("cachefetch: invalid request")
	// ErrEmptyBody is returned for a 2xx response without a body.
	ErrEmptyBody = errors.New("cachefetch: empty response body")
	// ErrNilTransport is returned by constructors that need a Transport.
	ErrNilTransport = errors.New("cachefetch: transport is required")

	errNoResponse = errors.New("transport returned no response")
)

// TransportError reports a failure before or during the network exchange:
// no HTTP response was obtained.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cachefetch: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response whose status is outside [200, 300).
// Response is the full response, body included.
type StatusError struct {
	Code     int
	Response *Response
}

func (e *StatusError) Error() string {
	if text := http.StatusText(e.Code); text != "" {
		return fmt.Sprintf("cachefetch: unexpected status %d %s", e.Code, text)
	}
	return fmt.Sprintf("cachefetch: unexpected status %d", e.Code)
}

// DecodeError reports a body that the codec could not turn into the target type.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("cachefetch: decode %s body: %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("cachefetch: decode body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the status carried by a StatusError in err's chain, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
