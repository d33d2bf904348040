// Package codec holds the (de)serializers used to turn response bodies into
// caller types and caller values into request bodies.
package codec

import "errors"

// ErrEncodeUnsupported is returned by decode-only codecs.
var ErrEncodeUnsupported = errors.New("codec: encode not supported")

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
