package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON is a Codec backed by encoding/json. The zero value is ready to use.
//
// With Strict set, Decode rejects unknown object fields and trailing data.
//
// Neither mode checks for missing fields: an absent key leaves the field at
// its zero value, so `{}` decodes into a zero V without error. A body fails to
// match V only on malformed JSON, a type mismatch, or (Strict) an extra key or
// trailing value. Types that need required fields should validate in an
// UnmarshalJSON method.
type JSON[V any] struct {
	Strict bool
}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (c JSON[V]) Decode(b []byte) (V, error) {
	var v V
	if !c.Strict {
		err := json.Unmarshal(b, &v)
		return v, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		var zero V
		return zero, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero V
		return zero, errors.New("json: trailing data after top-level value")
	}
	return v, nil
}
