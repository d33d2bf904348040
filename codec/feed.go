package codec

import (
	"bytes"

	"github.com/mmcdole/gofeed"
)

// Feed decodes RSS, Atom and JSON Feed documents into a *gofeed.Feed.
// It is decode-only; Encode returns ErrEncodeUnsupported.
type Feed struct{}

var _ Codec[*gofeed.Feed] = Feed{}

func (Feed) Encode(*gofeed.Feed) ([]byte, error) { return nil, ErrEncodeUnsupported }

func (Feed) Decode(b []byte) (*gofeed.Feed, error) {
	return gofeed.NewParser().Parse(bytes.NewReader(b))
}
