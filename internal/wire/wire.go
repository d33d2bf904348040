package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
)

const (
	version      byte = 1
	kindResponse byte = 1
)

var (
	ErrCorrupt     = errors.New("cachefetch: corrupt entry")
	ErrUnencodable = errors.New("cachefetch: entry exceeds wire limits")
	magic4         = [...]byte{'C', 'F', 'E', 'T'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is a stored response together with the generation it was written under.
type Entry struct {
	Gen        uint64
	StatusCode int
	ReceivedAt int64 // unix nanos
	Header     map[string][]string
	Body       []byte
}

// Response:
//
//	magic(4) | ver(1) | kind(1) | gen(u64 be) | status(u16 be) | received(u64 be)
//	nh(u16 be) | [nameLen(u16) | name | nv(u16) | [vlen(u32) | value] * nv] * nh
//	blen(u32 be) | body(blen)
//
// Header names are written in sorted order so equal entries encode identically.
func EncodeEntry(e Entry) ([]byte, error) {
	names := make([]string, 0, len(e.Header))
	total := 4 + 1 + 1 + 8 + 2 + 8 + 2 + 4 + len(e.Body)
	for name, vals := range e.Header {
		names = append(names, name)
		total += 2 + len(name) + 2
		for _, v := range vals {
			total += 4 + len(v)
		}
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindResponse)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint16(u2[:], uint16(e.StatusCode))
	buf.Write(u2[:])

	binary.BigEndian.PutUint64(u8[:], uint64(e.ReceivedAt))
	buf.Write(u8[:])

	if len(names) > 0xFFFF || e.StatusCode < 0 || e.StatusCode > 0xFFFF {
		return nil, ErrUnencodable
	}
	binary.BigEndian.PutUint16(u2[:], uint16(len(names)))
	buf.Write(u2[:])

	for _, name := range names {
		vals := e.Header[name]
		if l := len(name); l == 0 || l > 0xFFFF || len(vals) > 0xFFFF {
			return nil, ErrUnencodable
		}
		binary.BigEndian.PutUint16(u2[:], uint16(len(name)))
		buf.Write(u2[:])
		buf.WriteString(name)

		binary.BigEndian.PutUint16(u2[:], uint16(len(vals)))
		buf.Write(u2[:])
		for _, v := range vals {
			binary.BigEndian.PutUint32(u4[:], uint32(len(v)))
			buf.Write(u4[:])
			buf.WriteString(v)
		}
	}

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Body)))
	buf.Write(u4[:])
	buf.Write(e.Body)
	return buf.Bytes(), nil
}

func DecodeEntry(b []byte) (Entry, error) {
	const hdr = 4 + 1 + 1 + 8 + 2 + 8 + 2
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindResponse {
		return Entry{}, ErrCorrupt
	}

	var e Entry
	off := 6

	e.Gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	e.StatusCode = int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2

	e.ReceivedAt = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	nh := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2

	if nh > 0 {
		e.Header = make(map[string][]string, nh)
	}
	for i := 0; i < nh; i++ {
		// nameLen
		if off+2 > len(b) {
			return Entry{}, ErrCorrupt
		}
		nlen := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2
		if nlen <= 0 || nlen > len(b)-off {
			return Entry{}, ErrCorrupt
		}
		name := string(b[off : off+nlen])
		off += nlen

		// nv
		if off+2 > len(b) {
			return Entry{}, ErrCorrupt
		}
		nv := int(binary.BigEndian.Uint16(b[off : off+2]))
		off += 2

		vals := make([]string, 0, nv)
		for j := 0; j < nv; j++ {
			if off+4 > len(b) {
				return Entry{}, ErrCorrupt
			}
			vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
			off += 4
			if vlen < 0 || vlen > len(b)-off {
				return Entry{}, ErrCorrupt
			}
			vals = append(vals, string(b[off:off+vlen]))
			off += vlen
		}
		e.Header[name] = vals
	}

	// body
	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	blen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if blen < 0 || blen != len(b)-off { // exact: no trailing bytes
		return Entry{}, ErrCorrupt
	}
	if blen > 0 {
		e.Body = b[off : off+blen]
	}
	return e, nil
}
