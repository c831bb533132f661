package proxyproto

import "bytes"

// Decode inspects the start of buf and dispatches to DecodeV1 or
// DecodeV2 based on which signature is present (§4.2.3). It returns
// *ErrIncomplete if there are too few bytes to tell which version this
// is.
func Decode(buf []byte) (*Header, int, error) {
	if len(buf) >= 12 && bytes.Equal(buf[:12], sig) {
		return DecodeV2(buf)
	}
	if len(buf) >= 6 && string(buf[:6]) == "PROXY " {
		return DecodeV1(buf)
	}
	if len(buf) < 12 {
		// Could still turn out to be either signature; ask for enough
		// bytes to disambiguate for certain.
		return nil, 0, &ErrIncomplete{Need: 12 - len(buf)}
	}
	return nil, 0, ErrInvalidPrefix
}

// Decoder is a stateful, incremental PROXY header parser: callers feed
// it bytes as they arrive (from a single TCP stream, a byte at a time
// if need be) and it accumulates them internally until a complete
// header can be decoded, satisfying §4.2.3's "callers may present
// partial bytes" requirement without the caller managing its own
// buffer.
type Decoder struct {
	buf []byte
}

// NewDecoder returns an empty incremental decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends b to the internal buffer and attempts to decode a
// complete header. On success it returns the Header and resets the
// decoder, retaining any bytes past the header's end as the start of
// the next read (retrievable via Remainder). On *ErrIncomplete or
// *ErrPartial it returns (nil, err) and keeps the accumulated bytes
// for the next Feed call. Any other error is terminal: the decoder's
// buffer is left untouched so the caller can inspect Remainder() for
// diagnostics, but future Feed calls will keep failing the same way
// until Reset is called.
func (d *Decoder) Feed(b []byte) (*Header, error) {
	d.buf = append(d.buf, b...)
	h, n, err := Decode(d.buf)
	if err != nil {
		return nil, err
	}
	d.buf = d.buf[n:]
	return h, nil
}

// Remainder returns the bytes accumulated so far that have not yet
// been consumed by a successfully decoded header.
func (d *Decoder) Remainder() []byte {
	return d.buf
}

// Reset discards any buffered bytes.
func (d *Decoder) Reset() {
	d.buf = nil
}
