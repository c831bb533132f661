package service

import (
	"bytes"
	"io"
	"net/http"
)

// SizeHint describes the known bounds on a Body's remaining byte
// count (§3.3): a lower bound that always holds, and an optional upper
// bound. Exact returns (n, true) when lower and upper coincide -- the
// case content-length and the retry/hygiene logic in §4.3.5 care about.
type SizeHint struct {
	Lower uint64
	Upper *uint64
}

// Exact reports the size hint's exact byte count, if known.
func (s SizeHint) Exact() (uint64, bool) {
	if s.Upper != nil && *s.Upper == s.Lower {
		return s.Lower, true
	}
	return 0, false
}

// ExactSizeHint returns a SizeHint whose lower and upper bounds are
// both n.
func ExactSizeHint(n uint64) SizeHint {
	return SizeHint{Lower: n, Upper: &n}
}

// UnknownSizeHint returns a SizeHint with no upper bound.
func UnknownSizeHint() SizeHint {
	return SizeHint{}
}

// Body is a lazy, finite sequence of byte chunks terminated by
// end-of-stream or a trailing-headers frame (§3.3). It is an
// io.ReadCloser so it composes with the standard library's streaming
// primitives (gzip, io.Copy, bufio), plus the two extensions the wire
// protocols in this spec need: a size hint for content-length
// decisions (§4.3.5) and trailers, valid once Read has returned io.EOF.
type Body interface {
	io.ReadCloser
	SizeHint() SizeHint
	Trailer() http.Header
}

// EmptyBody is a Body with zero bytes and no trailers.
func EmptyBody() Body { return BytesBody(nil) }

// BytesBody is a Body backed by an in-memory byte slice, with an
// exact, known-up-front size hint. It is the common case the dispatch
// loop (§4.3.4) optimizes for: small request/response payloads that
// never need an executor-spawned pipe.
type bytesBody struct {
	r       *bytes.Reader
	trailer http.Header
	n       int
}

// BytesBody wraps b as a Body with an exact size hint of len(b).
func BytesBody(b []byte) Body {
	return &bytesBody{r: bytes.NewReader(b), n: len(b)}
}

func (b *bytesBody) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *bytesBody) Close() error                { return nil }
func (b *bytesBody) SizeHint() SizeHint          { return ExactSizeHint(uint64(b.n)) }
func (b *bytesBody) Trailer() http.Header {
	if b.trailer == nil {
		return http.Header{}
	}
	return b.trailer
}

// StreamBody adapts an arbitrary io.ReadCloser of unknown length into
// a Body. Trailers may be attached after EOF via SetTrailer; this is
// how the H2 client (§4.3.4) surfaces trailing-headers frames once the
// underlying h2 receive stream reports them.
type StreamBody struct {
	io.ReadCloser
	hint    SizeHint
	trailer http.Header
}

// NewStreamBody wraps rc with the given size hint.
func NewStreamBody(rc io.ReadCloser, hint SizeHint) *StreamBody {
	return &StreamBody{ReadCloser: rc, hint: hint}
}

// SizeHint implements Body.
func (s *StreamBody) SizeHint() SizeHint { return s.hint }

// Trailer implements Body.
func (s *StreamBody) Trailer() http.Header {
	if s.trailer == nil {
		return http.Header{}
	}
	return s.trailer
}

// SetTrailer records trailing headers received at end-of-stream.
func (s *StreamBody) SetTrailer(h http.Header) { s.trailer = h }
