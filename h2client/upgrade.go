package h2client

import (
	"io"

	"weft/ext"
)

// Upgraded adapts a CONNECT-established H2 stream into a generic
// duplex byte stream once the 200 response with no body has been
// verified (§4.3.4). Callers retrieve it from the response's
// Extensions bag.
type Upgraded struct {
	io.Reader
	io.WriteCloser
}

// connectBodyWriter is the type-keyed Extensions entry a caller
// attaches to a CONNECT Request before calling Serve, giving the
// dispatch engine the write half of the tunnel. Without one, a
// successful CONNECT upgrade only exposes the read half.
type connectBodyWriter struct {
	w io.WriteCloser
}

// WithConnectBodyWriter attaches w as the write half of a pending
// CONNECT tunnel to e.
func WithConnectBodyWriter(e *ext.Extensions, w io.WriteCloser) {
	ext.Insert(e, connectBodyWriter{w: w})
}

func connectWriterFrom(e *ext.Extensions) io.WriteCloser {
	if v, ok := ext.Get[connectBodyWriter](e); ok {
		return v.w
	}
	return nil
}
