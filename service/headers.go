package service

import (
	"net/http"
	"strconv"
	"strings"
)

// hopByHopHeaders lists the connection-specific headers §4.3.5 requires
// stripped before a request crosses to the next hop. Transfer-Encoding
// is hop-by-hop under H2 (there is no chunked framing); Upgrade is
// meaningless once a stream is already multiplexed over H2 except for
// the synthetic CONNECT upgrade path, which is handled separately.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
}

// StripHopByHopHeaders removes the fixed hop-by-hop set plus any
// header named in a Connection header value, per §4.3.5. It mutates h
// in place and also returns it for chaining.
func StripHopByHopHeaders(h http.Header) http.Header {
	if conn := h.Get("Connection"); conn != "" {
		for _, name := range strings.Split(conn, ",") {
			h.Del(strings.TrimSpace(name))
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
	return h
}

// parseContentLength returns the parsed Content-Length header value.
func parseContentLength(h http.Header) (int64, bool) {
	v := h.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ApplyContentLengthHygiene sets Content-Length on h when the body's
// size hint is exact and either nonzero or the method conventionally
// carries a payload (§4.3.5, invariant 5 of §8). It is a no-op when the
// size is unknown.
func ApplyContentLengthHygiene(h http.Header, hint SizeHint, methodDefinesPayload bool) {
	n, ok := hint.Exact()
	if !ok {
		return
	}
	if n > 0 || methodDefinesPayload {
		h.Set("Content-Length", strconv.FormatUint(n, 10))
	}
}
