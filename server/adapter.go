// Package server wires weft's layer stack into a listening frontend:
// an inbound net.Listener (with optional PROXY protocol decoding)
// feeding a net/http server whose handler adapts *http.Request/
// ResponseWriter onto weft's Service/Request/Response model before
// running it through the configured Chain.
package server

import (
	"io"
	"net/http"

	"weft/service"
)

// adaptRequest converts an inbound *http.Request into a *service.Request.
// The request's body keeps its original io.ReadCloser; weft's Body
// interface adds only the size hint and trailer, both available
// directly off the http.Request.
func adaptRequest(r *http.Request) *service.Request {
	hint := service.UnknownSizeHint()
	if r.ContentLength >= 0 {
		hint = service.ExactSizeHint(uint64(r.ContentLength))
	}

	req := service.NewRequest(r.Method, r.URL, service.NewStreamBody(r.Body, hint))
	req.Proto = r.Proto
	req.Header = r.Header.Clone()
	if r.Host != "" {
		req.URL.Host = r.Host
	}
	return req
}

// writeResponse copies a *service.Response onto an http.ResponseWriter,
// streaming the body rather than buffering it whole.
func writeResponse(w http.ResponseWriter, resp *service.Response) error {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if resp.Body == nil {
		return nil
	}
	defer resp.Body.Close()

	_, err := io.Copy(w, resp.Body)
	return err
}

// writeError renders a dispatch failure as an HTTP response. The
// specific status code is intentionally coarse -- the audit record and
// logs carry the classified werror.Kind for operators; callers on the
// wire get a Bad Gateway.
func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadGateway)
}
