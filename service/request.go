// Package service implements the Service/Layer composition model
// (§4.1) and the Request/Response data model (§3.3) it operates on.
package service

import (
	"net/http"
	"net/url"

	"weft/ext"
)

// Request is weft's HTTP model (§3.3): method, URI, version, a
// case-insensitive ordered header multimap, a streaming Body, and an
// Extensions bag. It is deliberately not net/http.Request: the
// Extensions field gives layers typed, collision-free storage that a
// bare context.Context value bag does not.
type Request struct {
	Method string
	URL    *url.URL
	Proto  string
	Header http.Header
	Body   Body
	Ext    *ext.Extensions
}

// NewRequest builds a Request with an initialized header multimap,
// Extensions bag, and the given body. A nil body is replaced with
// EmptyBody().
func NewRequest(method string, u *url.URL, body Body) *Request {
	if body == nil {
		body = EmptyBody()
	}
	return &Request{
		Method: method,
		URL:    u,
		Proto:  "HTTP/2.0",
		Header: make(http.Header),
		Body:   body,
		Ext:    ext.New(),
	}
}

// Clone returns a shallow copy of r sharing the same Extensions
// pointer and Body. Layers that need to retry a request with isolated
// extensions should call r.Clone() and then replace Ext with
// r.Ext.Clone() explicitly -- mirroring Context.WithExtensions.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Header = r.Header.Clone()
	return &clone
}

// definesPayload reports whether method is one of the HTTP methods
// that, per RFC 7231 §4.3, carries request-body semantics even when no
// explicit size is known yet. Used by the header-hygiene step (§4.3.5)
// deciding whether to synthesize a content-length.
func definesPayload(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// DefinesPayload reports whether r.Method conventionally carries a
// request body (§4.3.4's "method-defines-payload" check).
func (r *Request) DefinesPayload() bool {
	return definesPayload(r.Method)
}
