package service

import (
	"net/http"

	"weft/ext"
)

// Response is weft's HTTP response model (§3.3), the counterpart to
// Request: status, version, headers, a streaming Body, and an
// Extensions bag. The H2 client (§4.3.4) stores the CONNECT
// on_upgrade awaitable and the ping-recorder stream wrapper in Ext
// rather than as bespoke struct fields, so adding a new
// response-side concern never requires changing this type.
type Response struct {
	StatusCode int
	Proto      string
	Header     http.Header
	Body       Body
	Ext        *ext.Extensions
}

// NewResponse builds a Response with an initialized header multimap
// and Extensions bag. A nil body is replaced with EmptyBody().
func NewResponse(statusCode int, body Body) *Response {
	if body == nil {
		body = EmptyBody()
	}
	return &Response{
		StatusCode: statusCode,
		Proto:      "HTTP/2.0",
		Header:     make(http.Header),
		Body:       body,
		Ext:        ext.New(),
	}
}

// ContentLength returns the response's declared Content-Length header
// as (n, true), or (0, false) if absent or unparseable.
func (r *Response) ContentLength() (int64, bool) {
	return parseContentLength(r.Header)
}
