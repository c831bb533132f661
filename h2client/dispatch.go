package h2client

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"sync"

	"weft/ext"
	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

// Dispatcher is the HTTP/2 client dispatch engine (§4.3) exposed as a
// weft Service: it turns a Request into a Response by submitting it
// over a shared, pooled H2 connection to Target. Per §4.3.4, each call
// to Serve performs header hygiene, CONNECT validation, and admission
// control (via the underlying http2.ClientConn) before writing
// anything to the wire.
type Dispatcher[S any] struct {
	pool      *Pool
	target    string
	tlsConfig *tls.Config
}

// NewDispatcher returns a Dispatcher that submits requests to target
// (host:port) over connections drawn from pool. A nil tlsConfig
// dispatches in plaintext (h2c).
func NewDispatcher[S any](pool *Pool, target string, tlsConfig *tls.Config) *Dispatcher[S] {
	return &Dispatcher[S]{pool: pool, target: target, tlsConfig: tlsConfig}
}

// Serve implements service.Service[S].
func (d *Dispatcher[S]) Serve(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
	tracker := newCallbackTracker()
	ext.Insert(req.Ext, tracker)

	cancel := ctx.Cancel()
	if cancel.IsCancelled() {
		tracker.set(CallbackCancelled)
		return nil, werror.WithKind(cancel.Err(), werror.KindUserAbort, "h2client: request cancelled before submission")
	}

	service.StripHopByHopHeaders(req.Header)
	hint := req.Body.SizeHint()
	isConnect := req.Method == http.MethodConnect

	if isConnect {
		if n, ok := hint.Exact(); ok && n > 0 {
			tracker.set(CallbackFailed)
			return nil, werror.New(werror.KindProtocol, "h2client: CONNECT must not carry a request body")
		}
	} else {
		service.ApplyContentLengthHygiene(req.Header, hint, req.DefinesPayload())
	}

	dialCtx, stop := contextFromCancel(cancel)
	defer stop()

	c, err := d.pool.Get(dialCtx, d.target, d.tlsConfig)
	if err != nil {
		tracker.set(CallbackFailed)
		return nil, err
	}

	httpReq, err := toHTTPRequest(dialCtx, req, d.target, d.tlsConfig != nil, hint)
	if err != nil {
		tracker.set(CallbackFailed)
		return nil, werror.WithKind(err, werror.KindProtocol, "h2client: failed to build request")
	}

	// acquire registers this call as a live SendRequest-equivalent
	// handle against c for as long as the request is in flight,
	// including response body streaming (§4.3.7); release is
	// sync.Once-guarded because ownership of it hands off to the
	// response body (or CONNECT tunnel) on success, and either that
	// handoff or this function's own early-return paths may call it.
	// This is what lets a reaper-triggered GOAWAY wait for the
	// request's actual handle to finish instead of cutting it off.
	c.acquire()
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(c.release) }
	handedOff := false
	defer func() {
		if !handedOff {
			release()
		}
	}()

	c.openStreams.Add(1)
	defer c.openStreams.Add(-1)
	c.touch()
	tracker.set(CallbackSubmitted)

	resp, err := c.cc.RoundTrip(httpReq)
	if err != nil {
		tracker.set(CallbackFailed)
		if c.ping.IsDead() {
			return nil, werror.WithKind(err, werror.KindTimeout, "h2client: keep-alive timed out")
		}
		return nil, classifyTransportError(err)
	}
	c.touch()
	tracker.set(CallbackHeadersReceived)

	out, err := toResponse(resp, c, isConnect, req.Ext, release, tracker)
	if err != nil {
		tracker.set(CallbackFailed)
		return nil, err
	}
	// Ownership of the handle now belongs to the response body (or the
	// CONNECT upgrade): suppress the deferred release above so the
	// connection stays referenced until the caller closes it.
	handedOff = true
	return out, nil
}

func toHTTPRequest(ctx context.Context, req *service.Request, target string, useTLS bool, hint service.SizeHint) (*http.Request, error) {
	u := *req.URL
	if u.Host == "" {
		u.Host = target
	}
	if u.Scheme == "" {
		if useTLS {
			u.Scheme = "https"
		} else {
			u.Scheme = "http"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), req.Body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.Header
	httpReq.Proto = req.Proto
	if n, ok := hint.Exact(); ok {
		httpReq.ContentLength = int64(n)
	} else {
		httpReq.ContentLength = -1
	}
	return httpReq, nil
}

func toResponse(resp *http.Response, c *conn, isConnect bool, reqExt *ext.Extensions, release func(), tracker *CallbackTracker) (*service.Response, error) {
	if isConnect && resp.StatusCode == http.StatusOK {
		if n, ok := parseRespContentLength(resp); ok && n != 0 {
			resp.Body.Close()
			c.cc.Close()
			release()
			return nil, werror.New(werror.KindProtocol, "h2client: CONNECT response carried an unexpected body")
		}
		out := service.NewResponse(resp.StatusCode, service.NewStreamBody(resp.Body, service.UnknownSizeHint()))
		out.Header = resp.Header
		writer := connectWriterFrom(reqExt)
		upgraded := &Upgraded{Reader: resp.Body, WriteCloser: releasingWriteCloser(writer, release, tracker)}
		if writer == nil {
			// Nothing will ever call Close on the tunnel's write half;
			// there is no signal left to wait for, so release now
			// rather than hold the handle (and block a graceful
			// shutdown) forever.
			release()
		}
		ext.Insert(out.Ext, upgraded)
		tracker.set(CallbackBodyStreaming)
		return out, nil
	}

	hint := service.UnknownSizeHint()
	if n, ok := parseRespContentLength(resp); ok {
		hint = service.ExactSizeHint(uint64(n))
	}
	tracker.set(CallbackBodyStreaming)
	tracked := &trackedBody{ReadCloser: newBDPReader(resp.Body, c.ping), release: release, tracker: tracker}
	body := service.NewStreamBody(tracked, hint)
	out := service.NewResponse(resp.StatusCode, body)
	out.Header = resp.Header
	return out, nil
}

// trackedBody drops the dispatch's live-handle reference and marks
// the callback Completed the moment the caller closes the response
// body, whichever happens first or not at all -- a caller that never
// closes the body never releases the handle, the same "hung consumer
// keeps the connection busy" behavior a real SendRequest clone has.
type trackedBody struct {
	io.ReadCloser
	release func()
	tracker *CallbackTracker
	once    sync.Once
}

func (b *trackedBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() {
		b.tracker.set(CallbackCompleted)
		b.release()
	})
	return err
}

// releasingWriteCloser wraps a CONNECT tunnel's write half so closing
// it drops the dispatch's live-handle reference, the tunnel's
// equivalent of trackedBody.Close for a duplex stream. Returns nil
// unchanged so callers can still detect "no writer attached."
func releasingWriteCloser(w io.WriteCloser, release func(), tracker *CallbackTracker) io.WriteCloser {
	if w == nil {
		return nil
	}
	return &releasingWriter{WriteCloser: w, release: release, tracker: tracker}
}

type releasingWriter struct {
	io.WriteCloser
	release func()
	tracker *CallbackTracker
	once    sync.Once
}

func (w *releasingWriter) Close() error {
	err := w.WriteCloser.Close()
	w.once.Do(func() {
		w.tracker.set(CallbackCompleted)
		w.release()
	})
	return err
}

func parseRespContentLength(resp *http.Response) (int64, bool) {
	if resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// contextFromCancel bridges a wcontext.CancelToken (this module's
// explicit, polled cancellation primitive) onto a context.Context, the
// currency golang.org/x/net/http2's API expects.
func contextFromCancel(token *wcontext.CancelToken) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	go func() {
		select {
		case <-token.Done():
			cancel()
		case <-stop:
		}
	}()
	return ctx, func() {
		close(stop)
		cancel()
	}
}
