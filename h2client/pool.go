package h2client

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/http2"

	"weft/werror"
)

// conn is one pooled, shared HTTP/2 connection: the real
// *http2.ClientConn plus the bookkeeping the dispatch engine layers
// on top of it (§3.5's "connection state").
type conn struct {
	addr   string
	cc     *http2.ClientConn
	ping   *pingDriver
	state  atomic.Int32 // State
	opened int64         // unix nanos
	lastActivity atomic.Int64
	openStreams  atomic.Int32
	refs         atomic.Int32 // live SendRequest-equivalent handles
	shutdownOnce sync.Once
}

func (c *conn) touch() { c.lastActivity.Store(time.Now().UnixNano()) }

func (c *conn) idleFor() time.Duration {
	last := time.Unix(0, c.lastActivity.Load())
	return time.Since(last)
}

// acquire registers one live SendRequest-equivalent handle against c
// (§4.3.7): a Dispatcher holds one for the lifetime of a request,
// including response body streaming, not just the RoundTrip call.
func (c *conn) acquire() { c.refs.Add(1) }

// release drops one live handle. If c has already been marked for
// graceful shutdown by the reaper and this was the last handle, it
// drives the GOAWAY(NO_ERROR) -> Dispatched::Shutdown transition
// (§4.3.7, invariant 6).
func (c *conn) release() {
	if c.refs.Add(-1) == 0 && State(c.state.Load()) == StateGoAwaySent {
		c.gracefulShutdown()
	}
}

// gracefulShutdown sends GOAWAY(NO_ERROR) and waits for it to
// complete (or time out), then marks c closed. Safe to call more than
// once; only the first call does anything.
func (c *conn) gracefulShutdown() {
	c.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.cc.Shutdown(ctx)
		c.state.Store(int32(StateClosed))
	})
}

func (c *conn) State() State { return State(c.state.Load()) }

// Pool tracks live connections keyed by target address (§4.9), shared
// across however many Dispatchers draw on it, mirroring §5's "A single
// H2 connection is shared across many SendRequest clones" guarantee.
type Pool struct {
	cfg       *Config
	transport *http2.Transport

	mu    sync.Mutex
	conns map[string]*conn
}

// NewPool builds a Pool around cfg's transport settings.
func NewPool(cfg *Config) (*Pool, error) {
	t, err := cfg.NewTransport()
	if err != nil {
		return nil, err
	}
	return &Pool{cfg: cfg, transport: t, conns: make(map[string]*conn)}, nil
}

// Get returns the pooled connection for addr, dialing and
// handshaking a new one (§4.3.1) if none exists or the existing one
// can no longer take new requests.
func (p *Pool) Get(ctx context.Context, addr string, tlsCfg *tls.Config) (*conn, error) {
	p.mu.Lock()
	c, ok := p.conns[addr]
	p.mu.Unlock()
	if ok && c.cc.CanTakeNewRequest() {
		c.touch()
		return c, nil
	}

	nc, err := p.dial(ctx, addr, tlsCfg)
	if err != nil {
		return nil, werror.WithKind(err, werror.KindIO, "h2client: dial failed")
	}
	cc, err := p.transport.NewClientConn(nc)
	if err != nil {
		nc.Close()
		return nil, werror.WithKind(err, werror.KindProtocol, "h2client: handshake failed")
	}

	newC := &conn{addr: addr, cc: cc, ping: newPingDriver(p.cfg), opened: time.Now().UnixNano()}
	newC.state.Store(int32(StateActive))
	newC.touch()

	p.mu.Lock()
	p.conns[addr] = newC
	p.mu.Unlock()
	return newC, nil
}

func (p *Pool) dial(ctx context.Context, addr string, tlsCfg *tls.Config) (net.Conn, error) {
	if p.cfg.DialTLS != nil {
		return p.cfg.DialTLS("tcp", addr, tlsCfg)
	}
	d := net.Dialer{}
	rawConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tlsCfg == nil {
		return rawConn, nil
	}
	tlsConn := tls.Client(rawConn, tlsCfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Remove drops addr's pooled connection without closing it (used once
// a connection has entered graceful shutdown and should no longer be
// handed out for new requests).
func (p *Pool) Remove(addr string) {
	p.mu.Lock()
	delete(p.conns, addr)
	p.mu.Unlock()
}

// CloseIdleConnections closes every pooled connection with no open
// streams and no live request handles, removing it from the pool,
// matching the transport-level idle sweep the teacher's scheduler
// pattern performs on a cron tick.
func (p *Pool) CloseIdleConnections() {
	for _, c := range p.snapshot() {
		if c.openStreams.Load() > 0 || c.refs.Load() > 0 {
			continue
		}
		p.mu.Lock()
		if p.conns[c.addr] == c {
			delete(p.conns, c.addr)
		}
		p.mu.Unlock()
		c.cc.Close()
		c.state.Store(int32(StateClosed))
	}
	p.transport.CloseIdleConnections()
}

// snapshot returns the currently pooled connections, for the reaper
// to evaluate without holding the pool lock during I/O.
func (p *Pool) snapshot() []*conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*conn, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, c)
	}
	return out
}
