package server

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"time"

	"weft/config"
	"weft/proxyproto"
)

// proxyProtoListener wraps a net.Listener, decoding an optional PROXY
// protocol v1/v2 preamble off each accepted connection before handing
// it to the caller, matching §4.2's "decode before the TLS/HTTP
// handshake" placement.
type proxyProtoListener struct {
	net.Listener
	cfg config.ProxyProtocolConfig
}

// newProxyProtoListener wraps l. If cfg.Enabled is false, l is
// returned unwrapped.
func newProxyProtoListener(l net.Listener, cfg config.ProxyProtocolConfig) net.Listener {
	if !cfg.Enabled {
		return l
	}
	return &proxyProtoListener{Listener: l, cfg: cfg}
}

func (pl *proxyProtoListener) Accept() (net.Conn, error) {
	c, err := pl.Listener.Accept()
	if err != nil {
		return nil, err
	}

	if pl.cfg.ReadTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(pl.cfg.ReadTimeout))
	}

	br := bufio.NewReader(c)
	dec := proxyproto.NewDecoder()
	var hdr *proxyproto.Header
	for {
		b, err := br.ReadByte()
		if err != nil {
			c.Close()
			return nil, err
		}
		h, err := dec.Feed([]byte{b})
		if err == nil {
			hdr = h
			break
		}
		if _, incomplete := err.(*proxyproto.ErrIncomplete); incomplete {
			continue
		}
		if _, partial := err.(*proxyproto.ErrPartial); partial {
			continue
		}
		if pl.cfg.Required {
			c.Close()
			return nil, err
		}
		// Not a PROXY header: fall back to the raw socket's peer
		// address, replaying what's already been read off the wire
		// through the buffered reader below.
		break
	}

	if pl.cfg.ReadTimeout > 0 {
		c.SetReadDeadline(time.Time{})
	}

	if rest := dec.Remainder(); len(rest) > 0 {
		br = bufio.NewReader(io.MultiReader(bytes.NewReader(rest), br))
	}

	return &proxiedConn{Conn: c, br: br, header: hdr}, nil
}

// proxiedConn overrides RemoteAddr with the PROXY header's source
// address (when present) and serves any bytes buffered while decoding
// the preamble back out through Read.
type proxiedConn struct {
	net.Conn
	br     *bufio.Reader
	header *proxyproto.Header
}

func (c *proxiedConn) Read(b []byte) (int, error) {
	return c.br.Read(b)
}

func (c *proxiedConn) RemoteAddr() net.Addr {
	if c.header != nil && c.header.SrcAddr != nil {
		return c.header.SrcAddr
	}
	return c.Conn.RemoteAddr()
}
