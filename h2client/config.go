// Package h2client is the HTTP/2 client dispatch engine: it turns an
// already-connected duplex byte stream into a running connection that
// accepts weft requests and resolves weft responses, built on top of
// golang.org/x/net/http2 as the underlying framing library.
package h2client

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"golang.org/x/net/http2"
)

// Defaults mirror the reference h2 client's documented constants
// (initial connection/stream windows, frame and header-list caps, the
// pre-SETTINGS concurrent-stream cap, and the keep-alive deadline).
const (
	DefaultConnWindow           = 5 << 20  // 5 MiB
	DefaultStreamWindow         = 2 << 20  // 2 MiB
	DefaultMaxFrameSize         = 16 << 10 // 16 KiB
	DefaultMaxSendBufSize       = 1 << 20  // 1 MiB
	DefaultMaxHeaderListSize    = 16 << 10 // 16 KiB
	DefaultInitialMaxSendStreams = 100
	DefaultKeepAliveTimeout     = 20 * time.Second
)

// Config collects the HTTP/2 client dispatch engine's configuration
// surface (§6.4). Build an immutable *http2.Transport from it with
// NewTransport; the zero Config is invalid, use NewConfig.
type Config struct {
	AdaptiveWindow bool

	InitialConnWindowSize   int32
	InitialStreamWindowSize int32
	InitialMaxSendStreams   int

	MaxFrameSize      uint32
	MaxHeaderListSize uint32
	MaxSendBufferSize int

	KeepAliveInterval   time.Duration // zero disables keep-alive pings
	KeepAliveTimeout    time.Duration
	KeepAliveWhileIdle  bool

	MaxConcurrentStreams          uint32
	MaxConcurrentResetStreams     int
	MaxPendingAcceptResetStreams  int

	EnablePush              bool
	EnableConnectProtocol   bool
	NoRFC7540Priorities     bool
	HeaderTableSize         uint32

	// DialTLS, when set, is used to establish new connections for the
	// pool instead of net.Dial+tls.Client. Exposed so callers can wire
	// their own dial policy.
	DialTLS func(network, addr string, cfg *tls.Config) (net.Conn, error)
}

// NewConfig returns a Config populated with the documented defaults
// (§4.3.1): a 5 MiB connection window, 2 MiB stream window, 16 KiB
// frame and header-list caps, a 100-stream pre-SETTINGS admission cap,
// a 20s keep-alive timeout, no keep-alive interval, and adaptive
// window disabled.
func NewConfig() *Config {
	return &Config{
		InitialConnWindowSize:   DefaultConnWindow,
		InitialStreamWindowSize: DefaultStreamWindow,
		InitialMaxSendStreams:   DefaultInitialMaxSendStreams,
		MaxFrameSize:            DefaultMaxFrameSize,
		MaxHeaderListSize:       DefaultMaxHeaderListSize,
		MaxSendBufferSize:       DefaultMaxSendBufSize,
		KeepAliveTimeout:        DefaultKeepAliveTimeout,
	}
}

// Validate reports a *werror.Error with KindConfigInvalid for any
// field combination the dispatch engine cannot operate with.
func (c *Config) Validate() error {
	if c.InitialConnWindowSize <= 0 {
		return configErr("initial_conn_window_size must be positive")
	}
	if c.InitialStreamWindowSize <= 0 {
		return configErr("initial_stream_window_size must be positive")
	}
	if c.MaxFrameSize < 16384 || c.MaxFrameSize > 16777215 {
		return configErr("max_frame_size must be within [16384, 16777215]")
	}
	if c.KeepAliveTimeout <= 0 {
		return configErr("keep_alive_timeout must be positive")
	}
	if c.KeepAliveInterval < 0 {
		return configErr("keep_alive_interval must not be negative")
	}
	return nil
}

// NewTransport builds a real *http2.Transport from c. The framing,
// HPACK, and flow-control machinery all live in golang.org/x/net/http2.
// Only MaxHeaderListSize, MaxFrameSize, KeepAliveInterval (as the
// transport's ReadIdleTimeout), KeepAliveTimeout (as PingTimeout) and
// DialTLS are carried onto the transport; the window sizes,
// AdaptiveWindow, InitialMaxSendStreams, MaxSendBufferSize,
// KeepAliveWhileIdle, the concurrent-stream and reset-stream limits,
// EnablePush, EnableConnectProtocol, NoRFC7540Priorities and
// HeaderTableSize are not applied to it.
func (c *Config) NewTransport() (*http2.Transport, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t := &http2.Transport{
		MaxHeaderListSize:          c.MaxHeaderListSize,
		MaxReadFrameSize:           c.MaxFrameSize,
		AllowHTTP:                  true, // dispatch engine owns the upgrade decision, not the transport
		DisableCompression:         true, // hop-by-hop transparency; compression is the compression layer's job
		StrictMaxConcurrentStreams: true,
		ReadIdleTimeout:            c.KeepAliveInterval,
		PingTimeout:                c.KeepAliveTimeout,
	}
	if c.DialTLS != nil {
		t.DialTLSContext = func(_ context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
			return c.DialTLS(network, addr, cfg)
		}
	}
	return t, nil
}

func configErr(msg string) error {
	return newConfigError(msg)
}
