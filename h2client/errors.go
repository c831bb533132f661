package h2client

import (
	"errors"

	"golang.org/x/net/http2"

	"weft/werror"
)

func newConfigError(msg string) error {
	return werror.New(werror.KindConfigInvalid, "h2client: "+msg)
}

// classifyTransportError maps an error surfaced by golang.org/x/net/http2
// onto the dispatch engine's error kinds (§7), preserving the original
// error as the cause.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	var goAway http2.GoAwayError
	if errors.As(err, &goAway) {
		return werror.WithKind(err, werror.KindProtocol, "h2client: peer sent GOAWAY")
	}
	var streamErr http2.StreamError
	if errors.As(err, &streamErr) {
		return werror.WithKind(err, werror.KindProtocol, "h2client: stream error")
	}
	var connErr http2.ConnectionError
	if errors.As(err, &connErr) {
		return werror.WithKind(err, werror.KindProtocol, "h2client: connection error")
	}
	if errors.Is(err, http2.ErrNoCachedConn) {
		return werror.WithKind(err, werror.KindIO, "h2client: no cached connection")
	}
	return werror.WithKind(err, werror.KindIO, "h2client: transport error")
}
