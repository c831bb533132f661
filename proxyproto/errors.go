package proxyproto

import (
	"fmt"

	"weft/werror"
)

// ErrIncomplete is returned (wrapped with the bytes still needed) when
// the buffer presented so far does not contain a complete header.
// Callers should read more bytes and retry (§4.2.3).
type ErrIncomplete struct {
	// Need is a lower bound on additional bytes required; 0 means
	// "unknown, just read more and retry".
	Need int
}

func (e *ErrIncomplete) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("proxyproto: incomplete header, need at least %d more byte(s)", e.Need)
	}
	return "proxyproto: incomplete header"
}

// ErrPartial reports a v2 header whose declared length exceeds what
// has arrived so far.
type ErrPartial struct {
	Have, Total int
}

func (e *ErrPartial) Error() string {
	return fmt.Sprintf("proxyproto: partial v2 header, have %d of %d bytes", e.Have, e.Total)
}

// ErrInvalidPrefix means the buffer's leading bytes match neither the
// v1 "PROXY " literal nor the v2 12-byte signature.
var ErrInvalidPrefix = werror.New(werror.KindProtocol, "proxyproto: invalid signature")

// ErrUnsupportedVersion means the v2 version nibble was not 2.
type ErrUnsupportedVersion struct{ Version byte }

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("proxyproto: unsupported version %d", e.Version)
}

// ErrUnsupportedCommand means the v2 command nibble was neither LOCAL
// nor PROXY.
type ErrUnsupportedCommand struct{ Command byte }

func (e *ErrUnsupportedCommand) Error() string {
	return fmt.Sprintf("proxyproto: unsupported command 0x%x", e.Command)
}

// ErrUnsupportedFamily means the v2 family nibble is not one of
// UNSPEC/IPv4/IPv6/UNIX.
type ErrUnsupportedFamily struct{ Family byte }

func (e *ErrUnsupportedFamily) Error() string {
	return fmt.Sprintf("proxyproto: unsupported address family 0x%x", e.Family)
}

// ErrInvalidAddresses means the v2 declared length is shorter than
// the address block the family requires (§4.2.3).
type ErrInvalidAddresses struct {
	Len, Expected int
}

func (e *ErrInvalidAddresses) Error() string {
	return fmt.Sprintf("proxyproto: invalid address block: have %d bytes, need at least %d", e.Len, e.Expected)
}

// ErrInvalidTLV means a TLV's declared length runs past the bytes
// remaining in the header (§4.2.3).
type ErrInvalidTLV struct {
	Type byte
	Len  int
}

func (e *ErrInvalidTLV) Error() string {
	return fmt.Sprintf("proxyproto: invalid TLV type 0x%x: length %d exceeds remaining bytes", e.Type, e.Len)
}

// ErrIPVersionMismatch is returned by EncodeV1 when src and dst belong
// to different IP address families (§4.2.1, S2).
var ErrIPVersionMismatch = werror.New(werror.KindConfigInvalid, "proxyproto: src/dst IP version mismatch")
