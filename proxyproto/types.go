// Package proxyproto implements a bit-exact encoder/decoder for
// HAProxy's PROXY protocol preamble (§3.4, §4.2): v1 text and v2
// binary, including v2's TLV extension list and incremental,
// partial-buffer-tolerant decoding (§4.2.3).
package proxyproto

import "net"

// Version identifies the wire format: 1 (ASCII text line) or 2
// (binary).
type Version byte

const (
	Version1 Version = 1
	Version2 Version = 2
)

// Command is the v2 command nibble: LOCAL (health check, addresses
// meaningless) or PROXY (addresses carry the real client/server pair).
type Command byte

const (
	CmdLocal Command = 0x0
	CmdProxy Command = 0x1
)

// AddressFamily is the v2 family nibble.
type AddressFamily byte

const (
	AFUnspec AddressFamily = 0x0
	AFInet   AddressFamily = 0x1
	AFInet6  AddressFamily = 0x2
	AFUnix   AddressFamily = 0x3
)

// Transport is the v2 transport nibble.
type Transport byte

const (
	TransportUnspec Transport = 0x0
	TransportStream Transport = 0x1
	TransportDgram  Transport = 0x2
)

// Address-block sizes in bytes, per family, for v2 (§3.4).
const (
	addrLenUnspec = 0
	addrLenInet   = 12  // src(4) + dst(4) + sport(2) + dport(2)
	addrLenInet6  = 36  // src(16) + dst(16) + sport(2) + dport(2)
	addrLenUnix   = 216 // src_path(108) + dst_path(108)
)

// Well-known v2 TLV types (PP2_TYPE_*), per the HAProxy spec.
const (
	TLVTypeALPN     byte = 0x01
	TLVTypeAuthority byte = 0x02
	TLVTypeCRC32C   byte = 0x03
	TLVTypeNOOP     byte = 0x04
	TLVTypeUniqueID byte = 0x05
	TLVTypeSSL      byte = 0x20
	TLVTypeNetNS    byte = 0x30
)

// TLV is a single Type-Length-Value extension entry (§3.4).
type TLV struct {
	Type  byte
	Value []byte
}

// Header is the fully decoded representation of a PROXY preamble,
// v1 or v2 (§3.4).
type Header struct {
	Version   Version
	Command   Command // always CmdProxy for v1
	Family    AddressFamily
	Transport Transport
	SrcAddr   net.Addr // *net.TCPAddr or *net.UnixAddr; nil for AFUnspec
	DstAddr   net.Addr
	TLVs      []TLV // v2 only; always empty for v1
	Raw       []byte
}
