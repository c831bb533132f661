package proxyproto

import (
	"encoding/binary"
	"net"
)

// sig is the fixed 12-byte v2 signature (§4.2.2).
var sig = []byte{0x0D, 0x0A, 0x0D, 0x0A, 0x00, 0x0D, 0x0A, 'Q', 'U', 'I', 'T', 0x0A}

// EncodeV2 builds the binary PROXY v2 preamble described by h
// (§4.2.2). h.Family determines the address-block layout; TLVs are
// emitted in order.
func EncodeV2(h *Header) ([]byte, error) {
	addrBlock, err := encodeV2Addresses(h)
	if err != nil {
		return nil, err
	}

	tlvBytes, err := encodeTLVs(h.TLVs)
	if err != nil {
		return nil, err
	}

	total := len(addrBlock) + len(tlvBytes)
	out := make([]byte, 0, 16+total)
	out = append(out, sig...)
	out = append(out, byte(Version2<<4)|byte(h.Command&0x0F))
	out = append(out, byte(h.Family<<4)|byte(h.Transport&0x0F))
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(total))
	out = append(out, lenBuf...)
	out = append(out, addrBlock...)
	out = append(out, tlvBytes...)
	return out, nil
}

func encodeV2Addresses(h *Header) ([]byte, error) {
	switch h.Family {
	case AFUnspec:
		return nil, nil
	case AFInet:
		src, ok1 := h.SrcAddr.(*net.TCPAddr)
		dst, ok2 := h.DstAddr.(*net.TCPAddr)
		if !ok1 || !ok2 {
			return nil, &ErrInvalidAddresses{Expected: addrLenInet}
		}
		buf := make([]byte, 0, addrLenInet)
		buf = append(buf, src.IP.To4()...)
		buf = append(buf, dst.IP.To4()...)
		buf = appendPort(buf, src.Port)
		buf = appendPort(buf, dst.Port)
		return buf, nil
	case AFInet6:
		src, ok1 := h.SrcAddr.(*net.TCPAddr)
		dst, ok2 := h.DstAddr.(*net.TCPAddr)
		if !ok1 || !ok2 {
			return nil, &ErrInvalidAddresses{Expected: addrLenInet6}
		}
		buf := make([]byte, 0, addrLenInet6)
		buf = append(buf, src.IP.To16()...)
		buf = append(buf, dst.IP.To16()...)
		buf = appendPort(buf, src.Port)
		buf = appendPort(buf, dst.Port)
		return buf, nil
	case AFUnix:
		src, ok1 := h.SrcAddr.(*net.UnixAddr)
		dst, ok2 := h.DstAddr.(*net.UnixAddr)
		if !ok1 || !ok2 {
			return nil, &ErrInvalidAddresses{Expected: addrLenUnix}
		}
		buf := make([]byte, addrLenUnix)
		copy(buf[0:108], src.Name)
		copy(buf[108:216], dst.Name)
		return buf, nil
	default:
		return nil, &ErrUnsupportedFamily{Family: byte(h.Family)}
	}
}

func appendPort(buf []byte, port int) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(port))
	return append(buf, b...)
}

func encodeTLVs(tlvs []TLV) ([]byte, error) {
	var out []byte
	for _, t := range tlvs {
		out = append(out, t.Type)
		lenBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(lenBuf, uint16(len(t.Value)))
		out = append(out, lenBuf...)
		out = append(out, t.Value...)
	}
	return out, nil
}

func addrLenForFamily(f AddressFamily) (int, bool) {
	switch f {
	case AFUnspec:
		return addrLenUnspec, true
	case AFInet:
		return addrLenInet, true
	case AFInet6:
		return addrLenInet6, true
	case AFUnix:
		return addrLenUnix, true
	default:
		return 0, false
	}
}

// DecodeV2 parses a single v2 binary header from the start of buf. It
// returns the decoded Header and the number of bytes consumed. If buf
// does not yet contain the fixed 16-byte prefix, it returns
// *ErrIncomplete; if the prefix is present but the declared length
// extends past len(buf), it returns *ErrPartial so the caller knows
// exactly how many more bytes to read (§4.2.3).
func DecodeV2(buf []byte) (*Header, int, error) {
	if len(buf) < 12 {
		return nil, 0, &ErrIncomplete{Need: 12 - len(buf)}
	}
	for i := range sig {
		if buf[i] != sig[i] {
			return nil, 0, ErrInvalidPrefix
		}
	}
	if len(buf) < 16 {
		return nil, 0, &ErrIncomplete{Need: 16 - len(buf)}
	}

	verCmd := buf[12]
	version := verCmd >> 4
	if version != byte(Version2) {
		return nil, 0, &ErrUnsupportedVersion{Version: version}
	}
	command := Command(verCmd & 0x0F)
	if command != CmdLocal && command != CmdProxy {
		return nil, 0, &ErrUnsupportedCommand{Command: byte(command)}
	}

	famProto := buf[13]
	family := AddressFamily(famProto >> 4)
	transport := Transport(famProto & 0x0F)
	addrLen, ok := addrLenForFamily(family)
	if !ok {
		return nil, 0, &ErrUnsupportedFamily{Family: byte(family)}
	}

	total := int(binary.BigEndian.Uint16(buf[14:16]))
	if total < addrLen {
		return nil, 0, &ErrInvalidAddresses{Len: total, Expected: addrLen}
	}
	if len(buf) < 16+total {
		return nil, 0, &ErrPartial{Have: len(buf), Total: 16 + total}
	}

	h := &Header{Version: Version2, Command: command, Family: family, Transport: transport}

	addrBuf := buf[16 : 16+addrLen]
	switch family {
	case AFInet:
		h.SrcAddr = &net.TCPAddr{IP: net.IP(append([]byte(nil), addrBuf[0:4]...)), Port: int(binary.BigEndian.Uint16(addrBuf[8:10]))}
		h.DstAddr = &net.TCPAddr{IP: net.IP(append([]byte(nil), addrBuf[4:8]...)), Port: int(binary.BigEndian.Uint16(addrBuf[10:12]))}
	case AFInet6:
		h.SrcAddr = &net.TCPAddr{IP: net.IP(append([]byte(nil), addrBuf[0:16]...)), Port: int(binary.BigEndian.Uint16(addrBuf[32:34]))}
		h.DstAddr = &net.TCPAddr{IP: net.IP(append([]byte(nil), addrBuf[16:32]...)), Port: int(binary.BigEndian.Uint16(addrBuf[34:36]))}
	case AFUnix:
		h.SrcAddr = &net.UnixAddr{Name: cstring(addrBuf[0:108]), Net: "unix"}
		h.DstAddr = &net.UnixAddr{Name: cstring(addrBuf[108:216]), Net: "unix"}
	case AFUnspec:
		// no addresses
	}

	tlvBuf := buf[16+addrLen : 16+total]
	tlvs, err := decodeTLVs(tlvBuf)
	if err != nil {
		return nil, 0, err
	}
	h.TLVs = tlvs
	h.Raw = append([]byte(nil), buf[:16+total]...)
	return h, 16 + total, nil
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// decodeTLVs parses every TLV entry in buf, erroring on any entry
// whose declared length exceeds the bytes remaining (§4.2.3).
func decodeTLVs(buf []byte) ([]TLV, error) {
	var tlvs []TLV
	for len(buf) > 0 {
		if len(buf) < 3 {
			return nil, &ErrInvalidTLV{Type: buf[0], Len: len(buf) - 1}
		}
		typ := buf[0]
		length := int(binary.BigEndian.Uint16(buf[1:3]))
		if 3+length > len(buf) {
			return nil, &ErrInvalidTLV{Type: typ, Len: length}
		}
		tlvs = append(tlvs, TLV{Type: typ, Value: append([]byte(nil), buf[3:3+length]...)})
		buf = buf[3+length:]
	}
	return tlvs, nil
}

// TLVIterator lazily yields TLV entries from a decoded header's
// raw TLV region, per §4.2.3's "TLV iterator that yields
// Result<TLV, ParseError> lazily". Header.TLVs already holds the
// eagerly-decoded list; TLVIterator exists for callers that want to
// stop early without paying for entries they don't need.
type TLVIterator struct {
	buf []byte
	err error
}

// NewTLVIterator returns an iterator over h's TLV region.
func NewTLVIterator(h *Header) *TLVIterator {
	addrLen, _ := addrLenForFamily(h.Family)
	if len(h.Raw) < 16+addrLen {
		return &TLVIterator{}
	}
	return &TLVIterator{buf: h.Raw[16+addrLen:]}
}

// Next returns the next TLV, or (nil, nil) when exhausted, or a
// non-nil error if the region is malformed.
func (it *TLVIterator) Next() (*TLV, error) {
	if it.err != nil {
		return nil, it.err
	}
	if len(it.buf) == 0 {
		return nil, nil
	}
	if len(it.buf) < 3 {
		it.err = &ErrInvalidTLV{Type: it.buf[0], Len: len(it.buf) - 1}
		return nil, it.err
	}
	typ := it.buf[0]
	length := int(binary.BigEndian.Uint16(it.buf[1:3]))
	if 3+length > len(it.buf) {
		it.err = &ErrInvalidTLV{Type: typ, Len: length}
		return nil, it.err
	}
	tlv := &TLV{Type: typ, Value: append([]byte(nil), it.buf[3:3+length]...)}
	it.buf = it.buf[3+length:]
	return tlv, nil
}
