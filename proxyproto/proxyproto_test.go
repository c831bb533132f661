package proxyproto

import (
	"bytes"
	"net"
	"testing"
)

func TestEncodeV1IPv4RoundTrip(t *testing.T) {
	src := &net.TCPAddr{IP: net.ParseIP("127.0.1.2"), Port: 80}
	dst := &net.TCPAddr{IP: net.ParseIP("192.168.1.101"), Port: 443}

	got, err := EncodeV1(src, dst)
	if err != nil {
		t.Fatalf("EncodeV1() error = %v", err)
	}
	want := "PROXY TCP4 127.0.1.2 192.168.1.101 80 443\r\n"
	if string(got) != want {
		t.Fatalf("EncodeV1() = %q, want %q", got, want)
	}

	h, n, err := DecodeV1(got)
	if err != nil {
		t.Fatalf("DecodeV1() error = %v", err)
	}
	if n != len(got) {
		t.Fatalf("DecodeV1() consumed %d bytes, want %d", n, len(got))
	}
	gotSrc := h.SrcAddr.(*net.TCPAddr)
	gotDst := h.DstAddr.(*net.TCPAddr)
	if !gotSrc.IP.Equal(src.IP) || gotSrc.Port != src.Port {
		t.Fatalf("decoded src = %v, want %v", gotSrc, src)
	}
	if !gotDst.IP.Equal(dst.IP) || gotDst.Port != dst.Port {
		t.Fatalf("decoded dst = %v, want %v", gotDst, dst)
	}
	if h.Family != AFInet {
		t.Fatalf("Family = %v, want AFInet", h.Family)
	}
}

func TestEncodeV1FamilyMismatchRejected(t *testing.T) {
	src := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 80}
	dst := &net.TCPAddr{IP: net.ParseIP("::1"), Port: 443}

	_, err := EncodeV1(src, dst)
	if err != ErrIPVersionMismatch {
		t.Fatalf("EncodeV1() error = %v, want ErrIPVersionMismatch", err)
	}
}

func TestDecodeV1Incomplete(t *testing.T) {
	partial := []byte("PROXY TCP4 127.0.0.1 127.0.0")
	_, _, err := DecodeV1(partial)
	if _, ok := err.(*ErrIncomplete); !ok {
		t.Fatalf("DecodeV1() error = %v (%T), want *ErrIncomplete", err, err)
	}
}

func TestEncodeV2IPv4StreamWithPayloadTLV(t *testing.T) {
	h := &Header{
		Version:   Version2,
		Command:   CmdProxy,
		Family:    AFInet,
		Transport: TransportStream,
		SrcAddr:   &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 80},
		DstAddr:   &net.TCPAddr{IP: net.ParseIP("192.168.1.1"), Port: 443},
		TLVs:      []TLV{{Type: TLVTypeNOOP, Value: []byte{42}}},
	}

	got, err := EncodeV2(h)
	if err != nil {
		t.Fatalf("EncodeV2() error = %v", err)
	}

	wantPrefix := []byte{0x0D, 0x0A, 0x0D, 0x0A, 0x00, 0x0D, 0x0A, 0x51, 0x55, 0x49, 0x54, 0x0A, 0x21, 0x11, 0x00, 0x0D}
	if !bytes.Equal(got[:16], wantPrefix) {
		t.Fatalf("prefix = % X, want % X", got[:16], wantPrefix)
	}
	wantAddr := []byte{0x7F, 0x00, 0x00, 0x01, 0xC0, 0xA8, 0x01, 0x01, 0x00, 0x50, 0x01, 0xBB}
	if !bytes.Equal(got[16:28], wantAddr) {
		t.Fatalf("address block = % X, want % X", got[16:28], wantAddr)
	}
	wantPayload := []byte{0x04, 0x00, 0x01, 0x2A}
	if !bytes.Equal(got[28:], wantPayload) {
		t.Fatalf("TLV = % X, want % X", got[28:], wantPayload)
	}
}

func TestDecodeV2RoundTripIPv4(t *testing.T) {
	h := &Header{
		Version:   Version2,
		Command:   CmdProxy,
		Family:    AFInet,
		Transport: TransportStream,
		SrcAddr:   &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345},
		DstAddr:   &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 56789},
	}
	encoded, err := EncodeV2(h)
	if err != nil {
		t.Fatalf("EncodeV2() error = %v", err)
	}

	decoded, n, err := DecodeV2(encoded)
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("DecodeV2() consumed %d, want %d", n, len(encoded))
	}
	if decoded.SrcAddr.(*net.TCPAddr).Port != 12345 || decoded.DstAddr.(*net.TCPAddr).Port != 56789 {
		t.Fatalf("unexpected decoded addresses: %+v / %+v", decoded.SrcAddr, decoded.DstAddr)
	}
}

func TestDecodeV2IPv6(t *testing.T) {
	raw := []byte("\r\n\r\n\x00\r\nQUIT\n" +
		"\x21\x21\x00\x24" +
		"\x00\x7F\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01" +
		"\x00\x7F\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x01" +
		"\x30\x39\xDD\xD5")

	h, n, err := DecodeV2(raw)
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}
	if n != len(raw) {
		t.Fatalf("consumed %d, want %d", n, len(raw))
	}
	if h.Family != AFInet6 {
		t.Fatalf("Family = %v, want AFInet6", h.Family)
	}
	if h.SrcAddr.(*net.TCPAddr).Port != 12345 || h.DstAddr.(*net.TCPAddr).Port != 56789 {
		t.Fatalf("unexpected ports: %+v / %+v", h.SrcAddr, h.DstAddr)
	}
}

func TestDecodeV2TLVGroups(t *testing.T) {
	raw := []byte("\r\n\r\n\x00\r\nQUIT\n" +
		"\x21\x11\x00\x3C" +
		"\x7F\x00\x00\x01\x7F\x00\x00\x01" +
		"\x30\x39\xDD\xD5" +
		"\xEA\x00\x22vcpe-abcdefg-hijklmn-opqrst-uvwxyz" +
		"\x04\x00\x08\x00\x00\x00\x00\x00\x00\x00\x00")

	h, _, err := DecodeV2(raw)
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}
	if len(h.TLVs) != 2 {
		t.Fatalf("len(TLVs) = %d, want 2", len(h.TLVs))
	}
	if h.TLVs[0].Type != 234 || string(h.TLVs[0].Value) != "vcpe-abcdefg-hijklmn-opqrst-uvwxyz" {
		t.Fatalf("unexpected first TLV: %+v", h.TLVs[0])
	}
	if h.TLVs[1].Type != TLVTypeNOOP {
		t.Fatalf("unexpected second TLV type: %v", h.TLVs[1].Type)
	}
}

func TestDecodeV2LocalCommand(t *testing.T) {
	raw := []byte("\r\n\r\n\x00\r\nQUIT\n" + "\x20" + "\x00" + "\x00\x00")
	h, n, err := DecodeV2(raw)
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}
	if n != len(raw) {
		t.Fatalf("consumed %d, want %d", n, len(raw))
	}
	if h.Command != CmdLocal {
		t.Fatalf("Command = %v, want CmdLocal", h.Command)
	}
}

func TestDecodeV2PartialReportsExactShortfall(t *testing.T) {
	full := []byte("\r\n\r\n\x00\r\nQUIT\n" +
		"\x21\x11\x00\x0C" +
		"\x7F\x00\x00\x01\x7F\x00\x00\x01\x30\x39\xDD\xD5")
	truncated := full[:20]

	_, _, err := DecodeV2(truncated)
	perr, ok := err.(*ErrPartial)
	if !ok {
		t.Fatalf("DecodeV2() error = %v (%T), want *ErrPartial", err, err)
	}
	if perr.Total != len(full) {
		t.Fatalf("ErrPartial.Total = %d, want %d", perr.Total, len(full))
	}
}

func TestDecodeV2InvalidAddressesLengthTooShort(t *testing.T) {
	raw := []byte("\r\n\r\n\x00\r\nQUIT\n" + "\x21\x11\x00\x04" + "\x00\x00\x00\x00")
	_, _, err := DecodeV2(raw)
	aerr, ok := err.(*ErrInvalidAddresses)
	if !ok {
		t.Fatalf("DecodeV2() error = %v (%T), want *ErrInvalidAddresses", err, err)
	}
	if aerr.Expected != addrLenInet {
		t.Fatalf("Expected = %d, want %d", aerr.Expected, addrLenInet)
	}
}

func TestDecodeV2InvalidTLVLengthExceedsRemaining(t *testing.T) {
	// Declared total is 17 (12-byte address block + 5-byte TLV region),
	// but the TLV inside that region claims a 255-byte value with only
	// 2 bytes actually left.
	raw := []byte("\r\n\r\n\x00\r\nQUIT\n" +
		"\x21\x11\x00\x11" +
		"\x7F\x00\x00\x01\x7F\x00\x00\x01\x30\x39\xDD\xD5" +
		"\x04\x00\xFF\x00\x00")
	_, _, err := DecodeV2(raw)
	if _, ok := err.(*ErrInvalidTLV); !ok {
		t.Fatalf("DecodeV2() error = %v (%T), want *ErrInvalidTLV", err, err)
	}
}

func TestDecodeV2UnixSocket(t *testing.T) {
	name := "/tmp/sock"
	padded := make([]byte, 108)
	copy(padded, name)

	var raw bytes.Buffer
	raw.Write(sig)
	raw.WriteByte(0x21)
	raw.WriteByte(0x31) // AFUnix<<4 | TransportStream
	raw.Write([]byte{0x00, 0xD8})
	raw.Write(padded)
	raw.Write(padded)

	h, n, err := DecodeV2(raw.Bytes())
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}
	if n != raw.Len() {
		t.Fatalf("consumed %d, want %d", n, raw.Len())
	}
	if h.SrcAddr.(*net.UnixAddr).Name != name {
		t.Fatalf("SrcAddr.Name = %q, want %q", h.SrcAddr.(*net.UnixAddr).Name, name)
	}
}

func TestTLVIteratorMatchesEagerDecode(t *testing.T) {
	h := &Header{
		Version: Version2, Command: CmdProxy, Family: AFInet, Transport: TransportStream,
		SrcAddr: &net.TCPAddr{IP: net.ParseIP("1.2.3.4"), Port: 1},
		DstAddr: &net.TCPAddr{IP: net.ParseIP("5.6.7.8"), Port: 2},
		TLVs:    []TLV{{Type: TLVTypeNOOP, Value: []byte{1, 2}}, {Type: TLVTypeCRC32C, Value: []byte{3, 4, 5, 6}}},
	}
	encoded, err := EncodeV2(h)
	if err != nil {
		t.Fatalf("EncodeV2() error = %v", err)
	}
	decoded, _, err := DecodeV2(encoded)
	if err != nil {
		t.Fatalf("DecodeV2() error = %v", err)
	}

	it := NewTLVIterator(decoded)
	var got []TLV
	for {
		tlv, err := it.Next()
		if err != nil {
			t.Fatalf("iterator error = %v", err)
		}
		if tlv == nil {
			break
		}
		got = append(got, *tlv)
	}
	if len(got) != len(decoded.TLVs) {
		t.Fatalf("iterator yielded %d entries, want %d", len(got), len(decoded.TLVs))
	}
}

func TestDecoderFeedsIncrementally(t *testing.T) {
	full := []byte("PROXY TCP4 10.0.0.1 10.0.0.2 1111 2222\r\n")
	d := NewDecoder()

	for i := 0; i < len(full)-1; i++ {
		h, err := d.Feed(full[i : i+1])
		if h != nil {
			t.Fatalf("unexpected early success at byte %d", i)
		}
		if _, ok := err.(*ErrIncomplete); !ok {
			t.Fatalf("Feed() error at byte %d = %v (%T), want *ErrIncomplete", i, err, err)
		}
	}
	h, err := d.Feed(full[len(full)-1:])
	if err != nil {
		t.Fatalf("Feed() final error = %v", err)
	}
	if h == nil || h.SrcAddr.(*net.TCPAddr).Port != 1111 {
		t.Fatalf("unexpected final header: %+v", h)
	}
}

func TestDecoderRetainsRemainderAfterHeader(t *testing.T) {
	header := []byte("PROXY TCP4 10.0.0.1 10.0.0.2 1111 2222\r\n")
	payload := []byte("GET / HTTP/1.1\r\n\r\n")
	d := NewDecoder()

	h, err := d.Feed(append(append([]byte(nil), header...), payload...))
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if h == nil {
		t.Fatal("expected a decoded header")
	}
	if !bytes.Equal(d.Remainder(), payload) {
		t.Fatalf("Remainder() = %q, want %q", d.Remainder(), payload)
	}
}

func TestDecodeV1UnknownProtoIsAccepted(t *testing.T) {
	v1 := []byte("PROXY UNKNOWN\r\n")
	h, n, err := Decode(v1)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if h.Version != Version1 || h.Family != AFUnspec || n != len(v1) {
		t.Fatalf("unexpected decode of UNKNOWN v1: %+v, n=%d", h, n)
	}
}
