package proxyproto

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
)

// maxV1Length is the longest possible v1 line: "PROXY TCP6 " + two
// full IPv6 addresses + two ports + "\r\n" (§3.4).
const maxV1Length = 107

// EncodeV1 builds the ASCII PROXY v1 preamble for the given source and
// destination TCP sockets (§4.2.1). src and dst must be the same IP
// family; otherwise ErrIPVersionMismatch is returned (S2).
func EncodeV1(src, dst *net.TCPAddr) ([]byte, error) {
	srcV4, srcIsV4 := v4(src.IP)
	dstV4, dstIsV4 := v4(dst.IP)
	if srcIsV4 != dstIsV4 {
		return nil, ErrIPVersionMismatch
	}

	proto := "TCP6"
	srcIP, dstIP := src.IP.String(), dst.IP.String()
	if srcIsV4 {
		proto = "TCP4"
		srcIP, dstIP = srcV4.String(), dstV4.String()
	}

	line := fmt.Sprintf("PROXY %s %s %s %d %d\r\n", proto, srcIP, dstIP, src.Port, dst.Port)
	return []byte(line), nil
}

// v4 reports the 4-byte form of ip and whether ip is an IPv4 address.
func v4(ip net.IP) (net.IP, bool) {
	if v4 := ip.To4(); v4 != nil {
		return v4, true
	}
	return ip, false
}

// DecodeV1 parses a single v1 PROXY line from the start of buf. It
// returns the decoded Header and the number of bytes consumed
// (including the trailing "\r\n"). If buf does not yet contain a full
// line, it returns *ErrIncomplete; the caller should read more bytes
// and retry with the extended buffer (§4.2.3).
func DecodeV1(buf []byte) (*Header, int, error) {
	if len(buf) < 6 || string(buf[:6]) != "PROXY " {
		return nil, 0, ErrInvalidPrefix
	}

	limit := len(buf)
	if limit > maxV1Length {
		limit = maxV1Length
	}
	idx := bytes.Index(buf[:limit], []byte("\r\n"))
	if idx < 0 {
		if len(buf) >= maxV1Length {
			return nil, 0, ErrInvalidPrefix
		}
		return nil, 0, &ErrIncomplete{}
	}

	line := string(buf[6:idx])
	fields := splitFields(line)
	if len(fields) == 0 {
		return nil, 0, ErrInvalidPrefix
	}

	proto := fields[0]
	if proto == "UNKNOWN" {
		// The remaining fields, if any, are unspecified and ignored.
		h := &Header{Version: Version1, Command: CmdProxy, Family: AFUnspec, Transport: TransportUnspec}
		h.Raw = append([]byte(nil), buf[:idx+2]...)
		return h, idx + 2, nil
	}
	if len(fields) != 5 {
		return nil, 0, ErrInvalidPrefix
	}
	srcIPStr, dstIPStr, srcPortStr, dstPortStr := fields[1], fields[2], fields[3], fields[4]
	if proto != "TCP4" && proto != "TCP6" {
		return nil, 0, ErrInvalidPrefix
	}

	srcPort, err := strconv.Atoi(srcPortStr)
	if err != nil {
		return nil, 0, ErrInvalidPrefix
	}
	dstPort, err := strconv.Atoi(dstPortStr)
	if err != nil {
		return nil, 0, ErrInvalidPrefix
	}

	srcIP := net.ParseIP(srcIPStr)
	dstIP := net.ParseIP(dstIPStr)
	if srcIP == nil || dstIP == nil {
		return nil, 0, ErrInvalidPrefix
	}

	wantV4 := proto == "TCP4"
	if (srcIP.To4() != nil) != wantV4 || (dstIP.To4() != nil) != wantV4 {
		return nil, 0, ErrIPVersionMismatch
	}

	h := &Header{
		Version:   Version1,
		Command:   CmdProxy,
		Family:    AFInet6,
		Transport: TransportStream,
		SrcAddr:   &net.TCPAddr{IP: srcIP, Port: srcPort},
		DstAddr:   &net.TCPAddr{IP: dstIP, Port: dstPort},
	}
	if wantV4 {
		h.Family = AFInet
	}
	h.Raw = append([]byte(nil), buf[:idx+2]...)
	return h, idx + 2, nil
}

func splitFields(s string) []string {
	var fields []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fields = append(fields, s[start:i])
			start = -1
		}
	}
	return fields
}
