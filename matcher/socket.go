package matcher

import (
	"net"

	wext "weft/ext"
	"weft/wcontext"
)

// toTCPAddr extracts the IP/port pair from any net.Addr the standard
// library hands back for a stream connection.
func toTCPAddr(addr net.Addr) (ip net.IP, port int, ok bool) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP, a.Port, true
	case *net.UDPAddr:
		return a.IP, a.Port, true
	default:
		return nil, 0, false
	}
}

// SocketAddrMatcher holds iff the peer's address equals Addr exactly
// (IP and port).
type SocketAddrMatcher[S any] struct {
	Addr *net.TCPAddr
}

// SocketAddr returns a Matcher for an exact peer socket address.
func SocketAddr[S any](addr *net.TCPAddr) Matcher[S, net.Addr] {
	return &SocketAddrMatcher[S]{Addr: addr}
}

// Matches implements Matcher.
func (m *SocketAddrMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], addr net.Addr) bool {
	ip, port, ok := toTCPAddr(addr)
	if !ok {
		return false
	}
	return ip.Equal(m.Addr.IP) && port == m.Addr.Port
}

// NetworkMatcher holds iff the peer's IP falls within Network.
type NetworkMatcher[S any] struct {
	Network *net.IPNet
}

// Network returns a Matcher for IP network (CIDR) containment.
func Network[S any](network *net.IPNet) Matcher[S, net.Addr] {
	return &NetworkMatcher[S]{Network: network}
}

// Matches implements Matcher.
func (m *NetworkMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], addr net.Addr) bool {
	ip, _, ok := toTCPAddr(addr)
	if !ok {
		return false
	}
	return m.Network.Contains(ip)
}

// PortMatcher holds iff the peer's port equals Port.
type PortMatcher[S any] struct {
	Port int
}

// Port returns a Matcher for an exact peer port.
func Port[S any](port int) Matcher[S, net.Addr] {
	return &PortMatcher[S]{Port: port}
}

// Matches implements Matcher.
func (m *PortMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], addr net.Addr) bool {
	_, port, ok := toTCPAddr(addr)
	return ok && port == m.Port
}

// loopbackMatcher holds iff the peer's IP is a loopback address.
type loopbackMatcher[S any] struct{}

// Loopback returns a Matcher classifying loopback peer addresses
// (127.0.0.0/8, ::1).
func Loopback[S any]() Matcher[S, net.Addr] {
	return loopbackMatcher[S]{}
}

// Matches implements Matcher.
func (loopbackMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], addr net.Addr) bool {
	ip, _, ok := toTCPAddr(addr)
	return ok && ip.IsLoopback()
}

// privateMatcher holds iff the peer's IP is within an RFC 1918 /
// RFC 4193 private range.
type privateMatcher[S any] struct{}

// Private returns a Matcher classifying private-network peer addresses.
func Private[S any]() Matcher[S, net.Addr] {
	return privateMatcher[S]{}
}

// Matches implements Matcher.
func (privateMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], addr net.Addr) bool {
	ip, _, ok := toTCPAddr(addr)
	return ok && ip.IsPrivate()
}
