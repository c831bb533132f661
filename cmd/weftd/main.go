// Command weftd runs weft, a layered HTTP/2 dispatch proxy: it accepts
// inbound connections (optionally PROXY-protocol-prefixed), runs each
// request through a configurable layer stack (auth, rate limiting,
// retry, compression, upstream selection), and dispatches it upstream
// over a pooled HTTP/2 client connection.
//
// Usage:
//
//	# Start the proxy with a configuration file
//	weftd serve --config /path/to/config.yaml
//
//	# Exercise the PROXY protocol codec directly
//	weftd proxyproto encode --src 10.0.0.1:4000 --dst 10.0.0.2:443
//	weftd proxyproto decode < header.bin
//
//	# Show version information
//	weftd version
package main

func main() {
	Execute()
}
