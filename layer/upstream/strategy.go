// Package upstream selects which backend target a request is routed
// to and rewrites the request accordingly before handing it to the
// inner service (typically an h2client.Dispatcher).
package upstream

import (
	"weft/service"
)

// Target is one routable backend: a host:port address plus the
// bookkeeping the strategies below need (weight, health, a stable
// name for sticky/manual selection).
type Target struct {
	Name    string
	Addr    string
	Weight  int
	Healthy bool
}

// Strategy selects a Target from the available set for a given
// request. Implementations must be safe for concurrent use.
type Strategy interface {
	Select(req *service.Request, available []Target) (Target, error)
	Name() string
	Reset()
}
