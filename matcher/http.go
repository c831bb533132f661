package matcher

import (
	"net/http"
	"strings"

	wext "weft/ext"
	wservice "weft/service"
	"weft/wcontext"
)

// UriParams holds captures published by PathMatcher, e.g. the value
// bound to a :param or *param segment. Retrieve it after a successful
// match with ext.Get[UriParams](req.Ext).
type UriParams map[string]string

// MethodMatcher holds iff the request's method is one of Methods.
type MethodMatcher[S any] struct {
	Methods []string
}

// Method returns a Matcher over the given HTTP methods.
func Method[S any](methods ...string) Matcher[S, *wservice.Request] {
	return &MethodMatcher[S]{Methods: methods}
}

// Matches implements Matcher.
func (m *MethodMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], req *wservice.Request) bool {
	for _, want := range m.Methods {
		if strings.EqualFold(req.Method, want) {
			return true
		}
	}
	return false
}

// VersionMatcher holds iff the request's Proto equals one of Versions
// (e.g. "HTTP/2.0").
type VersionMatcher[S any] struct {
	Versions []string
}

// Version returns a Matcher over the given HTTP protocol strings.
func Version[S any](versions ...string) Matcher[S, *wservice.Request] {
	return &VersionMatcher[S]{Versions: versions}
}

// Matches implements Matcher.
func (m *VersionMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], req *wservice.Request) bool {
	for _, v := range m.Versions {
		if req.Proto == v {
			return true
		}
	}
	return false
}

// DomainMatcher holds iff the request URI's host equals Suffix or ends
// with "."+Suffix, implementing subdomain matching.
type DomainMatcher[S any] struct {
	Suffix string
}

// Domain returns a Matcher over a host/domain suffix.
func Domain[S any](suffix string) Matcher[S, *wservice.Request] {
	return &DomainMatcher[S]{Suffix: strings.ToLower(suffix)}
}

// Matches implements Matcher.
func (m *DomainMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], req *wservice.Request) bool {
	if req.URL == nil {
		return false
	}
	host := strings.ToLower(req.URL.Hostname())
	return host == m.Suffix || strings.HasSuffix(host, "."+m.Suffix)
}

// HeaderMode selects how HeaderMatcher compares a header's value.
type HeaderMode int

const (
	// HeaderPresent holds iff the header is present, regardless of value.
	HeaderPresent HeaderMode = iota
	// HeaderEquals holds iff the header's value equals Value exactly.
	HeaderEquals
	// HeaderContains holds iff the header's value contains Value as a substring.
	HeaderContains
)

// HeaderMatcher matches on a single header's presence, exact value, or
// substring.
type HeaderMatcher[S any] struct {
	Name  string
	Value string
	Mode  HeaderMode
}

// Header returns a Matcher for header presence.
func Header[S any](name string) Matcher[S, *wservice.Request] {
	return &HeaderMatcher[S]{Name: name, Mode: HeaderPresent}
}

// HeaderEqual returns a Matcher for an exact header value.
func HeaderEqual[S any](name, value string) Matcher[S, *wservice.Request] {
	return &HeaderMatcher[S]{Name: name, Value: value, Mode: HeaderEquals}
}

// HeaderSubstring returns a Matcher for a header value substring.
func HeaderSubstring[S any](name, substr string) Matcher[S, *wservice.Request] {
	return &HeaderMatcher[S]{Name: name, Value: substr, Mode: HeaderContains}
}

// Matches implements Matcher.
func (m *HeaderMatcher[S]) Matches(_ *wext.Extensions, _ *wcontext.Context[S], req *wservice.Request) bool {
	values := req.Header.Values(http.CanonicalHeaderKey(m.Name))
	if len(values) == 0 {
		return false
	}
	switch m.Mode {
	case HeaderPresent:
		return true
	case HeaderEquals:
		for _, v := range values {
			if v == m.Value {
				return true
			}
		}
		return false
	case HeaderContains:
		for _, v := range values {
			if strings.Contains(v, m.Value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// PathMatcher matches a URI path against a pattern composed of
// literal segments, ":name" single-segment captures, and a trailing
// "*name" catch-all capture. A successful match publishes UriParams
// into extOut (§4.4).
type PathMatcher[S any] struct {
	segments []pathSegment
}

type pathSegment struct {
	literal  string
	param    string
	catchAll bool
}

// Path compiles pattern into a PathMatcher. Segments starting with ':'
// capture exactly one path segment; a segment starting with '*' must
// be last and captures the remainder of the path (possibly containing
// further slashes).
func Path[S any](pattern string) Matcher[S, *wservice.Request] {
	pm := &PathMatcher[S]{}
	for _, seg := range strings.Split(strings.Trim(pattern, "/"), "/") {
		if seg == "" {
			continue
		}
		switch seg[0] {
		case ':':
			pm.segments = append(pm.segments, pathSegment{param: seg[1:]})
		case '*':
			pm.segments = append(pm.segments, pathSegment{param: seg[1:], catchAll: true})
		default:
			pm.segments = append(pm.segments, pathSegment{literal: seg})
		}
	}
	return pm
}

// Matches implements Matcher.
func (m *PathMatcher[S]) Matches(extOut *wext.Extensions, _ *wcontext.Context[S], req *wservice.Request) bool {
	if req.URL == nil {
		return false
	}
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	captures := UriParams{}
	i := 0
	for _, seg := range m.segments {
		if seg.catchAll {
			captures[seg.param] = strings.Join(parts[i:], "/")
			i = len(parts)
			break
		}
		if i >= len(parts) {
			return false
		}
		if seg.literal != "" {
			if parts[i] != seg.literal {
				return false
			}
		} else {
			captures[seg.param] = parts[i]
		}
		i++
	}
	if i != len(parts) {
		return false
	}

	if extOut != nil && len(captures) > 0 {
		wext.Insert(extOut, captures)
	}
	return true
}
