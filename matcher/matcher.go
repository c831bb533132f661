// Package matcher implements Matcher (§4.4): a pure boolean predicate
// over a request (or socket address) plus combinators (And, Or,
// Negate) used by layers to make conditional routing decisions.
package matcher

import (
	"weft/ext"
	"weft/wcontext"
)

// Matcher is a pure predicate over a value of type Req, given the
// Context it arrived with and an optional Extensions bag the matcher
// may publish captures into (e.g. PathMatcher publishing UriParams).
// extOut may be nil when the caller has no use for captures.
type Matcher[S any, Req any] interface {
	Matches(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool
}

// Func adapts a plain function to a Matcher.
type Func[S any, Req any] func(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool

// Matches implements Matcher.
func (f Func[S, Req]) Matches(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool {
	return f(extOut, ctx, req)
}

// And returns a Matcher that holds only if every m in matchers holds.
// Evaluation short-circuits on the first failure, but every matcher
// that did run before the failure has already had the chance to
// publish its captures into extOut (§4.4: "thread the extensions bag
// through so successful sub-matches may publish captures").
func And[S any, Req any](matchers ...Matcher[S, Req]) Matcher[S, Req] {
	return Func[S, Req](func(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool {
		for _, m := range matchers {
			if !m.Matches(extOut, ctx, req) {
				return false
			}
		}
		return true
	})
}

// Or returns a Matcher that holds if any m in matchers holds.
// Evaluation short-circuits on the first success.
func Or[S any, Req any](matchers ...Matcher[S, Req]) Matcher[S, Req] {
	return Func[S, Req](func(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool {
		for _, m := range matchers {
			if m.Matches(extOut, ctx, req) {
				return true
			}
		}
		return false
	})
}

// Negate returns a Matcher that holds iff m does not.
func Negate[S any, Req any](m Matcher[S, Req]) Matcher[S, Req] {
	return Func[S, Req](func(extOut *ext.Extensions, ctx *wcontext.Context[S], req Req) bool {
		return !m.Matches(extOut, ctx, req)
	})
}

// Always is a Matcher that always holds.
func Always[S any, Req any]() Matcher[S, Req] {
	return Func[S, Req](func(*ext.Extensions, *wcontext.Context[S], Req) bool { return true })
}

// Never is a Matcher that never holds.
func Never[S any, Req any]() Matcher[S, Req] {
	return Func[S, Req](func(*ext.Extensions, *wcontext.Context[S], Req) bool { return false })
}
