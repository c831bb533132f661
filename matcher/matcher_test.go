package matcher

import (
	"net"
	"net/url"
	"testing"

	wext "weft/ext"
	wservice "weft/service"
	"weft/wcontext"
)

type env struct{}

func newReq(t *testing.T, method, rawurl string) *wservice.Request {
	t.Helper()
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", rawurl, err)
	}
	return wservice.NewRequest(method, u, nil)
}

func TestMethodMatcher(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	m := Method[env]("GET", "HEAD")
	req := newReq(t, "GET", "http://example.com/")
	if !m.Matches(nil, ctx, req) {
		t.Fatal("expected GET to match")
	}
	req2 := newReq(t, "POST", "http://example.com/")
	if m.Matches(nil, ctx, req2) {
		t.Fatal("expected POST not to match")
	}
}

func TestDomainMatcherSubdomain(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	m := Domain[env]("example.com")
	req := newReq(t, "GET", "http://api.example.com/")
	if !m.Matches(nil, ctx, req) {
		t.Fatal("expected subdomain to match")
	}
	req2 := newReq(t, "GET", "http://notexample.com/")
	if m.Matches(nil, ctx, req2) {
		t.Fatal("expected unrelated domain not to match")
	}
}

func TestPathMatcherPublishesCaptures(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	m := Path[env]("/users/:id/files/*rest")
	req := newReq(t, "GET", "http://example.com/users/42/files/a/b/c.txt")

	if !m.Matches(req.Ext, ctx, req) {
		t.Fatal("expected path to match")
	}
	params, ok := wext.Get[UriParams](req.Ext)
	if !ok {
		t.Fatal("expected UriParams to be published")
	}
	if params["id"] != "42" || params["rest"] != "a/b/c.txt" {
		t.Fatalf("unexpected captures: %+v", params)
	}
}

func TestPathMatcherRejectsLengthMismatch(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	m := Path[env]("/users/:id")
	req := newReq(t, "GET", "http://example.com/users/42/extra")
	if m.Matches(nil, ctx, req) {
		t.Fatal("expected longer path not to match")
	}
}

func TestHeaderMatcherModes(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	req := newReq(t, "GET", "http://example.com/")
	req.Header.Set("X-Trace", "trace-id=abc123")

	if !Header[env]("X-Trace").Matches(nil, ctx, req) {
		t.Fatal("expected presence match")
	}
	if !HeaderSubstring[env]("X-Trace", "abc123").Matches(nil, ctx, req) {
		t.Fatal("expected substring match")
	}
	if HeaderEqual[env]("X-Trace", "abc123").Matches(nil, ctx, req) {
		t.Fatal("expected exact match to fail on partial value")
	}
}

func TestAndOrNegateCombinators(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	req := newReq(t, "GET", "http://example.com/")

	and := And[env, *wservice.Request](Method[env]("GET"), Domain[env]("example.com"))
	if !and.Matches(nil, ctx, req) {
		t.Fatal("expected And to match")
	}

	or := Or[env, *wservice.Request](Method[env]("POST"), Domain[env]("example.com"))
	if !or.Matches(nil, ctx, req) {
		t.Fatal("expected Or to match on second branch")
	}

	neg := Negate[env, *wservice.Request](Method[env]("POST"))
	if !neg.Matches(nil, ctx, req) {
		t.Fatal("expected Negate(POST) to match a GET request")
	}
}

func TestLoopbackAndPrivateMatchers(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	loop := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
	priv := &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 9000}
	pub := &net.TCPAddr{IP: net.ParseIP("8.8.8.8"), Port: 9000}

	if !Loopback[env]().Matches(nil, ctx, loop) {
		t.Fatal("expected loopback to match")
	}
	if !Private[env]().Matches(nil, ctx, priv) {
		t.Fatal("expected private to match")
	}
	if Loopback[env]().Matches(nil, ctx, pub) || Private[env]().Matches(nil, ctx, pub) {
		t.Fatal("expected public address to match neither")
	}
}

func TestNetworkMatcherContainment(t *testing.T) {
	ctx := wcontext.New(env{}, nil)
	_, network, err := net.ParseCIDR("192.168.0.0/16")
	if err != nil {
		t.Fatalf("ParseCIDR error = %v", err)
	}
	in := &net.TCPAddr{IP: net.ParseIP("192.168.5.6"), Port: 1}
	out := &net.TCPAddr{IP: net.ParseIP("10.0.0.1"), Port: 1}

	m := Network[env](network)
	if !m.Matches(nil, ctx, in) {
		t.Fatal("expected address within CIDR to match")
	}
	if m.Matches(nil, ctx, out) {
		t.Fatal("expected address outside CIDR not to match")
	}
}
