package proxying

import (
	"net/url"
	"testing"

	"weft/matcher"
	"weft/service"
	"weft/wcontext"
)

func newProxyingReq(t *testing.T, path string) *service.Request {
	t.Helper()
	u, err := url.Parse(path)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	return service.NewRequest("GET", u, nil)
}

func backendNamed(name string) service.Service[struct{}] {
	return service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], _ *service.Request) (*service.Response, error) {
		resp := service.NewResponse(200, nil)
		resp.Header.Set("X-Backend", name)
		return resp, nil
	})
}

func TestLayerDispatchesToFirstMatchingRoute(t *testing.T) {
	l := NewLayer[struct{}]([]Route[struct{}]{
		{Name: "chat", Matches: matcher.Path[struct{}]("/v1/chat"), Backend: backendNamed("chat")},
		{Name: "embeddings", Matches: matcher.Path[struct{}]("/v1/embeddings"), Backend: backendNamed("embeddings")},
	})

	svc := l.Layer(NoRoute[struct{}]())
	ctx := wcontext.New(struct{}{}, nil)

	resp, err := svc.Serve(ctx, newProxyingReq(t, "/v1/embeddings"))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := resp.Header.Get("X-Backend"); got != "embeddings" {
		t.Errorf("X-Backend = %q, want embeddings", got)
	}
}

func TestLayerFallsThroughToInnerWhenNoRouteMatches(t *testing.T) {
	l := NewLayer[struct{}]([]Route[struct{}]{
		{Name: "chat", Matches: matcher.Path[struct{}]("/v1/chat"), Backend: backendNamed("chat")},
	})

	svc := l.Layer(backendNamed("default"))
	ctx := wcontext.New(struct{}{}, nil)

	resp, err := svc.Serve(ctx, newProxyingReq(t, "/v1/unmapped"))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := resp.Header.Get("X-Backend"); got != "default" {
		t.Errorf("X-Backend = %q, want default", got)
	}
}

func TestNoRouteRejectsUnmatchedRequests(t *testing.T) {
	l := NewLayer[struct{}](nil)
	svc := l.Layer(NoRoute[struct{}]())
	ctx := wcontext.New(struct{}{}, nil)

	if _, err := svc.Serve(ctx, newProxyingReq(t, "/anything")); err == nil {
		t.Fatal("expected NoRoute to reject an unmatched request")
	}
}

func TestRoutesEvaluatedInOrder(t *testing.T) {
	l := NewLayer[struct{}]([]Route[struct{}]{
		{Name: "specific", Matches: matcher.Path[struct{}]("/v1/chat/completions"), Backend: backendNamed("specific")},
		{Name: "general", Matches: matcher.Path[struct{}]("/v1/*rest"), Backend: backendNamed("general")},
	})

	svc := l.Layer(NoRoute[struct{}]())
	ctx := wcontext.New(struct{}{}, nil)

	resp, err := svc.Serve(ctx, newProxyingReq(t, "/v1/chat/completions"))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if got := resp.Header.Get("X-Backend"); got != "specific" {
		t.Errorf("X-Backend = %q, want specific (first matching route wins)", got)
	}
}
