package ratelimit

import (
	"net/url"
	"testing"
	"time"

	"weft/service"
	"weft/wcontext"
)

func newRatelimitReq(t *testing.T) *service.Request {
	t.Helper()
	u, err := url.Parse("/v1/resource")
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	return service.NewRequest("GET", u, nil)
}

func TestTokenBucketBasic(t *testing.T) {
	bucket := NewTokenBucket(10, 10)

	if !bucket.Take(5) {
		t.Error("expected to take 5 tokens from a full bucket")
	}
	if remaining := bucket.Remaining(); remaining != 5 {
		t.Errorf("Remaining() = %d, want 5", remaining)
	}
	if !bucket.Take(5) {
		t.Error("expected to take the remaining 5 tokens")
	}
	if bucket.Take(1) {
		t.Error("expected bucket to be empty")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	bucket := NewTokenBucket(10, 10)
	bucket.Take(10)

	time.Sleep(150 * time.Millisecond)

	if !bucket.Take(1) {
		t.Error("expected bucket to have refilled after 150ms at 10 tokens/sec")
	}
}

func TestTokenBucketCapacityLimit(t *testing.T) {
	bucket := NewTokenBucket(10, 10)
	time.Sleep(200 * time.Millisecond)

	if remaining := bucket.Remaining(); remaining > 10 {
		t.Errorf("Remaining() = %d, exceeds capacity 10", remaining)
	}
}

func TestSlidingWindowSumAndPrune(t *testing.T) {
	sw := NewSlidingWindow(200*time.Millisecond, 50*time.Millisecond)

	sw.Add(10)
	if sum := sw.Sum(); sum != 10 {
		t.Fatalf("Sum() = %d, want 10", sum)
	}

	time.Sleep(300 * time.Millisecond)
	if sum := sw.Sum(); sum != 0 {
		t.Fatalf("Sum() after window elapsed = %d, want 0", sum)
	}
}

func TestConcurrentLimiterAcquireRelease(t *testing.T) {
	cl := NewConcurrentLimiter(2)

	if !cl.Acquire() {
		t.Fatal("expected first Acquire to succeed")
	}
	if !cl.Acquire() {
		t.Fatal("expected second Acquire to succeed")
	}
	if cl.Acquire() {
		t.Fatal("expected third Acquire to fail at limit 2")
	}

	cl.Release()
	if !cl.Acquire() {
		t.Fatal("expected Acquire to succeed after a Release freed a slot")
	}
}

func TestLimiterCheckRequestEnforcesPerSecondBucket(t *testing.T) {
	lim := NewLimiter(Config{RequestsPerSecond: 1})

	if result := lim.CheckRequest(); !result.Allowed {
		t.Fatalf("first request rejected: %s", result.Reason)
	}
	if result := lim.CheckRequest(); !result.Allowed {
		t.Fatalf("second request (within burst of 2) rejected: %s", result.Reason)
	}
	if result := lim.CheckRequest(); result.Allowed {
		t.Fatal("expected third request to be rejected once the burst is exhausted")
	}
}

func TestLimiterCheckCostEnforcesBudget(t *testing.T) {
	lim := NewLimiter(Config{CostPerMinute: 100})

	if result := lim.CheckCost(50); !result.Allowed {
		t.Fatalf("CheckCost(50) rejected under a budget of 100: %s", result.Reason)
	}
	lim.RecordCost(80)
	if result := lim.CheckCost(50); result.Allowed {
		t.Fatal("expected CheckCost(50) to reject once 80 of 100 is already spent")
	}
}

func TestLimiterAcquireConcurrentNoLimitConfigured(t *testing.T) {
	lim := NewLimiter(Config{})
	if !lim.AcquireConcurrent() {
		t.Fatal("expected AcquireConcurrent to always succeed when MaxConcurrent is unset")
	}
}

func TestLayerRejectsOverBudgetRequests(t *testing.T) {
	l := NewLayer[struct{}](func(*service.Request) string { return "shared" }, Config{RequestsPerSecond: 1}, nil)
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		return service.NewResponse(200, nil), nil
	})
	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Serve(ctx, newRatelimitReq(t)); err != nil {
			t.Fatalf("request %d within burst rejected: %v", i, err)
		}
	}
	if _, err := svc.Serve(ctx, newRatelimitReq(t)); err == nil {
		t.Fatal("expected the request exceeding the burst to be rejected")
	}
}

func TestLayerKeysLimitersIndependently(t *testing.T) {
	seen := map[string]int{}
	l := NewLayer[struct{}](func(req *service.Request) string { return req.Header.Get("X-Key") }, Config{RequestsPerSecond: 1}, nil)
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		seen[req.Header.Get("X-Key")]++
		return service.NewResponse(200, nil), nil
	})
	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)

	reqA := newRatelimitReq(t)
	reqA.Header.Set("X-Key", "a")
	reqB := newRatelimitReq(t)
	reqB.Header.Set("X-Key", "b")

	if _, err := svc.Serve(ctx, reqA); err != nil {
		t.Fatalf("key a first request rejected: %v", err)
	}
	if _, err := svc.Serve(ctx, reqB); err != nil {
		t.Fatalf("key b first request should not be affected by key a's budget: %v", err)
	}
}
