package retry

import (
	"net/url"
	"testing"
	"time"

	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

func newRetryReq(t *testing.T, body []byte) *service.Request {
	t.Helper()
	return newRetryReqMethod(t, "GET", body)
}

func newRetryReqMethod(t *testing.T, method string, body []byte) *service.Request {
	t.Helper()
	u, err := url.Parse("/v1/resource")
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	return service.NewRequest(method, u, service.BytesBody(body))
}

func instantConfig(maxRetries int) Config {
	return Config{MaxRetries: maxRetries, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func newInstantLayer[S any](config Config, classify Classifier) *Layer[S] {
	l := NewLayer[S](config, classify)
	l.sleepFunc = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return l
}

// assertJittered checks that d falls within the equal-jitter band
// [curve/2, curve] around the deterministic curve value, and that
// repeated calls don't all land on the same instant.
func assertJittered(t *testing.T, cfg Config, attempt int, curve time.Duration) {
	t.Helper()
	half := curve / 2
	seen := map[time.Duration]bool{}
	for i := 0; i < 20; i++ {
		d := cfg.delay(attempt)
		if d < half || d > curve {
			t.Fatalf("delay(%d) = %v, want within [%v, %v]", attempt, d, half, curve)
		}
		seen[d] = true
	}
	if len(seen) < 2 {
		t.Fatalf("delay(%d) returned the same value %d times in a row, want jitter", attempt, 20)
	}
}

func TestBackoffDoublesAndCapsWithJitter(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}

	assertJittered(t, cfg, 1, 100*time.Millisecond)
	assertJittered(t, cfg, 2, 200*time.Millisecond)
	assertJittered(t, cfg, 3, 300*time.Millisecond)
}

func TestClassifyRetriesIOAndTimeout(t *testing.T) {
	if !Classify(nil, werror.New(werror.KindIO, "boom")) {
		t.Error("expected KindIO to be retryable")
	}
	if !Classify(nil, werror.New(werror.KindTimeout, "boom")) {
		t.Error("expected KindTimeout to be retryable")
	}
	if Classify(nil, werror.New(werror.KindConfigInvalid, "boom")) {
		t.Error("expected KindConfigInvalid to not be retryable")
	}
	if Classify(service.NewResponse(500, nil), nil) != true {
		t.Error("expected a 500 response to be retryable")
	}
	if Classify(service.NewResponse(400, nil), nil) != false {
		t.Error("expected a 400 response to not be retryable")
	}
}

func TestLayerRetriesUntilSuccess(t *testing.T) {
	l := newInstantLayer[struct{}](instantConfig(3), nil)

	attempts := 0
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		attempts++
		if attempts < 3 {
			return service.NewResponse(503, nil), nil
		}
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	resp, err := svc.Serve(ctx, newRetryReq(t, []byte("payload")))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestLayerGivesUpAfterMaxRetries(t *testing.T) {
	l := newInstantLayer[struct{}](instantConfig(2), nil)

	attempts := 0
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		attempts++
		return service.NewResponse(500, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	resp, err := svc.Serve(ctx, newRetryReq(t, nil))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("StatusCode = %d, want 500 from the final exhausted attempt", resp.StatusCode)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (1 initial + 2 retries)", attempts)
	}
}

func TestLayerDoesNotRetryNonRetryableError(t *testing.T) {
	l := newInstantLayer[struct{}](instantConfig(5), nil)

	attempts := 0
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		attempts++
		return nil, werror.New(werror.KindConfigInvalid, "bad config")
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	if _, err := svc.Serve(ctx, newRetryReq(t, nil)); err == nil {
		t.Fatal("expected the non-retryable error to propagate")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry for a non-retryable error)", attempts)
	}
}

func TestLayerDoesNotRetryNonIdempotentMethod(t *testing.T) {
	l := newInstantLayer[struct{}](instantConfig(3), nil)

	attempts := 0
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		attempts++
		return service.NewResponse(503, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	resp, err := svc.Serve(ctx, newRetryReqMethod(t, "POST", []byte("payload")))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("StatusCode = %d, want 503 from the single attempt", resp.StatusCode)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (POST must not be retried)", attempts)
	}
}

func TestLayerRetriesIdempotentMethodsOtherThanGet(t *testing.T) {
	for _, method := range []string{"HEAD", "OPTIONS", "TRACE", "PUT", "DELETE"} {
		method := method
		t.Run(method, func(t *testing.T) {
			l := newInstantLayer[struct{}](instantConfig(2), nil)

			attempts := 0
			inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
				attempts++
				if attempts < 2 {
					return service.NewResponse(503, nil), nil
				}
				return service.NewResponse(200, nil), nil
			})

			svc := l.Layer(inner)
			ctx := wcontext.New(struct{}{}, nil)
			resp, err := svc.Serve(ctx, newRetryReqMethod(t, method, nil))
			if err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			if resp.StatusCode != 200 {
				t.Fatalf("StatusCode = %d, want 200 after retrying", resp.StatusCode)
			}
			if attempts != 2 {
				t.Fatalf("attempts = %d, want 2", attempts)
			}
		})
	}
}

func TestLayerRebuildsBodyOnEachAttempt(t *testing.T) {
	l := newInstantLayer[struct{}](instantConfig(2), nil)

	var seenBodies [][]byte
	inner := service.ServiceFunc[struct{}](func(_ *wcontext.Context[struct{}], req *service.Request) (*service.Response, error) {
		b := make([]byte, 0)
		buf := make([]byte, 32)
		for {
			n, err := req.Body.Read(buf)
			b = append(b, buf[:n]...)
			if err != nil {
				break
			}
		}
		seenBodies = append(seenBodies, b)
		if len(seenBodies) < 2 {
			return service.NewResponse(503, nil), nil
		}
		return service.NewResponse(200, nil), nil
	})

	svc := l.Layer(inner)
	ctx := wcontext.New(struct{}{}, nil)
	if _, err := svc.Serve(ctx, newRetryReq(t, []byte("hello"))); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	for i, b := range seenBodies {
		if string(b) != "hello" {
			t.Errorf("attempt %d saw body %q, want %q", i, b, "hello")
		}
	}
}
