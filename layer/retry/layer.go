// Package retry implements a Layer (§4.1) that re-issues a request
// against the wrapped Service with exponential backoff, the way the
// teacher's HTTPProvider.DoRequest retries transient provider errors,
// generalized from a fixed HTTP-status switch to a pluggable
// Classifier over weft's Response/error pair.
package retry

import (
	"io"
	"net/http"
	"time"

	"weft/service"
	"weft/wcontext"
	"weft/werror"
)

// idempotentMethods are the methods safe to automatically re-issue
// against the upstream on failure (spec.md §7): retrying anything
// outside this set risks a double-submission, e.g. a POST whose
// transport call failed after the upstream had already applied it.
var idempotentMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
}

// Layer retries the wrapped Service on a retryable outcome, per
// Config's attempt count and backoff schedule.
type Layer[S any] struct {
	config    Config
	classify  Classifier
	sleepFunc func(d time.Duration) <-chan time.Time
}

// NewLayer returns a retry Layer. A nil classify uses Classify.
func NewLayer[S any](config Config, classify Classifier) *Layer[S] {
	if classify == nil {
		classify = Classify
	}
	return &Layer[S]{config: config, classify: classify, sleepFunc: time.After}
}

// Layer implements service.Layer[S].
func (l *Layer[S]) Layer(inner service.Service[S]) service.Service[S] {
	return service.ServiceFunc[S](func(ctx *wcontext.Context[S], req *service.Request) (*service.Response, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, werror.WithKind(err, werror.KindIO, "retry: failed to buffer request body")
		}
		req.Body.Close()

		var lastResp *service.Response
		var lastErr error

		maxRetries := l.config.MaxRetries
		if !idempotentMethods[req.Method] {
			// A non-idempotent method gets exactly one attempt,
			// regardless of what the Classifier would otherwise allow.
			maxRetries = 0
		}

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				cancel := ctx.Cancel()
				select {
				case <-cancel.Done():
					return nil, werror.WithKind(cancel.Err(), werror.KindCancelled, "retry: cancelled while backing off")
				case <-l.sleepFunc(l.config.delay(attempt)):
				}
			}

			attemptReq := req.Clone()
			attemptReq.Body = service.BytesBody(body)

			resp, err := inner.Serve(ctx, attemptReq)
			if err == nil && !l.classify(resp, nil) {
				return resp, nil
			}
			if err != nil && !l.classify(nil, err) {
				return nil, err
			}

			lastResp, lastErr = resp, err
		}

		return lastResp, lastErr
	})
}
