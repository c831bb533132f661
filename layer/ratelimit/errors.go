package ratelimit

import (
	"fmt"

	"weft/werror"
)

// errRejected classifies a rate-limit rejection as KindFlowControl:
// a rate budget is a local send-window analogue (§7's "local
// violation of a send window"), generalized here from H2 stream
// windows to a per-key request/cost budget.
func errRejected(result *CheckResult) error {
	return werror.New(werror.KindFlowControl, fmt.Sprintf("ratelimit: %s (retry after %s)", result.Reason, result.RetryAfter))
}

func errConcurrencyRejected(lim *ConcurrentLimiter) error {
	return werror.New(werror.KindFlowControl, fmt.Sprintf("ratelimit: concurrent request limit exceeded (limit %d)", lim.Limit()))
}
