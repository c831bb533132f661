package retry

import (
	"weft/service"
	"weft/werror"
)

// Classifier decides whether a completed attempt (response and/or
// error) should be retried. The default Classify covers the common
// case; a caller with domain-specific retry rules can supply its own.
type Classifier func(resp *service.Response, err error) bool

// Classify is the default Classifier, grounded on the teacher's
// DoRequest status-code switch (retry on 5xx and transient network
// errors; never retry 4xx, auth failures, or a cancelled/user-aborted
// attempt).
func Classify(resp *service.Response, err error) bool {
	if err != nil {
		switch werror.KindOf(err) {
		case werror.KindIO, werror.KindTimeout, werror.KindFlowControl:
			return true
		default:
			return false
		}
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500
}
