package audit

import (
	"fmt"

	"weft/werror"
)

// storageErr wraps a backend failure with the operation that caused it,
// classified under werror.KindIO so callers can use werror.KindOf
// uniformly across the codebase.
func storageErr(operation string, cause error) error {
	return werror.WithKind(cause, werror.KindIO, fmt.Sprintf("audit: %s failed", operation))
}

// recorderErr wraps a failure to enqueue a record for async writing.
func recorderErr(recordID string, cause error) error {
	return werror.WithKind(cause, werror.KindIO, fmt.Sprintf("audit: failed to enqueue record %s", recordID))
}
