// Package werror implements weft's error taxonomy: a small set of
// classifiable ErrorKinds plus an Error type that preserves a context
// chain as it is propagated outward through a layer stack, the way
// providers.ProviderError and routing's sentinel errors do in the
// teacher codebase, generalized to every component in weft rather
// than just the LLM-provider boundary.
package werror

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for retry/recovery decisions (§7).
type Kind int

const (
	// KindUnknown is the classification of a plain error with no
	// weft-specific kind attached.
	KindUnknown Kind = iota
	// KindIO is an underlying transport failure.
	KindIO
	// KindProtocol is malformed H2 framing, a malformed PROXY header,
	// or an invalid state transition.
	KindProtocol
	// KindFlowControl is a local violation of a send window.
	KindFlowControl
	// KindCancelled is a peer or local cancellation.
	KindCancelled
	// KindTimeout is a keep-alive or user-supplied deadline expiring.
	KindTimeout
	// KindUserAbort is a callback cancelled by its caller.
	KindUserAbort
	// KindConfigInvalid is a build-time configuration mismatch.
	KindConfigInvalid
	// KindNotSupported is a feature gated off at build time.
	KindNotSupported
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindProtocol:
		return "protocol"
	case KindFlowControl:
		return "flow_control"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindUserAbort:
		return "user_abort"
	case KindConfigInvalid:
		return "config_invalid"
	case KindNotSupported:
		return "not_supported"
	default:
		return "unknown"
	}
}

// Error is weft's carrier error type. It records a Kind once, at the
// point a failure is first classified, and accumulates a chain of
// context strings as it is returned outward through nested layers.
// Stringifying an Error yields the full chain; Unwrap exposes the
// original cause for errors.Is/errors.As.
type Error struct {
	kind  Kind
	msgs  []string
	cause error
}

// New creates a root Error of the given kind with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msgs: []string{msg}}
}

// Wrap attaches msg as additional context to err and returns the
// resulting *Error. If err is already a *Error, its Kind and existing
// context chain are preserved and msg is appended as the outermost
// entry. If err is a plain error (or nil), the result classifies as
// KindUnknown and carries err as its Unwrap cause.
func Wrap(err error, msg string) *Error {
	if err == nil {
		return New(KindUnknown, msg)
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			kind:  e.kind,
			msgs:  append(append([]string{}, e.msgs...), msg),
			cause: e.cause,
		}
	}
	return &Error{kind: KindUnknown, msgs: []string{msg}, cause: err}
}

// WithKind attaches msg as context and (re)classifies the result as
// kind, overriding whatever kind err carried before. Use this at the
// boundary where a layer first determines what went wrong.
func WithKind(err error, kind Kind, msg string) *Error {
	wrapped := Wrap(err, msg)
	wrapped.kind = kind
	return wrapped
}

// Kind returns the classification attached to the error.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindUnknown
	}
	return e.kind
}

// Error implements the error interface, rendering the full context
// chain outermost-first, e.g. "dispatch: send_request: connection
// reset".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := ""
	for i := len(e.msgs) - 1; i >= 0; i-- {
		if msg == "" {
			msg = e.msgs[i]
		} else {
			msg = msg + ": " + e.msgs[i]
		}
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	return msg
}

// Unwrap exposes the original cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// KindOf walks err's chain looking for a *Error and returns its Kind,
// or KindUnknown if none is found. Used by the retry layer's
// classifier (§7) and by the audit sink when recording outcomes.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

// Is supports errors.Is(err, werror.Timeout) style sentinel checks by
// comparing Kind when target is itself a *Error with no cause/message,
// the convention used by the Kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.cause == nil && len(t.msgs) == 0 && e.kind == t.kind
}

// Sentinel errors for use with errors.Is, one per Kind, matching the
// zero-message convention Is() checks against.
var (
	ErrIO            = &Error{kind: KindIO}
	ErrProtocol      = &Error{kind: KindProtocol}
	ErrFlowControl   = &Error{kind: KindFlowControl}
	ErrCancelled     = &Error{kind: KindCancelled}
	ErrTimeout       = &Error{kind: KindTimeout}
	ErrUserAbort     = &Error{kind: KindUserAbort}
	ErrConfigInvalid = &Error{kind: KindConfigInvalid}
	ErrNotSupported  = &Error{kind: KindNotSupported}
)
