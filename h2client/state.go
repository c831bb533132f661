package h2client

import "sync/atomic"

// State is a connection's position in the lifecycle described by
// §4.3.8.
type State int

const (
	StateHandshaking State = iota
	StateActive
	StateGoAwaySent
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateGoAwaySent:
		return "goaway_sent"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CallbackState is a per-request callback's position in the lifecycle
// described by §4.3.8.
type CallbackState int

const (
	CallbackQueued CallbackState = iota
	CallbackSubmitted
	CallbackHeadersReceived
	CallbackBodyStreaming
	CallbackCompleted
	CallbackFailed
	CallbackCancelled
)

func (s CallbackState) String() string {
	switch s {
	case CallbackQueued:
		return "queued"
	case CallbackSubmitted:
		return "submitted"
	case CallbackHeadersReceived:
		return "headers_received"
	case CallbackBodyStreaming:
		return "body_streaming"
	case CallbackCompleted:
		return "completed"
	case CallbackFailed:
		return "failed"
	case CallbackCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CallbackTracker publishes one request's CallbackState transitions
// into its Extensions bag (§4.3.8), so callers -- tests, audit, a
// future metrics hook -- can observe where a dispatch is without
// threading a channel through Dispatcher.Serve.
type CallbackTracker struct {
	state atomic.Int32
}

func newCallbackTracker() *CallbackTracker {
	return &CallbackTracker{}
}

func (t *CallbackTracker) set(s CallbackState) { t.state.Store(int32(s)) }

// State returns the tracker's current CallbackState.
func (t *CallbackTracker) State() CallbackState { return CallbackState(t.state.Load()) }
