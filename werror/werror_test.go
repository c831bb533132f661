package werror

import (
	"errors"
	"testing"
)

func TestWrapPreservesKindAndChain(t *testing.T) {
	root := New(KindIO, "connection reset")
	wrapped := Wrap(root, "send_request")
	wrapped = Wrap(wrapped, "dispatch")

	if wrapped.Kind() != KindIO {
		t.Fatalf("Kind() = %v, want %v", wrapped.Kind(), KindIO)
	}
	want := "dispatch: send_request: connection reset"
	if got := wrapped.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWrapPlainErrorClassifiesUnknownAndKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(cause, "layer")

	if wrapped.Kind() != KindUnknown {
		t.Fatalf("Kind() = %v, want KindUnknown", wrapped.Kind())
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected errors.Is to find original cause")
	}
	if got, want := wrapped.Error(), "layer: boom"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWithKindOverridesClassification(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := WithKind(cause, KindTimeout, "keep_alive")
	if err.Kind() != KindTimeout {
		t.Fatalf("Kind() = %v, want KindTimeout", err.Kind())
	}
}

func TestKindOfWalksChain(t *testing.T) {
	err := Wrap(New(KindCancelled, "rst_stream"), "pipe")
	if KindOf(err) != KindCancelled {
		t.Fatalf("KindOf() = %v, want KindCancelled", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("expected KindUnknown for a plain error")
	}
}

func TestIsMatchesSentinelByKind(t *testing.T) {
	err := Wrap(New(KindTimeout, "ping ack overdue"), "keep_alive")
	if !errors.Is(err, ErrTimeout) {
		t.Fatal("expected errors.Is(err, ErrTimeout) to match")
	}
	if errors.Is(err, ErrCancelled) {
		t.Fatal("did not expect errors.Is(err, ErrCancelled) to match")
	}
}
