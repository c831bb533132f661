package wcontext

import (
	"errors"
	"testing"
	"time"

	"weft/ext"
)

type state struct{ name string }

func TestCloneSharesExtensionsAndCancel(t *testing.T) {
	ctx := New(state{name: "root"}, nil)
	ext.Insert(ctx.Extensions(), 42)

	clone := ctx.Clone()
	v, ok := ext.Get[int](clone.Extensions())
	if !ok || v != 42 {
		t.Fatalf("clone should share Extensions, got %v, %v", v, ok)
	}
	if clone.Cancel() != ctx.Cancel() {
		t.Fatal("clone should share the same cancel token")
	}
}

func TestWithExtensionsIsolatesForkedAttempt(t *testing.T) {
	ctx := New(state{name: "root"}, nil)
	ext.Insert(ctx.Extensions(), "original")

	forked := ctx.WithExtensions(ctx.Extensions().Clone())
	ext.Insert(forked.Extensions(), "forked")

	orig, _ := ext.Get[string](ctx.Extensions())
	if orig != "original" {
		t.Fatalf("original extensions mutated: %q", orig)
	}
}

func TestCancelTokenFiresOnce(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel(errors.New("first"))
	tok.Cancel(errors.New("second"))

	if tok.Err().Error() != "first" {
		t.Fatalf("expected first cancel reason to win, got %q", tok.Err())
	}
	if !tok.IsCancelled() {
		t.Fatal("expected token to report cancelled")
	}
}

func TestWithCancelPropagatesParentCancellation(t *testing.T) {
	ctx := New(state{name: "root"}, nil)
	child, stop := ctx.WithCancel()
	defer stop(nil)

	ctx.Cancel().Cancel(errors.New("parent done"))

	select {
	case <-child.Cancel().Done():
	case <-time.After(time.Second):
		t.Fatal("expected child cancel token to fire when parent is cancelled")
	}
}

func TestWithCancelStopDoesNotCancelParent(t *testing.T) {
	ctx := New(state{name: "root"}, nil)
	_, stop := ctx.WithCancel()
	stop(nil)

	if ctx.Cancel().IsCancelled() {
		t.Fatal("stopping the child derivation must not cancel the parent")
	}
}

func TestGoExecutorSpawnsFunction(t *testing.T) {
	done := make(chan struct{})
	GoExecutor{}.Spawn(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected spawned function to run")
	}
}
