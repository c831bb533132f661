package ext

import "testing"

type requestID string

type counter struct{ n int }

func (c *counter) CloneExt() any {
	cp := *c
	return &cp
}

func TestInsertOverwritesSameType(t *testing.T) {
	e := New()
	Insert(e, requestID("first"))
	Insert(e, requestID("second"))

	got, ok := Get[requestID](e)
	if !ok || got != "second" {
		t.Fatalf("got %q, ok=%v, want %q", got, ok, "second")
	}
}

func TestGetMissingReturnsZeroValue(t *testing.T) {
	e := New()
	got, ok := Get[requestID](e)
	if ok || got != "" {
		t.Fatalf("expected zero value and false, got %q, %v", got, ok)
	}
}

func TestRemove(t *testing.T) {
	e := New()
	Insert(e, requestID("abc"))
	v, ok := Remove[requestID](e)
	if !ok || v != "abc" {
		t.Fatalf("Remove() = %q, %v", v, ok)
	}
	if Contains[requestID](e) {
		t.Fatal("expected value to be gone after Remove")
	}
}

func TestCloneDeepCopiesClonerValues(t *testing.T) {
	e := New()
	Insert(e, &counter{n: 1})

	clone := e.Clone()
	c, _ := Get[*counter](clone)
	c.n = 99

	orig, _ := Get[*counter](e)
	if orig.n != 1 {
		t.Fatalf("clone mutation leaked into original: %d", orig.n)
	}
}

func TestCloneSharesNonClonerValuesByReference(t *testing.T) {
	e := New()
	Insert(e, requestID("shared"))
	clone := e.Clone()

	got, ok := Get[requestID](clone)
	if !ok || got != "shared" {
		t.Fatalf("clone missing value: %q, %v", got, ok)
	}
}

func TestExtend(t *testing.T) {
	a := New()
	Insert(a, requestID("a"))
	b := New()
	Insert(b, requestID("b"))
	Insert(b, &counter{n: 7})

	a.Extend(b)

	got, _ := Get[requestID](a)
	if got != "b" {
		t.Fatalf("Extend did not overwrite: got %q", got)
	}
	if c, ok := Get[*counter](a); !ok || c.n != 7 {
		t.Fatalf("Extend missing counter: %v, %v", c, ok)
	}
}

func TestClear(t *testing.T) {
	e := New()
	Insert(e, requestID("x"))
	e.Clear()
	if e.Len() != 0 {
		t.Fatalf("expected 0 entries after Clear, got %d", e.Len())
	}
}
