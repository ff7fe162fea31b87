package intern

import "testing"

func TestInternReturnsCanonicalCopy(t *testing.T) {
	p := New(4)
	a := p.Intern("count")
	b := p.Intern("count")
	if a != b {
		t.Errorf("expected interned copies to be equal, got %q and %q", a, b)
	}
}

func TestInternDistinctStrings(t *testing.T) {
	p := New(4)
	if p.Intern("a") == p.Intern("b") {
		t.Error("distinct strings must not collapse to the same canonical value")
	}
}

func TestNewFloorsSize(t *testing.T) {
	p := New(0)
	if p.strings == nil {
		t.Fatal("expected a non-nil backing map even for size 0")
	}
}
