package source

import "testing"

func TestInternerRoundTrip(t *testing.T) {
	in := NewInterner()
	if in.Intern("") != NoStringID {
		t.Fatalf("empty string must map to NoStringID")
	}
	a := in.Intern("vector")
	b := in.Intern("vector")
	if a != b {
		t.Fatalf("same spelling interned twice: %d %d", a, b)
	}
	if s := in.MustLookup(a); s != "vector" {
		t.Fatalf("lookup = %q", s)
	}
	if _, ok := in.Find("map"); ok {
		t.Fatalf("Find must not insert")
	}
	if in.Len() != 2 {
		t.Fatalf("len = %d", in.Len())
	}
}

func TestInternerCopiesBytes(t *testing.T) {
	in := NewInterner()
	buf := []byte("abc")
	id := in.InternBytes(buf)
	buf[0] = 'x'
	if got := in.MustLookup(id); got != "abc" {
		t.Fatalf("interned string aliased caller buffer: %q", got)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("cover = %v", got)
	}
	if got := (Span{}).Cover(a); got != a {
		t.Fatalf("zero cover = %v", got)
	}
}
