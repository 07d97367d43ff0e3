package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.NullPtr == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	tt, _ := in.Lookup(b.Int)
	if tt.Kind != KindBasic || tt.Basic != Int {
		t.Fatalf("expected int, got %v %v", tt.Kind, tt.Basic)
	}
	if in.Basic(Double) != b.Double {
		t.Fatalf("Basic(Double) disagrees with builtins")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Char
	arr1 := in.Intern(MakeArray(elem, 4, true))
	arr2 := in.Intern(MakeArray(elem, 4, true))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	if open := in.Intern(MakeArray(elem, 0, false)); open == arr1 {
		t.Fatalf("unknown bound must differ from [4]")
	}
}

func TestReferenceKindsAffectIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int
	if in.LRef(elem) == in.RRef(elem) {
		t.Fatalf("lvalue and rvalue references must differ")
	}
	if got := in.RRef(in.LRef(elem)); got != in.LRef(elem) {
		t.Fatalf("int& && should collapse to int&")
	}
}

func TestQualifiersMergeAndNormalise(t *testing.T) {
	in := NewInterner()
	i := in.Builtins().Int
	c := in.Qualify(i, Const)
	cv := in.Qualify(c, Volatile)
	if cv != in.Qualify(i, Const|Volatile) {
		t.Fatalf("nested qualifiers should merge")
	}
	ref := in.LRef(i)
	if in.Qualify(ref, Const) != ref {
		t.Fatalf("cv on a reference is dropped")
	}
	arr := in.Intern(MakeArray(i, 3, true))
	carr := in.Qualify(arr, Const)
	if tt := in.MustLookup(carr); tt.Kind != KindArray || tt.Elem != c {
		t.Fatalf("const array should be an array of const elements")
	}
	if u, q := in.Unqualified(cv); u != i || q != Const|Volatile {
		t.Fatalf("Unqualified = %v %v", u, q)
	}
}

func TestTypedefIsTransparentForSameType(t *testing.T) {
	in := NewInterner()
	i := in.Builtins().Int
	ptr := in.Pointer(in.Qualify(i, Const))
	alias1 := in.Typedef(7, ptr)
	alias2 := in.Typedef(8, in.Pointer(in.Qualify(in.Typedef(9, i), Const)))
	if alias1 == alias2 {
		t.Fatalf("distinct typedefs must have distinct ids")
	}
	if !in.IsSameType(alias1, alias2) {
		t.Fatalf("typedefs of the same type must be the same type")
	}
	if in.Canonical(alias2) != ptr {
		t.Fatalf("canonical form should strip typedefs")
	}
}

func TestFunctionTypesInternedStructurally(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f1 := in.RegisterFn(FnInfo{Params: []TypeID{b.Int, b.Char}, Result: b.Void})
	f2 := in.RegisterFn(FnInfo{Params: []TypeID{b.Int, b.Char}, Result: b.Void})
	if f1 != f2 {
		t.Fatalf("equal function types should share an id")
	}
	f3 := in.RegisterFn(FnInfo{Params: []TypeID{b.Int, b.Char}, Result: b.Void, CV: Const})
	if f3 == f1 {
		t.Fatalf("cv-qualified member function type must differ")
	}
	info, ok := in.FnInfo(in.Typedef(3, f1))
	if !ok || len(info.Params) != 2 {
		t.Fatalf("FnInfo through typedef = %v, %v", info, ok)
	}
}

func TestAdjustParamDecays(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr := in.Intern(MakeArray(b.Int, 10, true))
	if got := in.AdjustParam(arr); got != in.Pointer(b.Int) {
		t.Fatalf("int[10] parameter should adjust to int*")
	}
	fn := in.RegisterFn(FnInfo{Result: b.Void})
	if got := in.AdjustParam(fn); got != in.Pointer(fn) {
		t.Fatalf("function parameter should adjust to a function pointer")
	}
	if got := in.AdjustParam(in.Qualify(b.Int, Const)); got != b.Int {
		t.Fatalf("top-level const should be dropped")
	}
}

func TestDecayParamKeepsTopLevelCV(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	ci := in.Qualify(b.Int, Const)
	if got := in.DecayParam(ci); got != ci {
		t.Fatalf("const int parameter variable lost its const: %s", in.Format(got, nil))
	}
	arr := in.Intern(MakeArray(ci, 4, true))
	if got := in.DecayParam(arr); got != in.Pointer(ci) {
		t.Fatalf("const int[4] should decay to const int*, got %s", in.Format(got, nil))
	}
}

func TestMemberOfClass(t *testing.T) {
	in := NewInterner()
	s := in.Class(42)
	pm := in.Intern(MakeMemberPointer(s, in.Builtins().Int))
	cls, ok := in.MemberOfClass(pm)
	if !ok || cls != s {
		t.Fatalf("MemberOfClass = %v, %v", cls, ok)
	}
	if b, _ := in.ClassBinding(cls); b != 42 {
		t.Fatalf("class binding = %d", b)
	}
}

func TestDeferredArgsCanonicalise(t *testing.T) {
	in := NewInterner()
	i := in.Builtins().Int
	a := in.RegisterDeferred(5, []Arg{{Type: in.Typedef(6, i)}})
	b := in.RegisterDeferred(5, []Arg{{Type: i}})
	if a == b {
		t.Fatalf("deferred ids keep their written arguments")
	}
	if in.Canonical(a) != b {
		t.Fatalf("canonical deferred type should use canonical arguments")
	}
	if HashArgs(5, in.CanonicalArgs([]Arg{{Type: in.Typedef(6, i)}})) != HashArgs(5, []Arg{{Type: i}}) {
		t.Fatalf("canonical argument lists should hash equally")
	}
}

func TestFormat(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	fn := in.RegisterFn(FnInfo{Params: []TypeID{b.Int}, Result: b.Int})
	cases := []struct {
		t    TypeID
		want string
	}{
		{in.Pointer(in.Qualify(b.Char, Const)), "const char *"},
		{in.Pointer(fn), "int (*)(int)"},
		{in.LRef(in.Intern(MakeArray(b.Int, 3, true))), "int (&)[3]"},
		{in.Qualify(in.Pointer(b.Int), Const), "int *const"},
	}
	for _, tc := range cases {
		if got := in.Format(tc.t, nil); got != tc.want {
			t.Errorf("Format = %q, want %q", got, tc.want)
		}
	}
}
