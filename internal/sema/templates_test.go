package sema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cppsema/internal/sema"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

func TestFunctionTemplateDeduction(t *testing.T) {
	f := analyze(t, `
template <typename T> T biggest(T a, T b);
int r = biggest(1, 2);
double s = biggest(1.0, 2.0);
`)
	tmpl := f.ok("biggest", 0)
	i := f.ok("biggest", 1)
	d := f.ok("biggest", 2)
	f.same(f.u.Specialized(i), tmpl, "specialized")
	if i == d {
		t.Fatalf("int and double instances are the same binding")
	}
	in := f.u.Types()
	want := []types.Arg{{Type: in.Builtins().Int}}
	if diff := cmp.Diff(want, f.u.TemplateArguments(i)); diff != "" {
		t.Fatalf("arguments (-want +got):\n%s", diff)
	}
}

func TestDeductionConflict(t *testing.T) {
	f := analyze(t, `
template <typename T> T biggest(T a, T b);
void use() { biggest(1, 2.0); }
`)
	if got := f.problem(f.resolve("biggest", 1)); got != symbols.ProblemInvalidOverload.String() {
		t.Fatalf("biggest(int, double): %s", got)
	}
}

func TestClassTemplateInstancesAreMemoized(t *testing.T) {
	f := analyze(t, `
template <typename T> struct Box { T value; };
Box<int> a;
Box<int> b;
Box<char> c;
`)
	tmpl := f.ok("Box", 0)
	ia := f.u.TypeOf(f.ok("a", 0))
	ib := f.u.TypeOf(f.ok("b", 0))
	ic := f.u.TypeOf(f.ok("c", 0))
	if ia != ib {
		t.Fatalf("Box<int> instantiated twice: %s vs %s", f.typeString(ia), f.typeString(ib))
	}
	if ia == ic {
		t.Fatalf("Box<int> and Box<char> share a type")
	}
	in := f.u.Types()
	cls, ok := in.ClassBinding(ia)
	if !ok {
		t.Fatalf("Box<int> is not a class type: %s", f.typeString(ia))
	}
	f.same(f.u.Specialized(symbols.BindingID(cls)), tmpl, "Box<int> specialized")
	fields := f.u.DeclaredFields(symbols.BindingID(cls))
	if len(fields) != 1 {
		t.Fatalf("fields of Box<int>: %d", len(fields))
	}
	if got := f.u.TypeOf(fields[0]); got != in.Builtins().Int {
		t.Fatalf("Box<int>::value has type %s", f.typeString(got))
	}
	f.same(f.u.Specialized(fields[0]), f.ok("value", 0), "value specialized")
	if n := len(f.u.Specializations(tmpl)); n != 2 {
		t.Fatalf("specializations: %d", n)
	}
}

func TestPartialSpecializationSelection(t *testing.T) {
	f := analyze(t, `
template <typename T> struct Kind { enum { value = 0 }; };
template <typename T> struct Kind<T*> { enum { value = 1 }; };
template <> struct Kind<int> { enum { value = 2 }; };
int a = Kind<char>::value;
int b = Kind<char*>::value;
int c = Kind<int>::value;
`)
	for name, want := range map[string]int64{"a": 0, "b": 1, "c": 2} {
		got, ok := f.constOf(name)
		if !ok || got != want {
			t.Errorf("%s = %d (%v), want %d", name, got, ok, want)
		}
	}
}

func TestNonTypeTemplateArguments(t *testing.T) {
	f := analyze(t, `
template <int N> struct Fact { static const int value = N * Fact<N - 1>::value; };
template <> struct Fact<0> { static const int value = 1; };
int v = Fact<5>::value;
`)
	got, ok := f.constOf("v")
	if !ok || got != 120 {
		t.Fatalf("Fact<5>::value = %d (%v)", got, ok)
	}
}

func TestMemberEnumeratorsOfSpecializations(t *testing.T) {
	f := analyze(t, `
template <int N> struct Pow { enum { value = 2 * Pow<N - 1>::value }; };
template <> struct Pow<0> { enum { value = 1 }; };
template <typename T, int N> struct Box { enum { size = N, twice = size * 2 }; };
int p = Pow<4>::value;
int s = Box<char, 3>::twice;
`)
	for name, want := range map[string]int64{"p": 16, "s": 6} {
		got, ok := f.constOf(name)
		if !ok || got != want {
			t.Errorf("%s = %d (%v), want %d", name, got, ok, want)
		}
	}
}

func TestInstantiationDepthLimit(t *testing.T) {
	cfg := sema.DefaultConfig()
	cfg.MaxInstantiationDepth = 8
	f := analyzeWith(t, `
template <int N> struct Deep { static const int value = Deep<N + 1>::value; };
int v = Deep<0>::value;
`, cfg)
	if _, ok := f.constOf("v"); ok {
		t.Fatalf("unbounded recursion produced a value")
	}
}

func TestDependentNamesStayDependent(t *testing.T) {
	f := analyze(t, `
template <typename T> struct Holder {
	typename T::type member;
	void call() { T::helper(); }
};
`)
	if got := f.kind(f.resolve("helper", 0)); got != symbols.KindDependent {
		t.Fatalf("T::helper resolves to %s", got)
	}
}
