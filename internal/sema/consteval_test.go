package sema_test

import (
	"testing"

	"cppsema/internal/diag"
	"cppsema/internal/sema"
	"cppsema/internal/types"
)

func TestConstantExpressions(t *testing.T) {
	f := analyze(t, `
const int a = 1 + 2 * 3;
const int b = (a << 2) | 1;
const int c = a > 5 ? -a : a;
const unsigned d = 0u - 1u;
const int e = sizeof(int) + sizeof(char);
const bool g = 3 == 3 && !(2 > 3);
const int h = 7 / 2 + 7 % 2;
const int k = static_cast<int>('A');
`)
	want := map[string]int64{
		"a": 7,
		"b": 29,
		"c": -7,
		"d": 0xFFFFFFFF,
		"e": 5,
		"g": 1,
		"h": 4,
		"k": 65,
	}
	for name, w := range want {
		got, ok := f.constOf(name)
		if !ok || got != w {
			t.Errorf("%s = %d (%v), want %d", name, got, ok, w)
		}
	}
}

func TestDivisionByZeroHasNoValue(t *testing.T) {
	f := analyze(t, `const int z = 1 / 0;`)
	if v, ok := f.constOf("z"); ok {
		t.Fatalf("1 / 0 = %d", v)
	}
}

func TestEnumeratorValues(t *testing.T) {
	f := analyze(t, `
enum Color { red, green = 5, blue, last = blue * 2 };
enum class Small : char { x = 'a', y };
`)
	var got []int64
	for _, e := range f.u.Enumerators(f.ok("Color", 0)) {
		v, _ := f.u.EnumeratorValue(e)
		got = append(got, v)
	}
	want := []int64{0, 5, 6, 12}
	if len(got) != len(want) {
		t.Fatalf("values: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("values: %v, want %v", got, want)
		}
	}
	small := f.ok("Small", 0)
	if u := f.u.UnderlyingType(small); u != f.u.Types().Basic(types.Char) {
		t.Fatalf("underlying type of Small: %s", f.typeString(u))
	}
	if v, ok := f.u.EnumeratorValue(f.ok("y", 0)); !ok || v != 'b' {
		t.Fatalf("Small::y = %d (%v)", v, ok)
	}
}

func TestConstexprFunctions(t *testing.T) {
	f := analyze(t, `
constexpr int fact(int n) { return n <= 1 ? 1 : n * fact(n - 1); }
constexpr int sum(int n) {
	int s = 0;
	for (int i = 1; i <= n; ++i) {
		if (i % 2 == 0)
			continue;
		s += i;
	}
	return s;
}
constexpr int pick(int v) {
	switch (v) {
	case 1: return 10;
	case 2: return 20;
	default: return -1;
	}
}
int arr[fact(4)];
const int vs = sum(10);
const int vp = pick(2);
const int vq = pick(7);
`)
	want := map[string]int64{"vs": 25, "vp": 20, "vq": -1}
	for name, w := range want {
		got, ok := f.constOf(name)
		if !ok || got != w {
			t.Errorf("%s = %d (%v), want %d", name, got, ok, w)
		}
	}
	at := f.u.Types().Underlying(f.u.TypeOf(f.ok("arr", 0)))
	if at.Kind != types.KindArray || at.Count != 24 {
		t.Fatalf("arr has type %s", f.typeString(f.u.TypeOf(f.ok("arr", 0))))
	}
}

func TestNonConstexprFunctionHasNoValue(t *testing.T) {
	f := analyze(t, `
int plain(int n) { return n; }
const int v = plain(3);
`)
	if _, ok := f.constOf("v"); ok {
		t.Fatalf("call of a non-constexpr function was evaluated")
	}
}

func TestEvaluationBudget(t *testing.T) {
	cfg := sema.DefaultConfig()
	cfg.EvalStepBudget = 500
	f := analyzeWith(t, `
constexpr int spin(int n) { while (n > 0) { n = n + 1; } return n; }
const int v = spin(1);
`, cfg)
	if _, ok := f.constOf("v"); ok {
		t.Fatalf("endless loop produced a value")
	}
	f.u.Check()
	found := false
	for _, c := range f.codes() {
		found = found || c == diag.SemaEvalBudgetExhausted
	}
	if !found {
		t.Fatalf("budget exhaustion not reported: %v", f.codes())
	}
}

func TestSizeofClasses(t *testing.T) {
	f := analyze(t, `
struct Empty {};
struct Pair { char c; int i; };
struct Poly { virtual void f(); int x; };
union U { char c; double d; };
const int sa = sizeof(Empty);
const int sb = sizeof(Pair);
const int sc = sizeof(Poly);
const int sd = sizeof(U);
`)
	want := map[string]int64{"sa": 1, "sb": 8, "sc": 16, "sd": 8}
	for name, w := range want {
		got, ok := f.constOf(name)
		if !ok || got != w {
			t.Errorf("sizeof for %s = %d (%v), want %d", name, got, ok, w)
		}
	}
}
