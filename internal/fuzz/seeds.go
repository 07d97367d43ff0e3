package fuzztests

import "testing"

const maxFuzzInput = 1 << 16

// seeds cover the constructs the engine treats specially.
var seeds = []string{
	"int x = 1;",
	"#define N 4\nint a[N];",
	"namespace a { namespace b { int v; } } namespace c = a::b; int w = c::v;",
	"struct S { S(); S(const S&); ~S(); int f() const; static int g; }; int S::g = 0;",
	"template<class T> struct V { T t; }; V<int> vi; V<V<int>> vvi;",
	"template<int N> struct F { enum { value = N * F<N-1>::value }; }; template<> struct F<0> { enum { value = 1 }; }; int a[F<4>::value];",
	"void f(int); void f(double); void g() { f(1); f(1.0); f('c'); }",
	"struct A { operator int() const; }; int h(int); int k() { A a; return h(a); }",
	"typedef struct { int x; } P; P p;",
	"int (*fp)(int); int (*ret())(int);",
	"void m() { int T; T * x; }",
	"struct T {}; void m() { T * x; T(y); }",
	"enum class E : unsigned char { a, b = 5, c }; constexpr int z = static_cast<int>(E::c);",
	"void l() { goto done; done: ; }",
	"struct B { virtual void v(); }; struct D : B { void v() override; friend struct X; };",
	"void n() { int* p = new int(3); delete p; auto q = [&](int a) { return a + *p; }; }",
	"template<class T> T max(T a, T b) { return a < b ? b : a; } int u = max(1, 2);",
	"class C { int f(); int g() { return this->f(); } };",
	"{{{{ ))) int ;;; template < < > class",
	"\"unterminated\n'c\n/* open comment",
}

func addSeeds(f *testing.F) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
