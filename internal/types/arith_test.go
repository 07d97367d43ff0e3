package types

import (
	"math"
	"testing"
)

func TestRepresentable(t *testing.T) {
	cases := []struct {
		b    Basic
		v    int64
		want bool
	}{
		{Char, 127, true},
		{Char, 128, false},
		{UChar, -1, false},
		{UChar, 255, true},
		{Bool, 1, true},
		{Bool, 2, false},
		{Int, math.MaxInt32, true},
		{Int, math.MaxInt32 + 1, false},
		{ULongLong, math.MaxInt64, true},
		{LongLong, math.MinInt64, true},
	}
	for _, tc := range cases {
		if got := tc.b.Representable(tc.v); got != tc.want {
			t.Errorf("%s.Representable(%d) = %v, want %v", tc.b, tc.v, got, tc.want)
		}
	}
}

func TestArithmeticConversion(t *testing.T) {
	cases := []struct{ a, b, want Basic }{
		{Char, Short, Int},
		{Int, UInt, UInt},
		{Int, Long, Long},
		{UInt, Long, Long},
		{Float, Int, Float},
		{Double, Float, Double},
	}
	for _, tc := range cases {
		if got := ArithmeticConversion(tc.a, tc.b); got != tc.want {
			t.Errorf("%s op %s = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestScopedEnumIsNotArithmetic(t *testing.T) {
	in := NewInterner()
	scoped := in.Enum(1)
	in.SetEnumInfo(scoped, EnumInfo{Scoped: true})
	plain := in.Enum(2)
	in.SetEnumInfo(plain, EnumInfo{Fixed: true, Underlying: in.Builtins().Short})
	if in.IsArithmetic(scoped) {
		t.Fatalf("scoped enum must not be arithmetic")
	}
	if !in.IsArithmetic(plain) {
		t.Fatalf("unscoped enum should be arithmetic")
	}
	info, _ := in.EnumInfo(plain)
	if info.Underlying != in.Builtins().Short {
		t.Fatalf("fixed underlying type lost")
	}
	if !in.IsScalar(scoped) {
		t.Fatalf("enums are scalar")
	}
}
