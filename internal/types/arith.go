package types

import "math"

// IsIntegral reports bool, character and integer types.
func (b Basic) IsIntegral() bool {
	return b >= Bool && b <= ULongLong
}

func (b Basic) IsFloating() bool {
	return b >= Float && b <= LongDouble
}

func (b Basic) IsArithmetic() bool {
	return b.IsIntegral() || b.IsFloating()
}

// IsSigned reports whether an integral type is signed; plain char is signed.
func (b Basic) IsSigned() bool {
	switch b {
	case Char, SChar, WChar, Short, Int, Long, LongLong:
		return true
	}
	return false
}

// Bits is the LP64 size of b.
func (b Basic) Bits() int {
	switch b {
	case Bool, Char, SChar, UChar:
		return 8
	case Char16, Short, UShort:
		return 16
	case WChar, Char32, Int, UInt, Float:
		return 32
	case Long, ULong, LongLong, ULongLong, Double:
		return 64
	case LongDouble:
		return 128
	}
	return 0
}

// Rank is the integer conversion rank.
func (b Basic) Rank() int {
	switch b {
	case Bool:
		return 1
	case Char, SChar, UChar:
		return 2
	case Short, UShort, Char16:
		return 3
	case Int, UInt, WChar, Char32:
		return 4
	case Long, ULong:
		return 5
	case LongLong, ULongLong:
		return 6
	}
	return 0
}

// Promoted returns the integral promotion of b, or b itself when b does not
// promote.
func (b Basic) Promoted() Basic {
	switch b {
	case Bool, Char, SChar, UChar, Short, UShort, Char16, WChar:
		return Int
	case Char32:
		return UInt
	}
	return b
}

// Range returns the value range of an integral type.
func (b Basic) Range() (lo int64, hi uint64) {
	if b == Bool {
		return 0, 1
	}
	bits := b.Bits()
	if bits == 0 || !b.IsIntegral() {
		return 0, 0
	}
	if b.IsSigned() {
		if bits == 64 {
			return math.MinInt64, math.MaxInt64
		}
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	if bits == 64 {
		return 0, math.MaxUint64
	}
	return 0, 1<<bits - 1
}

// Representable reports whether v fits into the integral type b.
func (b Basic) Representable(v int64) bool {
	lo, hi := b.Range()
	if v < lo {
		return false
	}
	return v < 0 || uint64(v) <= hi
}

// ArithmeticConversion returns the common type of the usual arithmetic
// conversions.
func ArithmeticConversion(a, b Basic) Basic {
	if a == LongDouble || b == LongDouble {
		return LongDouble
	}
	if a == Double || b == Double {
		return Double
	}
	if a == Float || b == Float {
		return Float
	}
	a, b = a.Promoted(), b.Promoted()
	if a == b {
		return a
	}
	if a.IsSigned() == b.IsSigned() {
		if a.Rank() >= b.Rank() {
			return a
		}
		return b
	}
	u, s := a, b
	if a.IsSigned() {
		u, s = b, a
	}
	if u.Rank() >= s.Rank() {
		return u
	}
	if s.Bits() > u.Bits() {
		return s
	}
	return unsignedOf(s)
}

func unsignedOf(b Basic) Basic {
	switch b {
	case Char, SChar:
		return UChar
	case Short:
		return UShort
	case Int:
		return UInt
	case Long:
		return ULong
	case LongLong:
		return ULongLong
	}
	return b
}

// Classification of interned types --------------------------------------------

// BasicOf returns the fundamental kind of the canonical unqualified t.
func (in *Interner) BasicOf(t TypeID) Basic {
	tt := in.Underlying(t)
	if tt.Kind != KindBasic {
		return BasicNone
	}
	return tt.Basic
}

func (in *Interner) IsIntegral(t TypeID) bool { return in.BasicOf(t).IsIntegral() }

func (in *Interner) IsFloating(t TypeID) bool { return in.BasicOf(t).IsFloating() }

// IsArithmetic includes unscoped enumerations, which take part in arithmetic
// after promotion.
func (in *Interner) IsArithmetic(t TypeID) bool {
	if in.BasicOf(t).IsArithmetic() {
		return true
	}
	info, ok := in.EnumInfo(t)
	return ok && !info.Scoped
}

func (in *Interner) IsPointer(t TypeID) bool { return in.Underlying(t).Kind == KindPointer }

func (in *Interner) IsReference(t TypeID) bool {
	k := in.Underlying(t).Kind
	return k == KindLRef || k == KindRRef
}

// IsScalar reports arithmetic, enumeration, pointer, member pointer and
// nullptr_t types.
func (in *Interner) IsScalar(t TypeID) bool {
	tt := in.Underlying(t)
	switch tt.Kind {
	case KindBasic:
		return tt.Basic != Void
	case KindEnum, KindPointer, KindMemberPointer:
		return true
	}
	return false
}

// StripRef returns the referee of a reference type, or t.
func (in *Interner) StripRef(t TypeID) TypeID {
	if tt := in.Underlying(t); tt.Kind == KindLRef || tt.Kind == KindRRef {
		return tt.Elem
	}
	return t
}

// Decay applies array-to-pointer and function-to-pointer conversions and
// drops top-level cv.
func (in *Interner) Decay(t TypeID) TypeID {
	return in.AdjustParam(in.StripRef(t))
}

// CVOf returns the top-level cv of the canonical t.
func (in *Interner) CVOf(t TypeID) CV {
	_, cv := in.Unqualified(in.Canonical(t))
	return cv
}
