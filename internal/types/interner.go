package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the fundamental types.
type Builtins struct {
	Invalid    TypeID
	Void       TypeID
	Bool       TypeID
	Char       TypeID
	SChar      TypeID
	UChar      TypeID
	WChar      TypeID
	Char16     TypeID
	Char32     TypeID
	Short      TypeID
	UShort     TypeID
	Int        TypeID
	UInt       TypeID
	Long       TypeID
	ULong      TypeID
	LongLong   TypeID
	ULongLong  TypeID
	Float      TypeID
	Double     TypeID
	LongDouble TypeID
	NullPtr    TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types     []Type
	index     map[typeKey]TypeID
	builtins  Builtins
	basics    [basicCount]TypeID
	fns       []FnInfo
	fnIndex   map[uint64][]TypeID
	deferreds []DeferredInfo
	defIndex  map[uint64][]TypeID
	enums     map[uint32]EnumInfo
	canonical []TypeID
}

// NewInterner constructs an interner seeded with the fundamental types.
func NewInterner() *Interner {
	in := &Interner{
		index:    make(map[typeKey]TypeID, 64),
		fnIndex:  make(map[uint64][]TypeID),
		defIndex: make(map[uint64][]TypeID),
		enums:    make(map[uint32]EnumInfo),
	}
	in.fns = append(in.fns, FnInfo{}) // reserve 0 as invalid sentinel
	in.deferreds = append(in.deferreds, DeferredInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	for b := Void; b < basicCount; b++ {
		in.basics[b] = in.Intern(MakeBasic(b))
	}
	in.builtins.Void = in.basics[Void]
	in.builtins.Bool = in.basics[Bool]
	in.builtins.Char = in.basics[Char]
	in.builtins.SChar = in.basics[SChar]
	in.builtins.UChar = in.basics[UChar]
	in.builtins.WChar = in.basics[WChar]
	in.builtins.Char16 = in.basics[Char16]
	in.builtins.Char32 = in.basics[Char32]
	in.builtins.Short = in.basics[Short]
	in.builtins.UShort = in.basics[UShort]
	in.builtins.Int = in.basics[Int]
	in.builtins.UInt = in.basics[UInt]
	in.builtins.Long = in.basics[Long]
	in.builtins.ULong = in.basics[ULong]
	in.builtins.LongLong = in.basics[LongLong]
	in.builtins.ULongLong = in.basics[ULongLong]
	in.builtins.Float = in.basics[Float]
	in.builtins.Double = in.basics[Double]
	in.builtins.LongDouble = in.basics[LongDouble]
	in.builtins.NullPtr = in.basics[NullPtr]
	return in
}

// Builtins returns TypeIDs for the fundamental types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Basic returns the TypeID of a fundamental type.
func (in *Interner) Basic(b Basic) TypeID {
	if b == BasicNone || b >= basicCount {
		return NoTypeID
	}
	return in.basics[b]
}

// Intern ensures the provided descriptor has a stable TypeID. Qualified
// descriptors are normalised first: cv on a reference or function is
// dropped, cv on an array moves to its element, and nested qualifiers merge.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if t.Kind == KindQualified {
		return in.Qualify(t.Elem, t.CV)
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns the kind of id, KindInvalid for NoTypeID.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

type typeKey Type

// Qualify adds cv to t.
func (in *Interner) Qualify(t TypeID, cv CV) TypeID {
	tt, ok := in.Lookup(t)
	if !ok || cv == 0 {
		return t
	}
	switch tt.Kind {
	case KindLRef, KindRRef, KindFunction, KindProblem:
		return t
	case KindQualified:
		return in.Qualify(tt.Elem, tt.CV|cv)
	case KindArray:
		return in.Intern(MakeArray(in.Qualify(tt.Elem, cv), tt.Count, tt.Bound))
	case KindTypedef:
		// const T where T is a typedef of an array still qualifies the element
		if target, _ := in.Lookup(in.Canonical(t)); target.Kind == KindArray {
			return in.Qualify(in.Canonical(t), cv)
		}
	}
	key := typeKey(Type{Kind: KindQualified, Elem: t, CV: cv})
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(Type(key))
}

// Unqualified strips top-level cv-qualifiers, looking through typedefs only
// when they hide a qualifier.
func (in *Interner) Unqualified(t TypeID) (TypeID, CV) {
	tt, ok := in.Lookup(t)
	if !ok {
		return t, 0
	}
	switch tt.Kind {
	case KindQualified:
		return tt.Elem, tt.CV
	case KindTypedef:
		inner, cv := in.Unqualified(tt.Elem)
		if cv != 0 {
			return inner, cv
		}
	}
	return t, 0
}

// Canonical strips every typedef, structurally rebuilding t.
func (in *Interner) Canonical(t TypeID) TypeID {
	if t == NoTypeID {
		return t
	}
	if int(t) < len(in.canonical) && in.canonical[t] != NoTypeID {
		return in.canonical[t]
	}
	c := in.canonicalize(t)
	for len(in.canonical) <= int(t) {
		in.canonical = append(in.canonical, NoTypeID)
	}
	in.canonical[t] = c
	return c
}

func (in *Interner) canonicalize(t TypeID) TypeID {
	tt := in.MustLookup(t)
	switch tt.Kind {
	case KindTypedef:
		return in.Canonical(tt.Elem)
	case KindQualified:
		return in.Qualify(in.Canonical(tt.Elem), tt.CV)
	case KindPointer, KindLRef, KindRRef:
		tt.Elem = in.Canonical(tt.Elem)
		return in.Intern(tt)
	case KindMemberPointer:
		tt.Elem = in.Canonical(tt.Elem)
		tt.Class = in.Canonical(tt.Class)
		return in.Intern(tt)
	case KindArray:
		return in.Intern(MakeArray(in.Canonical(tt.Elem), tt.Count, tt.Bound))
	case KindFunction:
		info := in.fns[tt.Payload]
		canon := info.clone()
		canon.Result = in.Canonical(info.Result)
		for i, p := range canon.Params {
			canon.Params[i] = in.Canonical(p)
		}
		return in.RegisterFn(canon)
	case KindDeferred:
		info := in.deferreds[tt.Payload]
		return in.RegisterDeferred(info.Template, in.CanonicalArgs(info.Args))
	default:
		return t
	}
}

// IsSameType compares canonical types.
func (in *Interner) IsSameType(a, b TypeID) bool {
	return in.Canonical(a) == in.Canonical(b)
}

// Underlying returns the canonical, unqualified descriptor of t.
func (in *Interner) Underlying(t TypeID) Type {
	u, _ := in.Unqualified(in.Canonical(t))
	tt, _ := in.Lookup(u)
	return tt
}

// Pointer interns elem*.
func (in *Interner) Pointer(elem TypeID) TypeID { return in.Intern(MakePointer(elem)) }

// LRef interns elem&, collapsing references to references.
func (in *Interner) LRef(elem TypeID) TypeID {
	if k := in.Underlying(elem).Kind; k == KindLRef || k == KindRRef {
		return in.LRef(in.Underlying(elem).Elem)
	}
	return in.Intern(MakeLRef(elem))
}

// RRef interns elem&&; T& && collapses to T&.
func (in *Interner) RRef(elem TypeID) TypeID {
	switch u := in.Underlying(elem); u.Kind {
	case KindLRef:
		return elem
	case KindRRef:
		return in.RRef(u.Elem)
	}
	return in.Intern(MakeRRef(elem))
}

// Problem interns a problem type.
func (in *Interner) Problem(p Problem) TypeID { return in.Intern(MakeProblem(p)) }

// ProblemOf reports the problem carried by t.
func (in *Interner) ProblemOf(t TypeID) (Problem, bool) {
	tt, ok := in.Lookup(t)
	if !ok || tt.Kind != KindProblem {
		return ProblemNone, false
	}
	return Problem(tt.Payload), true
}

// MemberOfClass returns the class type of a pointer-to-member type.
func (in *Interner) MemberOfClass(t TypeID) (TypeID, bool) {
	tt := in.Underlying(t)
	if tt.Kind != KindMemberPointer {
		return NoTypeID, false
	}
	return tt.Class, true
}

// Len reports the number of interned types including the invalid sentinel.
func (in *Interner) Len() int {
	return len(in.types)
}
