package types //nolint:revive

import (
	"encoding/binary"
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
)

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params   []TypeID // Parameter types (in order), already adjusted
	Result   TypeID   // Return type
	Variadic bool
	CV       CV      // member function cv-qualifier
	Ref      RefQual // member function ref-qualifier
	Except   bool    // declared noexcept
}

func (f FnInfo) clone() FnInfo {
	f.Params = slices.Clone(f.Params)
	return f
}

func (f *FnInfo) equal(o *FnInfo) bool {
	return f.Result == o.Result && f.Variadic == o.Variadic && f.CV == o.CV &&
		f.Ref == o.Ref && f.Except == o.Except && slices.Equal(f.Params, o.Params)
}

func (f *FnInfo) hash() uint64 {
	d := xxhash.New()
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	put(uint32(f.Result))
	for _, p := range f.Params {
		put(uint32(p))
	}
	flags := uint32(f.CV) | uint32(f.Ref)<<8
	if f.Variadic {
		flags |= 1 << 16
	}
	if f.Except {
		flags |= 1 << 17
	}
	put(flags)
	return d.Sum64()
}

// RegisterFn creates or finds a function type.
func (in *Interner) RegisterFn(info FnInfo) TypeID {
	h := info.hash()
	for _, id := range in.fnIndex[h] {
		tt := in.types[id]
		if in.fns[tt.Payload].equal(&info) {
			return id
		}
	}
	slot := in.appendFnInfo(info)
	id := in.internRaw(Type{Kind: KindFunction, Payload: slot})
	in.fnIndex[h] = append(in.fnIndex[h], id)
	return id
}

// FnInfo retrieves function type metadata by TypeID, looking through
// typedefs and qualifiers.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt := in.Underlying(id)
	if tt.Kind != KindFunction || tt.Payload == 0 || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

func (in *Interner) appendFnInfo(info FnInfo) uint32 {
	in.fns = append(in.fns, info.clone())
	slot, err := safecast.Conv[uint32](len(in.fns) - 1)
	if err != nil {
		panic(fmt.Errorf("fn info overflow: %w", err))
	}
	return slot
}

// AdjustParam applies the parameter type adjustments: top-level cv is
// dropped, arrays decay to pointers and functions to function pointers.
func (in *Interner) AdjustParam(t TypeID) TypeID {
	u, _ := in.Unqualified(t)
	switch tt := in.Underlying(u); tt.Kind {
	case KindArray:
		return in.Pointer(tt.Elem)
	case KindFunction:
		return in.Pointer(u)
	}
	return u
}

// DecayParam is the type of a parameter variable inside its function body:
// arrays and functions decay as in AdjustParam but top-level cv stays.
func (in *Interner) DecayParam(t TypeID) TypeID {
	u, cv := in.Unqualified(t)
	switch tt := in.Underlying(u); tt.Kind {
	case KindArray:
		return in.Qualify(in.Pointer(tt.Elem), cv)
	case KindFunction:
		return in.Pointer(u)
	}
	return t
}
