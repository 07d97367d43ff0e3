package types

import (
	"encoding/binary"
	"fmt"
	"slices"

	"fortio.org/safecast"
	"github.com/cespare/xxhash/v2"
)

// Arg is one template argument: a type, or an integral value for non-type
// parameters. Template template arguments carry the template binding in
// Template.
type Arg struct {
	Type     TypeID
	Value    int64
	IsValue  bool
	Template uint32
	// Dependent marks a value argument that could not be evaluated because
	// it depends on a template parameter; Value then holds the argument's
	// expression node.
	Dependent bool
}

// DeferredInfo stores a template-id with dependent arguments.
type DeferredInfo struct {
	Template uint32
	Args     []Arg
}

// CanonicalArgs returns args with every type replaced by its canonical form.
func (in *Interner) CanonicalArgs(args []Arg) []Arg {
	out := make([]Arg, len(args))
	for i, a := range args {
		if !a.IsValue && a.Type != NoTypeID {
			a.Type = in.Canonical(a.Type)
		}
		out[i] = a
	}
	return out
}

// HashArgs hashes an argument list. Callers canonicalise first when
// typedef-equal lists must collide.
func HashArgs(template uint32, args []Arg) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	put(uint64(template))
	for _, a := range args {
		switch {
		case a.Template != 0:
			put(3<<32 | uint64(a.Template))
		case a.IsValue:
			put(1 << 32)
			put(uint64(a.Value))
		default:
			put(2<<32 | uint64(a.Type))
		}
	}
	return d.Sum64()
}

// ArgsEqual compares two argument lists element by element.
func ArgsEqual(a, b []Arg) bool {
	return slices.Equal(a, b)
}

// RegisterDeferred interns a dependent template-id type.
func (in *Interner) RegisterDeferred(template uint32, args []Arg) TypeID {
	h := HashArgs(template, args)
	for _, id := range in.defIndex[h] {
		info := in.deferreds[in.types[id].Payload]
		if info.Template == template && ArgsEqual(info.Args, args) {
			return id
		}
	}
	in.deferreds = append(in.deferreds, DeferredInfo{Template: template, Args: slices.Clone(args)})
	slot, err := safecast.Conv[uint32](len(in.deferreds) - 1)
	if err != nil {
		panic(fmt.Errorf("deferred info overflow: %w", err))
	}
	id := in.internRaw(Type{Kind: KindDeferred, Payload: slot})
	in.defIndex[h] = append(in.defIndex[h], id)
	return id
}

// DeferredInfo returns the template-id behind a deferred type.
func (in *Interner) DeferredInfo(t TypeID) (*DeferredInfo, bool) {
	tt := in.Underlying(t)
	if tt.Kind != KindDeferred || tt.Payload == 0 || int(tt.Payload) >= len(in.deferreds) {
		return nil, false
	}
	return &in.deferreds[tt.Payload], true
}

// IsDependent reports whether t mentions a template parameter.
func (in *Interner) IsDependent(t TypeID) bool {
	tt, ok := in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindTemplateParam, KindDeferred:
		return true
	case KindPointer, KindLRef, KindRRef, KindQualified, KindArray, KindTypedef:
		return in.IsDependent(tt.Elem)
	case KindMemberPointer:
		return in.IsDependent(tt.Elem) || in.IsDependent(tt.Class)
	case KindFunction:
		info := in.fns[tt.Payload]
		if in.IsDependent(info.Result) {
			return true
		}
		for _, p := range info.Params {
			if in.IsDependent(p) {
				return true
			}
		}
	}
	return false
}
