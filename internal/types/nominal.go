package types

// EnumInfo stores metadata for an enumeration type.
type EnumInfo struct {
	Scoped     bool
	Fixed      bool   // the underlying type was written explicitly
	Underlying TypeID // int when not fixed
}

// Class interns the class type of a class binding.
func (in *Interner) Class(binding uint32) TypeID {
	return in.Intern(MakeClass(binding))
}

// Enum interns the enumeration type of an enum binding.
func (in *Interner) Enum(binding uint32) TypeID {
	return in.Intern(MakeEnum(binding))
}

// Typedef interns the typedef wrapper of target for a typedef binding.
func (in *Interner) Typedef(binding uint32, target TypeID) TypeID {
	return in.Intern(MakeTypedef(binding, target))
}

// TemplateParam interns the dependent type of a template type parameter.
func (in *Interner) TemplateParam(binding uint32) TypeID {
	return in.Intern(MakeTemplateParam(binding))
}

// SetEnumInfo records scoped/underlying information for an enum type.
func (in *Interner) SetEnumInfo(t TypeID, info EnumInfo) {
	tt, ok := in.Lookup(t)
	if !ok || tt.Kind != KindEnum {
		return
	}
	if info.Underlying == NoTypeID {
		info.Underlying = in.builtins.Int
	}
	in.enums[tt.Payload] = info
}

// EnumInfo returns the metadata of an enumeration type.
func (in *Interner) EnumInfo(t TypeID) (EnumInfo, bool) {
	tt := in.Underlying(t)
	if tt.Kind != KindEnum {
		return EnumInfo{}, false
	}
	info, ok := in.enums[tt.Payload]
	if !ok {
		return EnumInfo{Underlying: in.builtins.Int}, true
	}
	return info, true
}

// Nominal returns the binding behind a class, enum, typedef or template
// parameter type without stripping typedefs.
func (in *Interner) Nominal(t TypeID) (uint32, bool) {
	u, _ := in.Unqualified(t)
	tt, ok := in.Lookup(u)
	if !ok {
		return 0, false
	}
	switch tt.Kind {
	case KindClass, KindEnum, KindTypedef, KindTemplateParam:
		return tt.Payload, true
	}
	return 0, false
}

// ClassBinding returns the class binding of the canonical unqualified t.
func (in *Interner) ClassBinding(t TypeID) (uint32, bool) {
	tt := in.Underlying(t)
	if tt.Kind != KindClass {
		return 0, false
	}
	return tt.Payload, true
}
