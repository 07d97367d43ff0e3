package types

import (
	"strconv"
	"strings"
)

// Namer spells the binding behind a nominal type.
type Namer func(binding uint32) string

// Format renders t in declarator syntax, for example "const char *" or
// "int (*)(int)".
func (in *Interner) Format(t TypeID, name Namer) string {
	if name == nil {
		name = func(b uint32) string { return "#" + strconv.FormatUint(uint64(b), 10) }
	}
	f := formatter{in: in, name: name}
	return strings.TrimSpace(f.declare(t, ""))
}

type formatter struct {
	in   *Interner
	name Namer
}

// declare spells t around the inner declarator text.
func (f formatter) declare(t TypeID, inner string) string {
	tt, ok := f.in.Lookup(t)
	if !ok {
		return "<invalid>" + pad(inner)
	}
	switch tt.Kind {
	case KindPointer:
		return f.declare(tt.Elem, f.wrap(tt.Elem, "*"+inner))
	case KindLRef:
		return f.declare(tt.Elem, f.wrap(tt.Elem, "&"+inner))
	case KindRRef:
		return f.declare(tt.Elem, f.wrap(tt.Elem, "&&"+inner))
	case KindMemberPointer:
		return f.declare(tt.Elem, f.wrap(tt.Elem, f.declare(tt.Class, "")+"::*"+inner))
	case KindQualified:
		elem, _ := f.in.Lookup(tt.Elem)
		if elem.Kind == KindPointer || elem.Kind == KindMemberPointer {
			return f.declare(tt.Elem, cvString(tt.CV)+" "+inner)
		}
		return cvString(tt.CV) + " " + f.declare(tt.Elem, inner)
	case KindArray:
		bound := "[]"
		if tt.Bound {
			bound = "[" + strconv.FormatUint(uint64(tt.Count), 10) + "]"
		}
		return f.declare(tt.Elem, inner+bound)
	case KindFunction:
		info := f.in.fns[tt.Payload]
		params := make([]string, 0, len(info.Params)+1)
		for _, p := range info.Params {
			params = append(params, f.declare(p, ""))
		}
		if info.Variadic {
			params = append(params, "...")
		}
		suffix := "(" + strings.Join(params, ", ") + ")"
		if info.CV != 0 {
			suffix += " " + cvString(info.CV)
		}
		switch info.Ref {
		case RefLValue:
			suffix += " &"
		case RefRValue:
			suffix += " &&"
		}
		return f.declare(info.Result, inner+suffix)
	case KindBasic:
		return tt.Basic.String() + pad(inner)
	case KindClass, KindEnum, KindTypedef, KindTemplateParam:
		return f.name(tt.Payload) + pad(inner)
	case KindDeferred:
		info := f.in.deferreds[tt.Payload]
		args := make([]string, 0, len(info.Args))
		for _, a := range info.Args {
			switch {
			case a.Template != 0:
				args = append(args, f.name(a.Template))
			case a.IsValue:
				args = append(args, strconv.FormatInt(a.Value, 10))
			default:
				args = append(args, f.declare(a.Type, ""))
			}
		}
		return f.name(info.Template) + "<" + strings.Join(args, ", ") + ">" + pad(inner)
	case KindProblem:
		return "<" + Problem(tt.Payload).String() + ">" + pad(inner)
	}
	return "<invalid>" + pad(inner)
}

// wrap parenthesises inner when elem binds tighter than a pointer.
func (f formatter) wrap(elem TypeID, inner string) string {
	switch f.in.Kind(elem) {
	case KindArray, KindFunction:
		return "(" + inner + ")"
	}
	return inner
}

func pad(inner string) string {
	if inner == "" {
		return ""
	}
	return " " + inner
}

func cvString(cv CV) string {
	var parts []string
	if cv.Has(Const) {
		parts = append(parts, "const")
	}
	if cv.Has(Volatile) {
		parts = append(parts, "volatile")
	}
	if cv.Has(Restrict) {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}
