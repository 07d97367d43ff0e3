package driver

import (
	"strings"

	"cppsema/internal/sema"
	"cppsema/internal/source"
)

// NameEntry is one name occurrence with what it resolved to.
type NameEntry struct {
	Spelling string `json:"spelling" msgpack:"spelling"`
	Line     uint32 `json:"line" msgpack:"line"`
	Col      uint32 `json:"col" msgpack:"col"`
	Role     string `json:"role" msgpack:"role"`
	Implicit bool   `json:"implicit,omitempty" msgpack:"implicit,omitempty"`
	Kind     string `json:"kind" msgpack:"kind"`
	Binding  string `json:"binding,omitempty" msgpack:"binding,omitempty"`
	// Local marks bindings not reachable by a qualified name from the
	// global namespace: block-scope entities, parameters, labels.
	Local    bool   `json:"local,omitempty" msgpack:"local,omitempty"`
	Type     string `json:"type,omitempty" msgpack:"type,omitempty"`
	Problem  string `json:"problem,omitempty" msgpack:"problem,omitempty"`
}

// Report is the serializable outcome of resolving one translation unit.
// It never carries engine state, only rendered strings.
type Report struct {
	Path     string      `json:"path" msgpack:"path"`
	Names    []NameEntry `json:"names" msgpack:"names"`
	Problems int         `json:"problems" msgpack:"problems"`
}

// BuildReport resolves every name of u in preorder.
func BuildReport(u *sema.Unit, fs *source.FileSet, path string) *Report {
	b := u.Builder()
	names := u.Names()
	r := &Report{Path: path, Names: make([]NameEntry, 0, len(names))}
	for _, id := range names {
		nm := b.Name(id)
		pos, _ := fs.Resolve(nm.Span)
		bid := u.Resolve(id)
		bd := u.Binding(bid)
		e := NameEntry{
			Spelling: b.Spelling(id),
			Line:     pos.Line,
			Col:      pos.Col,
			Role:     u.RoleOf(id).String(),
			Implicit: nm.Implicit,
			Kind:     bd.Kind.String(),
		}
		if bd.IsProblem() {
			e.Problem = bd.Problem.String()
			r.Problems++
		} else {
			e.Binding = strings.Join(u.QualifiedName(bid), "::")
			e.Local = !u.IsGloballyQualified(bid)
			if t := u.TypeOf(bid); t.IsValid() {
				e.Type = u.FormatType(t)
			}
		}
		r.Names = append(r.Names, e)
	}
	return r
}
