package sema

import (
	"strconv"

	"cppsema/internal/ast"
	"cppsema/internal/source"
	"cppsema/internal/symbols"
	"cppsema/internal/types"
)

const maxBaseDepth = 64

// memberSet is the result of looking a name up in one class subobject:
// the declarations found and the subobjects they were found in.
type memberSet struct {
	decls []symbols.BindingID
	// subobjects are path keys; every virtual base shares one key per class.
	subobjects []string
	owner      symbols.BindingID
	ambiguous  bool
}

func (s *memberSet) empty() bool { return len(s.decls) == 0 && !s.ambiguous }

// lookupMember looks name up in cls and its bases. Declarations in a class
// hide those of its bases; names reached through different subobjects are
// ambiguous unless they are static members, types or enumerators. The
// ambiguity is reported as a single problem binding.
func (u *Unit) lookupMember(cls symbols.BindingID, name source.StringID, mask symbols.KindMask) []symbols.BindingID {
	u.ensureMembers(cls)
	set := u.memberSetOf(cls, name, mask, "", 0)
	if set.empty() {
		return nil
	}
	if set.ambiguous || (len(set.subobjects) > 1 && !u.sharedAcrossSubobjects(set.decls)) {
		return []symbols.BindingID{u.problem(symbols.ProblemAmbiguousLookup, name, set.decls...)}
	}
	return set.decls
}

func (u *Unit) memberSetOf(cls symbols.BindingID, name source.StringID, mask symbols.KindMask, path string, depth int) memberSet {
	if depth > maxBaseDepth {
		return memberSet{}
	}
	b := u.bind(cls)
	if b == nil || !b.Inner.IsValid() {
		return memberSet{}
	}
	if path == "" {
		path = strconv.FormatUint(uint64(cls), 10)
	}
	raw := u.tab.Local(b.Inner, name, symbols.Query{Mask: mask | symbols.KindUsingDeclaration.Mask()})
	if local := u.expand(raw, mask); len(local) > 0 {
		return memberSet{decls: local, subobjects: []string{path}, owner: cls}
	}
	var result memberSet
	for _, base := range u.classBases(cls) {
		if !base.Class.IsValid() {
			continue
		}
		sub := path + "/" + strconv.FormatUint(uint64(base.Class), 10)
		if base.Virtual {
			sub = "v" + strconv.FormatUint(uint64(base.Class), 10)
		}
		u.ensureMembers(base.Class)
		result = u.mergeSets(result, u.memberSetOf(base.Class, name, mask, sub, depth+1))
	}
	return result
}

// mergeSets combines the lookup results of two base subobjects.
func (u *Unit) mergeSets(a, b memberSet) memberSet {
	switch {
	case b.empty():
		return a
	case a.empty():
		return b
	}
	if sameDecls(a.decls, b.decls) {
		a.subobjects = unionPaths(a.subobjects, b.subobjects)
		a.ambiguous = a.ambiguous || b.ambiguous
		return a
	}
	// a declaration in a class dominates one in a virtual base it derives from
	if !a.ambiguous && allVirtual(b.subobjects) && u.isBaseOf(b.owner, a.owner) {
		return a
	}
	if !b.ambiguous && allVirtual(a.subobjects) && u.isBaseOf(a.owner, b.owner) {
		return b
	}
	return memberSet{
		decls:      appendUnique(a.decls, b.decls...),
		subobjects: unionPaths(a.subobjects, b.subobjects),
		owner:      a.owner,
		ambiguous:  true,
	}
}

// sharedAcrossSubobjects reports declarations that do not belong to one
// particular subobject.
func (u *Unit) sharedAcrossSubobjects(decls []symbols.BindingID) bool {
	for _, d := range decls {
		b := u.bind(d)
		switch {
		case b.Kind.IsType(), b.Kind == symbols.KindEnumerator:
		case b.Flags&symbols.FlagStatic != 0:
		default:
			return false
		}
	}
	return true
}

func sameDecls(a, b []symbols.BindingID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allVirtual(paths []string) bool {
	for _, p := range paths {
		if len(p) == 0 || p[0] != 'v' {
			return false
		}
	}
	return true
}

func unionPaths(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, p := range b {
		dup := false
		for _, q := range out {
			if p == q {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func appendUnique(dst []symbols.BindingID, ids ...symbols.BindingID) []symbols.BindingID {
	dst = append([]symbols.BindingID(nil), dst...)
	for _, id := range ids {
		dup := false
		for _, have := range dst {
			if have == id {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, id)
		}
	}
	return dst
}

// classBases returns the base clause of cls with every base class resolved.
// Bases are resolved on first use so that a base declared after the class
// head, or one that needs instantiation, is found.
func (u *Unit) classBases(cls symbols.BindingID) []symbols.Base {
	b := u.bind(cls)
	if b == nil {
		return nil
	}
	if u.basesDone[cls] {
		return b.Bases
	}
	u.basesDone[cls] = true
	if pattern, ok := u.patterns[cls]; ok && u.kind(cls) == symbols.KindClass {
		u.instantiateBases(cls, pattern)
		return u.bind(cls).Bases
	}
	bases := append([]symbols.Base(nil), b.Bases...)
	for i := range bases {
		if bases[i].Class.IsValid() || bases[i].Type.IsValid() {
			continue
		}
		n := u.node(bases[i].Node)
		if n == nil || len(n.Kids) == 0 {
			continue
		}
		nameID := u.b.NameOf(n.Kids[0])
		target := u.Resolve(nameID)
		if u.isProblem(target) {
			continue
		}
		t := u.TypeOf(target)
		if u.types.IsDependent(t) || u.isDependentEntity(target) {
			bases[i].Type = t
			continue
		}
		if c, ok := u.types.ClassBinding(t); ok {
			bases[i].Class = symbols.BindingID(c)
			bases[i].Type = t
			continue
		}
		if e := u.scopeEntity(target); u.kind(e).IsClassLike() {
			bases[i].Class = e
			bases[i].Type = u.classType(e)
			continue
		}
		bases[i].Type = t
	}
	u.bind(cls).Bases = bases
	return bases
}

// hasDependentBases reports a base that is only known after instantiation.
func (u *Unit) hasDependentBases(cls symbols.BindingID) bool {
	if !u.kind(cls).IsClassLike() {
		return false
	}
	for _, base := range u.classBases(cls) {
		if !base.Class.IsValid() && base.Type.IsValid() && u.types.IsDependent(base.Type) {
			return true
		}
		if base.Class.IsValid() && u.hasDependentBases(base.Class) {
			return true
		}
	}
	return false
}

// isBaseOf reports whether base is a (direct or indirect) base of derived.
func (u *Unit) isBaseOf(base, derived symbols.BindingID) bool {
	return u.baseDistance(derived, base, 0) >= 0
}

// baseDistance counts derivation steps from derived to base, -1 when base is
// not a base class.
func (u *Unit) baseDistance(derived, base symbols.BindingID, depth int) int {
	if derived == base {
		return 0
	}
	if depth > maxBaseDepth {
		return -1
	}
	best := -1
	for _, b := range u.classBases(derived) {
		if !b.Class.IsValid() {
			continue
		}
		if d := u.baseDistance(b.Class, base, depth+1); d >= 0 && (best < 0 || d+1 < best) {
			best = d + 1
		}
	}
	return best
}

// basePaths counts the distinct subobjects of type base inside derived and
// reports whether every path to it is accessible from outside.
func (u *Unit) basePaths(derived, base symbols.BindingID) (count int, public bool) {
	seen := make(map[string]bool)
	public = true
	var walk func(cls symbols.BindingID, path string, pub bool, depth int)
	walk = func(cls symbols.BindingID, path string, pub bool, depth int) {
		if depth > maxBaseDepth {
			return
		}
		for _, b := range u.classBases(cls) {
			if !b.Class.IsValid() {
				continue
			}
			sub := path + "/" + strconv.FormatUint(uint64(b.Class), 10)
			if b.Virtual {
				sub = "v" + strconv.FormatUint(uint64(b.Class), 10)
			}
			p := pub && b.Visibility == symbols.VisPublic
			if b.Class == base {
				if !seen[sub] {
					seen[sub] = true
					count++
				}
				if !p {
					public = false
				}
				continue
			}
			walk(b.Class, sub, p, depth+1)
		}
	}
	walk(derived, strconv.FormatUint(uint64(derived), 10), true, 0)
	return count, public
}

// derivedToBase reports whether a derived-to-base conversion from the class
// type from to the class type to is possible: to must be an unambiguous
// base of from.
func (u *Unit) derivedToBase(from, to types.TypeID) bool {
	fc, ok1 := u.types.ClassBinding(from)
	tc, ok2 := u.types.ClassBinding(to)
	if !ok1 || !ok2 || fc == tc {
		return false
	}
	n, _ := u.basePaths(symbols.BindingID(fc), symbols.BindingID(tc))
	return n == 1
}

// allBases lists every base class of cls, each once, nearest first.
func (u *Unit) allBases(cls symbols.BindingID) []symbols.BindingID {
	var out []symbols.BindingID
	seen := map[symbols.BindingID]bool{cls: true}
	queue := []symbols.BindingID{cls}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, b := range u.classBases(cur) {
			if b.Class.IsValid() && !seen[b.Class] {
				seen[b.Class] = true
				out = append(out, b.Class)
				queue = append(queue, b.Class)
			}
		}
	}
	return out
}

// baseNode is the base-specifier a base entry was declared by.
func (u *Unit) baseNode(cls symbols.BindingID, base symbols.BindingID) ast.NodeID {
	for _, b := range u.classBases(cls) {
		if b.Class == base {
			return b.Node
		}
	}
	return ast.NoNodeID
}
