package source

import "sort"

// Expansion records one use of an object-like macro: the span of the macro
// name at the use site and the span of its replacement list at the #define.
type Expansion struct {
	Macro StringID
	Use   Span
	Def   Span
}

// Expansions is the per-file, offset-ordered list of macro uses.
type Expansions struct {
	list []Expansion
}

// Record appends an expansion. Uses are recorded in source order.
func (e *Expansions) Record(exp Expansion) {
	if n := len(e.list); n > 0 && e.list[n-1].Use.Start > exp.Use.Start {
		e.list = append(e.list, exp)
		sort.Slice(e.list, func(i, j int) bool { return e.list[i].Use.Start < e.list[j].Use.Start })
		return
	}
	e.list = append(e.list, exp)
}

// Lookup finds the expansion whose use span covers off.
func (e *Expansions) Lookup(off uint32) (Expansion, bool) {
	i := sort.Search(len(e.list), func(i int) bool { return e.list[i].Use.End > off })
	if i < len(e.list) && e.list[i].Use.Contains(off) {
		return e.list[i], true
	}
	return Expansion{}, false
}

func (e *Expansions) All() []Expansion {
	return e.list
}

func (e *Expansions) Len() int {
	return len(e.list)
}
