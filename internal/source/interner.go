package source

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
)

// StringID names an interned spelling. NoStringID is the empty spelling.
type StringID uint32

const NoStringID StringID = 0

func (id StringID) IsValid() bool { return id != NoStringID }

// Interner assigns dense IDs to identifier and macro spellings. The lexer,
// the AST builder and the symbol table of a translation unit share one, so
// IDs compare across them.
type Interner struct {
	spellings []string
	ids       map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		spellings: []string{""},
		ids:       map[string]StringID{"": NoStringID},
	}
}

func (in *Interner) Intern(s string) StringID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	return in.add(strings.Clone(s))
}

// InternBytes interns the spelling in b. Finding an existing spelling does
// not allocate.
func (in *Interner) InternBytes(b []byte) StringID {
	if id, ok := in.ids[string(b)]; ok {
		return id
	}
	return in.add(string(b))
}

func (in *Interner) add(s string) StringID {
	n, err := safecast.Conv[uint32](len(in.spellings))
	if err != nil {
		panic(fmt.Errorf("string table overflow: %w", err))
	}
	id := StringID(n)
	in.spellings = append(in.spellings, s)
	in.ids[s] = id
	return id
}

// Find is Intern without the insertion.
func (in *Interner) Find(s string) (StringID, bool) {
	id, ok := in.ids[s]
	return id, ok
}

func (in *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(in.spellings) {
		return "", false
	}
	return in.spellings[id], true
}

func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("source: unknown string ID %d", id))
	}
	return s
}

// Len counts the spellings held, the empty one included.
func (in *Interner) Len() int { return len(in.spellings) }
