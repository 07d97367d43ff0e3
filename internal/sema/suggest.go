package sema

import (
	"strings"

	edlib "github.com/hbollon/go-edlib"

	"cppsema/internal/ast"
)

// suggest returns the visible name closest to an unresolved name, for a
// "did you mean" note. Names further away than a third of the spelling
// are not offered.
func (u *Unit) suggest(id ast.NameID) (string, bool) {
	base := u.b.Base(id)
	nm := u.name(base)
	if nm == nil || nm.Kind != ast.NameIdent {
		return "", false
	}
	want := u.spell(nm.Spelling)
	if want == "" {
		return "", false
	}
	limit := max(1, len(want)/3)
	best, bestDist := "", limit+1
	for _, cand := range u.tab.VisibleNames(u.scopeOfName(base), u.namePos(base)) {
		s := u.spell(cand)
		if s == "" || s == want || strings.HasPrefix(s, "operator") || strings.HasPrefix(s, "~") {
			continue
		}
		if d := edlib.LevenshteinDistance(want, s); d < bestDist || (d == bestDist && s < best) {
			best, bestDist = s, d
		}
	}
	return best, best != ""
}
