package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// Validate walks internal arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	// Check scopes.
	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if scope.Parent.IsValid() {
			if int(scope.Parent) >= len(t.Scopes.data) || scope.Parent == scopeID {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
				continue
			}
			parent := t.Scopes.data[scope.Parent]
			found := false
			for _, child := range parent.Children {
				if child == scopeID {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
			}
		} else if scopeID != t.Global {
			errs = append(errs, fmt.Errorf("scope %d (%s) is detached from the tree", scopeID, scope.Kind))
		}
		for _, edge := range scope.Using {
			if !edge.Target.IsValid() || int(edge.Target) >= len(t.Scopes.data) {
				errs = append(errs, fmt.Errorf("scope %d nominates invalid scope %d", scopeID, edge.Target))
			}
		}
	}

	// Check name index consistency.
	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := t.Scopes.data[idx]
		if len(scope.Order) != len(scope.NameIndex) {
			errs = append(errs, fmt.Errorf("scope %d orders %d names but indexes %d", scopeID, len(scope.Order), len(scope.NameIndex)))
		}
		for _, name := range scope.Order {
			for _, e := range scope.NameIndex[name] {
				if !e.Binding.IsValid() || int(e.Binding) >= len(t.Bindings.data) {
					errs = append(errs, fmt.Errorf("scope %d name index %d references missing binding %d", scopeID, name, e.Binding))
				}
			}
		}
	}

	// Check bindings.
	for idx := 1; idx < len(t.Bindings.data); idx++ {
		bindingID, err := toBindingID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b := t.Bindings.data[idx]
		if b.Scope.IsValid() && int(b.Scope) >= len(t.Scopes.data) {
			errs = append(errs, fmt.Errorf("binding %d has invalid scope %d", bindingID, b.Scope))
		}
		if b.Inner.IsValid() {
			if int(b.Inner) >= len(t.Scopes.data) {
				errs = append(errs, fmt.Errorf("binding %d owns invalid scope %d", bindingID, b.Inner))
			} else if owner := t.Scopes.data[b.Inner].Owner; owner != bindingID {
				errs = append(errs, fmt.Errorf("binding %d owns scope %d whose owner is %d", bindingID, b.Inner, owner))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toBindingID(idx int) (BindingID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoBindingID, fmt.Errorf("binding index %d overflow: %w", idx, err)
	}
	return BindingID(value), nil
}
