package filter

// Where is a condition tree. All Items must match, every And child must
// match, at least one Or child must match (when present) and Not must not match.
type Where struct {
	Items []Item
	And   []*Where
	Or    []*Where
	Not   *Where
}

// Cond builds a single-condition tree.
func Cond(field string, op ComparisonType, value any) *Where {
	return &Where{Items: []Item{{Field: field, Operator: op, Value: value}}}
}

// Eq builds a single equality condition.
func Eq(field string, value any) *Where {
	return Cond(field, Equal, value)
}

// All conjoins trees, skipping empty ones.
func All(ws ...*Where) *Where {
	parts := make([]*Where, 0, len(ws))
	for _, w := range ws {
		if !w.IsEmpty() {
			parts = append(parts, w)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return &Where{And: parts}
	}
}

// Any disjoins trees, skipping empty ones.
func Any(ws ...*Where) *Where {
	parts := make([]*Where, 0, len(ws))
	for _, w := range ws {
		if !w.IsEmpty() {
			parts = append(parts, w)
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return &Where{Or: parts}
	}
}

// Negate wraps w in NOT.
func Negate(w *Where) *Where {
	return &Where{Not: w}
}

// Add appends a condition at the top level.
func (w *Where) Add(field string, op ComparisonType, value any) *Where {
	w.Items = append(w.Items, Item{Field: field, Operator: op, Value: value})
	return w
}

// Set replaces every top-level condition on field with a single one.
func (w *Where) Set(field string, op ComparisonType, value any) *Where {
	kept := w.Items[:0]
	for _, it := range w.Items {
		if it.Field != field {
			kept = append(kept, it)
		}
	}
	w.Items = append(kept, Item{Field: field, Operator: op, Value: value})
	return w
}

// IsEmpty reports whether the tree has no conditions (nil included).
func (w *Where) IsEmpty() bool {
	if w == nil {
		return true
	}
	return len(w.Items) == 0 && len(w.And) == 0 && len(w.Or) == 0 && w.Not == nil
}

// Walk visits every condition depth-first, top-level items first.
// It stops when fn returns false and reports whether the walk completed.
func (w *Where) Walk(fn func(Item) bool) bool {
	if w == nil {
		return true
	}
	for _, it := range w.Items {
		if !fn(it) {
			return false
		}
	}
	for _, child := range w.And {
		if !child.Walk(fn) {
			return false
		}
	}
	for _, child := range w.Or {
		if !child.Walk(fn) {
			return false
		}
	}
	return w.Not.Walk(fn)
}

// HasField reports whether a condition on field appears anywhere in the tree,
// including inside and/or/not groups. Values are not inspected.
func (w *Where) HasField(field string) bool {
	return !w.Walk(func(it Item) bool {
		return it.Field != field
	})
}

// HasTopLevelField reports whether field is constrained directly on w.
func (w *Where) HasTopLevelField(field string) bool {
	if w == nil {
		return false
	}
	for _, it := range w.Items {
		if it.Field == field {
			return true
		}
	}
	return false
}

// Fields lists distinct field names referenced anywhere in the tree.
func (w *Where) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	w.Walk(func(it Item) bool {
		if _, ok := seen[it.Field]; !ok {
			seen[it.Field] = struct{}{}
			out = append(out, it.Field)
		}
		return true
	})
	return out
}

// Clone copies the tree structure. Condition values are shared.
func (w *Where) Clone() *Where {
	if w == nil {
		return nil
	}
	out := &Where{
		Items: append([]Item(nil), w.Items...),
		Not:   w.Not.Clone(),
	}
	for _, c := range w.And {
		out.And = append(out.And, c.Clone())
	}
	for _, c := range w.Or {
		out.Or = append(out.Or, c.Clone())
	}
	return out
}
