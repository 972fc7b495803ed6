// Package filter defines the structured query descriptors passed between model
// operations, interceptors and stores.
package filter

// ComparisonType is the operator of a single condition. InList and NotInList
// take a list value, Like and NotLike use % and _ wildcards, Contains and
// NotContains match a case-insensitive substring.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Like           ComparisonType = "like"
	NotLike        ComparisonType = "nlike"
	Contains       ComparisonType = "contains"
	NotContains    ComparisonType = "ncontains"

	// Value is ignored.
	IsNull    ComparisonType = "null"
	IsNotNull ComparisonType = "not_null"
)

// Valid reports whether the operator is known.
func (c ComparisonType) Valid() bool {
	switch c {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		InList, NotInList, Like, NotLike, Contains, NotContains, IsNull, IsNotNull:
		return true
	}
	return false
}

// Item is one condition on a model field.
type Item struct {
	Field    string         `json:"field"`    // logical field name
	Operator ComparisonType `json:"operator"` // see ComparisonType
	Value    any            `json:"value"`    // scalar, or a list for in/nin
}

// OrderBy is one sort key.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Query is the descriptor of a read operation.
type Query struct {
	// Where selects records; nil matches everything.
	Where *Where

	// IncludeDeleted is the top-level opt-in ({"isDeleted": true}) that
	// disables the soft-delete exclusion for this call.
	IncludeDeleted bool

	Order  []OrderBy
	Limit  int
	Offset int
}

// EnsureWhere returns q.Where, creating an empty one if needed.
func (q *Query) EnsureWhere() *Where {
	if q.Where == nil {
		q.Where = &Where{}
	}
	return q.Where
}
