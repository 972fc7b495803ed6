package filter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"tombstone/internal/core/apperror"
)

// decoding keeps numbers as json.Number so integers survive the round trip.
var decoding = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Combinator keys inside a where object.
const (
	keyAnd = "and"
	keyOr  = "or"
	keyNot = "not"
)

// operatorAliases maps JSON operator keys to comparison types.
var operatorAliases = map[string]ComparisonType{
	"eq":        Equal,
	"neq":       NotEqual,
	"gt":        Greater,
	"gte":       GreaterOrEqual,
	"lt":        Less,
	"lte":       LessOrEqual,
	"inq":       InList,
	"in":        InList,
	"nin":       NotInList,
	"like":      Like,
	"nlike":     NotLike,
	"contains":  Contains,
	"ncontains": NotContains,
}

// ParseQuery decodes a filter document:
//
//	{"where": {...}, "isDeleted": true, "order": "name DESC", "limit": 10, "skip": 0}
//
// Only the JSON literal true enables IncludeDeleted. Unknown keys are ignored.
func ParseQuery(data []byte) (*Query, error) {
	q := &Query{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return q, nil
	}

	var raw map[string]any
	if err := decoding.Unmarshal(data, &raw); err != nil {
		return nil, apperror.NewInvalidFilter("filter is not a JSON object").WithCause(err)
	}

	if w, ok := raw["where"]; ok && w != nil {
		m, ok := w.(map[string]any)
		if !ok {
			return nil, apperror.NewInvalidFilter("where must be an object")
		}
		where, err := WhereFromMap(m)
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if v, ok := raw["isDeleted"].(bool); ok && v {
		q.IncludeDeleted = true
	}

	if o, ok := raw["order"]; ok && o != nil {
		order, err := parseOrderValue(o)
		if err != nil {
			return nil, err
		}
		q.Order = order
	}

	var err error
	if q.Limit, err = intValue(raw, "limit"); err != nil {
		return nil, err
	}
	if q.Offset, err = intValue(raw, "skip"); err != nil {
		return nil, err
	}
	if q.Offset == 0 {
		if q.Offset, err = intValue(raw, "offset"); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// ParseWhere decodes a bare where object.
func ParseWhere(data []byte) (*Where, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var raw map[string]any
	if err := decoding.Unmarshal(data, &raw); err != nil {
		return nil, apperror.NewInvalidFilter("where is not a JSON object").WithCause(err)
	}
	return WhereFromMap(raw)
}

// WhereFromMap converts a decoded where object into a tree. Field keys are
// processed in sorted order so the result is deterministic.
func WhereFromMap(m map[string]any) (*Where, error) {
	w := &Where{}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := m[key]
		switch key {
		case keyAnd, keyOr:
			list, ok := val.([]any)
			if !ok {
				return nil, apperror.NewInvalidFilter(key+" must be an array").WithDetail("key", key)
			}
			children := make([]*Where, 0, len(list))
			for _, elem := range list {
				cm, ok := elem.(map[string]any)
				if !ok {
					return nil, apperror.NewInvalidFilter(key+" entries must be objects").WithDetail("key", key)
				}
				child, err := WhereFromMap(cm)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if key == keyAnd {
				w.And = children
			} else {
				w.Or = children
			}
		case keyNot:
			cm, ok := val.(map[string]any)
			if !ok {
				return nil, apperror.NewInvalidFilter("not must be an object")
			}
			child, err := WhereFromMap(cm)
			if err != nil {
				return nil, err
			}
			w.Not = child
		default:
			items, err := fieldItems(key, val)
			if err != nil {
				return nil, err
			}
			w.Items = append(w.Items, items...)
		}
	}

	return w, nil
}

func fieldItems(field string, val any) ([]Item, error) {
	switch v := val.(type) {
	case nil:
		return []Item{{Field: field, Operator: IsNull}}, nil
	case []any:
		return []Item{{Field: field, Operator: InList, Value: normalizeList(v)}}, nil
	case map[string]any:
		ops := make([]string, 0, len(v))
		for k := range v {
			ops = append(ops, k)
		}
		sort.Strings(ops)

		items := make([]Item, 0, len(ops))
		for _, opKey := range ops {
			op, ok := operatorAliases[opKey]
			if !ok {
				return nil, apperror.NewInvalidFilter("unknown operator").
					WithDetail("field", field).
					WithDetail("operator", opKey)
			}
			operand := v[opKey]
			switch {
			case operand == nil && op == Equal:
				op = IsNull
			case operand == nil && op == NotEqual:
				op = IsNotNull
			case op == InList || op == NotInList:
				list, ok := operand.([]any)
				if !ok {
					return nil, apperror.NewInvalidFilter("list operator needs an array").
						WithDetail("field", field).
						WithDetail("operator", opKey)
				}
				operand = normalizeList(list)
			default:
				operand = normalizeScalar(operand)
			}
			items = append(items, Item{Field: field, Operator: op, Value: operand})
		}
		return items, nil
	default:
		return []Item{{Field: field, Operator: Equal, Value: normalizeScalar(v)}}, nil
	}
}

// DecodeRecord decodes a JSON object whose top-level numbers and number lists
// are converted the same way as filter values.
func DecodeRecord(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := decoding.Unmarshal(data, &raw); err != nil {
		return nil, apperror.NewValidation("body is not a JSON object").WithCause(err)
	}
	if raw == nil {
		return nil, apperror.NewValidation("body is not a JSON object")
	}
	for k, v := range raw {
		if list, ok := v.([]any); ok {
			raw[k] = normalizeList(list)
			continue
		}
		raw[k] = normalizeScalar(v)
	}
	return raw, nil
}

func normalizeScalar(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func normalizeList(list []any) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = normalizeScalar(v)
	}
	return out
}

// ParseOrder parses "field", "field ASC", "field DESC" or "-field".
func ParseOrder(s string) (OrderBy, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return OrderBy{Field: strings.TrimSpace(s[1:]), Desc: true}, nil
	}
	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return OrderBy{Field: parts[0]}, nil
	case 2:
		switch strings.ToUpper(parts[1]) {
		case "ASC":
			return OrderBy{Field: parts[0]}, nil
		case "DESC":
			return OrderBy{Field: parts[0], Desc: true}, nil
		}
	}
	return OrderBy{}, apperror.NewInvalidFilter("invalid order").WithDetail("order", s)
}

func parseOrderValue(v any) ([]OrderBy, error) {
	var specs []string
	switch o := v.(type) {
	case string:
		specs = strings.Split(o, ",")
	case []any:
		for _, e := range o {
			s, ok := e.(string)
			if !ok {
				return nil, apperror.NewInvalidFilter("order entries must be strings")
			}
			specs = append(specs, s)
		}
	default:
		return nil, apperror.NewInvalidFilter("order must be a string or an array")
	}

	out := make([]OrderBy, 0, len(specs))
	for _, s := range specs {
		ob, err := ParseOrder(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ob)
	}
	return out, nil
}

func intValue(raw map[string]any, key string) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := normalizeScalar(v).(int64)
	if !ok || n < 0 {
		return 0, apperror.NewInvalidFilter(fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return int(n), nil
}
