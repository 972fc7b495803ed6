package memory

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"tombstone/internal/core/apperror"
	"tombstone/internal/core/entity"
	"tombstone/internal/domain/filter"
)

// matches evaluates a condition tree against a record with SQL-like NULL
// handling: a comparison against a missing or nil value never matches.
func matches(rec entity.Record, w *filter.Where) (bool, error) {
	if w.IsEmpty() {
		return true, nil
	}
	for _, it := range w.Items {
		ok, err := matchItem(rec, it)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, sub := range w.And {
		ok, err := matches(rec, sub)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(w.Or) > 0 {
		matched, branches := false, 0
		for _, sub := range w.Or {
			if sub.IsEmpty() {
				continue
			}
			branches++
			ok, err := matches(rec, sub)
			if err != nil {
				return false, err
			}
			if ok {
				matched = true
				break
			}
		}
		if branches > 0 && !matched {
			return false, nil
		}
	}
	if w.Not != nil && !w.Not.IsEmpty() {
		ok, err := matches(rec, w.Not)
		if err != nil || ok {
			return false, err
		}
	}
	return true, nil
}

func matchItem(rec entity.Record, it filter.Item) (bool, error) {
	actual := normalize(rec[it.Field])

	switch it.Operator {
	case filter.IsNull:
		return actual == nil, nil
	case filter.IsNotNull:
		return actual != nil, nil
	case filter.Equal:
		if it.Value == nil {
			return actual == nil, nil
		}
		return actual != nil && equal(actual, normalize(it.Value)), nil
	case filter.NotEqual:
		if it.Value == nil {
			return actual != nil, nil
		}
		return actual != nil && !equal(actual, normalize(it.Value)), nil
	}

	if actual == nil {
		if !it.Operator.Valid() {
			return false, invalidOperator(it)
		}
		return false, nil
	}

	switch it.Operator {
	case filter.Less, filter.LessOrEqual, filter.Greater, filter.GreaterOrEqual:
		c, ok := compare(actual, normalize(it.Value))
		if !ok {
			return false, apperror.NewInvalidFilter("incomparable filter value").
				WithDetail("field", it.Field)
		}
		switch it.Operator {
		case filter.Less:
			return c < 0, nil
		case filter.LessOrEqual:
			return c <= 0, nil
		case filter.Greater:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case filter.InList, filter.NotInList:
		list, err := values(it)
		if err != nil {
			return false, err
		}
		found := false
		for _, v := range list {
			if equal(actual, normalize(v)) {
				found = true
				break
			}
		}
		return found == (it.Operator == filter.InList), nil
	case filter.Like, filter.NotLike:
		re, err := likePattern(fmt.Sprint(it.Value))
		if err != nil {
			return false, apperror.NewInvalidFilter("invalid like pattern").WithDetail("field", it.Field)
		}
		return re.MatchString(fmt.Sprint(actual)) == (it.Operator == filter.Like), nil
	case filter.Contains, filter.NotContains:
		hit := strings.Contains(strings.ToLower(fmt.Sprint(actual)), strings.ToLower(fmt.Sprint(it.Value)))
		return hit == (it.Operator == filter.Contains), nil
	}
	return false, invalidOperator(it)
}

func invalidOperator(it filter.Item) error {
	return apperror.NewInvalidFilter("unsupported operator").
		WithDetail("field", it.Field).
		WithDetail("operator", string(it.Operator))
}

func values(it filter.Item) ([]any, error) {
	rv := reflect.ValueOf(it.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, apperror.NewInvalidFilter("list operator requires an array").WithDetail("field", it.Field)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func likePattern(p string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// normalize reduces values to a small set of comparable kinds:
// nil, string, float64, bool and time.Time.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return nil
		}
		return x.String()
	case [16]byte:
		return uuid.UUID(x).String()
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two normalized values of the same kind. Strings are compared
// with times when they parse as RFC 3339.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), true
		case time.Time:
			if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
				return compareTime(t, y), true
			}
		}
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			}
			return 0, true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			}
			return 1, true
		}
	case time.Time:
		switch y := b.(type) {
		case time.Time:
			return compareTime(x, y), true
		case string:
			if t, err := time.Parse(time.RFC3339Nano, y); err == nil {
				return compareTime(x, t), true
			}
		}
	}
	return 0, false
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// order sorts nil values first, then by compare, then by string form.
func order(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
