package sheetsync

import (
	"cmp"
	"fmt"
	"time"
)

// Condition restricts which remote rows take part in a sync
type Condition struct {
	Column   string      // remote field name
	Operator string      // ==, !=, >, >=, <, <=, in, between
	Value    interface{} // []interface{} for in, two elements for between
}

// operators compares a row value (nil when the field is missing) with the
// condition's value
var operators = map[string]func(value, operand interface{}) bool{
	"==":      equal,
	"!=":      func(v, o interface{}) bool { return !equal(v, o) },
	">":       ordered(func(c int) bool { return c > 0 }),
	">=":      ordered(func(c int) bool { return c >= 0 }),
	"<":       ordered(func(c int) bool { return c < 0 }),
	"<=":      ordered(func(c int) bool { return c <= 0 }),
	"in":      within,
	"between": between,
}

// Matches reports whether the row satisfies every condition
func (r *RemoteRow) Matches(conditions []Condition) bool {
	for _, cond := range conditions {
		op, ok := operators[cond.Operator]
		if !ok {
			return false
		}
		value, _ := r.Get(cond.Column)
		if !op(value, cond.Value) {
			return false
		}
	}
	return true
}

// FilterRows keeps the rows matching all conditions, in order
func FilterRows(rows []*RemoteRow, conditions []Condition) []*RemoteRow {
	if len(conditions) == 0 {
		return rows
	}
	kept := make([]*RemoteRow, 0, len(rows))
	for _, row := range rows {
		if row.Matches(conditions) {
			kept = append(kept, row)
		}
	}
	return kept
}

// ValidateConditions rejects unknown operators and operands of the wrong shape
func ValidateConditions(conditions []Condition) error {
	for i, cond := range conditions {
		if _, ok := operators[cond.Operator]; !ok {
			return fmt.Errorf("invalid operator '%s' in condition %d", cond.Operator, i)
		}

		switch cond.Operator {
		case "in":
			if _, ok := cond.Value.([]interface{}); !ok {
				return fmt.Errorf("operator 'in' requires a list value in condition %d", i)
			}
		case "between":
			if _, _, ok := bounds(cond.Value); !ok {
				return fmt.Errorf("operator 'between' requires a two element list in condition %d", i)
			}
		}

		if cond.Column == "" {
			return fmt.Errorf("empty column name in condition %d", i)
		}
	}
	return nil
}

// equal compares numbers by value and everything else by normalized text.
// nil only equals nil.
func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := asNumber(a); ok {
		if y, ok := asNumber(b); ok {
			return x == y
		}
	}
	return normalize(a) == normalize(b)
}

func ordered(accept func(int) bool) func(a, b interface{}) bool {
	return func(a, b interface{}) bool {
		c, ok := compare(a, b)
		return ok && accept(c)
	}
}

func within(a, list interface{}) bool {
	items, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, item := range items {
		if equal(a, item) {
			return true
		}
	}
	return false
}

func between(a, span interface{}) bool {
	lo, hi, ok := bounds(span)
	if !ok {
		return false
	}
	low, ok1 := compare(a, lo)
	high, ok2 := compare(a, hi)
	return ok1 && ok2 && low >= 0 && high <= 0
}

func bounds(span interface{}) (lo, hi interface{}, ok bool) {
	switch v := span.(type) {
	case [2]interface{}:
		return v[0], v[1], true
	case []interface{}:
		if len(v) == 2 {
			return v[0], v[1], true
		}
	}
	return nil, nil, false
}

// compare orders two numbers, or a time against a time or a date string.
// Anything else is not comparable.
func compare(a, b interface{}) (int, bool) {
	if x, ok := asNumber(a); ok {
		if y, ok := asNumber(b); ok {
			return cmp.Compare(x, y), true
		}
		return 0, false
	}

	_, aIsTime := a.(time.Time)
	_, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		x, ok1 := asTime(a)
		y, ok2 := asTime(b)
		if ok1 && ok2 {
			return x.Compare(y), true
		}
	}
	return 0, false
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTime(t)
	}
	return time.Time{}, false
}
