package changeset

import (
	"math"
	"reflect"
	"time"
)

// Change holds a field's value before and after a mutation.
type Change struct {
	Old any
	New any
}

// Changes maps exported field names to their (old, new) values. It is the
// sole input consistency handlers interpret; handlers never reach back into
// the entities themselves to guess what happened.
type Changes map[string]Change

func (c Changes) Has(field string) bool {
	_, ok := c[field]
	return ok
}

func (c Changes) Any(fields ...string) bool {
	for _, field := range fields {
		if _, ok := c[field]; ok {
			return true
		}
	}
	return false
}

// Without returns a copy with the given fields removed.
func (c Changes) Without(fields ...string) Changes {
	out := make(Changes, len(c))
	for key, value := range c {
		out[key] = value
	}
	for _, field := range fields {
		delete(out, field)
	}
	return out
}

func (c Changes) OldTime(field string) (time.Time, bool) {
	change, ok := c[field]
	if !ok {
		return time.Time{}, false
	}
	t, ok := change.Old.(time.Time)
	return t, ok
}

func (c Changes) NewTime(field string) (time.Time, bool) {
	change, ok := c[field]
	if !ok {
		return time.Time{}, false
	}
	t, ok := change.New.(time.Time)
	return t, ok
}

func (c Changes) NewBool(field string) (bool, bool) {
	change, ok := c[field]
	if !ok {
		return false, false
	}
	b, ok := change.New.(bool)
	return b, ok
}

// Snapshot captures the exported fields of a struct as comparable values.
// Pointers are flattened (nil stays nil), floats are rounded to two decimals
// so storage round-trips do not register as changes, and timestamps are
// normalized to UTC.
func Snapshot(entity any) map[string]any {
	value := reflect.ValueOf(entity)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	typ := value.Type()
	out := make(map[string]any, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		out[field.Name] = normalizeValue(value.Field(i))
	}
	return out
}

// Diff returns only the fields whose snapshot values differ.
func Diff(before, after map[string]any) Changes {
	out := make(Changes)
	for key, oldValue := range before {
		newValue, ok := after[key]
		if !ok {
			continue
		}
		if !reflect.DeepEqual(oldValue, newValue) {
			out[key] = Change{Old: oldValue, New: newValue}
		}
	}
	return out
}

// Track snapshots both entities and diffs them.
func Track(before, after any) Changes {
	return Diff(Snapshot(before), Snapshot(after))
}

func normalizeValue(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.Round(v.Float()*100) / 100
	default:
	}

	if t, ok := v.Interface().(time.Time); ok {
		return t.UTC().Round(0)
	}
	return v.Interface()
}
