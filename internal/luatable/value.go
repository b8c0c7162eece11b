// Package luatable parses the literal-table documents embedded in mission
// archives into a tree of tagged values.
package luatable

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/OCAP2/extractor/pkg/core"
)

// Kind is the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindBool
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTable:
		return "table"
	}
	return "invalid"
}

// TypeError is returned by the Value accessors when the variant does not
// match the one asked for.
type TypeError struct {
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s value, got %s", e.Want, e.Got)
}

// Is lets callers test for core.ErrData.
func (e *TypeError) Is(target error) bool {
	return target == core.ErrData
}

// Value is one of Number, String, Bool or Table. The zero Value is invalid.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	tbl  *Table
}

func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func StringValue(s string) Value  { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func TableValue(t *Table) Value   { return Value{kind: KindTable, tbl: t} }

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Number() (float64, error) {
	if v.kind != KindNumber {
		return 0, &TypeError{Want: KindNumber, Got: v.kind}
	}
	return v.num, nil
}

// Int returns the number as an integer. Fractional numbers are a TypeError.
func (v Value) Int() (int64, error) {
	f, err := v.Number()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not an integer", core.ErrData, f)
	}
	return int64(f), nil
}

func (v Value) Str() (string, error) {
	if v.kind != KindString {
		return "", &TypeError{Want: KindString, Got: v.kind}
	}
	return v.str, nil
}

func (v Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, &TypeError{Want: KindBool, Got: v.kind}
	}
	return v.b, nil
}

func (v Value) Table() (*Table, error) {
	if v.kind != KindTable {
		return nil, &TypeError{Want: KindTable, Got: v.kind}
	}
	return v.tbl, nil
}

// String renders scalars for log output; tables render as their size.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTable:
		return fmt.Sprintf("table[%d]", v.tbl.Len())
	}
	return "<invalid>"
}

// Key indexes a Table. Only scalar values can be keys.
type Key struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

func NumberKey(f float64) Key { return Key{kind: KindNumber, num: f} }
func IntKey(i int) Key        { return Key{kind: KindNumber, num: float64(i)} }
func StringKey(s string) Key  { return Key{kind: KindString, str: s} }
func BoolKey(b bool) Key      { return Key{kind: KindBool, b: b} }

func (k Key) Kind() Kind { return k.kind }

// Int reports the key as an integer index, if it is one.
func (k Key) Int() (int, bool) {
	if k.kind != KindNumber || k.num != math.Trunc(k.num) {
		return 0, false
	}
	return int(k.num), true
}

// Name reports the key as a string field name, if it is one.
func (k Key) Name() (string, bool) {
	return k.str, k.kind == KindString
}

func (k Key) String() string {
	switch k.kind {
	case KindNumber:
		return strconv.FormatFloat(k.num, 'g', -1, 64)
	case KindString:
		return strconv.Quote(k.str)
	case KindBool:
		return strconv.FormatBool(k.b)
	}
	return "<invalid>"
}

func keyFromValue(v Value) (Key, bool) {
	switch v.kind {
	case KindNumber:
		return NumberKey(v.num), true
	case KindString:
		return StringKey(v.str), true
	case KindBool:
		return BoolKey(v.b), true
	}
	return Key{}, false
}

// Table is an unordered mapping. Sequence-like tables use 1-based integer
// keys; use Indices to walk them in order.
type Table struct {
	entries map[Key]Value
}

func NewTable() *Table {
	return &Table{entries: make(map[Key]Value)}
}

func (t *Table) Set(k Key, v Value) { t.entries[k] = v }

func (t *Table) Get(k Key) (Value, bool) {
	v, ok := t.entries[k]
	return v, ok
}

// Field looks up a string key.
func (t *Table) Field(name string) (Value, bool) { return t.Get(StringKey(name)) }

// Index looks up an integer key.
func (t *Table) Index(i int) (Value, bool) { return t.Get(IntKey(i)) }

func (t *Table) Len() int { return len(t.entries) }

// Keys returns the keys in no particular order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	return keys
}

// Indices returns the integer keys in ascending order. Gaps are kept as is.
func (t *Table) Indices() []int {
	idx := make([]int, 0, len(t.entries))
	for k := range t.entries {
		if i, ok := k.Int(); ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	return idx
}

// Names returns the string keys in ascending order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		if s, ok := k.Name(); ok {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names
}

// TableField returns a required sub-table.
func (t *Table) TableField(name string) (*Table, error) {
	v, ok := t.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", core.ErrData, name)
	}
	sub, err := v.Table()
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return sub, nil
}

// NumberField returns a required number.
func (t *Table) NumberField(name string) (float64, error) {
	v, ok := t.Field(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", core.ErrData, name)
	}
	f, err := v.Number()
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return f, nil
}

// StringField returns a string field or "" when it is absent or not a string.
func (t *Table) StringField(name string) string {
	v, ok := t.Field(name)
	if !ok {
		return ""
	}
	s, err := v.Str()
	if err != nil {
		return ""
	}
	return s
}

// NumberOr returns a number field, or def when absent or not a number.
func (t *Table) NumberOr(name string, def float64) float64 {
	v, ok := t.Field(name)
	if !ok {
		return def
	}
	f, err := v.Number()
	if err != nil {
		return def
	}
	return f
}

// BoolOr returns a bool field, or def when absent or not a bool.
func (t *Table) BoolOr(name string, def bool) bool {
	v, ok := t.Field(name)
	if !ok {
		return def
	}
	b, err := v.Bool()
	if err != nil {
		return def
	}
	return b
}

// Equal compares two values structurally. Tables are walked with an
// explicit stack so deep documents don't grow the goroutine stack.
func Equal(a, b Value) bool {
	type pair struct{ a, b Value }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a.kind != p.b.kind {
			return false
		}
		switch p.a.kind {
		case KindNumber:
			if p.a.num != p.b.num {
				return false
			}
		case KindString:
			if p.a.str != p.b.str {
				return false
			}
		case KindBool:
			if p.a.b != p.b.b {
				return false
			}
		case KindTable:
			if p.a.tbl.Len() != p.b.tbl.Len() {
				return false
			}
			for k, av := range p.a.tbl.entries {
				bv, ok := p.b.tbl.entries[k]
				if !ok {
					return false
				}
				stack = append(stack, pair{av, bv})
			}
		}
	}
	return true
}
