package data

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value represents a data value bound in a template scope, which may be one of
// the enumerated types. The zero value represents an Undefined value.
type Value interface {
	// Truthy returns true according to the usual truthy and falsy rules:
	// false, 0, NaN, "", null and undefined are falsy, everything else truthy.
	Truthy() bool

	// String formats this value for interpolation into a template.
	String() string

	// Literal formats this value as an expression literal that the predicate
	// parser reads back as an equal value.
	Literal() string

	// Equals returns true if the two values are equal.  Specifically, if:
	// - They are comparable: they have the same Type, or they are Int and Float
	// - (Primitives) They have the same value
	// - (Lists, Maps) They have the same length and pairwise equal elements
	// Uncomparable types and unequal values return false.
	Equals(other Value) bool
}

// Value types
type (
	Undefined struct{}
	Null      struct{}
	Bool      bool
	Int       int64
	Float     float64
	String    string
	List      []Value
	Map       map[string]Value
)

// Index retrieves a value from this list, or Undefined if out of bounds.
func (v List) Index(i int) Value {
	if !(0 <= i && i < len(v)) {
		return Undefined{}
	}
	return v[i]
}

// Key retrieves a value under the named key, or Undefined if it doesn't exist.
func (v Map) Key(k string) Value {
	var result, ok = v[k]
	if !ok {
		return Undefined{}
	}
	return result
}

// Keys returns the map keys in sorted order.
func (v Map) Keys() []string {
	var keys = make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsNil reports whether v carries no usable value: nil, Undefined or Null.
func IsNil(v Value) bool {
	switch v.(type) {
	case nil, Undefined, Null:
		return true
	}
	return false
}

// Truthy ----------

func (v Undefined) Truthy() bool { return false }
func (v Null) Truthy() bool      { return false }
func (v Bool) Truthy() bool      { return bool(v) }
func (v Int) Truthy() bool       { return v != 0 }
func (v Float) Truthy() bool     { return v != 0.0 && !math.IsNaN(float64(v)) }
func (v String) Truthy() bool    { return v != "" }
func (v List) Truthy() bool      { return true }
func (v Map) Truthy() bool       { return true }

// String ----------

func (v Undefined) String() string { return "undefined" }
func (v Null) String() string      { return "null" }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Int) String() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string     { return formatFloat(float64(v)) }
func (v String) String() string    { return string(v) }

// String joins the items with commas, without brackets.
func (v List) String() string {
	var items = make([]string, len(v))
	for i, item := range v {
		if IsNil(item) {
			continue
		}
		items[i] = item.String()
	}
	return strings.Join(items, ",")
}

func (v Map) String() string { return v.Literal() }

// Literal ----------

func (v Undefined) Literal() string { return "null" }
func (v Null) Literal() string      { return "null" }
func (v Bool) Literal() string      { return v.String() }
func (v Int) Literal() string       { return v.String() }
func (v String) Literal() string    { return strconv.Quote(string(v)) }

// Literal renders non-finite floats as null, as JSON does.
func (v Float) Literal() string {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return "null"
	}
	return v.String()
}

func (v List) Literal() string {
	var items = make([]string, len(v))
	for i, item := range v {
		items[i] = literal(item)
	}
	return "[" + strings.Join(items, ",") + "]"
}

// Literal renders the map as JSON, with keys in sorted order.
func (v Map) Literal() string {
	var items = make([]string, 0, len(v))
	for _, k := range v.Keys() {
		key, _ := json.Marshal(k)
		items = append(items, string(key)+":"+literal(v[k]))
	}
	return "{" + strings.Join(items, ",") + "}"
}

func literal(v Value) string {
	if v == nil {
		return "null"
	}
	return v.Literal()
}

// formatFloat renders floats without exponents in the range a reader expects
// to see plain digits, and falls back to the shortest exponent form outside it.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Equals ----------

func (v Undefined) Equals(other Value) bool {
	_, ok := other.(Undefined)
	return ok
}

func (v Null) Equals(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (v Bool) Equals(other Value) bool {
	if o, ok := other.(Bool); ok {
		return bool(v) == bool(o)
	}
	return false
}

func (v String) Equals(other Value) bool {
	if o, ok := other.(String); ok {
		return string(v) == string(o)
	}
	return false
}

func (v List) Equals(other Value) bool {
	o, ok := other.(List)
	if !ok || len(v) != len(o) {
		return false
	}
	for i := range v {
		if !equals(v[i], o[i]) {
			return false
		}
	}
	return true
}

func (v Map) Equals(other Value) bool {
	o, ok := other.(Map)
	if !ok || len(v) != len(o) {
		return false
	}
	for k, item := range v {
		oitem, ok := o[k]
		if !ok || !equals(item, oitem) {
			return false
		}
	}
	return true
}

func (v Int) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return v == o
	case Float:
		return float64(v) == float64(o)
	}
	return false
}

func (v Float) Equals(other Value) bool {
	switch o := other.(type) {
	case Int:
		return float64(v) == float64(o)
	case Float:
		return v == o
	}
	return false
}

func equals(a, b Value) bool {
	if a == nil || b == nil {
		return IsNil(a) && IsNil(b)
	}
	return a.Equals(b)
}

// TypeName returns a short description of the type of v, for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	}
	return fmt.Sprintf("%T", v)
}
