package data

import (
	"reflect"
	"testing"
	"time"
)

type AInt struct{ A int }

var jan1, _ = time.Parse(time.RFC3339, "2014-01-01T00:00:00Z")

func TestNew(t *testing.T) {
	tests := []struct{ input, expected interface{} }{
		// basic types
		{nil, Null{}},
		{true, Bool(true)},
		{int(0), Int(0)},
		{int64(0), Int(0)},
		{uint32(0), Int(0)},
		{float32(0), Float(0)},
		{"", String("")},
		{[]string{"a"}, List{String("a")}},
		{[2]int{1, 2}, List{Int(1), Int(2)}},
		{[]interface{}{"a"}, List{String("a")}},
		{map[string]string{}, Map{}},
		{map[string]string{"a": "b"}, Map{"a": String("b")}},
		{map[string]interface{}{"a": nil}, Map{"a": Null{}}},
		{map[string]interface{}{"a": []int{1}}, Map{"a": List{Int(1)}}},

		// type aliases
		{[]Int{5}, List{Int(5)}},
		{map[string]Value{"a": List{Int(1)}}, Map{"a": List{Int(1)}}},
		{Map{"foo": Null{}}, Map{"foo": Null{}}},

		// pointers
		{pInt(5), Int(5)},
		{&jan1, String(jan1.Format(time.RFC3339))},

		// structs with all of the above, and unexported fields.
		// also, structs have their fields lowerCamel and Time's default formatting.
		{struct {
			A  Int
			L  List
			PI *int
			no Int
			T  time.Time
		}{Int(5), List{}, pInt(2), 5, jan1},
			Map{"a": Int(5), "l": List{}, "pI": Int(2), "t": String(jan1.Format(time.RFC3339))}},
		{[]*struct {
			PI *AInt
		}{{nil}},
			List{Map{"pI": Null{}}}},
	}

	for _, test := range tests {
		output := New(test.input)
		if !reflect.DeepEqual(test.expected, output) {
			t.Errorf("%v => %#v, expected %#v", test.input, output, test.expected)
		}
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected Value
		ok       bool
	}{
		{`[1,2,3]`, List{Int(1), Int(2), Int(3)}, true},
		{`[1, 2.5, "x", null, true]`, List{Int(1), Float(2.5), String("x"), Null{}, Bool(true)}, true},
		{`{"a": {"b": []}}`, Map{"a": Map{"b": List{}}}, true},
		{`[]`, List{}, true},
		{`1e3`, Float(1000), true},
		{`[1,`, nil, false},
		{`[1] [2]`, nil, false},
		{`$items`, nil, false},
	}

	for _, test := range tests {
		actual, err := ParseJSON(test.input)
		if (err == nil) != test.ok {
			t.Errorf("%s: expected ok=%v, got err %v", test.input, test.ok, err)
			continue
		}
		if test.ok && !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("%s => %#v, expected %#v", test.input, actual, test.expected)
		}
	}
}
