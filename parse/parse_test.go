package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/systemd-glance/glance/ast"
)

func TestExpr(t *testing.T) {
	var tests = []struct {
		input  string
		output string // String() of the parsed tree
	}{
		{`true`, `true`},
		{`null`, `null`},
		{`-5`, `-5`},
		{`2.50`, `2.5`},
		{`'it\'s'`, `'it\'s'`},
		{`"a" == "a"`, `"a" == "a"`},
		{`1 === 1`, `1 == 1`},
		{`1 !== 2`, `1 != 2`},
		{`!true`, `!true`},
		{`!!false`, `!!false`},
		{`(1 < 2)`, `(1 < 2)`},
		{`[1, "a", [true]]`, `[1,"a",[true]]`},
		{`[]`, `[]`},
		{`{"a": 1, 'b': [2]}`, `{"a":1,"b":[2]}`},
		{`{}`, `{}`},
		{`1 < 2 == true`, `1 < 2 == true`},
	}
	for _, test := range tests {
		node, err := Expr(test.input)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if node.String() != test.output {
			t.Errorf("%s: expected %s, got %s", test.input, test.output, node.String())
		}
	}
}

func TestExprPrecedence(t *testing.T) {
	var bin = func(name string, a, b ast.Node) ast.BinaryOpNode {
		return ast.BinaryOpNode{Name: name, Arg1: a, Arg2: b}
	}
	var (
		one   = &ast.IntNode{Value: 1}
		two   = &ast.IntNode{Value: 2}
		yes   = &ast.BoolNode{True: true}
		no    = &ast.BoolNode{True: false}
		null_ = &ast.NullNode{}
	)
	var tests = []struct {
		input string
		tree  ast.Node
	}{
		// && binds tighter than ||
		{`true || false && null`, &ast.OrNode{BinaryOpNode: bin("||", yes, &ast.AndNode{BinaryOpNode: bin("&&", no, null_)})}},
		{`true && false || null`, &ast.OrNode{BinaryOpNode: bin("||", &ast.AndNode{BinaryOpNode: bin("&&", yes, no)}, null_)}},
		// relational binds tighter than equality
		{`1 < 2 == true`, &ast.EqNode{BinaryOpNode: bin("==", &ast.LtNode{BinaryOpNode: bin("<", one, two)}, yes)}},
		{`true == 1 >= 2`, &ast.EqNode{BinaryOpNode: bin("==", yes, &ast.GteNode{BinaryOpNode: bin(">=", one, two)})}},
		// left associative
		{`1 == 1 != false`, &ast.NotEqNode{BinaryOpNode: bin("!=", &ast.EqNode{BinaryOpNode: bin("==", one, one)}, no)}},
		// ! applies to the next term only
		{`!true == false`, &ast.EqNode{BinaryOpNode: bin("==", &ast.NotNode{Arg: yes}, no)}},
		{`!(true == false)`, &ast.NotNode{Arg: &ast.GroupNode{Arg: &ast.EqNode{BinaryOpNode: bin("==", yes, no)}}}},
	}
	for _, test := range tests {
		node, err := Expr(test.input)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.tree, node, cmpopts.IgnoreTypes(ast.Pos(0))); diff != "" {
			t.Errorf("%s: (-want +got)\n%s", test.input, diff)
		}
	}
}

func TestExprErrors(t *testing.T) {
	for _, input := range []string{
		``,
		`1 ==`,
		`(1 == 1`,
		`1 == 1)`,
		`[1, 2`,
		`[1 2]`,
		`{1: 2}`,
		`{"a" 1}`,
		`"a" "b"`,
		`$a == 1`,
		`a == 1`,
		`1 + 1`,
		`&& true`,
	} {
		if node, err := Expr(input); err == nil {
			t.Errorf("%q: expected an error, got %v", input, node)
		}
	}
}
