package engine

import (
	"fmt"
	"runtime"

	"github.com/systemd-glance/glance/ast"
	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/parse"
)

// evalError is the panic value used to abort a predicate evaluation.
type evalError struct{ error }

// Eval computes the value of a predicate tree.
func Eval(node ast.Node) (val data.Value, err error) {
	defer func() {
		if e := recover(); e != nil {
			if ee, ok := e.(evalError); ok {
				err = ee.error
				return
			}
			if re, ok := e.(runtime.Error); ok {
				err = fmt.Errorf("evaluating %v: %v", node, re)
				return
			}
			panic(e)
		}
	}()
	return eval(node), nil
}

// EvalExpr parses and evaluates a literal-only expression, e.g. a globals
// file value.
func EvalExpr(expr string) (data.Value, error) {
	node, err := parse.Expr(expr)
	if err != nil {
		return nil, err
	}
	return Eval(node)
}

func evalErrorf(format string, args ...interface{}) {
	panic(evalError{fmt.Errorf(format, args...)})
}

func eval(node ast.Node) data.Value {
	switch node := node.(type) {
	// Values ----------
	case *ast.NullNode:
		return data.Null{}
	case *ast.BoolNode:
		return data.Bool(node.True)
	case *ast.IntNode:
		return data.Int(node.Value)
	case *ast.FloatNode:
		return data.Float(node.Value)
	case *ast.StringNode:
		return data.String(node.Value)
	case *ast.ListLiteralNode:
		var items = make(data.List, len(node.Items))
		for i, item := range node.Items {
			items[i] = eval(item)
		}
		return items
	case *ast.MapLiteralNode:
		var items = make(data.Map, len(node.Keys))
		for i, k := range node.Keys {
			items[k] = eval(node.Values[i])
		}
		return items
	case *ast.GroupNode:
		return eval(node.Arg)

	// Comparisons ----------
	case *ast.EqNode:
		return data.Bool(eval(node.Arg1).Equals(eval(node.Arg2)))
	case *ast.NotEqNode:
		return data.Bool(!eval(node.Arg1).Equals(eval(node.Arg2)))
	case *ast.LtNode:
		return data.Bool(compare(node.BinaryOpNode) < 0)
	case *ast.LteNode:
		return data.Bool(compare(node.BinaryOpNode) <= 0)
	case *ast.GtNode:
		return data.Bool(compare(node.BinaryOpNode) > 0)
	case *ast.GteNode:
		return data.Bool(compare(node.BinaryOpNode) >= 0)

	// Boolean operators ----------
	case *ast.NotNode:
		return data.Bool(!eval(node.Arg).Truthy())
	case *ast.AndNode:
		return data.Bool(eval(node.Arg1).Truthy() && eval(node.Arg2).Truthy())
	case *ast.OrNode:
		return data.Bool(eval(node.Arg1).Truthy() || eval(node.Arg2).Truthy())
	}
	evalErrorf("unknown node: %T", node)
	panic("unreachable")
}

// compare orders two numbers or two strings, returning -1, 0 or 1.  Any
// other pairing cannot be ordered.
func compare(node ast.BinaryOpNode) int {
	var arg1, arg2 = eval(node.Arg1), eval(node.Arg2)
	switch a := arg1.(type) {
	case data.Int:
		switch b := arg2.(type) {
		case data.Int:
			return cmpOrdered(a, b)
		case data.Float:
			return cmpFloat(float64(a), float64(b))
		}
	case data.Float:
		switch b := arg2.(type) {
		case data.Int:
			return cmpFloat(float64(a), float64(b))
		case data.Float:
			return cmpFloat(float64(a), float64(b))
		}
	case data.String:
		if b, ok := arg2.(data.String); ok {
			return cmpOrdered(a, b)
		}
	}
	evalErrorf("cannot compare %s and %s with %s", data.TypeName(arg1), data.TypeName(arg2), node.Name)
	panic("unreachable")
}

func cmpOrdered[T data.Int | data.String](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpFloat orders floats; NaN compares false with everything, which is
// reported as an error.
func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	}
	evalErrorf("cannot order NaN")
	panic("unreachable")
}
