// Package ast contains definitions for the in-memory representation of a
// directive predicate, e.g. the `$a == 1 && $b != "x"` of an if directive.
package ast

import (
	"strconv"
	"strings"
)

// Node represents any singular piece of a predicate.  For example, a literal
// value or a comparison.
type Node interface {
	String() string // String returns the source representation of this node.
	Position() Pos  // byte position of start of node in the predicate text
}

// ParentNode is any Node that has descendent nodes.  For example, the Children
// of an EqNode are the two nodes that should be compared.
type ParentNode interface {
	Node
	Children() []Node
}

// Pos represents a byte position in the predicate text from which this node
// was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.  It is implemented as a method so that Nodes
// may embed a Pos and fulfill this part of the Node interface for free.
func (p Pos) Position() Pos {
	return p
}

// Values ----------

type NullNode struct {
	Pos
}

func (s *NullNode) String() string {
	return "null"
}

type BoolNode struct {
	Pos
	True bool
}

func (b *BoolNode) String() string {
	if b.True {
		return "true"
	}
	return "false"
}

type IntNode struct {
	Pos
	Value int64
}

func (n *IntNode) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type FloatNode struct {
	Pos
	Value float64
}

func (n *FloatNode) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

type StringNode struct {
	Pos
	Quoted string // e.g. "hello\tworld"
	Value  string // e.g. hello	world
}

func (s *StringNode) String() string {
	return s.Quoted
}

type ListLiteralNode struct {
	Pos
	Items []Node
}

func (n *ListLiteralNode) String() string {
	var items = make([]string, len(n.Items))
	for i, item := range n.Items {
		items[i] = item.String()
	}
	return "[" + strings.Join(items, ",") + "]"
}

func (n *ListLiteralNode) Children() []Node {
	return n.Items
}

// MapLiteralNode is a JSON-style object literal.  Keys keeps the source order.
type MapLiteralNode struct {
	Pos
	Keys   []string
	Values []Node
}

func (n *MapLiteralNode) String() string {
	var items = make([]string, len(n.Keys))
	for i, k := range n.Keys {
		items[i] = strconv.Quote(k) + ":" + n.Values[i].String()
	}
	return "{" + strings.Join(items, ",") + "}"
}

func (n *MapLiteralNode) Children() []Node {
	return n.Values
}

// Operators ----------

type NotNode struct {
	Pos
	Arg Node
}

func (n *NotNode) String() string {
	return "!" + n.Arg.String()
}

func (n *NotNode) Children() []Node {
	return []Node{n.Arg}
}

// GroupNode records explicit parentheses so that String round-trips.
type GroupNode struct {
	Pos
	Arg Node
}

func (n *GroupNode) String() string {
	return "(" + n.Arg.String() + ")"
}

func (n *GroupNode) Children() []Node {
	return []Node{n.Arg}
}

type BinaryOpNode struct {
	Name string
	Pos
	Arg1, Arg2 Node
}

func (n *BinaryOpNode) String() string {
	return n.Arg1.String() + " " + n.Name + " " + n.Arg2.String()
}

func (n *BinaryOpNode) Children() []Node {
	return []Node{n.Arg1, n.Arg2}
}

type (
	EqNode    struct{ BinaryOpNode }
	NotEqNode struct{ BinaryOpNode }
	GtNode    struct{ BinaryOpNode }
	GteNode   struct{ BinaryOpNode }
	LtNode    struct{ BinaryOpNode }
	LteNode   struct{ BinaryOpNode }
	OrNode    struct{ BinaryOpNode }
	AndNode   struct{ BinaryOpNode }
)
