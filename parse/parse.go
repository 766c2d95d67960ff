// Package parse scans template bodies for {{...}} directives and parses the
// predicates of if and elseif directives into an AST.
package parse

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/systemd-glance/glance/ast"
)

// tree holds the parser state for a single predicate.
type tree struct {
	text      string  // the full predicate text
	lex       *lexer  // lexer provides a sequence of tokens
	token     [2]item // two-token lookahead
	peekCount int     // how many tokens have we backed up?
}

// Expr parses a predicate, e.g. `"active" == "active" && !(1 > 2)`.  Variable
// references must already have been replaced by literals.
func Expr(str string) (node ast.Node, err error) {
	var t = &tree{text: str, lex: lexExpr(str)}
	defer t.recover(&err)
	node = t.parseExpr(0)
	t.expect(itemEOF, "predicate")
	return node, nil
}

var precedence = map[itemType]int{
	itemNot:   6,
	itemLt:    4,
	itemLte:   4,
	itemGt:    4,
	itemGte:   4,
	itemEq:    3,
	itemNotEq: 3,
	itemAnd:   2,
	itemOr:    1,
}

// parseExpr parses a predicate by precedence climbing.  Binary operators are
// left associative.
func (t *tree) parseExpr(prec int) ast.Node {
	n := t.parseExprFirstTerm()
	for {
		tok := t.next()
		q := precedence[tok.typ]
		if !isBinaryOp(tok.typ) || q < prec {
			t.backup()
			return n
		}
		n = newBinaryOpNode(tok, n, t.parseExpr(q+1))
	}
}

func (t *tree) parseExprFirstTerm() ast.Node {
	switch tok := t.next(); {
	case tok.typ == itemNot:
		return &ast.NotNode{Pos: tok.pos, Arg: t.parseExpr(precedence[itemNot])}
	case tok.typ == itemLeftParen:
		n := t.parseExpr(0)
		t.expect(itemRightParen, "parenthesized expression")
		return &ast.GroupNode{Pos: tok.pos, Arg: n}
	case isValue(tok):
		return t.newValueNode(tok)
	default:
		t.unexpected(tok, "predicate")
	}
	return nil
}

// "[" has just been read
//  ListLiteral -> "[" [ Expr ( "," Expr )* ] "]"
func (t *tree) parseListLiteral(first item) ast.Node {
	var list = &ast.ListLiteralNode{Pos: first.pos}
	if t.peek().typ == itemRightBracket {
		t.next()
		return list
	}
	for {
		list.Items = append(list.Items, t.parseExpr(0))
		switch next := t.next(); next.typ {
		case itemRightBracket:
			return list
		case itemComma:
		default:
			t.unexpected(next, "list literal")
		}
	}
}

// "{" has just been read
//  MapLiteral -> "{" [ String ":" Expr ( "," String ":" Expr )* ] "}"
func (t *tree) parseMapLiteral(first item) ast.Node {
	var m = &ast.MapLiteralNode{Pos: first.pos}
	if t.peek().typ == itemRightBrace {
		t.next()
		return m
	}
	for {
		tok := t.expect(itemString, "map literal")
		key, err := unquoteString(tok.val)
		if err != nil {
			t.error(err)
		}
		t.expect(itemColon, "map literal")
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, t.parseExpr(0))
		switch next := t.next(); next.typ {
		case itemRightBrace:
			return m
		case itemComma:
		default:
			t.unexpected(next, "map literal")
		}
	}
}

func isBinaryOp(typ itemType) bool {
	switch typ {
	case itemEq, itemNotEq, itemGt, itemGte, itemLt, itemLte,
		itemOr, itemAnd:
		return true
	}
	return false
}

func isValue(t item) bool {
	switch t.typ {
	case itemNull, itemBool, itemInteger, itemFloat, itemString:
		return true
	case itemLeftBracket, itemLeftBrace:
		return true // list or map literal
	}
	return false
}

func op(n ast.BinaryOpNode, name string) ast.BinaryOpNode {
	n.Name = name
	return n
}

func newBinaryOpNode(t item, n1, n2 ast.Node) ast.Node {
	var bin = ast.BinaryOpNode{Pos: t.pos, Arg1: n1, Arg2: n2}
	switch t.typ {
	case itemEq:
		return &ast.EqNode{BinaryOpNode: op(bin, "==")}
	case itemNotEq:
		return &ast.NotEqNode{BinaryOpNode: op(bin, "!=")}
	case itemGt:
		return &ast.GtNode{BinaryOpNode: op(bin, ">")}
	case itemGte:
		return &ast.GteNode{BinaryOpNode: op(bin, ">=")}
	case itemLt:
		return &ast.LtNode{BinaryOpNode: op(bin, "<")}
	case itemLte:
		return &ast.LteNode{BinaryOpNode: op(bin, "<=")}
	case itemOr:
		return &ast.OrNode{BinaryOpNode: op(bin, "||")}
	case itemAnd:
		return &ast.AndNode{BinaryOpNode: op(bin, "&&")}
	}
	panic("unimplemented")
}

func (t *tree) newValueNode(tok item) ast.Node {
	switch tok.typ {
	case itemNull:
		return &ast.NullNode{Pos: tok.pos}
	case itemBool:
		return &ast.BoolNode{Pos: tok.pos, True: tok.val == "true"}
	case itemInteger:
		value, err := strconv.ParseInt(tok.val, 10, 64)
		if err == nil {
			return &ast.IntNode{Pos: tok.pos, Value: value}
		}
		// out of int64 range; keep it as a float like JSON would
		fallthrough
	case itemFloat:
		value, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			t.error(err)
		}
		return &ast.FloatNode{Pos: tok.pos, Value: value}
	case itemString:
		s, err := unquoteString(tok.val)
		if err != nil {
			t.errorf("error unquoting %s: %s", tok.val, err)
		}
		return &ast.StringNode{Pos: tok.pos, Quoted: tok.val, Value: s}
	case itemLeftBracket:
		return t.parseListLiteral(tok)
	case itemLeftBrace:
		return t.parseMapLiteral(tok)
	}
	panic("unreachable")
}

// Helpers ----------

// next returns the next token.
func (t *tree) next() item {
	if t.peekCount > 0 {
		t.peekCount--
	} else {
		t.token[0] = t.lex.nextItem()
	}
	return t.token[t.peekCount]
}

// backup backs the input stream up one token.
func (t *tree) backup() {
	t.peekCount++
}

// peek returns but does not consume the next token.
func (t *tree) peek() item {
	if t.peekCount > 0 {
		return t.token[t.peekCount-1]
	}
	t.peekCount = 1
	t.token[0] = t.lex.nextItem()
	return t.token[0]
}

// recover is the handler that turns panics into returns from the top level of Expr.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	t.lex = nil
	if str, ok := e.(string); ok {
		*errp = errors.New(str)
	} else {
		*errp = e.(error)
	}
}

// expect consumes the next token and guarantees it has the required type.
func (t *tree) expect(expected itemType, context string) item {
	token := t.next()
	if token.typ != expected {
		t.unexpected(token, fmt.Sprintf("%v (expected %v)", context, expected.String()))
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(token item, context string) {
	if token.typ == itemError {
		t.errorf("lexical error: %v", token)
	}
	t.errorf("unexpected %v in %s", token, context)
}

// errorf formats the error and terminates processing.
func (t *tree) errorf(format string, args ...interface{}) {
	// get current token (taking account of backups)
	var tok = t.token[0]
	if t.peekCount > 0 {
		tok = t.token[t.peekCount-1]
	}
	panic(fmt.Errorf("%s at offset %d of %q", fmt.Sprintf(format, args...), tok.pos, t.text))
}

// error terminates processing.
func (t *tree) error(err error) {
	t.errorf("%s", err)
}
