package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/systemd-glance/glance/ast"
)

// Lexer design from text/template

// Tokens ---------------------------------------------------------------------

// item represents a token returned from the scanner.
type item struct {
	typ itemType // The type of this item.
	pos ast.Pos  // The starting position, in bytes, of this item in the input string.
	val string   // The value of this item.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

// itemType identifies the type of lexical items.
type itemType int

// All items.
const (
	itemInvalid itemType = iota // not used
	itemEOF                     // EOF
	itemError                   // error occurred; value is text of error

	// Expression values
	itemNull    // e.g. null
	itemBool    // e.g. true
	itemInteger // e.g. 42
	itemFloat   // e.g. 1.0
	itemString  // e.g. "hello world"
	itemComma   // , (used in lists and maps)
	itemColon   // : (used in maps)

	itemLeftBracket  // [
	itemRightBracket // ]
	itemLeftBrace    // {
	itemRightBrace   // }
	itemLeftParen    // (
	itemRightParen   // )

	// Operators
	itemNot   // !
	itemEq    // == or ===
	itemNotEq // != or !==
	itemGt    // >
	itemGte   // >=
	itemLt    // <
	itemLte   // <=
	itemAnd   // &&
	itemOr    // ||
)

var keywords = map[string]itemType{
	"true":  itemBool,
	"false": itemBool,
	"null":  itemNull,
}

var operatorsBySymbol = map[string]itemType{
	"!":   itemNot,
	"==":  itemEq,
	"===": itemEq,
	"!=":  itemNotEq,
	"!==": itemNotEq,
	">":   itemGt,
	">=":  itemGte,
	"<":   itemLt,
	"<=":  itemLte,
	"&&":  itemAnd,
	"||":  itemOr,
}

var punctuation = map[rune]itemType{
	',': itemComma,
	':': itemColon,
	'[': itemLeftBracket,
	']': itemRightBracket,
	'{': itemLeftBrace,
	'}': itemRightBrace,
	'(': itemLeftParen,
	')': itemRightParen,
}

// String converts the itemType into its source string.
// It should only be used for error messages.
func (t itemType) String() string {
	for k, v := range operatorsBySymbol {
		if v == t && len(k) < 3 {
			return k
		}
	}
	for k, v := range punctuation {
		if v == t {
			return string(k)
		}
	}
	var r, ok = map[itemType]string{
		itemEOF:     "<eof>",
		itemError:   "<error>",
		itemNull:    "null",
		itemBool:    "<bool>",
		itemInteger: "<int>",
		itemFloat:   "<float>",
		itemString:  "<string>",
	}[t]
	if ok {
		return r
	}
	return fmt.Sprintf("item(%d)", t)
}

// Lexer ----------------------------------------------------------------------

const (
	eof       = -1
	decDigits = "0123456789"
)

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the lexical scanning.  Unlike the text/template
// lexer it runs on the caller's goroutine: nextItem steps the state machine
// until an item is ready.
type lexer struct {
	input string  // the string being scanned.
	state stateFn // the next lexing function to enter.
	pos   ast.Pos // current position in the input.
	start ast.Pos // start position of this item.
	width int     // width of last rune read from input.
	items []item  // scanned items not yet handed out.
}

// lexExpr creates a new scanner for a predicate.
func lexExpr(input string) *lexer {
	return &lexer{
		input: input,
		state: lexInsideExpr,
	}
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	for len(l.items) == 0 && l.state != nil {
		l.state = l.state(l)
	}
	if len(l.items) == 0 {
		return item{itemEOF, l.pos, ""}
	}
	var it = l.items[0]
	l.items = l.items[1:]
	return it
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= ast.Pos(len(l.input)) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += ast.Pos(l.width)
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= ast.Pos(l.width)
}

// emit passes an item back to the client.
func (l *lexer) emit(t itemType) {
	l.items = append(l.items, item{t, l.start, l.input[l.start:l.pos]})
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
	return l.pos > pos
}

// errorf returns an error item and terminates the scan by passing
// back a nil pointer that will be the next state.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, item{itemError, l.start, fmt.Sprintf(format, args...)})
	return nil
}

// State functions ------------------------------------------------------------

// lexInsideExpr is called repeatedly to scan the elements of a predicate.
func lexInsideExpr(l *lexer) stateFn {
	switch r := l.next(); {
	case r == eof:
		l.emit(itemEOF)
		return nil
	case unicode.IsSpace(r):
		l.ignore()
	case punctuation[r] != itemInvalid:
		l.emit(punctuation[r])
	case r == '!', r == '=':
		l.accept("=")
		l.accept("=")
		return lexOperator
	case r == '<', r == '>':
		l.accept("=")
		return lexOperator
	case r == '&', r == '|':
		l.accept(string(r))
		return lexOperator
	case r == '-' || ('0' <= r && r <= '9'):
		l.backup()
		return lexNumber
	case r == '"', r == '\'':
		return stringLexer(r)
	case r == '$':
		l.acceptRun("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_.")
		return l.errorf("unresolved variable %s", l.input[l.start:l.pos])
	case isLetterOrUnderscore(r):
		l.backup()
		return lexIdent
	default:
		return l.errorf("unrecognized character in predicate: %#U", r)
	}
	return lexInsideExpr
}

// lexOperator emits the operator symbol that has just been consumed.
func lexOperator(l *lexer) stateFn {
	var sym = l.input[l.start:l.pos]
	typ, ok := operatorsBySymbol[sym]
	if !ok {
		return l.errorf("unexpected symbol: %s", sym)
	}
	l.emit(typ)
	return lexInsideExpr
}

// lexIdent scans a keyword.  Only true, false and null are recognized.
func lexIdent(l *lexer) stateFn {
	for {
		if r := l.next(); !isAlphaNumeric(r) {
			l.backup()
			break
		}
	}
	var word = l.input[l.start:l.pos]
	typ, ok := keywords[word]
	if !ok {
		return l.errorf("unknown identifier %q", word)
	}
	l.emit(typ)
	return lexInsideExpr
}

// lexNumber scans a number: an optional minus, decimal digits, an optional
// fraction and an optional exponent.
func lexNumber(l *lexer) stateFn {
	var typ = itemInteger
	l.accept("-")
	if !l.acceptRun(decDigits) {
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	if l.accept(".") {
		typ = itemFloat
		if !l.acceptRun(decDigits) {
			return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
		}
	}
	if l.accept("eE") {
		typ = itemFloat
		l.accept("+-")
		if !l.acceptRun(decDigits) {
			return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
		}
	}
	if r := l.peek(); isAlphaNumeric(r) || r == '.' {
		l.next()
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	l.emit(typ)
	return lexInsideExpr
}

// stringLexer returns a stateFn that lexes a string delimited by quote.
// The opening quote has already been consumed.
func stringLexer(quote rune) stateFn {
	return func(l *lexer) stateFn {
		var escaped = false
		for {
			switch r := l.next(); {
			case r == eof:
				return l.errorf("unterminated string")
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				l.emit(itemString)
				return lexInsideExpr
			}
		}
	}
}

// isLetterOrUnderscore reports whether r is a letter or underscore.
func isLetterOrUnderscore(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
