// Package eval implements the /eval arithmetic evaluator: a recursive-descent
// parser over + - * / % and parentheses that evaluates int64 values while
// parsing. Overflow is an error, never a wrap.
package eval

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"
)

// Kind classifies evaluation failures.
type Kind int

const (
	KindEmpty Kind = iota
	KindInvalidToken
	KindMismatchedParens
	KindDivisionByZero
)

// Error is returned by Evaluate.
type Error struct {
	Kind Kind
	// Token is the offending character for KindInvalidToken.
	Token rune
}

// Error renders the user-facing message shown by /eval.
func (e *Error) Error() string {
	switch e.Kind {
	case KindEmpty:
		return "expresión vacía"
	case KindInvalidToken:
		return fmt.Sprintf("token inválido: '%c'", e.Token)
	case KindMismatchedParens:
		return "paréntesis desbalanceados"
	case KindDivisionByZero:
		return "división por cero"
	default:
		return "error desconocido"
	}
}

// Is matches on Kind, and on Token when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Token == 0 || t.Token == e.Token)
}

// Sentinels for errors.Is. ErrInvalidToken matches any offending character.
var (
	ErrEmpty            = &Error{Kind: KindEmpty}
	ErrInvalidToken     = &Error{Kind: KindInvalidToken}
	ErrMismatchedParens = &Error{Kind: KindMismatchedParens}
	ErrDivisionByZero   = &Error{Kind: KindDivisionByZero}
)

func invalid(r rune) *Error { return &Error{Kind: KindInvalidToken, Token: r} }

// Evaluate parses and evaluates expr.
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/' | '%') factor)*
//	factor := '-' factor | '(' expr ')' | number
func Evaluate(expr string) (int64, error) {
	p := &parser{src: expr}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if r, ok := p.peek(); ok {
		return 0, invalid(r)
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r, true
}

func (p *parser) next() {
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
}

func (p *parser) skipSpace() {
	for {
		r, ok := p.peek()
		if !ok || !unicode.IsSpace(r) {
			return
		}
		p.next()
	}
}

func (p *parser) expr() (int64, error) {
	p.skipSpace()
	value, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return value, nil
		}
		p.next()
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		var overflow bool
		if op == '+' {
			value, overflow = addChecked(value, rhs)
		} else {
			value, overflow = subChecked(value, rhs)
		}
		if overflow {
			return 0, invalid(op)
		}
	}
}

func (p *parser) term() (int64, error) {
	p.skipSpace()
	value, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/' && op != '%') {
			return value, nil
		}
		p.next()
		rhs, err := p.factor()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			var overflow bool
			if value, overflow = mulChecked(value, rhs); overflow {
				return 0, invalid(op)
			}
		case '/', '%':
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			if op == '/' {
				if value == math.MinInt64 && rhs == -1 {
					return 0, invalid(op)
				}
				value /= rhs
			} else {
				value %= rhs
			}
		}
	}
}

func (p *parser) factor() (int64, error) {
	p.skipSpace()
	r, ok := p.peek()
	if !ok {
		return 0, ErrEmpty
	}

	switch {
	case r == '-':
		p.next()
		v, err := p.factor()
		if err != nil {
			return 0, err
		}
		if v == math.MinInt64 {
			return 0, invalid('-')
		}
		return -v, nil

	case r == '(':
		p.next()
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ')' {
			return 0, ErrMismatchedParens
		}
		p.next()
		return v, nil

	case r >= '0' && r <= '9':
		return p.number()

	default:
		return 0, invalid(r)
	}
}

// number reads a digit run. A literal that does not fit in int64 is an
// invalid token at its first digit.
func (p *parser) number() (int64, error) {
	first, _ := p.peek()
	var acc int64
	for {
		r, ok := p.peek()
		if !ok || r < '0' || r > '9' {
			return acc, nil
		}
		d := int64(r - '0')
		if acc > (math.MaxInt64-d)/10 {
			return 0, invalid(first)
		}
		acc = acc*10 + d
		p.next()
	}
}

func addChecked(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) != (b > 0)
}

func subChecked(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) != (b > 0)
}

func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, true
	}
	return c, c/b != a
}
