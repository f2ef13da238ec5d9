// Package expr evaluates the arithmetic typed into the calculator.
//
// Supported: decimal numbers, binary + - * /, right-associative **, and
// unary + and -. Anything else is an *EvaluationError.
package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Reason classifies why an expression could not be evaluated.
type Reason string

const (
	ReasonEmpty      Reason = "empty expression"
	ReasonUnexpected Reason = "unexpected token"
	ReasonEnd        Reason = "unexpected end of expression"
	ReasonNumber     Reason = "malformed number"
	ReasonNonFinite  Reason = "result is not a finite number"
)

// EvaluationError is returned when an expression cannot be reduced to a
// finite number.
type EvaluationError struct {
	Reason Reason
	Pos    int
}

func (e *EvaluationError) Error() string {
	if e.Reason == ReasonEmpty || e.Reason == ReasonNonFinite {
		return "expr: " + string(e.Reason)
	}
	return fmt.Sprintf("expr: %s at offset %d", e.Reason, e.Pos)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Evaluate parses and computes s.
func Evaluate(s string) (float64, error) {
	toks, err := tokenize(s)
	if err != nil {
		return 0, err
	}
	if len(toks) == 1 {
		return 0, &EvaluationError{Reason: ReasonEmpty}
	}

	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, &EvaluationError{Reason: ReasonUnexpected, Pos: t.pos}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvaluationError{Reason: ReasonNonFinite}
	}
	return v, nil
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			start := i
			dots := 0
			for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
				if s[i] == '.' {
					dots++
				}
				i++
			}
			text := s[start:i]
			if dots > 1 || text == "." {
				return nil, &EvaluationError{Reason: ReasonNumber, Pos: start}
			}
			toks = append(toks, token{kind: tokNumber, text: text, pos: start})
		case c == '+' || c == '-':
			// "++" and "--" are increment/decrement, never valid here.
			if i+1 < len(s) && s[i+1] == c {
				return nil, &EvaluationError{Reason: ReasonUnexpected, Pos: i}
			}
			kind := tokPlus
			if c == '-' {
				kind = tokMinus
			}
			toks = append(toks, token{kind: kind, text: string(c), pos: i})
			i++
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{kind: tokPow, text: "**", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		default:
			return nil, &EvaluationError{Reason: ReasonUnexpected, Pos: i}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// term := power (('*' | '/') power)*
func (p *parser) term() (float64, error) {
	left, err := p.power()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokStar:
			p.next()
			right, err := p.power()
			if err != nil {
				return 0, err
			}
			left *= right
		case tokSlash:
			p.next()
			right, err := p.power()
			if err != nil {
				return 0, err
			}
			left /= right
		default:
			return left, nil
		}
	}
}

// power := unary ('**' power)?
func (p *parser) power() (float64, error) {
	start := p.peek()
	base, err := p.unary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	// A signed base is ambiguous ("-2**2") and rejected.
	if start.kind == tokPlus || start.kind == tokMinus {
		return 0, &EvaluationError{Reason: ReasonUnexpected, Pos: p.peek().pos}
	}
	p.next()
	exp, err := p.power()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

// unary := ('+' | '-') unary | number
func (p *parser) unary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokPlus:
		return p.unary()
	case tokMinus:
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return 0, &EvaluationError{Reason: ReasonNumber, Pos: t.pos}
		}
		return v, nil
	case tokEOF:
		return 0, &EvaluationError{Reason: ReasonEnd, Pos: t.pos}
	default:
		return 0, &EvaluationError{Reason: ReasonUnexpected, Pos: t.pos}
	}
}
