package expr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/dynlab/internal/dynamo"
)

var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"exp": true, "log": true, "sqrt": true, "abs": true,
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Parse normalises s and builds its expression tree. Failures are
// *dynamo.Error values of kind KindParse naming the offending text.
func Parse(s string) (Node, error) {
	src := Normalize(s)
	toks, err := lex(src)
	if err != nil {
		return nil, parseError(s, src, err.Error(), -1)
	}
	p := &parser{src: src, toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, parseError(s, src, err.Error(), p.peek().pos)
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, parseError(s, src, fmt.Sprintf("unexpected %q", tok.text), tok.pos)
	}
	return n, nil
}

// MustParse panics on malformed input; for literals in code and tests.
func MustParse(s string) Node {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func parseError(orig, src, msg string, pos int) error {
	e := dynamo.NewError(dynamo.KindParse, "cannot parse equation %q: %s", orig, msg).
		WithContext("normalized", src).
		WithSuggestion("use x and y as variables, * for products and ^ or ** for powers")
	if pos >= 0 {
		rs := []rune(src)
		if pos > len(rs) {
			pos = len(rs)
		}
		e.WithContext("offset", strconv.Itoa(pos)).WithContext("near", string(rs[pos:]))
	}
	return e
}

type parser struct {
	src  string
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text[0]
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Bin{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text[0]
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Bin{Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("-") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Neg{X: x}, nil
	}
	if p.isOp("+") {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower binds tighter than unary minus on its left and is right
// associative: -x^2 is -(x^2) and 2^3^2 is 2^(3^2).
func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Bin{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNum:
		p.next()
		return &Num{V: tok.num}, nil
	case tokIdent:
		p.next()
		switch {
		case tok.text == "x" || tok.text == "y":
			return &Var{Name: tok.text}, nil
		case functions[tok.text]:
			if p.peek().kind != tokLParen {
				return nil, fmt.Errorf("function %s needs an argument", tok.text)
			}
			p.next()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.peek().kind != tokRParen {
				return nil, fmt.Errorf("missing ) after %s argument", tok.text)
			}
			p.next()
			return &Call{Fn: tok.text, Arg: arg}, nil
		default:
			if v, ok := constants[tok.text]; ok {
				return &Const{Name: tok.text, V: v}, nil
			}
			p.i--
			return nil, fmt.Errorf("unknown symbol %q", tok.text)
		}
	case tokLParen:
		p.next()
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing )")
		}
		p.next()
		return n, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of input")
	default:
		return nil, fmt.Errorf("unexpected %q", tok.text)
	}
}
