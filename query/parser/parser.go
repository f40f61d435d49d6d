// Package parser builds a clause tree from a query token stream.
//
// Precedence, loosest to tightest:
//
//	implicit sequence   a b c
//	OR  |  XOR          left associative
//	AND  &  NOT         left associative, NOT after an operand
//	NEAR ADJ WITH SAME  left associative, optional distance
//	NOT                 unary, at the start of an operand
//	CODE/ .CODE ~n      field and fuzzy annotations
//	term "phrase" ( )   atoms and groups
//
// Parsing is a pure function of the token stream: no state outlives a call.
package parser

import (
	"fmt"

	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
)

type parser struct {
	tokens   []lexer.Token
	pos      int
	depth    int
	maxDepth int
}

// Parse builds the clause tree for tokens, which must end in EndOfInput as
// produced by lexer.Tokenize. Failures are returned as *ParseError.
func Parse(tokens []lexer.Token, opts ...Option) (ast.Clause, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EndOfInput {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}
		tokens = append(tokens[:len(tokens):len(tokens)], lexer.Token{Kind: lexer.EndOfInput, Pos: end, End: end})
	}

	p := &parser{tokens: tokens}
	for _, opt := range opts {
		opt(p)
	}

	d, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return build(d), nil
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.EndOfInput {
		p.pos++
	}
	return tok
}

// enter tracks one level of nesting opened by tok.
func (p *parser) enter(tok lexer.Token) error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return NewParseError(ErrorKindResourceLimit,
			fmt.Sprintf("query nests deeper than %d levels", p.maxDepth)).
			WithSpan(tok.Pos, tok.End).
			WithToken(tokenText(tok))
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseQuery() (derivation, error) {
	if tok := p.peek(); tok.Kind == lexer.EndOfInput {
		return nil, structural(tok, "query is empty").
			WithSuggestion("enter at least one term or quoted phrase")
	}

	seq, err := p.parseSequence()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Kind == lexer.RParen {
		return nil, structural(tok, "unmatched closing parenthesis").
			WithSuggestion("remove the parenthesis or add a matching '('")
	}
	return seq, nil
}

// parseSequence collects juxtaposed OR-level operands. It stops at the
// end of input or a closing parenthesis and reports anything else.
func (p *parser) parseSequence() (derivation, error) {
	seq := &sequenceDerivation{}
	for p.peek().StartsOperand() {
		item, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		seq.items = append(seq.items, item)
	}

	tok := p.peek()
	if tok.Kind == lexer.EndOfInput || tok.Kind == lexer.RParen {
		if len(seq.items) == 0 {
			return nil, p.unexpected(tok)
		}
		return seq, nil
	}
	return nil, p.unexpected(tok)
}

func (p *parser) parseOr() (derivation, error) {
	return p.parseChain(p.parseAnd, func(tok lexer.Token) bool {
		return isOperator(tok) && (tok.Op == ast.Or || tok.Op == ast.Xor)
	})
}

func (p *parser) parseAnd() (derivation, error) {
	return p.parseChain(p.parseProximity, func(tok lexer.Token) bool {
		return isOperator(tok) && (tok.Op == ast.And || tok.Op == ast.Not)
	})
}

func (p *parser) parseProximity() (derivation, error) {
	return p.parseChain(p.parseUnary, func(tok lexer.Token) bool {
		return isOperator(tok) && tok.Op.IsProximity()
	})
}

// parseChain parses operand (op operand)* for one precedence level.
func (p *parser) parseChain(operand func() (derivation, error), matches func(lexer.Token) bool) (derivation, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	chain := &chainDerivation{operands: []derivation{first}}

	for matches(p.peek()) {
		opTok := p.next()
		use := operatorUse{op: opTok.Op}
		if opTok.Op.IsProximity() && p.peek().Kind == lexer.ProximityDistance {
			use.distance = ast.Ptr(p.next().N)
		}

		if !p.peek().StartsOperand() {
			return nil, p.missingRightOperand(opTok)
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		chain.push(use, right)
	}
	return chain, nil
}

// parseUnary handles NOT at the start of an operand.
func (p *parser) parseUnary() (derivation, error) {
	tok := p.peek()
	if tok.Kind != lexer.Keyword || tok.Op != ast.Not {
		return p.parseAtom()
	}

	p.next()
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()

	if !p.peek().StartsOperand() {
		return nil, p.missingRightOperand(tok)
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &notDerivation{operand: operand}, nil
}

// parseAtom parses a term, phrase or group with its annotations.
func (p *parser) parseAtom() (derivation, error) {
	var prefix *lexer.Token
	if tok := p.peek(); tok.Kind == lexer.FieldPrefix {
		p.next()
		prefix = &tok
		switch p.peek().Kind {
		case lexer.Word, lexer.Number, lexer.Quoted:
		default:
			return nil, structural(tok, fmt.Sprintf("%s must be followed by a term or phrase", tok.Describe())).
				WithSuggestion(fmt.Sprintf("write %s/word or %s/\"a phrase\"", tok.Text, tok.Text))
		}
	}

	tok := p.peek()
	switch tok.Kind {
	case lexer.LParen:
		return p.parseGroup()
	case lexer.Word, lexer.Number, lexer.Quoted:
		p.next()
	default:
		return nil, p.unexpected(tok)
	}

	atom := &atomDerivation{token: tok}
	if prefix != nil {
		atom.field = prefix.Text
	}

	end := tok.End
	if next := p.peek(); next.Kind == lexer.FieldSuffix {
		p.next()
		end = next.End
		if prefix != nil {
			return nil, structural(next,
				fmt.Sprintf("conflicting field codes %s/ and .%s on the same operand", prefix.Text, next.Text)).
				WithSuggestion("keep either the prefix or the suffix form")
		}
		atom.field = next.Text
	}
	// a detached ~n is left over and reported as an orphan marker
	if next := p.peek(); next.Kind == lexer.FuzzyDistance && next.Pos == end {
		p.next()
		atom.fuzzy = ast.Ptr(next.N)
	}
	return atom, nil
}

func (p *parser) parseGroup() (derivation, error) {
	open := p.next()
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	switch tok := p.peek(); tok.Kind {
	case lexer.RParen:
		return nil, NewParseError(ErrorKindStructural, "empty parentheses").
			WithSpan(open.Pos, tok.End).
			WithToken("()").
			WithSuggestion("put a term inside the parentheses or remove them")
	case lexer.EndOfInput:
		return nil, unclosed(open)
	}

	inner, err := p.parseSequence()
	if err != nil {
		return nil, err
	}

	closing := p.peek()
	if closing.Kind != lexer.RParen {
		return nil, unclosed(open)
	}
	p.next()

	if next := p.peek(); next.Kind == lexer.FieldSuffix || next.Kind == lexer.FuzzyDistance {
		return nil, structural(next, fmt.Sprintf("%s cannot apply to a parenthesized group", next.Describe())).
			WithSuggestion("annotate each term inside the group instead")
	}
	return &groupDerivation{inner: inner}, nil
}

// unexpected reports a token that cannot start or continue an operand.
func (p *parser) unexpected(tok lexer.Token) *ParseError {
	switch tok.Kind {
	case lexer.EndOfInput:
		return structural(tok, "unexpected end of query")
	case lexer.RParen:
		return structural(tok, "unmatched closing parenthesis").
			WithSuggestion("remove the parenthesis or add a matching '('")
	case lexer.Keyword, lexer.Symbol:
		return structural(tok, fmt.Sprintf("%s is missing its left operand", tok.Describe())).
			WithSuggestion(fmt.Sprintf("put a term before %s", tok.Op))
	case lexer.ProximityDistance:
		return structural(tok, fmt.Sprintf("%s has no proximity operator", tok.Describe()))
	case lexer.FieldSuffix, lexer.FuzzyDistance:
		return structural(tok, fmt.Sprintf("%s has no term or phrase to attach to", tok.Describe())).
			WithSuggestion("attach the marker directly to a word or a quoted phrase")
	case lexer.FieldPrefix:
		return structural(tok, fmt.Sprintf("%s must be followed by a term or phrase", tok.Describe()))
	default:
		return structural(tok, fmt.Sprintf("unexpected %s", tok.Describe()))
	}
}

func (p *parser) missingRightOperand(opTok lexer.Token) *ParseError {
	next := p.peek()
	err := structural(opTok, fmt.Sprintf("operator %s is missing its right operand", opTok.Op))
	if next.Kind == lexer.EndOfInput {
		return err.WithSuggestion(fmt.Sprintf("put a term after %s", opTok.Op))
	}
	return err.WithSuggestion(fmt.Sprintf("%s cannot follow %s", next.Describe(), opTok.Op))
}

func unclosed(open lexer.Token) *ParseError {
	return structural(open, "unclosed parenthesis").
		WithSuggestion("add a matching ')'")
}

func structural(tok lexer.Token, message string) *ParseError {
	return NewParseError(ErrorKindStructural, message).
		WithSpan(tok.Pos, tok.End).
		WithToken(tokenText(tok))
}

func isOperator(tok lexer.Token) bool {
	return tok.Kind == lexer.Keyword || tok.Kind == lexer.Symbol
}

func tokenText(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EndOfInput:
		return ""
	case lexer.Quoted:
		return `"` + tok.Text
	case lexer.FieldSuffix:
		return "." + tok.Text
	case lexer.FieldPrefix:
		return tok.Text + "/"
	case lexer.FuzzyDistance:
		return "~" + tok.Text
	default:
		return tok.Text
	}
}
