// Package lsp provides language intelligence for patent search queries:
// semantic tokens for highlighting, diagnostics from the parser, and hover
// text. The glsp handler in this package exposes it over stdio or WebSocket.
package lsp

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
	"github.com/teranos/patql/query/parser"
)

// Service analyzes queries. It is safe for concurrent use.
type Service struct {
	limits atomic.Pointer[query.Limits]
}

// NewService creates a language service that parses under limits
func NewService(limits query.Limits) *Service {
	s := &Service{}
	s.SetLimits(limits)
	return s
}

// SetLimits swaps the limits used by subsequent analyses
func (s *Service) SetLimits(limits query.Limits) {
	s.limits.Store(&limits)
}

// Limits returns the limits currently in effect
func (s *Service) Limits() query.Limits {
	return *s.limits.Load()
}

// Analysis is everything an editor needs to render one query
type Analysis struct {
	Tokens      []SemanticToken `json:"tokens"`
	Diagnostics []Diagnostic    `json:"diagnostics"`
	Valid       bool            `json:"valid"`
	Tree        *ast.Node       `json:"tree,omitempty"`
	Normalized  string          `json:"normalized,omitempty"`
}

// SemanticToken is a lexer token with its source text, class and location
type SemanticToken struct {
	Text  string            `json:"text"`
	Kind  string            `json:"kind"`
	Type  SemanticTokenType `json:"type"`
	Range parser.Range      `json:"range"`
	Hover string            `json:"hover,omitempty"`
}

// Diagnostic represents a parse error or warning
type Diagnostic struct {
	Range       parser.Range `json:"range"`
	Severity    string       `json:"severity"` // error, warning
	Kind        string       `json:"kind,omitempty"`
	Message     string       `json:"message"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Analyze tokenizes and parses text. It never fails: parse errors become diagnostics.
func (s *Service) Analyze(ctx context.Context, text string) *Analysis {
	limits := s.Limits()
	result := &Analysis{
		Tokens:      []SemanticToken{},
		Diagnostics: []Diagnostic{},
	}

	clause, err := query.Parse(text, query.WithLimits(limits))

	// An oversized query is not tokenized; the error covers the excess.
	if query.CheckSize(text, query.WithLimits(limits)) == nil {
		tokens := lexer.Tokenize(text)
		result.Tokens = classifyTokens(text, tokens)
		result.Diagnostics = append(result.Diagnostics, quoteWarnings(text, tokens)...)
	}

	if err != nil {
		result.Diagnostics = append(result.Diagnostics, errorDiagnostic(text, err))
		logger.LoggerFromContext(ctx).Debugw("Query analysis failed",
			logger.FieldQueryLength, len(text),
			logger.FieldError, err)
		return result
	}

	result.Valid = true
	result.Tree = ast.Encode(clause)
	result.Normalized = ast.Format(clause)
	return result
}

// TokenAt returns the token covering a position (1-based line, 0-based
// character). A position just past the end of a token still selects it.
func (a *Analysis) TokenAt(line, character int) *SemanticToken {
	for i := range a.Tokens {
		tok := &a.Tokens[i]
		if before(line, character, tok.Range.Start) || before(tok.Range.End.Line, tok.Range.End.Character, parser.Position{Line: line, Character: character}) {
			continue
		}
		return tok
	}
	return nil
}

func before(line, character int, p parser.Position) bool {
	return line < p.Line || (line == p.Line && character < p.Character)
}

func classifyTokens(text string, tokens []lexer.Token) []SemanticToken {
	out := make([]SemanticToken, 0, len(tokens))
	for i, tok := range tokens {
		if tok.End <= tok.Pos {
			continue
		}
		st := SemanticToken{
			Text:  text[tok.Pos:tok.End],
			Kind:  tok.Kind.String(),
			Type:  semanticType(tok),
			Range: parser.RangeOf(text, tok.Pos, tok.End),
		}
		var next *lexer.Token
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}
		st.Hover = hoverText(tok, next)
		out = append(out, st)
	}
	return out
}

func semanticType(tok lexer.Token) SemanticTokenType {
	switch tok.Kind {
	case lexer.Keyword:
		return SemanticKeyword
	case lexer.Symbol, lexer.LParen, lexer.RParen:
		return SemanticOperator
	case lexer.Number:
		return SemanticNumber
	case lexer.Quoted:
		return SemanticString
	case lexer.FieldSuffix, lexer.FieldPrefix:
		return SemanticNamespace
	case lexer.ProximityDistance, lexer.FuzzyDistance:
		return SemanticParameter
	case lexer.EndOfInput:
		return SemanticComment
	default:
		return SemanticVariable
	}
}

var operatorHelp = map[ast.Operator]string{
	ast.And:  "both operands must match",
	ast.Or:   "either operand may match",
	ast.Xor:  "exactly one operand may match",
	ast.Not:  "the left operand must match and the right must not; as a prefix, the operand must not match",
	ast.Near: "both operands within %s of each other, in any order",
	ast.Adj:  "both operands within %s of each other, in the order written",
	ast.With: "both operands in the same sentence",
	ast.Same: "both operands in the same paragraph",
}

func hoverText(tok lexer.Token, next *lexer.Token) string {
	switch tok.Kind {
	case lexer.Keyword, lexer.Symbol:
		help := operatorHelp[tok.Op]
		label := tok.Op.String()
		if tok.Op == ast.Near || tok.Op == ast.Adj {
			words := "the default distance"
			if next != nil && next.Kind == lexer.ProximityDistance {
				words = plural(next.N, "word")
				label += next.Text
			}
			help = fmt.Sprintf(help, words)
		}
		return fmt.Sprintf("**%s**: %s", label, help)
	case lexer.ProximityDistance:
		return fmt.Sprintf("Proximity distance: %s", plural(tok.N, "word"))
	case lexer.FuzzyDistance:
		return fmt.Sprintf("Fuzzy match: up to %s", plural(tok.N, "edit"))
	case lexer.FieldSuffix:
		return fmt.Sprintf("Field code `%s`: restricts the preceding term or phrase to the %s field", tok.Text, tok.Text)
	case lexer.FieldPrefix:
		return fmt.Sprintf("Field code `%s`: restricts the following term or phrase to the %s field", tok.Text, tok.Text)
	case lexer.Quoted:
		words := len(strings.Fields(tok.Text))
		h := fmt.Sprintf("Phrase of %s", plural(words, "word"))
		if !tok.Terminated {
			h += " (missing closing quote, runs to end of query)"
		}
		return h
	case lexer.EndOfInput:
		return "Comment: ignored by the parser"
	}
	return ""
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func quoteWarnings(text string, tokens []lexer.Token) []Diagnostic {
	var out []Diagnostic
	for _, tok := range tokens {
		if tok.Kind != lexer.Quoted || tok.Terminated {
			continue
		}
		out = append(out, Diagnostic{
			Range:    parser.RangeOf(text, tok.Pos, tok.End),
			Severity: SeverityWarning,
			Message:  "phrase is missing its closing quote; it runs to the end of the query",
		})
	}
	return out
}

func errorDiagnostic(text string, err error) Diagnostic {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		r := parser.RangeOf(text, pe.Start, pe.End)
		if pe.Range != nil {
			r = *pe.Range
		}
		return Diagnostic{
			Range:       r,
			Severity:    SeverityError,
			Kind:        string(pe.Kind),
			Message:     pe.Message,
			Suggestions: pe.Suggestions,
		}
	}
	return Diagnostic{
		Range:    parser.RangeOf(text, 0, len(text)),
		Severity: SeverityError,
		Message:  err.Error(),
	}
}
