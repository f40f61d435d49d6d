package lexer

import (
	"fmt"

	"github.com/teranos/patql/query/ast"
)

// Kind identifies the class of a token.
type Kind int

const (
	// Word is a bare run of non-delimiter characters
	Word Kind = iota
	// Number is a Word made only of ASCII digits
	Number
	// Quoted is a double-quoted literal, possibly missing its closing quote
	Quoted
	// Keyword is an operator spelled as a word: AND OR NOT XOR NEAR ADJ WITH SAME
	Keyword
	// Symbol is an operator spelled as & or |
	Symbol
	// FieldSuffix is .CODE glued to the end of a word, number, literal, ) or operator
	FieldSuffix
	// FieldPrefix is CODE/ at the start of a word
	FieldPrefix
	// ProximityDistance is the number glued to a proximity keyword, as in ADJ15
	ProximityDistance
	// FuzzyDistance is ~n glued to the end of a word or literal
	FuzzyDistance
	LParen
	RParen
	// EndOfInput terminates every token stream. When the query ends in a
	// comment its Text holds the discarded comment.
	EndOfInput
)

var kindNames = [...]string{
	Word:              "Word",
	Number:            "Number",
	Quoted:            "Quoted",
	Keyword:           "Keyword",
	Symbol:            "Symbol",
	FieldSuffix:       "FieldSuffix",
	FieldPrefix:       "FieldPrefix",
	ProximityDistance: "ProximityDistance",
	FuzzyDistance:     "FuzzyDistance",
	LParen:            "LParen",
	RParen:            "RParen",
	EndOfInput:        "EndOfInput",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit of a query. Pos and End are byte offsets into
// the input; Pos is inclusive and End exclusive.
type Token struct {
	Kind Kind
	// Text is the payload: the word, the literal contents without quotes,
	// the field code without punctuation, or the digits of a distance.
	Text string
	// Op is set for Keyword and Symbol tokens.
	Op ast.Operator
	// N is the decoded value of ProximityDistance and FuzzyDistance tokens.
	N int
	// Terminated is false for a Quoted token whose closing quote is missing.
	Terminated bool
	Pos        int
	End        int
}

func (t Token) String() string {
	switch t.Kind {
	case Keyword, Symbol:
		return fmt.Sprintf("%s(%s)@%d", t.Kind, t.Op, t.Pos)
	case ProximityDistance, FuzzyDistance:
		return fmt.Sprintf("%s(%d)@%d", t.Kind, t.N, t.Pos)
	case Quoted:
		if !t.Terminated {
			return fmt.Sprintf("Quoted(%q, unterminated)@%d", t.Text, t.Pos)
		}
		return fmt.Sprintf("Quoted(%q)@%d", t.Text, t.Pos)
	case LParen, RParen, EndOfInput:
		return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
	default:
		return fmt.Sprintf("%s(%s)@%d", t.Kind, t.Text, t.Pos)
	}
}

// Describe renders the token the way it should appear in a diagnostic.
func (t Token) Describe() string {
	switch t.Kind {
	case Keyword, Symbol:
		return fmt.Sprintf("operator %s", t.Op)
	case FieldSuffix:
		return fmt.Sprintf("field code .%s", t.Text)
	case FieldPrefix:
		return fmt.Sprintf("field code %s/", t.Text)
	case ProximityDistance:
		return fmt.Sprintf("proximity distance %d", t.N)
	case FuzzyDistance:
		return fmt.Sprintf("fuzzy marker ~%d", t.N)
	case Quoted:
		return fmt.Sprintf("phrase %q", t.Text)
	case LParen:
		return "opening parenthesis"
	case RParen:
		return "closing parenthesis"
	case EndOfInput:
		return "end of query"
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// StartsOperand reports whether an operand can begin with this token.
func (t Token) StartsOperand() bool {
	switch t.Kind {
	case Word, Number, Quoted, LParen, FieldPrefix:
		return true
	case Keyword:
		return t.Op == ast.Not
	default:
		return false
	}
}
