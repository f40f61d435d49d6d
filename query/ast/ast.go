// Package ast defines the clause tree produced by parsing a patent search query.
//
// A tree is built once by the parser and never mutated afterwards. Every
// child is exclusively owned by its parent, so trees can be shared freely
// between goroutines.
package ast

import "strings"

// Operator identifies a binary or unary query operator.
type Operator int

const (
	// And requires both operands
	And Operator = iota + 1
	// Or requires either operand
	Or
	// Not excludes the right operand, or negates a lone operand
	Not
	// Xor requires exactly one operand
	Xor
	// Near is a proximity operator without order constraint
	Near
	// Adj is a proximity operator with order constraint
	Adj
	// With is a proximity operator scoped to a sentence
	With
	// Same is a proximity operator scoped to a paragraph
	Same
)

var operatorNames = map[Operator]string{
	And:  "AND",
	Or:   "OR",
	Not:  "NOT",
	Xor:  "XOR",
	Near: "NEAR",
	Adj:  "ADJ",
	With: "WITH",
	Same: "SAME",
}

// String returns the operator keyword in upper case.
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsProximity reports whether the operator accepts a distance.
func (o Operator) IsProximity() bool {
	return o == Near || o == Adj || o == With || o == Same
}

// LookupOperator maps an exact-case keyword to its operator.
func LookupOperator(keyword string) (Operator, bool) {
	for op, name := range operatorNames {
		if name == keyword {
			return op, true
		}
	}
	return 0, false
}

// Kind discriminates clause variants without a type switch.
type Kind int

const (
	KindTerm Kind = iota + 1
	KindPhrase
	KindGroup
	KindBinary
	KindSequence
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindPhrase:
		return "phrase"
	case KindGroup:
		return "group"
	case KindBinary:
		return "binary"
	case KindSequence:
		return "sequence"
	case KindNot:
		return "not"
	default:
		return "unknown"
	}
}

// Clause is a node of the query tree.
type Clause interface {
	Kind() Kind
	// String renders the clause as an S-expression, see Print.
	String() string
	clause()
}

// Term is a single bare word or number.
type Term struct {
	Text  string
	Field string // search field code, empty when unrestricted
	Fuzzy *int
}

// Phrase is the ordered word list of a quoted literal.
type Phrase struct {
	Words      []string
	Field      string
	Fuzzy      *int
	Terminated bool // false when the closing quote was missing
}

// Group is an explicitly parenthesized sub-query.
type Group struct {
	Inner Clause
}

// BinaryOp applies Op to Left and Right. Distance is only set for
// proximity operators written with a number, such as ADJ15.
type BinaryOp struct {
	Op       Operator
	Left     Clause
	Right    Clause
	Distance *int
}

// Sequence is an implicit join of two or more juxtaposed clauses.
type Sequence struct {
	Items []Clause
}

// Negation is a NOT operator written with no left operand.
type Negation struct {
	Operand Clause
}

func (*Term) Kind() Kind     { return KindTerm }
func (*Phrase) Kind() Kind   { return KindPhrase }
func (*Group) Kind() Kind    { return KindGroup }
func (*BinaryOp) Kind() Kind { return KindBinary }
func (*Sequence) Kind() Kind { return KindSequence }
func (*Negation) Kind() Kind { return KindNot }

func (*Term) clause()     {}
func (*Phrase) clause()   {}
func (*Group) clause()    {}
func (*BinaryOp) clause() {}
func (*Sequence) clause() {}
func (*Negation) clause() {}

func (t *Term) String() string     { return Print(t) }
func (p *Phrase) String() string   { return Print(p) }
func (g *Group) String() string    { return Print(g) }
func (b *BinaryOp) String() string { return Print(b) }
func (s *Sequence) String() string { return Print(s) }
func (n *Negation) String() string { return Print(n) }

// Text joins the phrase words with single spaces.
func (p *Phrase) Text() string {
	return strings.Join(p.Words, " ")
}

// Ptr returns a pointer to v. It keeps distance and fuzzy literals short.
func Ptr[T any](v T) *T {
	return &v
}
