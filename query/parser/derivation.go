package parser

import (
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
)

// derivation is the parser's intermediate form. Every precedence level
// produces a node even when it only passes a single operand through; the
// builder folds these pass-through levels away.
type derivation interface {
	derivation()
}

// sequenceDerivation holds the operands juxtaposed at the lowest level.
type sequenceDerivation struct {
	items []derivation
}

// chainDerivation holds one precedence level: operands joined by the
// operators of that level, len(ops) == len(operands)-1.
type chainDerivation struct {
	operands []derivation
	ops      []operatorUse
}

type operatorUse struct {
	op       ast.Operator
	distance *int
}

type notDerivation struct {
	operand derivation
}

type groupDerivation struct {
	inner derivation
}

// atomDerivation is a term or phrase with its field and fuzzy annotations.
type atomDerivation struct {
	token lexer.Token
	field string
	fuzzy *int
}

func (*sequenceDerivation) derivation() {}
func (*chainDerivation) derivation()    {}
func (*notDerivation) derivation()      {}
func (*groupDerivation) derivation()    {}
func (*atomDerivation) derivation()     {}

func (c *chainDerivation) push(use operatorUse, operand derivation) {
	c.ops = append(c.ops, use)
	c.operands = append(c.operands, operand)
}
