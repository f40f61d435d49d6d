package parser

import (
	"strings"

	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
)

// build folds a derivation into the clause tree: single-item sequences and
// single-operand chains collapse to their content, operator chains become
// left-nested BinaryOp nodes.
func build(d derivation) ast.Clause {
	switch n := d.(type) {
	case *sequenceDerivation:
		if len(n.items) == 1 {
			return build(n.items[0])
		}
		items := make([]ast.Clause, len(n.items))
		for i, item := range n.items {
			items[i] = build(item)
		}
		return &ast.Sequence{Items: items}

	case *chainDerivation:
		left := build(n.operands[0])
		for i, use := range n.ops {
			left = &ast.BinaryOp{
				Op:       use.op,
				Left:     left,
				Right:    build(n.operands[i+1]),
				Distance: use.distance,
			}
		}
		return left

	case *notDerivation:
		return &ast.Negation{Operand: build(n.operand)}

	case *groupDerivation:
		return &ast.Group{Inner: build(n.inner)}

	case *atomDerivation:
		if n.token.Kind == lexer.Quoted {
			return &ast.Phrase{
				Words:      phraseWords(n.token.Text),
				Field:      n.field,
				Fuzzy:      n.fuzzy,
				Terminated: n.token.Terminated,
			}
		}
		return &ast.Term{Text: n.token.Text, Field: n.field, Fuzzy: n.fuzzy}
	}
	return nil
}

// phraseWords splits literal contents on whitespace. Empty or
// whitespace-only contents yield a single empty word.
func phraseWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	return words
}
