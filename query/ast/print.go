package ast

import (
	"strconv"
	"strings"
)

// Print renders a clause as a compact S-expression.
//
//	banana                                  bare term
//	"ice cream"                             phrase
//	(term monkey :field ATT)                annotated term
//	(phrase "pie" :fuzzy 3 :unterminated)   annotated phrase
//	(ADJ/15 banana tree)                    binary operator with distance
//	(group (OR banana apple))               parenthesized clause
//	(seq frozen pie)                        implicit sequence
//	(NOT pie)                               unary NOT
//
// Two trees print identically exactly when they are structurally equal.
func Print(c Clause) string {
	var b strings.Builder
	writeSExpr(&b, c)
	return b.String()
}

func writeSExpr(b *strings.Builder, c Clause) {
	switch n := c.(type) {
	case nil:
		b.WriteString("nil")
	case *Term:
		if n.Field == "" && n.Fuzzy == nil {
			b.WriteString(n.Text)
			return
		}
		b.WriteString("(term ")
		b.WriteString(n.Text)
		writeAnnotations(b, n.Field, n.Fuzzy)
		b.WriteByte(')')
	case *Phrase:
		quoted := strconv.Quote(n.Text())
		if n.Field == "" && n.Fuzzy == nil && n.Terminated {
			b.WriteString(quoted)
			return
		}
		b.WriteString("(phrase ")
		b.WriteString(quoted)
		writeAnnotations(b, n.Field, n.Fuzzy)
		if !n.Terminated {
			b.WriteString(" :unterminated")
		}
		b.WriteByte(')')
	case *Group:
		b.WriteString("(group ")
		writeSExpr(b, n.Inner)
		b.WriteByte(')')
	case *BinaryOp:
		b.WriteByte('(')
		b.WriteString(n.Op.String())
		if n.Distance != nil {
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(*n.Distance))
		}
		b.WriteByte(' ')
		writeSExpr(b, n.Left)
		b.WriteByte(' ')
		writeSExpr(b, n.Right)
		b.WriteByte(')')
	case *Sequence:
		b.WriteString("(seq")
		for _, item := range n.Items {
			b.WriteByte(' ')
			writeSExpr(b, item)
		}
		b.WriteByte(')')
	case *Negation:
		b.WriteString("(NOT ")
		writeSExpr(b, n.Operand)
		b.WriteByte(')')
	}
}

func writeAnnotations(b *strings.Builder, field string, fuzzy *int) {
	if field != "" {
		b.WriteString(" :field ")
		b.WriteString(field)
	}
	if fuzzy != nil {
		b.WriteString(" :fuzzy ")
		b.WriteString(strconv.Itoa(*fuzzy))
	}
}
