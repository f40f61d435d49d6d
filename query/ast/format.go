package ast

import (
	"strconv"
	"strings"
)

// Format renders a clause back to query text in a normalized spelling:
// keywords instead of & and |, field codes as suffixes, single spaces
// between words. Parsing the output of Format for a tree produced by the
// parser yields a structurally equal tree.
func Format(c Clause) string {
	var b strings.Builder
	writeQuery(&b, c)
	return b.String()
}

func writeQuery(b *strings.Builder, c Clause) {
	switch n := c.(type) {
	case *Term:
		b.WriteString(n.Text)
		writeMarkers(b, n.Field, n.Fuzzy)
	case *Phrase:
		b.WriteByte('"')
		b.WriteString(n.Text())
		if !n.Terminated {
			// an unterminated phrase always runs to the end of the query
			return
		}
		b.WriteByte('"')
		writeMarkers(b, n.Field, n.Fuzzy)
	case *Group:
		b.WriteByte('(')
		writeQuery(b, n.Inner)
		b.WriteByte(')')
	case *BinaryOp:
		writeQuery(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		if n.Distance != nil {
			b.WriteString(strconv.Itoa(*n.Distance))
		}
		b.WriteByte(' ')
		writeQuery(b, n.Right)
	case *Sequence:
		for i, item := range n.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeQuery(b, item)
		}
	case *Negation:
		b.WriteString("NOT ")
		writeQuery(b, n.Operand)
	}
}

func writeMarkers(b *strings.Builder, field string, fuzzy *int) {
	if field != "" {
		b.WriteByte('.')
		b.WriteString(field)
	}
	if fuzzy != nil {
		b.WriteByte('~')
		b.WriteString(strconv.Itoa(*fuzzy))
	}
}
