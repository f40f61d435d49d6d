package ast

import "slices"

// Walk visits c and its descendants depth first, left to right. Children
// of a clause are skipped when fn returns false for it.
func Walk(c Clause, fn func(Clause) bool) {
	if c == nil || !fn(c) {
		return
	}
	for _, child := range Children(c) {
		Walk(child, fn)
	}
}

// Children returns the direct sub-clauses of c in source order.
func Children(c Clause) []Clause {
	switch n := c.(type) {
	case *Group:
		return []Clause{n.Inner}
	case *BinaryOp:
		return []Clause{n.Left, n.Right}
	case *Sequence:
		return n.Items
	case *Negation:
		return []Clause{n.Operand}
	default:
		return nil
	}
}

// Depth returns the number of clauses on the longest root-to-leaf path.
func Depth(c Clause) int {
	if c == nil {
		return 0
	}
	deepest := 0
	for _, child := range Children(c) {
		deepest = max(deepest, Depth(child))
	}
	return deepest + 1
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Clause) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Term:
		y := b.(*Term)
		return x.Text == y.Text && x.Field == y.Field && equalInt(x.Fuzzy, y.Fuzzy)
	case *Phrase:
		y := b.(*Phrase)
		return slices.Equal(x.Words, y.Words) && x.Field == y.Field &&
			equalInt(x.Fuzzy, y.Fuzzy) && x.Terminated == y.Terminated
	case *Group:
		return Equal(x.Inner, b.(*Group).Inner)
	case *BinaryOp:
		y := b.(*BinaryOp)
		return x.Op == y.Op && equalInt(x.Distance, y.Distance) &&
			Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Sequence:
		y := b.(*Sequence)
		return slices.EqualFunc(x.Items, y.Items, Equal)
	case *Negation:
		return Equal(x.Operand, b.(*Negation).Operand)
	}
	return false
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
