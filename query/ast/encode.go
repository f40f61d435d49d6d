package ast

// Node is the serializable form of a clause, used for JSON and YAML output.
type Node struct {
	Type       string   `json:"type" yaml:"type"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Words      []string `json:"words,omitempty" yaml:"words,omitempty"`
	Field      string   `json:"field,omitempty" yaml:"field,omitempty"`
	Fuzzy      *int     `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
	Terminated *bool    `json:"terminated,omitempty" yaml:"terminated,omitempty"`
	Op         string   `json:"op,omitempty" yaml:"op,omitempty"`
	Distance   *int     `json:"distance,omitempty" yaml:"distance,omitempty"`
	Left       *Node    `json:"left,omitempty" yaml:"left,omitempty"`
	Right      *Node    `json:"right,omitempty" yaml:"right,omitempty"`
	Inner      *Node    `json:"inner,omitempty" yaml:"inner,omitempty"`
	Items      []*Node  `json:"items,omitempty" yaml:"items,omitempty"`
}

// Encode converts a clause tree to its serializable form.
func Encode(c Clause) *Node {
	switch n := c.(type) {
	case *Term:
		return &Node{Type: KindTerm.String(), Text: n.Text, Field: n.Field, Fuzzy: n.Fuzzy}
	case *Phrase:
		return &Node{
			Type:       KindPhrase.String(),
			Words:      n.Words,
			Field:      n.Field,
			Fuzzy:      n.Fuzzy,
			Terminated: Ptr(n.Terminated),
		}
	case *Group:
		return &Node{Type: KindGroup.String(), Inner: Encode(n.Inner)}
	case *BinaryOp:
		return &Node{
			Type:     KindBinary.String(),
			Op:       n.Op.String(),
			Distance: n.Distance,
			Left:     Encode(n.Left),
			Right:    Encode(n.Right),
		}
	case *Sequence:
		items := make([]*Node, len(n.Items))
		for i, item := range n.Items {
			items[i] = Encode(item)
		}
		return &Node{Type: KindSequence.String(), Items: items}
	case *Negation:
		return &Node{Type: KindNot.String(), Op: Not.String(), Inner: Encode(n.Operand)}
	default:
		return nil
	}
}
