package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func term(text string) *Term { return &Term{Text: text} }

func phrase(words ...string) *Phrase { return &Phrase{Words: words, Terminated: true} }

func TestPrint(t *testing.T) {
	tests := []struct {
		name   string
		clause Clause
		want   string
	}{
		{"bare term", term("banana"), "banana"},
		{"fielded term", &Term{Text: "monkey", Field: "ATT"}, "(term monkey :field ATT)"},
		{"fuzzy term", &Term{Text: "banana", Fuzzy: Ptr(4)}, "(term banana :fuzzy 4)"},
		{"phrase", phrase("ice", "cream"), `"ice cream"`},
		{"unterminated phrase", &Phrase{Words: []string{"pie"}}, `(phrase "pie" :unterminated)`},
		{"fuzzy fielded phrase", &Phrase{Words: []string{"banana", "soup"}, Field: "SRC", Fuzzy: Ptr(7), Terminated: true},
			`(phrase "banana soup" :field SRC :fuzzy 7)`},
		{"binary", &BinaryOp{Op: And, Left: term("banana"), Right: term("pie")}, "(AND banana pie)"},
		{"proximity distance", &BinaryOp{Op: Adj, Left: term("banana"), Right: term("tree"), Distance: Ptr(15)},
			"(ADJ/15 banana tree)"},
		{"group", &Group{Inner: &BinaryOp{Op: Or, Left: term("banana"), Right: term("apple")}},
			"(group (OR banana apple))"},
		{"sequence", &Sequence{Items: []Clause{term("frozen"), term("pie")}}, "(seq frozen pie)"},
		{"not", &Negation{Operand: term("pie")}, "(NOT pie)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Print(tt.clause))
			assert.Equal(t, tt.want, tt.clause.String())
		})
	}
}

func TestFormat(t *testing.T) {
	tree := &Sequence{Items: []Clause{
		&BinaryOp{
			Op:   And,
			Left: &Phrase{Words: []string{"banana", "soup"}, Fuzzy: Ptr(7), Terminated: true},
			Right: &Group{Inner: &BinaryOp{
				Op: Near, Left: &Term{Text: "monkey", Field: "ATT"}, Right: term("tree"), Distance: Ptr(3),
			}},
		},
		&Negation{Operand: term("cream")},
		&Phrase{Words: []string{"open", "end"}},
	}}

	assert.Equal(t, `"banana soup"~7 AND (monkey.ATT NEAR3 tree) NOT cream "open end`, Format(tree))
}

func TestEqual(t *testing.T) {
	a := &BinaryOp{Op: Adj, Left: term("banana"), Right: term("tree"), Distance: Ptr(15)}
	b := &BinaryOp{Op: Adj, Left: term("banana"), Right: term("tree"), Distance: Ptr(15)}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, &BinaryOp{Op: Adj, Left: term("banana"), Right: term("tree")}))
	assert.False(t, Equal(a, &BinaryOp{Op: Near, Left: term("banana"), Right: term("tree"), Distance: Ptr(15)}))
	assert.False(t, Equal(term("a"), &Group{Inner: term("a")}))
	assert.False(t, Equal(phrase("a"), &Phrase{Words: []string{"a"}}))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(term("a"), nil))
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	tree := &Sequence{Items: []Clause{
		&Group{Inner: &BinaryOp{Op: Or, Left: term("banana"), Right: term("apple")}},
		term("pie"),
	}}

	var leaves []string
	Walk(tree, func(c Clause) bool {
		if tm, ok := c.(*Term); ok {
			leaves = append(leaves, tm.Text)
		}
		return true
	})
	assert.Equal(t, []string{"banana", "apple", "pie"}, leaves)

	visited := 0
	Walk(tree, func(c Clause) bool {
		visited++
		return c.Kind() != KindGroup
	})
	assert.Equal(t, 3, visited, "sequence, group and pie; group children skipped")
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth(nil))
	assert.Equal(t, 1, Depth(term("a")))
	assert.Equal(t, 3, Depth(&Negation{Operand: &Group{Inner: term("a")}}))
}

func TestLookupOperator(t *testing.T) {
	op, ok := LookupOperator("SAME")
	require.True(t, ok)
	assert.Equal(t, Same, op)
	assert.True(t, op.IsProximity())

	_, ok = LookupOperator("and")
	assert.False(t, ok, "keywords are case sensitive")
	assert.False(t, Xor.IsProximity())
}

func TestEncodeJSON(t *testing.T) {
	tree := &BinaryOp{
		Op:       Adj,
		Left:     term("banana"),
		Right:    &Term{Text: "monkey", Field: "ATT"},
		Distance: Ptr(15),
	}

	data, err := json.Marshal(Encode(tree))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "binary",
		"op": "ADJ",
		"distance": 15,
		"left": {"type": "term", "text": "banana"},
		"right": {"type": "term", "text": "monkey", "field": "ATT"}
	}`, string(data))
}
