package query

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/parser"
)

// fragments are glued together, sometimes without a space, to build
// queries that reach every corner of the grammar.
var fragments = []string{
	"banana", "pie", "ice", "15", "1.5", "U.S", "a~b",
	`"ice cream"`, `""`, `"x"`,
	"AND", "OR", "NOT", "XOR", "NEAR", "ADJ", "WITH", "SAME", "ADJ15", "NEAR2",
	"&", "|", "(", ")",
	".TI", ".ATT", "~3", "PRAN/", "ART/",
	"and", "AND15",
}

func drawQuery(t *rapid.T) string {
	n := rapid.IntRange(1, 14).Draw(t, "length").(int)
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 && rapid.Bool().Draw(t, "space").(bool) {
			b.WriteByte(' ')
		}
		b.WriteString(rapid.SampledFrom(fragments).Draw(t, "fragment").(string))
	}
	return b.String()
}

func treeDiff(want, got ast.Clause) string {
	return cmp.Diff(ast.Encode(want), ast.Encode(got))
}

// sameOutcome fails t unless both parses produced equal trees or both
// failed with the same message.
func sameOutcome(t *rapid.T, wantInput, gotInput string) {
	want, wantErr := Parse(wantInput)
	got, gotErr := Parse(gotInput)
	if (wantErr == nil) != (gotErr == nil) {
		t.Fatalf("Parse(%q) err=%v but Parse(%q) err=%v", wantInput, wantErr, gotInput, gotErr)
	}
	if wantErr != nil {
		var wantPE, gotPE *parser.ParseError
		if !errors.As(wantErr, &wantPE) || !errors.As(gotErr, &gotPE) || wantPE.Message != gotPE.Message {
			t.Fatalf("Parse(%q) failed with %v but Parse(%q) failed with %v", wantInput, wantErr, gotInput, gotErr)
		}
		return
	}
	if !ast.Equal(want, got) {
		t.Fatalf("Parse(%q) and Parse(%q) differ (-want +got):\n%s", wantInput, gotInput, treeDiff(want, got))
	}
}

func TestPropertyTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input").(string)

		clause, err := Parse(input)
		if (clause == nil) == (err == nil) {
			t.Fatalf("Parse(%q) returned clause=%v err=%v", input, clause, err)
		}
		if err != nil && !errors.IsStructuralError(err) && !errors.IsResourceLimitError(err) {
			t.Fatalf("Parse(%q) returned unclassified error %v", input, err)
		}
	})
}

func TestPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := drawQuery(t)

		first, err1 := Parse(input)
		second, err2 := Parse(input)
		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("Parse(%q) disagreed with itself: %v vs %v", input, err1, err2)
		}
		if err1 != nil {
			if err1.Error() != err2.Error() {
				t.Fatalf("Parse(%q) errors differ: %v vs %v", input, err1, err2)
			}
			return
		}
		if !ast.Equal(first, second) {
			t.Fatalf("Parse(%q) trees differ (-first +second):\n%s", input, treeDiff(first, second))
		}
	})
}

func TestPropertyGrouping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := drawQuery(t)

		clause, err := Parse(input)
		if err != nil {
			t.Skip("not a valid query")
		}
		grouped, err := Parse("(" + input + ")")
		if err != nil {
			t.Fatalf("Parse(%q) failed after grouping: %v", "("+input+")", err)
		}
		want := &ast.Group{Inner: clause}
		if !ast.Equal(want, grouped) {
			t.Fatalf("grouping %q changed the tree:\n%s", input, treeDiff(want, grouped))
		}
	})
}

func TestPropertyFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := drawQuery(t)

		clause, err := Parse(input)
		if err != nil {
			t.Skip("not a valid query")
		}
		formatted := ast.Format(clause)
		again, err := Parse(formatted)
		if err != nil {
			t.Fatalf("Parse(Format(%q)) = Parse(%q) failed: %v", input, formatted, err)
		}
		if !ast.Equal(clause, again) {
			t.Fatalf("round trip of %q through %q changed the tree:\n%s", input, formatted, treeDiff(clause, again))
		}
	})
}

func TestPropertyLeftAssociative(t *testing.T) {
	levels := [][]string{{"AND", "&", "NOT"}, {"OR", "|", "XOR"}, {"NEAR", "ADJ", "WITH", "SAME"}}

	rapid.Check(t, func(t *rapid.T) {
		ops := levels[rapid.IntRange(0, len(levels)-1).Draw(t, "level").(int)]
		n := rapid.IntRange(2, 8).Draw(t, "operands").(int)

		words := []string{"w0"}
		var spelled []string
		for i := 1; i < n; i++ {
			spelled = append(spelled, rapid.SampledFrom(ops).Draw(t, "op").(string))
			words = append(words, "w"+strings.Repeat("x", i))
		}

		var b strings.Builder
		b.WriteString(words[0])
		for i, op := range spelled {
			b.WriteString(" " + op + " " + words[i+1])
		}

		clause, err := Parse(b.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", b.String(), err)
		}
		// the rightmost operand hangs off the root; walk the left spine down
		for i := n - 1; i > 0; i-- {
			op, ok := clause.(*ast.BinaryOp)
			if !ok {
				t.Fatalf("expected operator at depth %d of %s", n-1-i, ast.Print(clause))
			}
			if right := op.Right.(*ast.Term); right.Text != words[i] {
				t.Fatalf("right operand %q, want %q in %s", right.Text, words[i], ast.Print(clause))
			}
			clause = op.Left
		}
		if leaf := clause.(*ast.Term); leaf.Text != words[0] {
			t.Fatalf("leftmost operand %q, want %q", leaf.Text, words[0])
		}
	})
}

func TestPropertyCommentTruncation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := drawQuery(t)
		comment := rapid.String().Draw(t, "comment").(string)

		sep := "#"
		if rapid.Bool().Draw(t, "space").(bool) {
			sep = " #"
		}
		sameOutcome(t, input, input+sep+comment)
	})
}

func TestPropertyOddQuoteTotality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := drawQuery(t)
		if _, err := Parse(input); err != nil {
			t.Skip("not a valid query")
		}
		tail := strings.ReplaceAll(rapid.String().Draw(t, "tail").(string), `"`, "'")
		unclosed := input + ` "` + tail

		clause, err := Parse(unclosed)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", unclosed, err)
		}
		var last *ast.Phrase
		ast.Walk(clause, func(c ast.Clause) bool {
			if p, ok := c.(*ast.Phrase); ok {
				last = p
			}
			return true
		})
		if last == nil || last.Terminated {
			t.Fatalf("Parse(%q) = %s, want a trailing unterminated phrase", unclosed, ast.Print(clause))
		}
	})
}

func TestPropertyOperatorSymmetry(t *testing.T) {
	words := map[string]string{"&": "AND", "|": "OR"}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 14).Draw(t, "length").(int)
		var symbols, keywords strings.Builder
		for i := 0; i < n; i++ {
			frag := rapid.SampledFrom(fragments).Draw(t, "fragment").(string)
			if word, ok := words[frag]; ok {
				symbols.WriteString(" " + frag + " ")
				keywords.WriteString(" " + word + " ")
				continue
			}
			symbols.WriteString(frag)
			keywords.WriteString(frag)
			if rapid.Bool().Draw(t, "space").(bool) {
				symbols.WriteByte(' ')
				keywords.WriteByte(' ')
			}
		}
		sameOutcome(t, keywords.String(), symbols.String())
	})
}
