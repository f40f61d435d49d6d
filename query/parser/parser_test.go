package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
)

func parse(t *testing.T, input string, opts ...Option) (ast.Clause, error) {
	t.Helper()
	return Parse(lexer.Tokenize(input), opts...)
}

func TestParseAcceptsUSPTOQueries(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// terms, phrases and implicit sequences
		{`banana`, `banana`},
		{` banana`, `banana`},
		{`banana pie`, `(seq banana pie)`},
		{`banana "pie"`, `(seq banana "pie")`},
		{`banana pie and "ice cream"`, `(seq banana pie and "ice cream")`},
		{`"banana" "pie" and "ice cream"`, `(seq "banana" "pie" and "ice cream")`},
		{`"banana" "pie" and "ice cream" sandwiches`, `(seq "banana" "pie" and "ice cream" sandwiches)`},

		// unterminated literals run to the end of the query
		{`banana "pie`, `(seq banana (phrase "pie" :unterminated))`},
		{`banana " pie`, `(seq banana (phrase "pie" :unterminated))`},
		{`banana " pie and cake`, `(seq banana (phrase "pie and cake" :unterminated))`},

		// comments
		{`banana "pie # is delicious`, `(seq banana (phrase "pie # is delicious" :unterminated))`},
		{`banana pie # is "very good"`, `(seq banana pie)`},
		{`banana pie#is not real`, `(seq banana pie)`},
		{`banana pie#please`, `(seq banana pie)`},

		// boolean operators
		{`banana AND pie`, `(AND banana pie)`},
		{`banana & pie`, `(AND banana pie)`},
		{`banana OR pie`, `(OR banana pie)`},
		{`banana | pie`, `(OR banana pie)`},
		{`banana NOT pie`, `(NOT banana pie)`},
		{`banana XOR pie`, `(XOR banana pie)`},
		{`banana XOR pie AND cookies`, `(XOR banana (AND pie cookies))`},
		{`banana AND pie AND cookies`, `(AND (AND banana pie) cookies)`},
		{`banana AND "pie" AND cookies`, `(AND (AND banana "pie") cookies)`},
		{`banana AND "pie" AND "cookies"`, `(AND (AND banana "pie") "cookies")`},
		{`banana AND "pie pans" AND "cookies"`, `(AND (AND banana "pie pans") "cookies")`},
		{`banana OR pie OR cookies`, `(OR (OR banana pie) cookies)`},
		{`banana | pie & cookies`, `(OR banana (AND pie cookies))`},
		{`banana | pie AND cookies`, `(OR banana (AND pie cookies))`},

		// groups
		{`banana (pie) # is delicious`, `(seq banana (group pie))`},
		{`frozen (banana OR apple) pie`, `(seq frozen (group (OR banana apple)) pie)`},
		{`(banana OR apple) pie`, `(seq (group (OR banana apple)) pie)`},
		{`(banana OR apple) (pie OR juice)`, `(seq (group (OR banana apple)) (group (OR pie juice)))`},
		{`(fresh AND (banana OR apple)) (pie OR juice)`,
			`(seq (group (AND fresh (group (OR banana apple)))) (group (OR pie juice)))`},
		{`(fresh AND (banana OR apple)) (pie OR juice OR "frozen smoothie")`,
			`(seq (group (AND fresh (group (OR banana apple)))) (group (OR (OR pie juice) "frozen smoothie")))`},

		// proximity
		{`banana NEAR tree`, `(NEAR banana tree)`},
		{`banana ADJ tree`, `(ADJ banana tree)`},
		{`banana WITH tree`, `(WITH banana tree)`},
		{`banana SAME tree`, `(SAME banana tree)`},
		{`"banana tree" SAME island`, `(SAME "banana tree" island)`},
		{`(banana SAME tree) AND ("jumping" ADJ "jacks")`,
			`(AND (group (SAME banana tree)) (group (ADJ "jumping" "jacks")))`},

		// numbers
		{`15 bananas`, `(seq 15 bananas)`},
		{`"15 different" bananas`, `(seq "15 different" bananas)`},
		{`1 AND 2`, `(AND 1 2)`},

		// fields and distances
		{`banana ADJ15 tree monkey.ATT`, `(seq (ADJ/15 banana tree) (term monkey :field ATT))`},
		{`"I cannot find my pants".SRC`, `(phrase "I cannot find my pants" :field SRC)`},
		{`PRAN/somebody`, `(term somebody :field PRAN)`},
		{`ART/"ONCE TOLD ME THE WORLD" # WAS GONNA ROLL ME`, `(phrase "ONCE TOLD ME THE WORLD" :field ART)`},

		// fuzzy
		{`banana~4`, `(term banana :fuzzy 4)`},
		{`"banana soup"~7`, `(phrase "banana soup" :fuzzy 7)`},
		{`"banana soup"~7 AND "pumpkin pie"~3 AND ice cream`,
			`(seq (AND (AND (phrase "banana soup" :fuzzy 7) (phrase "pumpkin pie" :fuzzy 3)) ice) cream)`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			clause, err := parse(t, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ast.Print(clause))
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sequence is loosest", `a AND b c`, `(seq (AND a b) c)`},
		{"full ladder", `a OR b ADJ c AND d`, `(OR a (AND (ADJ b c) d))`},
		{"xor shares the or level", `a XOR b OR c`, `(OR (XOR a b) c)`},
		{"binary not shares the and level", `a AND b NOT c`, `(NOT (AND a b) c)`},
		{"proximity chains left", `a SAME3 b NEAR c`, `(NEAR (SAME/3 a b) c)`},
		{"unary not at start", `NOT a AND b`, `(AND (NOT a) b)`},
		{"unary not after operator", `a AND NOT b`, `(AND a (NOT b))`},
		{"unary not binds tighter than proximity", `a ADJ NOT b`, `(ADJ a (NOT b))`},
		{"binary then unary not", `a NOT NOT b`, `(NOT a (NOT b))`},
		{"nested unary not", `NOT NOT a`, `(NOT (NOT a))`},
		{"unary not starts a sequence", `NOT a b`, `(seq (NOT a) b)`},
		{"group resets precedence", `(a OR b) AND c`, `(AND (group (OR a b)) c)`},
		{"sequence inside group", `(a b) OR c`, `(OR (group (seq a b)) c)`},
		{"suffix then fuzzy", `a.TI~2`, `(term a :field TI :fuzzy 2)`},
		{"prefix then fuzzy", `TI/a~2`, `(term a :field TI :fuzzy 2)`},
		{"empty literal", `""`, `""`},
		{"whitespace literal", `"   "`, `""`},
		{"lowercase operators are terms", `banana and pie or cake`, `(seq banana and pie or cake)`},
		{"symbols without spaces", `a&b|c`, `(OR (AND a b) c)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := parse(t, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ast.Print(clause))
		})
	}
}

func TestParseTreeShape(t *testing.T) {
	clause, err := parse(t, `banana ADJ15 tree monkey.ATT`)
	require.NoError(t, err)

	want := &ast.Sequence{Items: []ast.Clause{
		&ast.BinaryOp{
			Op:       ast.Adj,
			Left:     &ast.Term{Text: "banana"},
			Right:    &ast.Term{Text: "tree"},
			Distance: ast.Ptr(15),
		},
		&ast.Term{Text: "monkey", Field: "ATT"},
	}}
	assert.True(t, ast.Equal(want, clause), ast.Print(clause))

	clause, err = parse(t, `banana NEAR tree`)
	require.NoError(t, err)
	op := clause.(*ast.BinaryOp)
	assert.Nil(t, op.Distance, "omitted distance stays unset")
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		start   int
	}{
		{"empty", ``, "query is empty", 0},
		{"whitespace only", `   `, "query is empty", 3},
		{"comment only", `# nothing`, "query is empty", 0},
		{"missing right operand", `banana AND`, "operator AND is missing its right operand", 7},
		{"missing right operand after distance", `banana ADJ15`, "operator ADJ is missing its right operand", 7},
		{"missing left operand", `AND pie`, "operator AND is missing its left operand", 0},
		{"symbol missing left operand", `& pie`, "operator AND is missing its left operand", 0},
		{"operator after operator", `a OR AND b`, "operator OR is missing its right operand", 2},
		{"lone not", `NOT`, "operator NOT is missing its right operand", 0},
		{"unclosed parenthesis", `(banana`, "unclosed parenthesis", 0},
		{"unclosed nested parenthesis", `a (b (c)`, "unclosed parenthesis", 2},
		{"unmatched closing parenthesis", `banana)`, "unmatched closing parenthesis", 6},
		{"leading closing parenthesis", `) banana`, "unmatched closing parenthesis", 0},
		{"empty parentheses", `()`, "empty parentheses", 0},
		{"empty parentheses in sequence", `a ()`, "empty parentheses", 2},
		{"leading fuzzy marker", `~4 banana`, "fuzzy marker ~4 has no term or phrase to attach to", 0},
		{"detached fuzzy marker", `banana ~4`, "fuzzy marker ~4 has no term or phrase to attach to", 7},
		{"fuzzy after operator", `a AND ~4`, "operator AND is missing its right operand", 2},
		{"suffix on group", `(a OR b).TI`, "field code .TI cannot apply to a parenthesized group", 8},
		{"fuzzy on group", `(banana)~4`, "fuzzy marker ~4 cannot apply to a parenthesized group", 8},
		{"prefix before group", `PRAN/(a)`, "field code PRAN/ must be followed by a term or phrase", 0},
		{"dangling prefix", `PRAN/`, "field code PRAN/ must be followed by a term or phrase", 0},
		{"conflicting fields", `PRAN/somebody.ATT`, "conflicting field codes PRAN/ and .ATT on the same operand", 13},
		{"suffix glued to operator", `a AND.ATT b`, "operator AND is missing its right operand", 2},
		{"suffix glued to symbol", `a &.ATT b`, "operator AND is missing its right operand", 2},
		{"suffix glued to distance", `a ADJ3.TI b`, "operator ADJ is missing its right operand", 2},
		{"suffix glued to unary not", `NOT.TI a`, "operator NOT is missing its right operand", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := parse(t, tt.input)
			require.Error(t, err)
			assert.Nil(t, clause)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, ErrorKindStructural, pe.Kind)
			assert.Equal(t, tt.message, pe.Message)
			assert.Equal(t, tt.start, pe.Start)
			assert.True(t, errors.Is(err, errors.ErrStructural))
			assert.False(t, errors.Is(err, errors.ErrResourceLimit))
		})
	}
}

func TestParseUnaryAndBinaryNot(t *testing.T) {
	clause, err := parse(t, `NOT banana`)
	require.NoError(t, err)
	neg, ok := clause.(*ast.Negation)
	require.True(t, ok, "got %T", clause)
	assert.Equal(t, ast.KindNot, neg.Kind())

	clause, err = parse(t, `apple NOT banana`)
	require.NoError(t, err)
	op, ok := clause.(*ast.BinaryOp)
	require.True(t, ok, "got %T", clause)
	assert.Equal(t, ast.Not, op.Op)
}

func TestParseSuffixGluedToKeywordIsNotATerm(t *testing.T) {
	_, err := parse(t, `a AND.ATT b`)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"field code .ATT cannot follow AND"}, pe.Suggestions)
}

func TestParseDepthLimit(t *testing.T) {
	deep := strings.Repeat("(", 300) + "a" + strings.Repeat(")", 300)

	clause, err := parse(t, deep)
	require.NoError(t, err, "nesting is unbounded without a limit")
	assert.Equal(t, 301, ast.Depth(clause))

	_, err = parse(t, deep, WithMaxDepth(256))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrResourceLimit))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrorKindResourceLimit, pe.Kind)
	assert.Equal(t, 256, pe.Start, "the first parenthesis past the limit")

	_, err = parse(t, strings.Repeat("NOT ", 300)+"a", WithMaxDepth(256))
	assert.True(t, errors.Is(err, errors.ErrResourceLimit))

	_, err = parse(t, "((a))", WithMaxDepth(2))
	assert.NoError(t, err)
	_, err = parse(t, "(((a)))", WithMaxDepth(2))
	assert.True(t, errors.Is(err, errors.ErrResourceLimit))

	_, err = parse(t, deep, WithMaxDepth(0))
	assert.NoError(t, err, "a zero limit disables the check")
}

func TestParseLongFlatChainIsNotLimited(t *testing.T) {
	input := "a" + strings.Repeat(" AND a", 5000)

	clause, err := parse(t, input)
	require.NoError(t, err)
	assert.Equal(t, 5001, ast.Depth(clause))
}

func TestParseWithoutEndOfInput(t *testing.T) {
	tokens := []lexer.Token{{Kind: lexer.Word, Text: "banana", Pos: 0, End: 6}}

	clause, err := Parse(tokens)
	require.NoError(t, err)
	assert.Equal(t, "banana", ast.Print(clause))

	_, err = Parse(nil)
	assert.True(t, errors.Is(err, errors.ErrStructural))
}

func TestParseErrorFormatting(t *testing.T) {
	input := "banana\nAND"
	_, err := parse(t, input)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	pe.Locate(input)
	require.NotNil(t, pe.Range)
	assert.Equal(t, Position{Line: 2, Character: 0, Offset: 7}, pe.Range.Start)
	assert.Equal(t, Position{Line: 2, Character: 3, Offset: 10}, pe.Range.End)

	plain := pe.FormatError(ErrorContextPlain)
	assert.Contains(t, plain, "operator AND is missing its right operand (at 2:0)")
	assert.Contains(t, plain, "Suggestions:")
	assert.Equal(t, "AND\n^^^", pe.Caret(input))

	terminal := pe.FormatError(ErrorContextTerminal)
	assert.Contains(t, terminal, "Context:")
	assert.Contains(t, terminal, "AND")
}
