// Package lexer turns patent search query text into a flat token stream.
//
// Tokenizing never fails: any input produces a token sequence ending in
// EndOfInput. Structural problems such as an orphan field code are left
// for the parser to report.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/teranos/patql/query/ast"
)

// maxDistanceDigits bounds distance literals so they always fit an int.
// Longer digit runs are not distances and lex as plain words.
const maxDistanceDigits = 9

// Lexer scans a query and produces tokens.
type Lexer struct {
	input    string // the entire input to tokenize
	position int    // current reading position in input
	tokens   []Token
}

// NewLexer returns a new Lexer with the given input and initializes state.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		tokens: make([]Token, 0, len(input)/4+1),
	}
}

// Tokenize lexes input in one call.
func Tokenize(input string) []Token {
	return NewLexer(input).Tokenize()
}

// Tokenize processes the entire input and produces the list of tokens.
func (l *Lexer) Tokenize() []Token {
	for l.position < len(l.input) {
		start := l.position
		r, size := utf8.DecodeRuneInString(l.input[start:])

		switch {
		case unicode.IsSpace(r):
			l.position += size

		case r == '#':
			// comment runs to the end of the query
			l.addToken(Token{Kind: EndOfInput, Text: l.input[start+1:], Pos: start, End: len(l.input)})
			return l.tokens

		case r == '"':
			l.lexQuoted()

		case r == '(':
			l.addToken(Token{Kind: LParen, Text: "(", Pos: start, End: start + 1})
			l.position++

		case r == ')':
			l.addToken(Token{Kind: RParen, Text: ")", Pos: start, End: start + 1})
			l.position++

		case r == '&':
			l.addToken(Token{Kind: Symbol, Text: "&", Op: ast.And, Pos: start, End: start + 1})
			l.position++

		case r == '|':
			l.addToken(Token{Kind: Symbol, Text: "|", Op: ast.Or, Pos: start, End: start + 1})
			l.position++

		case r == '~' && l.fuzzyAt(start) > 0:
			l.lexFuzzy()

		case r == '.' && l.attachable() && l.suffixAt(start) > 0:
			l.lexFieldSuffix()

		default:
			l.lexWord()
		}
	}

	l.addToken(Token{Kind: EndOfInput, Pos: len(l.input), End: len(l.input)})
	return l.tokens
}

// lexQuoted scans a double-quoted literal. A missing closing quote makes
// the literal run to the end of the input; # inside quotes is literal text.
func (l *Lexer) lexQuoted() {
	start := l.position
	closing := strings.IndexByte(l.input[start+1:], '"')
	if closing < 0 {
		l.addToken(Token{Kind: Quoted, Text: l.input[start+1:], Pos: start, End: len(l.input)})
		l.position = len(l.input)
		return
	}
	end := start + 1 + closing
	l.addToken(Token{Kind: Quoted, Text: l.input[start+1 : end], Terminated: true, Pos: start, End: end + 1})
	l.position = end + 1
}

// lexFuzzy scans ~n. The caller has verified the marker with fuzzyAt.
func (l *Lexer) lexFuzzy() {
	start := l.position
	n := l.fuzzyAt(start)
	digits := l.input[start+1 : start+1+n]
	value, _ := strconv.Atoi(digits)
	l.addToken(Token{Kind: FuzzyDistance, Text: digits, N: value, Pos: start, End: start + 1 + n})
	l.position = start + 1 + n
}

// lexFieldSuffix scans .CODE. The caller has verified it with suffixAt.
func (l *Lexer) lexFieldSuffix() {
	start := l.position
	n := l.suffixAt(start)
	l.addToken(Token{Kind: FieldSuffix, Text: l.input[start+1 : start+1+n], Pos: start, End: start + 1 + n})
	l.position = start + 1 + n
}

// lexWord scans a bare word and classifies it as a field prefix, keyword,
// proximity keyword with distance, number or plain word.
func (l *Lexer) lexWord() {
	start := l.position

	if n := upperRun(l.input[start:]); n > 0 && start+n < len(l.input) && l.input[start+n] == '/' {
		l.addToken(Token{Kind: FieldPrefix, Text: l.input[start : start+n], Pos: start, End: start + n + 1})
		l.position = start + n + 1
		return
	}

	i := start
	for i < len(l.input) {
		if l.delimiterAt(i) {
			break
		}
		if i > start {
			// markers glued to the word end it
			if l.input[i] == '.' && l.suffixAt(i) > 0 {
				break
			}
			if l.input[i] == '~' && l.fuzzyAt(i) > 0 {
				break
			}
		}
		_, size := utf8.DecodeRuneInString(l.input[i:])
		i += size
	}
	l.position = i
	text := l.input[start:i]

	if op, ok := ast.LookupOperator(text); ok {
		l.addToken(Token{Kind: Keyword, Text: text, Op: op, Pos: start, End: i})
		return
	}
	if op, digits, ok := splitProximity(text); ok {
		kwEnd := start + len(text) - len(digits)
		value, _ := strconv.Atoi(digits)
		l.addToken(Token{Kind: Keyword, Text: text[:len(text)-len(digits)], Op: op, Pos: start, End: kwEnd})
		l.addToken(Token{Kind: ProximityDistance, Text: digits, N: value, Pos: kwEnd, End: i})
		return
	}
	if digitRun(text) == len(text) {
		l.addToken(Token{Kind: Number, Text: text, Pos: start, End: i})
		return
	}
	l.addToken(Token{Kind: Word, Text: text, Pos: start, End: i})
}

// addToken is a helper to append a new token to the lexer's token list.
func (l *Lexer) addToken(tok Token) {
	l.tokens = append(l.tokens, tok)
}

// attachable reports whether a field suffix at the current position would
// be glued to the previous token. Operators count so that AND.TI leaves an
// orphan suffix for the parser to report.
func (l *Lexer) attachable() bool {
	if len(l.tokens) == 0 {
		return false
	}
	prev := l.tokens[len(l.tokens)-1]
	if prev.End != l.position {
		return false
	}
	switch prev.Kind {
	case Word, Number, Quoted, RParen, Keyword, Symbol, ProximityDistance:
		return true
	default:
		return false
	}
}

// suffixAt returns the length of CODE when input[i:] starts a field suffix
// .CODE that ends at a delimiter, a fuzzy marker or the end of input.
func (l *Lexer) suffixAt(i int) int {
	if i >= len(l.input) || l.input[i] != '.' {
		return 0
	}
	n := upperRun(l.input[i+1:])
	if n == 0 {
		return 0
	}
	end := i + 1 + n
	if end == len(l.input) || l.delimiterAt(end) || (l.input[end] == '~' && l.fuzzyAt(end) > 0) {
		return n
	}
	return 0
}

// fuzzyAt returns the number of digits when input[i:] starts a fuzzy
// marker ~n that ends at a delimiter or the end of input.
func (l *Lexer) fuzzyAt(i int) int {
	if i >= len(l.input) || l.input[i] != '~' {
		return 0
	}
	n := digitRun(l.input[i+1:])
	if n == 0 || n > maxDistanceDigits {
		return 0
	}
	end := i + 1 + n
	if end == len(l.input) || l.delimiterAt(end) {
		return n
	}
	return 0
}

// delimiterAt reports whether the rune at byte offset i ends a word.
func (l *Lexer) delimiterAt(i int) bool {
	switch l.input[i] {
	case '#', '"', '(', ')', '&', '|':
		return true
	}
	r, _ := utf8.DecodeRuneInString(l.input[i:])
	return unicode.IsSpace(r)
}

var proximityKeywords = []ast.Operator{ast.Near, ast.Adj, ast.With, ast.Same}

// splitProximity splits ADJ15 into its operator and digits.
func splitProximity(text string) (ast.Operator, string, bool) {
	for _, op := range proximityKeywords {
		name := op.String()
		if !strings.HasPrefix(text, name) {
			continue
		}
		digits := text[len(name):]
		if n := digitRun(digits); n > 0 && n == len(digits) && n <= maxDistanceDigits {
			return op, digits, true
		}
	}
	return 0, "", false
}

func upperRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= 'A' && s[n] <= 'Z' {
		n++
	}
	return n
}

func digitRun(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
