// Package query parses USPTO-style patent search queries.
//
//	clause, err := query.Parse(`"banana soup"~7 AND monkey.ATT`)
//
// Parse runs the lexer and the parser and enforces the configured
// resource limits. It keeps no state between calls and is safe for
// concurrent use.
package query

import (
	"fmt"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
	"github.com/teranos/patql/query/parser"
)

const (
	// DefaultMaxInputBytes bounds the size of a query accepted by Parse.
	DefaultMaxInputBytes = 64 * 1024
	// DefaultMaxDepth bounds nesting of parentheses and unary NOT.
	DefaultMaxDepth = 256
)

// Limits bounds the work a single parse may do. Zero fields select the
// defaults; negative fields disable the limit.
type Limits struct {
	MaxInputBytes int `json:"max_input_bytes" mapstructure:"max_input_bytes"`
	MaxDepth      int `json:"max_depth" mapstructure:"max_depth"`
}

// DefaultLimits returns the limits applied when no option is given.
func DefaultLimits() Limits {
	return Limits{MaxInputBytes: DefaultMaxInputBytes, MaxDepth: DefaultMaxDepth}
}

func (l Limits) withDefaults() Limits {
	if l.MaxInputBytes == 0 {
		l.MaxInputBytes = DefaultMaxInputBytes
	}
	if l.MaxDepth == 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	return l
}

// Option configures a single Parse call.
type Option func(*Limits)

// WithLimits replaces all limits at once.
func WithLimits(limits Limits) Option {
	return func(l *Limits) {
		*l = limits
	}
}

// WithMaxInputBytes sets the largest accepted query size in bytes.
func WithMaxInputBytes(n int) Option {
	return func(l *Limits) {
		l.MaxInputBytes = n
	}
}

// WithMaxDepth sets the deepest accepted nesting of groups and unary NOT.
func WithMaxDepth(n int) Option {
	return func(l *Limits) {
		l.MaxDepth = n
	}
}

// Parse turns query text into a clause tree. On failure the error is a
// *parser.ParseError wrapping errors.ErrStructural or errors.ErrResourceLimit,
// with its Range resolved against input.
func Parse(input string, opts ...Option) (ast.Clause, error) {
	limits := resolve(opts)
	if err := checkSize(input, limits); err != nil {
		return nil, err
	}

	clause, err := parser.Parse(lexer.Tokenize(input), parser.WithMaxDepth(limits.MaxDepth))
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			pe.Locate(input)
		}
		return nil, err
	}
	return clause, nil
}

// CheckSize reports the resource error Parse would return for an input
// over the byte limit, or nil. Tools that only tokenize use it to honour
// the same limit.
func CheckSize(input string, opts ...Option) error {
	return checkSize(input, resolve(opts))
}

func resolve(opts []Option) Limits {
	var limits Limits
	for _, opt := range opts {
		opt(&limits)
	}
	return limits.withDefaults()
}

func checkSize(input string, limits Limits) error {
	if limits.MaxInputBytes > 0 && len(input) > limits.MaxInputBytes {
		return parser.NewParseError(parser.ErrorKindResourceLimit,
			fmt.Sprintf("query is %d bytes, the limit is %d", len(input), limits.MaxInputBytes)).
			WithSpan(limits.MaxInputBytes, len(input)).
			WithSuggestion("split the query into smaller searches").
			Locate(input)
	}
	return nil
}

// MustParse is like Parse but panics on error. It is meant for queries
// written into code and tests.
func MustParse(input string) ast.Clause {
	clause, err := Parse(input)
	if err != nil {
		panic(fmt.Sprintf("query.MustParse(%q): %v", input, err))
	}
	return clause
}

// Tokenize exposes the lexer for tooling that highlights queries.
func Tokenize(input string) []lexer.Token {
	return lexer.Tokenize(input)
}
