package parser

// Option configures a parse.
type Option func(*parser)

// WithMaxDepth sets the nesting limit for parentheses and unary NOT.
// Without it, or with a value below 1, nesting is unbounded.
func WithMaxDepth(depth int) Option {
	return func(p *parser) {
		p.maxDepth = depth
	}
}
