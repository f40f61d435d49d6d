package parser

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/patql/errors"
)

// ErrorContext indicates the environment where parser errors will be displayed
type ErrorContext string

const (
	// ErrorContextTerminal indicates errors will be displayed in terminal with ANSI colors
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain indicates errors will be displayed without ANSI codes (web UI, logs, etc)
	ErrorContextPlain ErrorContext = "plain"
)

// ErrorKind categorizes parser errors for programmatic handling
type ErrorKind string

const (
	ErrorKindStructural    ErrorKind = "structural"     // The query violates the grammar
	ErrorKindResourceLimit ErrorKind = "resource_limit" // The query exceeds a size or depth limit
)

// ParseError represents a positioned parser error
type ParseError struct {
	Kind    ErrorKind
	Message string
	// Start and End are the byte offsets of the offending span.
	Start int
	End   int
	// Token is the source text of the offending token, when there is one.
	Token string
	// Range is filled in by Locate once the source text is known.
	Range       *Range
	Suggestions []string
}

// Error implements error interface
func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// Unwrap exposes the sentinel for errors.Is
func (e *ParseError) Unwrap() error {
	if e.Kind == ErrorKindResourceLimit {
		return errors.ErrResourceLimit
	}
	return errors.ErrStructural
}

// FormatError generates context-appropriate error message
func (e *ParseError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return e.formatTerminalError()
	}
	return e.formatPlainError()
}

// formatPlainError creates concise error for web UI/logs
func (e *ParseError) formatPlainError() string {
	msg := e.Message
	if e.Range != nil {
		msg += fmt.Sprintf(" (at %d:%d)", e.Range.Start.Line, e.Range.Start.Character)
	} else {
		msg += fmt.Sprintf(" (at offset %d)", e.Start)
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// formatTerminalError creates rich colored error for terminal
func (e *ParseError) formatTerminalError() string {
	var b strings.Builder
	b.WriteString(pterm.Red(e.Message))

	b.WriteString("\n\n")
	b.WriteString(pterm.LightCyan("Context:"))
	if e.Range != nil {
		fmt.Fprintf(&b, "\n  %s %d:%d", pterm.Yellow("Position:"), e.Range.Start.Line, e.Range.Start.Character)
	} else {
		fmt.Fprintf(&b, "\n  %s offset %d", pterm.Yellow("Position:"), e.Start)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, "\n  %s '%s'", pterm.Yellow("Token:"), e.Token)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\n")
		b.WriteString(pterm.Green("Suggestions:"))
		for _, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", suggestion)
		}
	}
	return b.String()
}

// Locate resolves the byte span against the query text so the error can
// report line and character positions.
func (e *ParseError) Locate(source string) *ParseError {
	r := RangeOf(source, e.Start, e.End)
	e.Range = &r
	return e
}

// Caret renders the source line holding the error with a marker under the
// offending span. Locate must have been called first.
func (e *ParseError) Caret(source string) string {
	if e.Range == nil {
		return ""
	}
	lines := strings.Split(source, "\n")
	if e.Range.Start.Line-1 >= len(lines) {
		return ""
	}
	line := lines[e.Range.Start.Line-1]
	width := 1
	if e.Range.End.Line == e.Range.Start.Line && e.Range.End.Character > e.Range.Start.Character {
		width = e.Range.End.Character - e.Range.Start.Character
	}
	return line + "\n" + strings.Repeat(" ", e.Range.Start.Character) + strings.Repeat("^", width)
}

// NewParseError creates a new ParseError with the given kind and message
func NewParseError(kind ErrorKind, message string) *ParseError {
	return &ParseError{Kind: kind, Message: message}
}

// WithSpan sets the byte span of the error
func (e *ParseError) WithSpan(start, end int) *ParseError {
	e.Start = start
	e.End = end
	return e
}

// WithToken records the offending token text
func (e *ParseError) WithToken(text string) *ParseError {
	e.Token = text
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ParseError) WithSuggestion(suggestion string) *ParseError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}
