// Package corpus runs suites of queries against the parser and compares
// the trees or errors they produce with recorded expectations.
//
// A suite is a TOML file:
//
//	name = "uspto"
//	grammar = "^1.0"
//
//	[[case]]
//	query = 'banana ADJ15 tree'
//	expect = '(ADJ/15 banana tree)'
//
//	[[case]]
//	query = 'banana AND'
//	error = 'missing its right operand'
//	kind = 'structural'
package corpus

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/parser"
	"github.com/teranos/patql/version"
)

//go:embed uspto.toml
var builtinSuite string

// Suite is a named list of cases.
type Suite struct {
	Name string `toml:"name"`
	// Grammar is a semver constraint the running grammar must satisfy.
	Grammar string `toml:"grammar"`
	Cases   []Case `toml:"case"`
}

// Case is one query with either an expected tree or an expected error.
type Case struct {
	Name  string `toml:"name"`
	Query string `toml:"query"`
	// Expect is the S-expression the query must print as.
	Expect string `toml:"expect"`
	// Error is a substring of the expected error message.
	Error string `toml:"error"`
	// Kind optionally pins the error kind: structural or resource_limit.
	Kind string `toml:"kind"`
}

// Label names the case for reports.
func (c Case) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%q", c.Query)
}

// Result is the outcome of running one case.
type Result struct {
	Case   Case
	Got    string // printed tree or error message
	Pass   bool
	Reason string // why a failing case failed
}

// Builtin returns the suite of USPTO queries shipped with patql.
func Builtin() *Suite {
	suite, err := Decode(builtinSuite)
	if err != nil {
		panic(fmt.Sprintf("builtin corpus is invalid: %v", err))
	}
	return suite
}

// Load reads a suite from a TOML file.
func Load(path string) (*Suite, error) {
	var suite Suite
	if _, err := toml.DecodeFile(path, &suite); err != nil {
		return nil, errors.Wrapf(err, "failed to read corpus %s", path)
	}
	if err := suite.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid corpus %s", path)
	}
	return &suite, nil
}

// Decode parses a suite from TOML text.
func Decode(data string) (*Suite, error) {
	var suite Suite
	if _, err := toml.Decode(data, &suite); err != nil {
		return nil, errors.Wrap(err, "failed to decode corpus")
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// Validate checks every case has exactly one expectation and that the
// suite targets the running grammar.
func (s *Suite) Validate() error {
	if s.Grammar != "" {
		if err := version.CheckGrammar(s.Grammar); err != nil {
			return errors.WithHint(err, "the corpus was written for a different query grammar")
		}
	}
	for i, c := range s.Cases {
		if (c.Expect == "") == (c.Error == "") {
			return errors.NewInvalidRequestError("case %d (%s) needs exactly one of expect or error", i+1, c.Label())
		}
		switch parser.ErrorKind(c.Kind) {
		case "", parser.ErrorKindStructural, parser.ErrorKindResourceLimit:
		default:
			return errors.NewInvalidRequestError("case %d (%s) has unknown error kind %q", i+1, c.Label(), c.Kind)
		}
	}
	return nil
}

// Run parses every case and compares the outcome.
func (s *Suite) Run(opts ...query.Option) []Result {
	results := make([]Result, 0, len(s.Cases))
	for _, c := range s.Cases {
		results = append(results, runCase(c, opts))
	}
	return results
}

func runCase(c Case, opts []query.Option) Result {
	clause, err := query.Parse(c.Query, opts...)
	if err != nil {
		r := Result{Case: c, Got: err.Error()}
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			r.Got = pe.Message
		}
		switch {
		case c.Error == "":
			r.Reason = "expected a tree, got an error"
		case !strings.Contains(r.Got, c.Error):
			r.Reason = fmt.Sprintf("error does not mention %q", c.Error)
		case c.Kind != "" && pe != nil && string(pe.Kind) != c.Kind:
			r.Reason = fmt.Sprintf("error kind %s, want %s", pe.Kind, c.Kind)
		default:
			r.Pass = true
		}
		return r
	}

	r := Result{Case: c, Got: ast.Print(clause)}
	switch {
	case c.Expect == "":
		r.Reason = "expected an error, got a tree"
	case r.Got != c.Expect:
		r.Reason = "tree differs"
	default:
		r.Pass = true
	}
	return r
}

// Summarize counts passing and failing results.
func Summarize(results []Result) (passed, failed int) {
	for _, r := range results {
		if r.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
