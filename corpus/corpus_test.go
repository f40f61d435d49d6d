package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/query"
)

func TestBuiltinSuitePasses(t *testing.T) {
	suite := Builtin()
	require.Equal(t, "uspto", suite.Name)
	require.NotEmpty(t, suite.Cases)

	for _, r := range suite.Run() {
		assert.True(t, r.Pass, "%s: %s (got %s)", r.Case.Label(), r.Reason, r.Got)
	}
}

func TestRunReportsMismatches(t *testing.T) {
	suite, err := Decode(`
[[case]]
name = "wrong tree"
query = 'banana AND pie'
expect = '(OR banana pie)'

[[case]]
query = 'banana AND'
expect = 'banana'

[[case]]
query = 'banana'
error = 'anything'

[[case]]
query = '((a))'
error = 'nests deeper'
kind = 'structural'
`)
	require.NoError(t, err)

	results := suite.Run(query.WithMaxDepth(1))
	require.Len(t, results, 4)

	assert.Equal(t, "tree differs", results[0].Reason)
	assert.Equal(t, "(AND banana pie)", results[0].Got)
	assert.Equal(t, "expected a tree, got an error", results[1].Reason)
	assert.Equal(t, "expected an error, got a tree", results[2].Reason)
	assert.Equal(t, "error kind resource_limit, want structural", results[3].Reason)

	passed, failed := Summarize(results)
	assert.Equal(t, 0, passed)
	assert.Equal(t, 4, failed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"both expectations", "[[case]]\nquery = 'a'\nexpect = 'a'\nerror = 'x'", "exactly one of expect or error"},
		{"no expectation", "[[case]]\nquery = 'a'", "exactly one of expect or error"},
		{"unknown kind", "[[case]]\nquery = 'a'\nerror = 'x'\nkind = 'fatal'", `unknown error kind "fatal"`},
		{"future grammar", "grammar = '>= 9.0'\n[[case]]\nquery = 'a'\nexpect = 'a'", "requires grammar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := Decode("[[case]]\nquery = 'a'")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"local\"\n[[case]]\nquery = 'x.TI'\nexpect = '(term x :field TI)'\n"), 0o644))

	suite, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", suite.Name)

	results := suite.Run()
	require.Len(t, results, 1)
	assert.True(t, results[0].Pass)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestCaseLabel(t *testing.T) {
	assert.Equal(t, "named", Case{Name: "named", Query: "a"}.Label())
	assert.Equal(t, `"banana AND"`, Case{Query: "banana AND"}.Label())
}
