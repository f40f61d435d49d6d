package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
)

// ParseCmd parses one query and prints its tree
var ParseCmd = &cobra.Command{
	Use:   "parse [query...]",
	Short: "Parse a query and print its syntax tree",
	Long: `Parse a patent search query and print the resulting syntax tree.

The query is taken from the arguments, joined with spaces, or from stdin
when no arguments are given.

Formats:
  sexpr   compact S-expression (default)
  json    tagged tree as JSON
  yaml    tagged tree as YAML
  query   normalized query text that parses back to the same tree

Examples:
  patql parse 'banana ADJ15 tree monkey.ATT'
  patql parse --normalize 'PRAN/smith & "ice cream"'
  echo 'a NEAR3 b' | patql parse --format json`,
	RunE: runParse,
}

var (
	parseFormat    string
	parseNormalize bool
	parseTokens    bool
)

func init() {
	ParseCmd.Flags().StringVarP(&parseFormat, "format", "f", "sexpr", "Output format: sexpr, json, yaml, query")
	ParseCmd.Flags().BoolVar(&parseNormalize, "normalize", false, "Print normalized query text (same as --format query)")
	ParseCmd.Flags().BoolVar(&parseTokens, "tokens", false, "Print the token stream before the tree")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	input, err := readQuery(cmd, args)
	if err != nil {
		return err
	}

	format := parseFormat
	if parseNormalize {
		format = "query"
	}
	switch format {
	case "sexpr", "json", "yaml", "query":
	default:
		return errors.Newf("unsupported format: %s (supported: sexpr, json, yaml, query)", format)
	}

	out := cmd.OutOrStdout()
	v := verbosity(cmd)
	if parseTokens || logger.ShouldOutput(v, logger.OutputTokens) {
		for _, tok := range lexer.Tokenize(input) {
			fmt.Fprintln(out, tok)
		}
		fmt.Fprintln(out)
	}

	start := time.Now()
	clause, err := query.Parse(input, query.WithLimits(cfg.Limits()))
	if logger.ShouldOutput(v, logger.OutputTiming) {
		fmt.Fprintf(cmd.ErrOrStderr(), "parsed %d bytes in %s\n", len(input), time.Since(start))
	}
	if err != nil {
		return reportParseError(cmd, input, err)
	}

	switch format {
	case "sexpr":
		fmt.Fprintln(out, ast.Print(clause))
	case "query":
		fmt.Fprintln(out, ast.Format(clause))
	default:
		return writeStructured(out, format, ast.Encode(clause))
	}
	return nil
}
