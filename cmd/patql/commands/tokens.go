package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/lexer"
)

// TokensCmd prints the lexer's token stream
var TokensCmd = &cobra.Command{
	Use:   "tokens [query...]",
	Short: "Show the token stream of a query",
	Long: `Tokenize a query and print one token per line with its byte span and
source text. Tokenizing never fails; malformed queries still produce tokens.`,
	RunE: runTokens,
}

var tokensFormat string

// tokenView is the structured form of one token
type tokenView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
	Start  int    `json:"start" yaml:"start"`
	End    int    `json:"end" yaml:"end"`
}

func init() {
	TokensCmd.Flags().StringVarP(&tokensFormat, "format", "f", "table", "Output format: table, json, yaml")
}

func runTokens(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	input, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	if err := query.CheckSize(input, query.WithLimits(cfg.Limits())); err != nil {
		return reportParseError(cmd, input, err)
	}

	tokens := lexer.Tokenize(input)
	if tokensFormat != "table" {
		views := make([]tokenView, len(tokens))
		for i, tok := range tokens {
			views[i] = tokenView{
				Kind:   tok.Kind.String(),
				Text:   tok.Text,
				Source: input[tok.Pos:tok.End],
				Start:  tok.Pos,
				End:    tok.End,
			}
		}
		return writeStructured(cmd.OutOrStdout(), tokensFormat, views)
	}

	data := pterm.TableData{{"SPAN", "KIND", "SOURCE"}}
	for _, tok := range tokens {
		span := strconv.Itoa(tok.Pos) + "-" + strconv.Itoa(tok.End)
		data = append(data, []string{span, tok.Kind.String(), input[tok.Pos:tok.End]})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
