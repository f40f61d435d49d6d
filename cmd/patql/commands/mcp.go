package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/patql/mcp"
)

// MCPCmd runs the Model Context Protocol tool server over stdio
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdio",
	Long: `Expose the parser to Model Context Protocol clients over stdin/stdout.

Tools:
  parse_query     parse a query into an S-expression, JSON tree or normalized text
  tokenize_query  list the lexer tokens of a query`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return mcp.NewServer(cfg.Limits()).Serve()
	},
}
