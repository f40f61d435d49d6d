package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/patql/cmd/patql/commands"
	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
)

var rootCmd = &cobra.Command{
	Use:   "patql",
	Short: "patql - USPTO patent search query parser",
	Long: `patql - parse USPTO-style patent search queries into syntax trees.

Queries combine terms and "quoted phrases" with boolean operators
(AND OR XOR NOT & |), proximity operators (NEAR ADJ WITH SAME, with an
optional distance such as ADJ15), field codes (monkey.ATT, PRAN/smith)
and fuzzy markers ("banana soup"~7). Text after # is a comment.

Available commands:
  parse    - Parse a query and print its tree
  tokens   - Show the lexer's token stream
  check    - Run a golden query corpus
  serve    - Start the HTTP/WebSocket parsing server
  lsp      - Run the language server on stdio
  mcp      - Run the MCP tool server on stdio
  am       - Manage patql configuration ("I am")
  version  - Show version information

Examples:
  patql parse 'banana ADJ15 tree monkey.ATT'
  patql parse --format json '"ice cream"~2 OR gelato'
  patql check                 # run the built-in corpus
  patql serve -v              # serve on 127.0.0.1:8817`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Read configuration from this file instead of the config cascade")

	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.TokensCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.LSPCmd)
	rootCmd.AddCommand(commands.MCPCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, commands.ErrReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
