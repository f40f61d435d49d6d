package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/patql/lsp"
)

// LSPCmd runs the language server over stdio
var LSPCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the query language server on stdio",
	Long: `Run a Language Server Protocol server on stdin/stdout for editors that
edit patent queries. It publishes diagnostics, semantic tokens and hover
text. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return lsp.ServeStdio(lsp.NewService(cfg.Limits()))
	},
}
