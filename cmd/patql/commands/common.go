// Package commands implements the patql command line.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query/parser"
)

// ErrReported is returned by commands that already printed their failure
var ErrReported = errors.New("error already reported")

// loadConfig honours --config and otherwise reads the config cascade.
// It also applies the configured log theme.
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	var (
		cfg *am.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = am.LoadFromFile(path)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	logger.SetTheme(cfg.Log.Theme)
	return cfg, nil
}

// verbosity is the -v count from the root command, 0 when absent
func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// readQuery joins the positional arguments, or reads stdin when there are
// none or the only argument is "-". One trailing newline is dropped.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", errors.Wrap(err, "failed to read query from stdin")
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

// reportParseError prints a parse failure with the offending span marked
func reportParseError(cmd *cobra.Command, input string, err error) error {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		return err
	}
	w := cmd.ErrOrStderr()
	if caret := pe.Caret(input); caret != "" {
		fmt.Fprintln(w, caret)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, pe.FormatError(parser.ErrorContextTerminal))
	return ErrReported
}

// writeStructured renders v as indented JSON or YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal JSON")
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "failed to marshal YAML")
		}
		fmt.Fprint(w, string(data))
	default:
		return errors.Newf("unsupported format: %s", format)
	}
	return nil
}
