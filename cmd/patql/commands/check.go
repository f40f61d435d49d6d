package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/patql/corpus"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query"
)

// CheckCmd runs golden query corpora against the parser
var CheckCmd = &cobra.Command{
	Use:   "check [corpus.toml...]",
	Short: "Run a golden query corpus",
	Long: `Parse every case of one or more corpus files and compare the trees or
errors with the recorded expectations. Without arguments the built-in
USPTO corpus is used.

Examples:
  patql check
  patql check --all testdata/regressions.toml`,
	RunE: runCheck,
}

var checkAll bool

func init() {
	CheckCmd.Flags().BoolVar(&checkAll, "all", false, "List passing cases too")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var suites []*corpus.Suite
	if len(args) == 0 {
		suites = append(suites, corpus.Builtin())
	}
	for _, path := range args {
		suite, err := corpus.Load(path)
		if err != nil {
			return err
		}
		suites = append(suites, suite)
	}

	out := cmd.OutOrStdout()
	showPassing := checkAll || logger.ShouldOutput(verbosity(cmd), logger.OutputProgress)
	var totalPassed, totalFailed int
	for _, suite := range suites {
		results := suite.Run(query.WithLimits(cfg.Limits()))
		passed, failed := corpus.Summarize(results)
		totalPassed += passed
		totalFailed += failed

		fmt.Fprintf(out, "%s: %d cases\n", suiteName(suite), len(results))
		for _, r := range results {
			switch {
			case !r.Pass:
				fmt.Fprintf(out, "  %s %s: %s\n", pterm.Red("FAIL"), r.Case.Label(), r.Reason)
				if r.Case.Expect != "" {
					fmt.Fprintf(out, "       want %s\n", r.Case.Expect)
				} else {
					fmt.Fprintf(out, "       want error containing %q\n", r.Case.Error)
				}
				fmt.Fprintf(out, "       got  %s\n", r.Got)
			case showPassing:
				fmt.Fprintf(out, "  %s %s\n", pterm.Green("ok"), r.Case.Label())
			}
		}
	}

	fmt.Fprintf(out, "%d passed, %d failed\n", totalPassed, totalFailed)
	if totalFailed > 0 {
		return ErrReported
	}
	return nil
}

func suiteName(s *corpus.Suite) string {
	if s.Name != "" {
		return s.Name
	}
	return "corpus"
}
