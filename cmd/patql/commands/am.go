package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage patql configuration",
	Long: `am - Manage patql configuration ("I am")

Configuration sources (later overrides earlier):
  1. Built-in defaults
  2. System config (/etc/patql/patql.toml)
  3. User config (~/.patql/patql.toml)
  4. Project config (nearest patql.toml at or above the working directory)
  5. Environment variables (PATQL_* prefix, e.g. PATQL_PARSER_MAX_DEPTH)

Examples:
  patql am show                        # Show current configuration
  patql am show --format yaml          # Show configuration as YAML
  patql am get parser.max_depth        # Get one value and its source
  patql am set parser.max_depth 64     # Write a value to the project config
  patql am where                       # Show where each value came from`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value and where it came from",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in a config file",
	Long: `Set a dotted key in a config file, keeping its other settings and rotating
backups (.back1 to .back3). The project config is used when one exists,
otherwise ./patql.toml is created. The resulting configuration must validate.`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file populated with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var (
	configFormat string
	setFile      string
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amSetCmd.Flags().StringVar(&setFile, "file", "", "Config file to modify (default: project config or ./patql.toml)")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json", "yaml":
		return writeStructured(out, configFormat, cfg)
	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# patql configuration\n%s", data)
		return nil
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
}

func runAmGet(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	setting, ok := am.Lookup(args[0])
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "configuration key %q", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%v\t(%s: %s)\n", setting.Value, setting.Source, setting.SourcePath)
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if _, ok := am.Lookup(key); !ok {
		return errors.WithHint(
			errors.Wrapf(errors.ErrNotFound, "configuration key %q", key),
			"run 'patql am where' to list the known keys")
	}

	path := setFile
	if path == "" {
		path = am.FindProjectConfig()
	}
	if path == "" {
		path = am.ConfigFileName
	}

	if err := am.SetValue(path, key, parseValue(raw)); err != nil {
		return err
	}
	if _, err := am.LoadFromFile(path); err != nil {
		return errors.WithHint(err, fmt.Sprintf("the previous file was kept as %s.back1", path))
	}
	am.Reset()

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s written to %s\n", key, raw, path)
	return nil
}

// parseValue keeps numbers and booleans typed in the TOML file
func parseValue(raw string) interface{} {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Green("✓")+" Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}
	intro := am.Introspect()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintln(out, "  2. [SYSTEM]   /etc/patql/patql.toml")
	fmt.Fprintln(out, "  3. [USER]     ~/.patql/patql.toml")
	fmt.Fprintln(out, "  4. [PROJECT]  ./patql.toml (searches up directories)")
	fmt.Fprintln(out, "  5. [ENV]      PATQL_* environment variables")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Files loaded:")
	if len(intro.Files) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, f := range intro.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	fmt.Fprintln(out)

	data := pterm.TableData{{"KEY", "VALUE", "SOURCE", "FROM"}}
	for _, s := range intro.Settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.WithHint(errors.Newf("%s already exists", path), "use --force to overwrite it")
	}

	if err := am.Save(am.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
