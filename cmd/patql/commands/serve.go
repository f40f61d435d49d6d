package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/server"
)

// ServeCmd starts the HTTP and WebSocket front end
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the query parsing server",
	Long: `Serve the parser over HTTP and WebSocket.

Routes:
  POST /api/parse     parse {"query": "..."} into a tree
  POST /api/tokens    tokenize a query
  POST /api/analyze   tokens, diagnostics and tree for editors
  GET  /ws            live parsing over WebSocket
  GET  /lsp           language server over WebSocket
  GET  /health        liveness and active limits
  GET  /metrics       Prometheus metrics

Parser limits are reloaded when the config file changes.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv := server.New(cfg)

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = watchedConfigPath()
	}
	if configPath != "" {
		stop, err := watchConfig(srv, configPath, cmd)
		if err != nil {
			logger.Warnw("Config reload disabled", logger.FieldFile, configPath, logger.FieldError, err)
		} else {
			defer stop()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pterm.Info.Printf("patql server listening on http://%s\n", cfg.Server.Addr)
	if v := verbosity(cmd); logger.ShouldOutput(v, logger.OutputStartup) {
		limits := cfg.Limits()
		pterm.Info.Printf("Parser limits: %d bytes, depth %d\n", limits.MaxInputBytes, limits.MaxDepth)
		pterm.Info.Printf("Log level: %s\n", logger.LevelName(v))
		if configPath != "" {
			pterm.Info.Printf("Config: %s\n", configPath)
		}
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// watchedConfigPath picks the highest-precedence config file in use
func watchedConfigPath() string {
	if project := am.FindProjectConfig(); project != "" {
		return project
	}
	files := am.LoadedFiles()
	if len(files) == 0 {
		return ""
	}
	return files[len(files)-1]
}

func watchConfig(srv *server.Server, path string, cmd *cobra.Command) (func(), error) {
	explicit, _ := cmd.Flags().GetString("config")
	load := am.LoadFunc(nil)
	if explicit != "" {
		load = func() (*am.Config, error) { return am.LoadFromFile(explicit) }
	}

	w, err := am.NewConfigWatcher(path, load)
	if err != nil {
		return nil, err
	}
	srv.WatchConfig(w)
	am.SetGlobalWatcher(w)
	w.Start()
	logger.Infow("Watching config for parser limit changes", logger.FieldFile, path)

	return func() {
		if err := w.Stop(); err != nil {
			logger.Debugw("Failed to stop config watcher", logger.FieldError, err)
		}
	}, nil
}
