package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/v0xg/webagent/internal/browser"
	"github.com/v0xg/webagent/internal/config"
	"github.com/v0xg/webagent/internal/observability"
	"go.uber.org/zap"
)

// app carries what PersistentPreRunE prepared for the subcommands
type app struct {
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "webagent",
		Short: "Browser action layer and task-solving web agent",
		Long: `webagent turns natural-language web tasks into browser action lists,
serves them over HTTP, and replays them in Chromium.

Examples:
  webagent serve --port 9000
  webagent solve --strategy llm --url https://shop.test --prompt "buy the boots"
  webagent replay solution.json --record replay.gif
  webagent normalize trace.json --task-id t1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logger.level")

	root.AddCommand(
		newServeCmd(a),
		newSolveCmd(a),
		newReplayCmd(a),
		newNormalizeCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = observability.Setup(cfg.Logger)
	return nil
}

func (a *app) browserOptions() browser.Options {
	b := a.cfg.Browser
	return browser.Options{
		Width:         b.Width,
		Height:        b.Height,
		Headless:      b.Headless,
		Bin:           b.Bin,
		ControlURL:    b.ControlURL,
		ProfileDir:    b.ProfileDir,
		ActionTimeout: b.Timeout,
	}
}

// printJSON writes v indented to the command output
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
