package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/browser"
	"github.com/v0xg/webagent/internal/metrics"
	"github.com/v0xg/webagent/internal/recorder"
	"github.com/v0xg/webagent/internal/solution"
	"go.uber.org/zap"
)

type replayFlags struct {
	url      string
	record   string
	fps      int
	gifWidth uint
	metrics  string
}

func newReplayCmd(a *app) *cobra.Command {
	f := &replayFlags{}
	cmd := &cobra.Command{
		Use:   "replay <solution.json>",
		Short: "Execute a task solution in the browser",
		Long: `replay runs every action of a task solution in order against a Chromium
page and stops at the first failure. Use - to read the solution from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.url, "url", "u", "", "Open this URL before the first action")
	cmd.Flags().StringVarP(&f.record, "record", "o", "", "Write a GIF of the replay to this file")
	cmd.Flags().IntVar(&f.fps, "fps", 10, "GIF frames per second")
	cmd.Flags().UintVar(&f.gifWidth, "gif-width", 800, "GIF width in pixels")
	cmd.Flags().StringVar(&f.metrics, "metrics", "", "Write action metrics in Prometheus text format to this file")
	return cmd
}

func (a *app) replay(cmd *cobra.Command, path string, f *replayFlags) error {
	ctx := cmd.Context()

	data, err := readInput(path)
	if err != nil {
		return err
	}
	var ts solution.TaskSolution
	if err := ts.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode solution: %w", err)
	}

	session, err := browser.Launch(ctx, a.browserOptions(), a.logger)
	if err != nil {
		return err
	}
	defer session.Close()

	d, err := session.NewDriver(ctx)
	if err != nil {
		return err
	}
	if f.url != "" {
		if err := d.Goto(ctx, f.url); err != nil {
			return err
		}
	}

	collector := metrics.NewCollector("webagent", a.logger)
	runner := a.newReplayRunner(collector)
	var rec *recorder.Recorder
	if f.record != "" {
		rec = recorder.New(recorder.Options{FPS: f.fps, MaxWidth: f.gifWidth}, a.logger)
		rec.Start(ctx, d)
		runner.AfterStep = rec.AfterStep
	}

	sessionID := ts.TaskID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	report := runner.Run(ctx, d, sessionID, ts.Actions)

	if rec != nil {
		size, err := rec.WriteGIF(f.record)
		if err != nil {
			a.logger.Error("gif not written", zap.Error(err))
		} else {
			a.logger.Info("gif saved", zap.String("path", f.record), zap.Int64("bytes", size))
		}
	}

	if f.metrics != "" {
		if err := collector.WriteTextfile(f.metrics); err != nil {
			a.logger.Error("metrics not written", zap.Error(err))
		}
	}

	if err := a.printJSON(report); err != nil {
		return err
	}
	return report.Err
}

func (a *app) newReplayRunner(collector *metrics.Collector) *action.Runner {
	return action.NewRunner(a.logger, action.WithLogging(a.logger), action.WithMetrics(collector))
}
