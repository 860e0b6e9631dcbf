package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/webagent/internal/agent"
	"github.com/v0xg/webagent/internal/ai"
	"github.com/v0xg/webagent/internal/browser"
	"github.com/v0xg/webagent/internal/solution"
)

type solveFlags struct {
	strategy string
	task     agent.Task
	htmlFile string
	width    int
	height   int
}

func newSolveCmd(a *app) *cobra.Command {
	f := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Produce a task solution once and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.strategy, "strategy", "llm", "Producer: random, llm or agent")
	cmd.Flags().StringVar(&f.task.ID, "id", "", "Task ID (generated when empty)")
	cmd.Flags().StringVarP(&f.task.Prompt, "prompt", "p", "", "Task prompt")
	cmd.Flags().StringVarP(&f.task.URL, "url", "u", "", "Start page URL")
	cmd.Flags().StringVar(&f.htmlFile, "html", "", "File holding the start page HTML (crawled when empty)")
	cmd.Flags().BoolVar(&f.task.IsWebReal, "real", false, "The start page is a real web site")
	cmd.Flags().IntVar(&f.width, "screen-width", agent.DefaultScreenWidth, "Screen width")
	cmd.Flags().IntVar(&f.height, "screen-height", agent.DefaultScreenHeight, "Screen height")
	return cmd
}

func (a *app) solve(cmd *cobra.Command, f *solveFlags) error {
	ctx := cmd.Context()
	task := f.task
	task.Specifications = &agent.Specifications{ScreenWidth: f.width, ScreenHeight: f.height}
	if f.htmlFile != "" {
		data, err := readInput(f.htmlFile)
		if err != nil {
			return err
		}
		task.HTML = string(data)
	}

	var producer agent.Producer
	switch f.strategy {
	case "random":
		producer = agent.NewRandomProducer(nil)
	case "llm":
		if task.Prompt == "" || task.URL == "" {
			return errors.New("--prompt and --url are required")
		}
		provider, err := ai.NewProvider(ctx, a.llmConfig())
		if err != nil {
			return err
		}
		crawler := browser.NewLazySession(ctx, a.browserOptions(), a.logger)
		defer crawler.Close()
		producer = agent.NewLLMProducer(ai.NewGenerator(provider, a.logger), crawler, a.logger)
	case "agent":
		p, err := agent.NewCommandProducer(agent.CommandConfig{
			Command: a.cfg.Agent.Command,
			Args:    a.cfg.Agent.Args,
			Timeout: a.cfg.Agent.Timeout,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("%w (set agent.command)", err)
		}
		producer = p
	default:
		return fmt.Errorf("unknown strategy %q (supported: random, llm, agent)", f.strategy)
	}

	res, err := producer.Produce(ctx, task)
	if err != nil {
		return err
	}
	return a.printJSON(solution.New(task.ID, producer.AgentID(), res.Actions))
}
