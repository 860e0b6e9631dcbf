package main

import (
	"github.com/spf13/cobra"
	"github.com/v0xg/webagent/internal/agent"
	"github.com/v0xg/webagent/internal/solution"
	"github.com/v0xg/webagent/internal/trace"
)

func newNormalizeCmd(a *app) *cobra.Command {
	var taskID, agentID string
	cmd := &cobra.Command{
		Use:   "normalize <trace.json>",
		Short: "Convert an agent step trace into a task solution",
		Long: `normalize reads the step log of a browsing agent (a JSON array of steps,
or - for stdin) and prints the equivalent task solution.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			actions, err := trace.NewNormalizer(a.logger).NormalizeJSON(data)
			if err != nil {
				return err
			}
			return a.printJSON(solution.New(taskID, agentID, actions))
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "Task ID (generated when empty)")
	cmd.Flags().StringVar(&agentID, "agent-id", agent.LLMAgentID, "Agent ID recorded in the solution")
	return cmd
}
