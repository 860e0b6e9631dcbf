package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/trace"
	"go.uber.org/zap"
)

// CommandConfig locates the external agent program
type CommandConfig struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// CommandProducer runs an external browsing agent once per task. The task
// is written to a temporary file whose path is passed as the next-to-last
// argument; the agent writes its answer to the file named by the last one.
//
// The answer is a JSON array, either of canonical action records or of
// agent trace steps, optionally wrapped as {"done": bool, "steps": [...]}.
type CommandProducer struct {
	cfg        CommandConfig
	factory    *action.Factory
	normalizer *trace.Normalizer
	logger     *zap.Logger
}

// NewCommandProducer builds the producer
func NewCommandProducer(cfg CommandConfig, logger *zap.Logger) (*CommandProducer, error) {
	if cfg.Command == "" {
		return nil, errors.New("agent command is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandProducer{
		cfg:        cfg,
		factory:    action.NewFactory(logger),
		normalizer: trace.NewNormalizer(logger),
		logger:     logger.Named("agent"),
	}, nil
}

func (p *CommandProducer) AgentID() string { return LLMAgentID }

type agentInput struct {
	Task
	MessageContext string `json:"message_context"`
}

type agentOutput struct {
	Done  *bool           `json:"done"`
	Steps json.RawMessage `json:"steps"`
}

func (p *CommandProducer) Produce(ctx context.Context, task Task) (Result, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	input, err := json.Marshal(agentInput{Task: task, MessageContext: MessageContext(task)})
	if err != nil {
		return Result{}, fmt.Errorf("encode task: %w", err)
	}

	inPath, err := writeTemp("webagent-task-*.json", input)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(inPath)

	outPath, err := writeTemp("webagent-actions-*.json", nil)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(outPath)

	args := append(append([]string{}, p.cfg.Args...), inPath, outPath)
	cmd := exec.CommandContext(ctx, p.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	p.logger.Debug("starting agent", zap.String("task_id", task.ID), zap.String("command", p.cfg.Command))
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("agent %s failed: %w: %s", p.cfg.Command, err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Result{}, fmt.Errorf("read agent output: %w", err)
	}
	res, err := p.decodeOutput(data)
	if err != nil {
		return Result{}, err
	}

	p.logger.Info("agent finished",
		zap.String("task_id", task.ID),
		zap.Int("actions", len(res.Actions)),
		zap.Bool("done", res.Done),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (p *CommandProducer) decodeOutput(data []byte) (Result, error) {
	data = bytes.TrimSpace(data)
	done := true
	steps := data
	if len(data) > 0 && data[0] == '{' {
		var out agentOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return Result{}, fmt.Errorf("decode agent output: %w", err)
		}
		if out.Done != nil {
			done = *out.Done
		}
		steps = out.Steps
	}
	if len(steps) == 0 || string(steps) == "null" {
		return Result{Done: done}, nil
	}

	records, err := action.DecodeRecords(steps)
	if err != nil {
		return Result{}, fmt.Errorf("decode agent output: %w", err)
	}
	if canonical(records) {
		return Result{Actions: p.factory.CreateAll(records), Done: done}, nil
	}

	actions, err := p.normalizer.NormalizeJSON(steps)
	if err != nil {
		return Result{}, fmt.Errorf("normalize agent trace: %w", err)
	}
	return Result{Actions: actions, Done: done}, nil
}

// canonical reports whether every record names a registered action kind
func canonical(records []map[string]any) bool {
	for _, r := range records {
		kind, _ := r["type"].(string)
		if _, err := action.Lookup(kind); err != nil {
			return false
		}
	}
	return true
}

func writeTemp(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i != -1 {
		return s[i+1:]
	}
	return s
}
