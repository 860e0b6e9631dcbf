package action

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step describes one completed execution, passed to Runner.AfterStep
type Step struct {
	Index   int
	Action  Action
	Err     error
	Elapsed time.Duration
}

// Report summarizes a run
type Report struct {
	Executed     int           `json:"executed"`
	Failed       int           `json:"failed"`
	Err          error         `json:"-"`
	Observations []Observation `json:"observations,omitempty"`
}

// Runner executes action lists strictly in order
type Runner struct {
	exec   ExecFunc
	logger *zap.Logger

	// AfterStep is called after every executed action, failed or not
	AfterStep func(ctx context.Context, d Driver, step Step)
}

// NewRunner creates a Runner dispatching through the registry, wrapped by mws
func NewRunner(logger *zap.Logger, mws ...Middleware) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		exec:   Chain(Execute, mws...),
		logger: logger.Named("runner"),
	}
}

// Run executes actions against d and stops at the first failure. The context
// is checked between actions, so cancellation abandons the remaining ones.
func (r *Runner) Run(ctx context.Context, d Driver, sessionID string, actions []Action) Report {
	logger := r.logger.With(zap.String("session", sessionID))
	obs := &observations{}
	ctx = withObservations(ContextWithLogger(ctx, logger), obs)

	var report Report
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			report.Err = fmt.Errorf("run abandoned before step %d: %w", i+1, err)
			break
		}
		start := time.Now()
		err := r.exec(ctx, d, a)
		elapsed := time.Since(start)
		report.Executed++

		if r.AfterStep != nil {
			r.AfterStep(ctx, d, Step{Index: i, Action: a, Err: err, Elapsed: elapsed})
		}
		if err != nil {
			report.Failed++
			report.Err = fmt.Errorf("step %d: %w", i+1, err)
			logger.Error("stopping run", zap.Int("step", i+1), zap.Error(err))
			break
		}
	}
	report.Observations = obs.items
	logger.Info("run finished",
		zap.Int("executed", report.Executed),
		zap.Int("total", len(actions)),
		zap.Int("failed", report.Failed))
	return report
}
