package action

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExecFunc executes one action against a driver
type ExecFunc func(ctx context.Context, d Driver, a Action) error

// Middleware wraps an ExecFunc
type Middleware func(next ExecFunc) ExecFunc

// Execute looks up the executor registered for a's kind
func Execute(ctx context.Context, d Driver, a Action) error {
	if a == nil {
		return ErrUnsupportedActionKind
	}
	e, err := registry.resolve(string(a.Kind()))
	if err != nil {
		return err
	}
	return e.exec(ctx, d, a)
}

// Chain composes middlewares around exec; the first one is outermost
func Chain(exec ExecFunc, mws ...Middleware) ExecFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		exec = mws[i](exec)
	}
	return exec
}

// WithLogging logs every execution and passes errors through unchanged.
// It also makes the logger available to executors through the context.
func WithLogging(logger *zap.Logger) Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(ctx context.Context, d Driver, a Action) error {
			l := logger.With(zap.String("action", string(a.Kind())))
			if s, ok := a.(Selectable); ok && s.Target() != nil {
				l = l.With(zap.Stringer("selector", s.Target()))
			}
			l.Debug("executing action", zap.Any("data", a))
			start := time.Now()
			err := next(ContextWithLogger(ctx, l), d, a)
			if err != nil {
				l.Warn("action failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
				return err
			}
			l.Debug("action done", zap.Duration("elapsed", time.Since(start)))
			return nil
		}
	}
}

// Recorder receives execution outcomes; metrics.Collector implements it
type Recorder interface {
	ObserveAction(kind string, err error, elapsed time.Duration)
}

// WithMetrics reports every execution outcome to rec
func WithMetrics(rec Recorder) Middleware {
	return func(next ExecFunc) ExecFunc {
		return func(ctx context.Context, d Driver, a Action) error {
			start := time.Now()
			err := next(ctx, d, a)
			rec.ObserveAction(string(a.Kind()), err, time.Since(start))
			return err
		}
	}
}

type loggerKey struct{}

// ContextWithLogger attaches a logger for executors to use
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// Observation is output produced by an observational action
type Observation struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

type observationsKey struct{}

type observations struct{ items []Observation }

func withObservations(ctx context.Context, obs *observations) context.Context {
	return context.WithValue(ctx, observationsKey{}, obs)
}

func observe(ctx context.Context, kind Kind, text string) {
	if obs, ok := ctx.Value(observationsKey{}).(*observations); ok {
		obs.items = append(obs.items, Observation{Kind: kind, Text: text})
	}
}
