package main

import (
	"github.com/spf13/cobra"
	"github.com/v0xg/webagent/internal/agent"
	"github.com/v0xg/webagent/internal/ai"
	"github.com/v0xg/webagent/internal/browser"
	"github.com/v0xg/webagent/internal/metrics"
	"github.com/v0xg/webagent/internal/server"
	"github.com/v0xg/webagent/internal/solution"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task-solving HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd)
		},
	}
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host to run the service on")
	cmd.Flags().IntVar(&port, "port", 9000, "Port to run the service on")
	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := a.cfg

	collector := metrics.NewCollector("webagent", a.logger)
	cache, err := solution.NewCache(solution.CacheConfig{
		Size:       cfg.Cache.Size,
		TTL:        cfg.Cache.TTL,
		MinActions: cfg.Cache.MinActions,
		KeyByURL:   cfg.Cache.KeyByURL,
	}, a.logger)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Random:  agent.NewRandomProducer(nil),
		Cache:   cache,
		Metrics: collector,
	}

	if cfg.Store.Enabled {
		store, err := solution.NewRedisStore(ctx, solution.StoreConfig{
			Addr:     cfg.Store.Addr,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
			Prefix:   cfg.Store.Prefix,
			TTL:      cfg.Store.TTL,
		}, a.logger)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Store = store
	}

	crawler := browser.NewLazySession(ctx, a.browserOptions(), a.logger)
	defer crawler.Close()

	provider, err := ai.NewProvider(ctx, a.llmConfig())
	if err != nil {
		a.logger.Warn("llm producer disabled", zap.Error(err))
	} else {
		deps.LLM = agent.NewLLMProducer(ai.NewGenerator(provider, a.logger), crawler, a.logger)
	}

	if cfg.Agent.Command != "" {
		p, err := agent.NewCommandProducer(agent.CommandConfig{
			Command: cfg.Agent.Command,
			Args:    cfg.Agent.Args,
			Timeout: cfg.Agent.Timeout,
		}, a.logger)
		if err != nil {
			return err
		}
		deps.Agent = p
	} else {
		a.logger.Warn("trace agent disabled, set agent.command to enable /solve_task")
	}

	return server.New(cfg.Server, deps, a.logger).Run(ctx)
}

func (a *app) llmConfig() ai.Config {
	l := a.cfg.LLM
	return ai.Config{
		Provider:    l.Provider,
		Model:       l.Model,
		APIKey:      l.APIKey,
		BaseURL:     l.BaseURL,
		MaxTokens:   l.MaxTokens,
		Temperature: l.Temperature,

		RequestsPerMinute: l.RateLimit,
		Burst:             l.RateBurst,
	}
}
