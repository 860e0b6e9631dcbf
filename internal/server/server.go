// Package server exposes the task producers over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/agent"
	"github.com/v0xg/webagent/internal/config"
	"github.com/v0xg/webagent/internal/metrics"
	"github.com/v0xg/webagent/internal/solution"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const greeting = "Hello, I am a web agent!"

// SolutionStore persists finished solutions between restarts
type SolutionStore interface {
	Find(ctx context.Context, prompt, url string) ([]action.Action, error)
	Save(ctx context.Context, prompt, url string, actions []action.Action) error
}

// Deps are the collaborators behind the routes. Random is required; a nil
// LLM or Agent answers its route with 503.
type Deps struct {
	Random  agent.Producer
	LLM     agent.Producer
	Agent   agent.Producer
	Cache   *solution.Cache
	Store   SolutionStore
	Metrics *metrics.Collector
}

// Server is the HTTP front of the agent
type Server struct {
	cfg        config.ServerConfig
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
	logger     *zap.Logger

	// one task at a time, the browser and the agent are not shared
	solveMu sync.Mutex
}

// New builds the server and its routes
func New(cfg config.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:       cfg,
		deps:      deps,
		engine:    engine,
		startTime: time.Now(),
		logger:    logger.Named("server"),
	}
	engine.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	engine.Use(cors.New(corsConfig))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, greeting) })
	s.engine.GET("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	s.engine.POST("/random_solve_task", s.handleRandom)
	s.engine.POST("/openai_solve_task", s.handleLLM)
	s.engine.POST("/solve_task", s.handleSolve)
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)
		}
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)
	}
}
