package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/agent"
	"github.com/v0xg/webagent/internal/metrics"
	"github.com/v0xg/webagent/internal/solution"
	"go.uber.org/zap"
)

// taskRequest distinguishes absent fields from empty ones
type taskRequest struct {
	ID             *string               `json:"id"`
	Prompt         *string               `json:"prompt"`
	URL            *string               `json:"url"`
	HTML           string                `json:"html"`
	IsWebReal      bool                  `json:"is_web_real"`
	Specifications *agent.Specifications `json:"specifications"`
	RelevantData   map[string]any        `json:"relevant_data"`
}

func (r taskRequest) task() agent.Task {
	t := agent.Task{
		HTML:           r.HTML,
		IsWebReal:      r.IsWebReal,
		Specifications: r.Specifications,
		RelevantData:   r.RelevantData,
	}
	if r.ID != nil {
		t.ID = *r.ID
	}
	if r.Prompt != nil {
		t.Prompt = *r.Prompt
	}
	if r.URL != nil {
		t.URL = *r.URL
	}
	return t
}

// bindTask decodes the body; an empty body is an empty task
func bindTask(c *gin.Context) (taskRequest, bool) {
	var req taskRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.String(http.StatusBadRequest, "Invalid request format")
		return req, false
	}
	return req, true
}

// requireFields answers 400 for the first missing field
func requireFields(c *gin.Context, req taskRequest, prompt bool) bool {
	switch {
	case req.ID == nil:
		c.String(http.StatusBadRequest, "Task ID not provided")
	case prompt && req.Prompt == nil:
		c.String(http.StatusBadRequest, "Task prompt not provided")
	case prompt && req.URL == nil:
		c.String(http.StatusBadRequest, "Page URL not provided")
	default:
		return true
	}
	return false
}

func (s *Server) handleRandom(c *gin.Context) {
	req, ok := bindTask(c)
	if !ok || !requireFields(c, req, false) {
		return
	}
	if req.Specifications == nil {
		c.String(http.StatusBadRequest, "Task specifications not provided")
		return
	}
	s.produce(c, s.deps.Random, req.task())
}

func (s *Server) handleLLM(c *gin.Context) {
	req, ok := bindTask(c)
	if !ok || !requireFields(c, req, true) {
		return
	}
	s.produce(c, s.deps.LLM, req.task())
}

// produce runs p without any caching
func (s *Server) produce(c *gin.Context, p agent.Producer, task agent.Task) {
	if p == nil {
		c.String(http.StatusServiceUnavailable, "agent not configured")
		return
	}
	ctx, cancel := s.solveContext(c)
	defer cancel()

	s.solveMu.Lock()
	defer s.solveMu.Unlock()

	start := time.Now()
	res, err := p.Produce(ctx, task)
	s.observe(p.AgentID(), metrics.SourceAgent, len(res.Actions), err, start)
	if err != nil {
		s.fail(c, task, err)
		return
	}
	c.JSON(http.StatusOK, solution.New(task.ID, p.AgentID(), res.Actions))
}

// handleSolve answers from the prompt cache, then the store, and only then
// runs the agent
func (s *Server) handleSolve(c *gin.Context) {
	req, ok := bindTask(c)
	if !ok || !requireFields(c, req, true) {
		return
	}
	task := req.task()
	p := s.deps.Agent
	if p == nil {
		c.String(http.StatusServiceUnavailable, "agent not configured")
		return
	}

	ctx, cancel := s.solveContext(c)
	defer cancel()

	s.solveMu.Lock()
	defer s.solveMu.Unlock()

	start := time.Now()
	if actions, source, ok := s.lookup(ctx, task); ok {
		s.logger.Debug("using cached actions", zap.String("task_id", task.ID), zap.String("source", source))
		s.observe(p.AgentID(), source, len(actions), nil, start)
		c.JSON(http.StatusOK, solution.New(task.ID, p.AgentID(), actions))
		return
	}

	res, err := p.Produce(ctx, task)
	s.observe(p.AgentID(), metrics.SourceAgent, len(res.Actions), err, start)
	if err != nil {
		s.fail(c, task, err)
		return
	}
	s.remember(ctx, task, res)
	c.JSON(http.StatusOK, solution.New(task.ID, p.AgentID(), res.Actions))
}

func (s *Server) lookup(ctx context.Context, task agent.Task) ([]action.Action, string, bool) {
	if s.deps.Cache != nil {
		actions, hit := s.deps.Cache.Get(task.Prompt, task.URL)
		s.observeCache("memory", hit)
		if hit {
			return actions, metrics.SourceCache, true
		}
	}
	if s.deps.Store == nil {
		return nil, "", false
	}

	actions, err := s.deps.Store.Find(ctx, task.Prompt, task.URL)
	switch {
	case err == nil:
		s.observeCache("store", true)
		if s.deps.Cache != nil {
			s.deps.Cache.Put(task.Prompt, task.URL, actions)
		}
		return actions, metrics.SourceStore, true
	case errors.Is(err, solution.ErrNotFound):
		s.observeCache("store", false)
	default:
		s.logger.Warn("store lookup failed", zap.String("task_id", task.ID), zap.Error(err))
	}
	return nil, "", false
}

// remember caches long enough solutions and persists finished ones
func (s *Server) remember(ctx context.Context, task agent.Task, res agent.Result) {
	if s.deps.Cache != nil && s.deps.Cache.Put(task.Prompt, task.URL, res.Actions) {
		s.logger.Debug("caching actions", zap.String("task_id", task.ID), zap.Int("actions", len(res.Actions)))
	}
	if s.deps.Store == nil || !res.Done || len(res.Actions) <= 2 {
		return
	}
	if err := s.deps.Store.Save(ctx, task.Prompt, task.URL, res.Actions); err != nil {
		s.logger.Warn("store save failed", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (s *Server) solveContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.cfg.SolveTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.cfg.SolveTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) fail(c *gin.Context, task agent.Task, err error) {
	s.logger.Error("solve failed", zap.String("task_id", task.ID), zap.Error(err))
	c.String(http.StatusInternalServerError, "Task could not be solved: %s", err.Error())
}

func (s *Server) observe(agentID, source string, n int, err error, start time.Time) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveSolve(agentID, source, n, err, time.Since(start))
	}
}

func (s *Server) observeCache(tier string, hit bool) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveCache(tier, hit)
	}
}
