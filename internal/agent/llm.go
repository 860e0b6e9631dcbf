package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/webagent/internal/action"
	"github.com/v0xg/webagent/internal/ai"
	"github.com/v0xg/webagent/internal/pagemap"
	"go.uber.org/zap"
)

// PageMapper loads a live page and describes it
type PageMapper interface {
	MapPage(ctx context.Context, url string) (*pagemap.PageMap, error)
}

// ActionGenerator proposes raw action records for a task on a page
type ActionGenerator interface {
	GenerateActions(ctx context.Context, pageMap *pagemap.PageMap, prompt string, mc ai.MessageContext) ([]map[string]any, error)
}

// LLMProducer plans actions with a language model from a map of the start
// page. The map comes from the HTML supplied with the task when present,
// otherwise from crawling the URL.
type LLMProducer struct {
	gen     ActionGenerator
	mapper  PageMapper
	factory *action.Factory
	logger  *zap.Logger
}

// NewLLMProducer builds the producer; mapper may be nil when every task
// carries its HTML
func NewLLMProducer(gen ActionGenerator, mapper PageMapper, logger *zap.Logger) *LLMProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMProducer{
		gen:     gen,
		mapper:  mapper,
		factory: action.NewFactory(logger),
		logger:  logger.Named("llm"),
	}
}

func (p *LLMProducer) AgentID() string { return OpenAIAgentID }

func (p *LLMProducer) Produce(ctx context.Context, task Task) (Result, error) {
	m, err := p.pageMap(ctx, task)
	if err != nil {
		return Result{}, err
	}

	mc := ai.MessageContext{URL: task.URL, IsWebReal: task.IsWebReal, RelevantData: task.RelevantData}
	mc.ScreenWidth, mc.ScreenHeight = task.Specifications.Screen()

	records, err := p.gen.GenerateActions(ctx, m, task.Prompt, mc)
	if err != nil {
		return Result{}, err
	}

	actions := p.factory.CreateAll(records)
	p.logger.Info("actions planned",
		zap.String("task_id", task.ID),
		zap.Int("records", len(records)),
		zap.Int("actions", len(actions)),
	)
	return Result{Actions: actions, Done: true}, nil
}

func (p *LLMProducer) pageMap(ctx context.Context, task Task) (*pagemap.PageMap, error) {
	if strings.TrimSpace(task.HTML) != "" {
		return pagemap.FromHTML(task.URL, task.HTML)
	}
	if p.mapper == nil {
		return nil, errors.New("task has no html and no browser is available to crawl it")
	}
	p.logger.Debug("crawling start page", zap.String("url", task.URL))
	m, err := p.mapper.MapPage(ctx, task.URL)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", task.URL, err)
	}
	return m, nil
}
