package agent

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/v0xg/webagent/internal/action"
)

// RandomProducer answers every task with a single click somewhere on screen
type RandomProducer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomProducer seeds its generator from src; nil uses a random seed
func NewRandomProducer(src rand.Source) *RandomProducer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomProducer{rng: rand.New(src)}
}

func (p *RandomProducer) AgentID() string { return RandomAgentID }

func (p *RandomProducer) Produce(_ context.Context, task Task) (Result, error) {
	w, h := task.Specifications.Screen()

	p.mu.Lock()
	x := p.rng.IntN(w)
	y := p.rng.IntN(h)
	p.mu.Unlock()

	return Result{
		Actions: []action.Action{action.Click{X: &x, Y: &y}},
		Done:    true,
	}, nil
}
