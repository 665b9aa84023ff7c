package routing

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/stellarlinkco/anova/internal/config"
	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/provider"
)

// Stats describes one fanout execution for response metadata.
type Stats struct {
	Strategy  string   `json:"strategy"`
	Requested []string `json:"requested"`
	Calls     int      `json:"calls"`
}

// Result carries the settled responses of one fanout. Responses arrive in
// selection order regardless of completion order.
type Result struct {
	Responses []provider.Response `json:"responses"`
	Stats     Stats               `json:"stats"`
}

// Strategy picks which of the available adapters answer a given intent.
type Strategy interface {
	Name() string
	Select(it intent.Intent, adapters []provider.Adapter) []provider.Adapter
}

// Router owns the registered adapters and executes the selected calls
// concurrently, waiting for all of them to settle.
type Router struct {
	adapters []provider.Adapter
	strategy Strategy
}

func NewRouter(adapters []provider.Adapter, cfg config.RoutingConfig) *Router {
	var strategy Strategy
	switch cfg.Strategy {
	case "escalation":
		strategy = NewEscalationStrategy(cfg)
	default:
		strategy = NewWeightedStrategy(cfg.MaxFanout)
	}
	return &Router{adapters: adapters, strategy: strategy}
}

func NewRouterWithStrategy(adapters []provider.Adapter, strategy Strategy) *Router {
	return &Router{adapters: adapters, strategy: strategy}
}

// Fanout dispatches the prompt to every selected provider concurrently. A
// failing or panicking adapter yields a failed response in its slot without
// touching sibling calls. With no credentialed providers the result is one
// synthetic failed response, never an error.
func (r *Router) Fanout(ctx context.Context, it intent.Intent, prompt string) Result {
	selected := r.strategy.Select(it, r.adapters)
	stats := Stats{Strategy: r.strategy.Name(), Calls: len(selected)}
	for _, a := range selected {
		stats.Requested = append(stats.Requested, provider.Tag(a.Name(), a.Tier()))
	}

	if len(selected) == 0 {
		log.Printf("[routing] no providers available for domain %s", it.Domain)
		return Result{
			Responses: []provider.Response{provider.Unavailable()},
			Stats:     stats,
		}
	}

	responses := make([]provider.Response, len(selected))
	var wg sync.WaitGroup
	for i, adapter := range selected {
		wg.Add(1)
		go func(i int, adapter provider.Adapter) {
			defer wg.Done()
			responses[i] = safeInvoke(ctx, adapter, prompt)
		}(i, adapter)
	}
	wg.Wait()

	return Result{Responses: responses, Stats: stats}
}

// safeInvoke shields the fanout from adapters that violate the no-panic
// contract.
func safeInvoke(ctx context.Context, adapter provider.Adapter, prompt string) (resp provider.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[routing] adapter %s panicked: %v", adapter.Name(), rec)
			resp = provider.Response{
				Provider: provider.Tag(adapter.Name(), adapter.Tier()),
				Success:  false,
				Err:      fmt.Sprintf("%s: panic: %v", provider.ErrUnknown, rec),
			}
		}
	}()
	return adapter.Invoke(ctx, prompt)
}

// WeightedStrategy is the canonical selection path: candidates sorted by
// descending domain weight, first maxFanout taken.
type WeightedStrategy struct {
	maxFanout int
}

func NewWeightedStrategy(maxFanout int) *WeightedStrategy {
	if maxFanout <= 0 {
		maxFanout = config.DefaultMaxFanout
	}
	return &WeightedStrategy{maxFanout: maxFanout}
}

func (s *WeightedStrategy) Name() string { return "weighted" }

func (s *WeightedStrategy) Select(it intent.Intent, adapters []provider.Adapter) []provider.Adapter {
	candidates := append([]provider.Adapter(nil), adapters...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return PolicyWeight(it.Domain, candidates[i].Name()) > PolicyWeight(it.Domain, candidates[j].Name())
	})
	if len(candidates) > s.maxFanout {
		candidates = candidates[:s.maxFanout]
	}
	return candidates
}
