package routing

import (
	"sort"

	"github.com/stellarlinkco/anova/internal/config"
	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/provider"
)

// EscalationStrategy starts at a preferred cost tier and moves up when the
// best candidate's policy weight for the domain is below the threshold, or
// when a hard rule forces it (high-complexity requests start at least at mid).
// Tier movement is monotonic within one selection: econ < mid < max, never
// down.
type EscalationStrategy struct {
	preferred provider.Tier
	threshold float64
	maxFanout int
}

func NewEscalationStrategy(cfg config.RoutingConfig) *EscalationStrategy {
	threshold := cfg.EscalationThreshold
	if threshold <= 0 {
		threshold = config.DefaultEscalationThreshold
	}
	maxFanout := cfg.MaxFanout
	if maxFanout <= 0 {
		maxFanout = config.DefaultMaxFanout
	}
	return &EscalationStrategy{
		preferred: provider.ParseTier(cfg.PreferredTier),
		threshold: threshold,
		maxFanout: maxFanout,
	}
}

func (s *EscalationStrategy) Name() string { return "escalation" }

func (s *EscalationStrategy) Select(it intent.Intent, adapters []provider.Adapter) []provider.Adapter {
	if len(adapters) == 0 {
		return nil
	}

	start := s.preferred
	if it.Complexity == intent.ComplexityHigh && start.Rank() < provider.TierMid.Rank() {
		start = provider.TierMid
	}

	tier := start
	for {
		candidates := atOrAbove(adapters, tier)
		if len(candidates) == 0 {
			return nil
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			ri, rj := candidates[i].Tier().Rank(), candidates[j].Tier().Rank()
			if ri != rj {
				return ri < rj
			}
			return PolicyWeight(it.Domain, candidates[i].Name()) > PolicyWeight(it.Domain, candidates[j].Name())
		})

		best := candidates[0]
		if PolicyWeight(it.Domain, best.Name()) >= s.threshold || best.Tier() == provider.TierMax {
			if len(candidates) > s.maxFanout {
				candidates = candidates[:s.maxFanout]
			}
			return candidates
		}

		next := escalate(best.Tier())
		if next == tier {
			if len(candidates) > s.maxFanout {
				candidates = candidates[:s.maxFanout]
			}
			return candidates
		}
		tier = next
	}
}

func atOrAbove(adapters []provider.Adapter, tier provider.Tier) []provider.Adapter {
	var out []provider.Adapter
	for _, a := range adapters {
		if a.Tier().Rank() >= tier.Rank() {
			out = append(out, a)
		}
	}
	return out
}

func escalate(tier provider.Tier) provider.Tier {
	switch tier {
	case provider.TierEcon:
		return provider.TierMid
	case provider.TierMid:
		return provider.TierMax
	default:
		return provider.TierMax
	}
}
