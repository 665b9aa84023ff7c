// Package routing selects which providers answer a request and dispatches the
// calls concurrently. Two strategies share one interface: domain-weighted
// fanout (the default) and tier escalation.
package routing

import (
	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/provider"
)

// DefaultPolicyWeight applies to any (domain, provider) pair not listed in the
// policy table. Scoring uses the same fallback.
const DefaultPolicyWeight = 0.7

// domainWeights is the static routing policy: per-domain affinity of each
// known provider, in [0,1]. Keyed by bare provider name, no tier suffix.
var domainWeights = map[intent.Domain]map[string]float64{
	intent.DomainCode: {
		provider.NameAnthropic: 0.95,
		provider.NameOpenAI:    0.9,
		provider.NameGemini:    0.75,
	},
	intent.DomainCreative: {
		provider.NameOpenAI:    0.9,
		provider.NameAnthropic: 0.85,
		provider.NameGemini:    0.8,
	},
	intent.DomainFactual: {
		provider.NameGemini:    0.9,
		provider.NameOpenAI:    0.85,
		provider.NameAnthropic: 0.8,
	},
	intent.DomainStrategy: {
		provider.NameAnthropic: 0.9,
		provider.NameOpenAI:    0.85,
		provider.NameGemini:    0.7,
	},
	intent.DomainLogic: {
		provider.NameAnthropic: 0.85,
		provider.NameOpenAI:    0.85,
		provider.NameGemini:    0.75,
	},
}

// PolicyWeight returns the routing/scoring weight for a provider in a domain.
// Accepts both bare names and tier-suffixed tags ("openai:econ").
func PolicyWeight(domain intent.Domain, providerTag string) float64 {
	name := provider.BaseName(providerTag)
	if weights, ok := domainWeights[domain]; ok {
		if w, ok := weights[name]; ok {
			return w
		}
	}
	return DefaultPolicyWeight
}
