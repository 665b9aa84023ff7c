// Package quality scores provider responses and fuses them into one answer
// with a backbone plus soft-integration strategy.
package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/provider"
	"github.com/stellarlinkco/anova/internal/routing"
)

const (
	qualityBase        = 0.15
	lengthCeiling      = 4000
	structuralCeiling  = 0.6
	weightQuality      = 0.55
	weightProvider     = 0.30
	weightLatency      = 0.15
	backboneThreshold  = 0.65 // integration must score at least this fraction of the backbone
	maxIntegrations    = 2
	fusionBackboneCoef = 0.7
	fusionIntegraCoef  = 0.15
)

// NoUsefulResponseText is returned when fusion has nothing usable. A normal
// outcome, not an error.
const NoUsefulResponseText = "Al momento non ho ricevuto nessuna risposta utile dai provider. Riprova tra poco."

// Evaluated is a provider response with its score breakdown.
type Evaluated struct {
	Response       provider.Response `json:"response"`
	Quality        float64           `json:"quality"`
	ProviderWeight float64           `json:"providerWeight"`
	LatencyScore   float64           `json:"latencyScore"`
	FinalScore     float64           `json:"finalScore"`
}

// UsedResponse identifies one response that made it into the fused answer.
type UsedResponse struct {
	Provider  string  `json:"provider"`
	Score     float64 `json:"score"`
	LatencyMs int64   `json:"latencyMs"`
}

// Fusion is the final answer artifact.
type Fusion struct {
	Text  string         `json:"text"`
	Score float64        `json:"score"`
	Used  []UsedResponse `json:"used,omitempty"`
}

// Evaluate scores every response. Failed responses score zero on all axes.
func Evaluate(responses []provider.Response, domain intent.Domain) []Evaluated {
	out := make([]Evaluated, 0, len(responses))
	for _, resp := range responses {
		ev := Evaluated{Response: resp}
		if resp.Success && resp.Text != "" {
			ev.Quality = contentQuality(resp.Text)
			ev.ProviderWeight = routing.PolicyWeight(domain, resp.Provider)
			ev.LatencyScore = latencyScore(resp.LatencyMs)
			ev.FinalScore = clamp01(weightQuality*ev.Quality +
				weightProvider*ev.ProviderWeight +
				weightLatency*ev.LatencyScore)
		}
		out = append(out, ev)
	}
	return out
}

// Fuse evaluates and merges: the highest-scoring usable response becomes the
// backbone, up to two more are appended as integrations when their score holds
// up against it.
func Fuse(responses []provider.Response, domain intent.Domain) Fusion {
	evaluated := Evaluate(responses, domain)

	var usable []Evaluated
	for _, ev := range evaluated {
		if ev.FinalScore > 0 && ev.Response.Text != "" {
			usable = append(usable, ev)
		}
	}
	if len(usable) == 0 {
		return Fusion{Text: NoUsefulResponseText, Score: 0}
	}

	sortByScore(usable)
	backbone := usable[0]

	var integrations []Evaluated
	for _, ev := range usable[1:] {
		if len(integrations) == maxIntegrations {
			break
		}
		if ev.FinalScore >= backboneThreshold*backbone.FinalScore {
			integrations = append(integrations, ev)
		}
	}

	var sb strings.Builder
	sb.WriteString(backbone.Response.Text)
	for _, ev := range integrations {
		sb.WriteString("\n\n---\n")
		sb.WriteString(fmt.Sprintf("*Prospettiva aggiuntiva (%s):*\n", provider.BaseName(ev.Response.Provider)))
		sb.WriteString(ev.Response.Text)
	}

	score := fusionBackboneCoef * backbone.FinalScore
	used := []UsedResponse{{
		Provider:  backbone.Response.Provider,
		Score:     backbone.FinalScore,
		LatencyMs: backbone.Response.LatencyMs,
	}}
	for _, ev := range integrations {
		score += fusionIntegraCoef * ev.FinalScore
		used = append(used, UsedResponse{
			Provider:  ev.Response.Provider,
			Score:     ev.FinalScore,
			LatencyMs: ev.Response.LatencyMs,
		})
	}

	return Fusion{Text: sb.String(), Score: clamp01(score), Used: used}
}

// contentQuality rewards length up to a ceiling and structural markers up to a
// fixed cap, so markup spam cannot dominate.
func contentQuality(text string) float64 {
	length := float64(len(text))
	if length > lengthCeiling {
		length = lengthCeiling
	}
	score := qualityBase + 0.5*length/lengthCeiling + structuralScore(text)
	return clamp01(score)
}

func structuralScore(text string) float64 {
	var score float64
	score += 0.15 * float64(strings.Count(text, "```")/2)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "),
			strings.HasPrefix(trimmed, "• "):
			score += 0.05
		case strings.HasPrefix(trimmed, "#"):
			score += 0.08
		case len(trimmed) > 0 && len(trimmed) < 60 && strings.HasSuffix(trimmed, ":"):
			score += 0.05
		}
	}
	if score > structuralCeiling {
		return structuralCeiling
	}
	return score
}

func latencyScore(latencyMs int64) float64 {
	return 1 / (1 + float64(latencyMs)/2000)
}

func sortByScore(evs []Evaluated) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].FinalScore > evs[j].FinalScore
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
