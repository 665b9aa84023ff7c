// Package provider wraps external text-generation capabilities behind one
// uniform adapter contract. Adapters never return Go errors: every failure
// becomes a Response with Success=false and a classified error string.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Tier is the cost/quality class of a provider model. The ordering
// econ < mid < max is strict and drives escalation routing.
type Tier string

const (
	TierEcon Tier = "econ"
	TierMid  Tier = "mid"
	TierMax  Tier = "max"
)

func (t Tier) Rank() int {
	switch t {
	case TierMid:
		return 1
	case TierMax:
		return 2
	default:
		return 0
	}
}

func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mid":
		return TierMid
	case "max":
		return TierMax
	default:
		return TierEcon
	}
}

// Known provider identifiers. The compat adapter carries a configured name.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
)

// Error classifications carried as prefixes in Response.Err.
const (
	ErrTimeout      = "timeout"
	ErrHTTP         = "http_error"
	ErrParse        = "parse_error"
	ErrProvider     = "provider_error"
	ErrUnknown      = "unknown_error"
	ErrEmpty        = "empty_response"
	ErrNoProviders  = "no_providers_available"
	ErrNoCredential = "missing_credentials"
)

// Response is the normalized result of one provider call.
// Success=false implies Text=="" and Err non-empty; an empty completion with
// a 2xx transport is reported as Success=false with Err=empty_response.
type Response struct {
	Provider         string  `json:"provider"` // id with tier suffix, e.g. "openai:econ"
	Text             string  `json:"text"`
	Success          bool    `json:"success"`
	Err              string  `json:"error,omitempty"`
	LatencyMs        int64   `json:"latencyMs"`
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
	TotalTokens      int     `json:"totalTokens"`
	EstimatedCost    float64 `json:"estimatedCost"`
}

// Adapter invokes one external provider. Invoke must honor ctx cancellation
// and must never panic or return a Go error.
type Adapter interface {
	Name() string
	Tier() Tier
	Invoke(ctx context.Context, prompt string) Response
}

// Tag is the provider identifier with its tier suffix, as reported in
// Response.Provider and consumed by scoring (which strips the suffix again).
func Tag(name string, tier Tier) string {
	return name + ":" + string(tier)
}

// BaseName strips the tier suffix from a response's provider tag.
func BaseName(tag string) string {
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		return tag[:idx]
	}
	return tag
}

// pricing is a per-1K-token rate pair in currency units.
type pricing struct {
	in  float64
	out float64
}

var pricingTable = map[string]pricing{
	NameOpenAI:    {in: 0.0025, out: 0.01},
	NameAnthropic: {in: 0.003, out: 0.015},
	NameGemini:    {in: 0.00125, out: 0.005},
}

// compat endpoints default to budget-model rates
var compatPricing = pricing{in: 0.0005, out: 0.0015}

func estimateCost(name string, promptTokens, completionTokens int) float64 {
	rates, ok := pricingTable[name]
	if !ok {
		rates = compatPricing
	}
	return float64(promptTokens)/1000*rates.in + float64(completionTokens)/1000*rates.out
}

// classifyError maps a transport error to its taxonomy prefix.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrHTTP
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unmarshal"), strings.Contains(msg, "decode"),
		strings.Contains(msg, "unexpected end of JSON"):
		return ErrParse
	case strings.Contains(msg, "status"), strings.Contains(msg, "http"):
		return ErrHTTP
	default:
		return ErrUnknown
	}
}

func failedResponse(tag string, start time.Time, kind string, err error) Response {
	msg := kind
	if err != nil {
		msg = fmt.Sprintf("%s: %v", kind, err)
	}
	return Response{
		Provider:  tag,
		Success:   false,
		Err:       msg,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

// Unavailable is the synthetic response the router emits when no provider has
// a configured credential.
func Unavailable() Response {
	return Response{Provider: "none", Success: false, Err: ErrNoProviders}
}

// finalize applies the empty-output rule and cost estimation to a completed
// call. Token counts are kept even when the output was empty.
func finalize(name string, tier Tier, start time.Time, text string, promptTokens, completionTokens, totalTokens int) Response {
	resp := Response{
		Provider:         Tag(name, tier),
		LatencyMs:        time.Since(start).Milliseconds(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		EstimatedCost:    estimateCost(name, promptTokens, completionTokens),
	}
	text = strings.TrimSpace(text)
	if text == "" {
		resp.Err = ErrEmpty
		return resp
	}
	resp.Success = true
	resp.Text = text
	return resp
}
