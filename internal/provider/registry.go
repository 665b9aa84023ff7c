package provider

import (
	"log"
	"time"

	"github.com/stellarlinkco/anova/internal/config"
)

// BuildAdapters constructs one adapter per provider that has a credential.
// Providers without an API key are skipped at construction time, so routing
// never attempts a call that would fail with missing credentials.
func BuildAdapters(cfg *config.Config) []Adapter {
	timeout := time.Duration(cfg.Routing.CallTimeoutMs) * time.Millisecond

	var adapters []Adapter
	if cfg.Providers.OpenAI.APIKey != "" {
		adapters = append(adapters, NewOpenAIAdapter(cfg.Providers.OpenAI, timeout))
	}
	if cfg.Providers.Anthropic.APIKey != "" {
		adapters = append(adapters, NewAnthropicAdapter(cfg.Providers.Anthropic, timeout))
	}
	if cfg.Providers.Gemini.APIKey != "" {
		adapters = append(adapters, NewGeminiAdapter(cfg.Providers.Gemini, timeout))
	}
	if cfg.Providers.Compat.APIKey != "" || cfg.Providers.Compat.BaseURL != "" {
		if cfg.Providers.Compat.BaseURL == "" {
			log.Printf("[provider] compat endpoint has a key but no base url, skipping")
		} else {
			adapters = append(adapters, NewCompatAdapter(cfg.Providers.Compat, timeout))
		}
	}

	for _, a := range adapters {
		log.Printf("[provider] registered %s (tier %s)", a.Name(), a.Tier())
	}
	return adapters
}
