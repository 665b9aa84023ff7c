package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stellarlinkco/anova/internal/config"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"econ", TierEcon},
		{"mid", TierMid},
		{"MAX", TierMax},
		{"", TierEcon},
		{"premium", TierEcon},
	}
	for _, tt := range tests {
		if got := ParseTier(tt.in); got != tt.want {
			t.Errorf("ParseTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTierRankOrdering(t *testing.T) {
	if !(TierEcon.Rank() < TierMid.Rank() && TierMid.Rank() < TierMax.Rank()) {
		t.Fatalf("tier ranks not strictly ordered: %d %d %d",
			TierEcon.Rank(), TierMid.Rank(), TierMax.Rank())
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("openai:econ"); got != "openai" {
		t.Errorf("BaseName = %q, want openai", got)
	}
	if got := BaseName("gemini"); got != "gemini" {
		t.Errorf("BaseName without suffix = %q, want gemini", got)
	}
}

func TestFinalizeEmptyOutput(t *testing.T) {
	resp := finalize(NameOpenAI, TierEcon, time.Now(), "   ", 12, 0, 12)
	if resp.Success {
		t.Fatal("empty output must not be a success")
	}
	if resp.Err != ErrEmpty {
		t.Errorf("error = %q, want %q", resp.Err, ErrEmpty)
	}
	if resp.Text != "" {
		t.Errorf("failed response must carry no text, got %q", resp.Text)
	}
	if resp.PromptTokens != 12 {
		t.Errorf("token counts should survive the empty-output rule, got %d", resp.PromptTokens)
	}
}

func TestEstimateCost(t *testing.T) {
	got := estimateCost(NameOpenAI, 1000, 1000)
	want := 0.0025 + 0.01
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("openai cost = %f, want %f", got, want)
	}
	if estimateCost("somelocal", 1000, 0) != compatPricing.in {
		t.Error("unknown provider should use compat pricing")
	}
}

func TestCompatAdapterSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "La varianza misura la dispersione."}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 7, "total_tokens": 16}
		}`))
	}))
	defer server.Close()

	adapter := NewCompatAdapter(config.CompatConfig{
		ProviderConfig: config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Tier: "mid"},
		Name:           "groq",
	}, 5*time.Second)

	resp := adapter.Invoke(context.Background(), "cos'è la varianza?")
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Err)
	}
	if resp.Provider != "groq:mid" {
		t.Errorf("provider tag = %q, want groq:mid", resp.Provider)
	}
	if resp.TotalTokens != 16 {
		t.Errorf("total tokens = %d, want 16", resp.TotalTokens)
	}
	if resp.EstimatedCost <= 0 {
		t.Error("expected a positive cost estimate")
	}
}

func TestCompatAdapterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewCompatAdapter(config.CompatConfig{
		ProviderConfig: config.ProviderConfig{APIKey: "k", BaseURL: server.URL},
	}, 5*time.Second)

	resp := adapter.Invoke(context.Background(), "ciao")
	if resp.Success {
		t.Fatal("expected a failed response")
	}
	if !strings.HasPrefix(resp.Err, ErrProvider) {
		t.Errorf("error = %q, want %s prefix", resp.Err, ErrProvider)
	}
	if resp.Text != "" {
		t.Errorf("failed response must carry no text, got %q", resp.Text)
	}
}

func TestCompatAdapterEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": ""}}], "usage": {"prompt_tokens": 3}}`))
	}))
	defer server.Close()

	adapter := NewCompatAdapter(config.CompatConfig{
		ProviderConfig: config.ProviderConfig{APIKey: "k", BaseURL: server.URL},
	}, 5*time.Second)

	resp := adapter.Invoke(context.Background(), "ciao")
	if resp.Success || resp.Err != ErrEmpty {
		t.Fatalf("expected empty_response failure, got success=%v err=%q", resp.Success, resp.Err)
	}
}

func TestCompatAdapterTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := NewCompatAdapter(config.CompatConfig{
		ProviderConfig: config.ProviderConfig{APIKey: "k", BaseURL: server.URL},
	}, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	resp := adapter.Invoke(ctx, "ciao")
	if resp.Success {
		t.Fatal("expected a failed response")
	}
	if !strings.HasPrefix(resp.Err, ErrTimeout) && !strings.HasPrefix(resp.Err, ErrHTTP) {
		t.Errorf("error = %q, want timeout or http_error prefix", resp.Err)
	}
}

func TestGeminiAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "gk" {
			t.Errorf("api key header = %q", got)
		}
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Il test ANOVA "}, {"text": "confronta le medie."}]}}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 8, "totalTokenCount": 13}
		}`))
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(config.ProviderConfig{
		APIKey: "gk", BaseURL: server.URL, Tier: "econ",
	}, 5*time.Second)

	resp := adapter.Invoke(context.Background(), "spiegami l'ANOVA")
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Err)
	}
	if resp.Text != "Il test ANOVA confronta le medie." {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.CompletionTokens != 8 {
		t.Errorf("completion tokens = %d, want 8", resp.CompletionTokens)
	}
}

func TestBuildAdaptersSkipsMissingCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "ok"
	cfg.Providers.Compat.APIKey = "ck" // key but no base url

	adapters := BuildAdapters(cfg)
	if len(adapters) != 1 {
		t.Fatalf("expected only the openai adapter, got %d", len(adapters))
	}
	if adapters[0].Name() != NameOpenAI {
		t.Errorf("adapter name = %q", adapters[0].Name())
	}
}
