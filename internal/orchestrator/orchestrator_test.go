package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/memory"
	"github.com/stellarlinkco/anova/internal/preference"
	"github.com/stellarlinkco/anova/internal/provider"
	"github.com/stellarlinkco/anova/internal/routing"
	"github.com/stellarlinkco/anova/internal/store"
)

// memStore is an in-memory document store for tests.
type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return data, nil
}

func (m *memStore) Set(ctx context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Close() error { return nil }

type countingAdapter struct {
	name  string
	tier  provider.Tier
	calls int
	mu    sync.Mutex
}

func (c *countingAdapter) Name() string        { return c.name }
func (c *countingAdapter) Tier() provider.Tier { return c.tier }

func (c *countingAdapter) Invoke(ctx context.Context, prompt string) provider.Response {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return provider.Response{
		Provider:      provider.Tag(c.name, c.tier),
		Text:          "## Proposta\n- architettura a fanout\n- fusione pesata\nUna risposta articolata sul sistema richiesto.",
		Success:       true,
		LatencyMs:     420,
		EstimatedCost: 0.0042,
	}
}

func (c *countingAdapter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestOrchestrator(adapters ...provider.Adapter) (*Orchestrator, *memory.UserStore) {
	users := memory.NewUserStore(newMemStore())
	router := routing.NewRouterWithStrategy(adapters, routing.NewWeightedStrategy(2))
	return New(intent.NewKeywordClassifier(), preference.NewEngine(), router, users, nil), users
}

func TestSmallTalkShortCircuit(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)

	result := o.Orchestrate(context.Background(), "ciao", "u1", memory.NewSession())

	if !result.Meta.SmallTalkHandled {
		t.Fatal("expected the small-talk path")
	}
	if result.Fusion.Score != 1 {
		t.Errorf("fusion score = %f, want 1", result.Fusion.Score)
	}
	if len(result.Raw) != 0 {
		t.Errorf("raw = %v, want empty", result.Raw)
	}
	if result.CostThisRequest != 0 {
		t.Errorf("cost = %f, want 0", result.CostThisRequest)
	}
	if adapter.Calls() != 0 {
		t.Errorf("provider called %d times on a local path", adapter.Calls())
	}
}

func TestAmbiguousAcronymClarification(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)

	result := o.Orchestrate(context.Background(), "cos'è anova?", "u1", memory.NewSession())

	if !result.Meta.ClarificationUsed {
		t.Fatal("expected a clarification")
	}
	if result.Meta.Intent.ClarificationType != intent.ClarifyAnovaAmbiguous {
		t.Errorf("clarification type = %q", result.Meta.Intent.ClarificationType)
	}
	if result.Fusion.Text == "" || !strings.Contains(strings.ToLower(result.Fusion.Text), "anova") {
		t.Errorf("clarification question = %q", result.Fusion.Text)
	}
	if adapter.Calls() != 0 || result.CostThisRequest != 0 {
		t.Error("clarification path must not invoke providers")
	}
}

func TestPreferenceAcknowledgment(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)
	session := memory.NewSession()

	result := o.Orchestrate(context.Background(),
		"da ora in poi dammi solo risposte brevi e dirette", "u1", session)

	if !result.Meta.PreferenceDetected {
		t.Fatal("expected the preference path")
	}
	lower := strings.ToLower(result.Fusion.Text)
	if !strings.Contains(lower, "brevi") || !strings.Contains(lower, "dirette") {
		t.Errorf("acknowledgment %q should reference brevi and dirette", result.Fusion.Text)
	}
	if adapter.Calls() != 0 || result.CostThisRequest != 0 {
		t.Error("preference path must not invoke providers")
	}

	snap := session.Snapshot()
	if snap.Prefs.Detail != "low" || snap.Prefs.Tone != "concise" {
		t.Errorf("session prefs = %+v", snap.Prefs)
	}
}

func TestFanoutPath(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameAnthropic, tier: provider.TierMid}
	o, _ := newTestOrchestrator(adapter)

	prompt := "progettami un sistema multi-ai come anova beta, con instradamento dei provider e fusione dei risultati"
	result := o.Orchestrate(context.Background(), prompt, "u1", memory.NewSession())

	if !result.Meta.AutoPromptUsed {
		t.Fatal("expected auto-prompt enrichment")
	}
	if result.Meta.EnrichedPrompt == prompt {
		t.Error("enriched prompt should differ from the raw prompt")
	}
	if !strings.Contains(result.Meta.EnrichedPrompt, prompt) {
		t.Error("enriched prompt must embed the verbatim request")
	}
	if adapter.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", adapter.Calls())
	}
	if result.CostThisRequest <= 0 {
		t.Errorf("cost = %f, want > 0", result.CostThisRequest)
	}
	if result.Fusion.Score <= 0 || result.Fusion.Score > 1 {
		t.Errorf("fusion score = %f", result.Fusion.Score)
	}
	if len(result.Raw) != 1 {
		t.Errorf("raw responses = %d, want 1", len(result.Raw))
	}
}

func TestContentRequestWithStyleAdjectiveReachesFanout(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)

	result := o.Orchestrate(context.Background(),
		"scrivi una storia breve su un drago e un castello", "u1", memory.NewSession())

	if result.Meta.PreferenceDetected {
		t.Fatal("a story request must not be read as a style preference")
	}
	if result.Meta.ClarificationUsed {
		t.Fatalf("unexpected clarification: %q", result.Fusion.Text)
	}
	if adapter.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", adapter.Calls())
	}
	if len(result.Raw) != 1 {
		t.Errorf("raw responses = %d, want 1", len(result.Raw))
	}
}

func TestEmptyPromptAnswersLocally(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		result := o.Orchestrate(context.Background(), prompt, "u1", memory.NewSession())

		if result.Fusion.Text == "" {
			t.Errorf("Orchestrate(%q) returned no text", prompt)
		}
		if adapter.Calls() != 0 {
			t.Fatalf("Orchestrate(%q) reached the providers", prompt)
		}
		if result.CostThisRequest != 0 {
			t.Errorf("Orchestrate(%q) cost = %f, want 0", prompt, result.CostThisRequest)
		}
		if len(result.Raw) != 0 {
			t.Errorf("Orchestrate(%q) raw = %v, want empty", prompt, result.Raw)
		}
	}
}

func TestNoProvidersStillAnswers(t *testing.T) {
	o, _ := newTestOrchestrator()

	result := o.Orchestrate(context.Background(),
		"spiegami come funziona la replicazione in postgres e quando usarla", "u1", memory.NewSession())

	if result.Fusion.Score != 0 {
		t.Errorf("fusion score = %f, want 0", result.Fusion.Score)
	}
	if result.Fusion.Text == "" {
		t.Error("expected the fixed no-response text")
	}
	if len(result.Raw) != 1 || result.Raw[0].Err != provider.ErrNoProviders {
		t.Errorf("raw = %+v, want one synthetic failure", result.Raw)
	}
}

func TestSessionAccumulatesAcrossRequests(t *testing.T) {
	adapter := &countingAdapter{name: provider.NameOpenAI, tier: provider.TierEcon}
	o, _ := newTestOrchestrator(adapter)
	session := memory.NewSession()

	o.Orchestrate(context.Background(), "ciao", "u1", session)
	o.Orchestrate(context.Background(), "voglio imparare la statistica bayesiana partendo dalle basi", "u1", session)

	snap := session.Snapshot()
	if snap.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", snap.MessageCount)
	}
	if len(snap.Goals) != 1 {
		t.Errorf("goals = %v, want the declared goal", snap.Goals)
	}
}
