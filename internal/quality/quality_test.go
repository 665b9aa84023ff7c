package quality

import (
	"strings"
	"testing"

	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/provider"
)

func okResponse(tag, text string, latencyMs int64) provider.Response {
	return provider.Response{Provider: tag, Text: text, Success: true, LatencyMs: latencyMs}
}

func TestEvaluateScoreBounds(t *testing.T) {
	responses := []provider.Response{
		okResponse("anthropic:mid", strings.Repeat("dettaglio ", 1000), 10),
		okResponse("openai:econ", "breve", 90000),
		okResponse("gemini:econ", "## Titolo\n- uno\n- due\n```go\ncode\n```", 500),
		{Provider: "openai:econ", Success: false, Err: provider.ErrTimeout},
	}
	for _, ev := range Evaluate(responses, intent.DomainCode) {
		if ev.FinalScore < 0 || ev.FinalScore > 1 {
			t.Errorf("final score %f out of [0,1] for %s", ev.FinalScore, ev.Response.Provider)
		}
		if ev.Quality < 0 || ev.Quality > 1 {
			t.Errorf("quality %f out of [0,1]", ev.Quality)
		}
	}
}

func TestEvaluateFailedResponseScoresZero(t *testing.T) {
	evs := Evaluate([]provider.Response{
		{Provider: "openai:econ", Success: false, Err: provider.ErrEmpty},
	}, intent.DomainLogic)
	if evs[0].FinalScore != 0 {
		t.Errorf("failed response scored %f, want 0", evs[0].FinalScore)
	}
}

func TestStructuralScoreRewardsMarkers(t *testing.T) {
	plain := contentQuality("una risposta semplice senza struttura particolare")
	structured := contentQuality("## Piano\n- passo uno\n- passo due\n```sql\nSELECT 1;\n```\nuna risposta semplice")
	if structured <= plain {
		t.Errorf("structured quality %f should beat plain %f", structured, plain)
	}
}

func TestStructuralScoreCapped(t *testing.T) {
	spam := strings.Repeat("- elenco\n", 200)
	if got := structuralScore(spam); got > structuralCeiling {
		t.Errorf("structural score %f exceeds cap %f", got, structuralCeiling)
	}
}

func TestLatencyScoreDecay(t *testing.T) {
	if latencyScore(0) != 1 {
		t.Errorf("zero latency score = %f, want 1", latencyScore(0))
	}
	if latencyScore(2000) != 0.5 {
		t.Errorf("2s latency score = %f, want 0.5", latencyScore(2000))
	}
	if latencyScore(500) <= latencyScore(5000) {
		t.Error("latency score must decrease with latency")
	}
}

func TestFuseEmptyInput(t *testing.T) {
	fusion := Fuse(nil, intent.DomainLogic)
	if fusion.Score != 0 {
		t.Errorf("score = %f, want 0", fusion.Score)
	}
	if fusion.Text != NoUsefulResponseText {
		t.Errorf("text = %q", fusion.Text)
	}
	if len(fusion.Used) != 0 {
		t.Errorf("used = %v, want empty", fusion.Used)
	}
}

func TestFuseAllFailed(t *testing.T) {
	fusion := Fuse([]provider.Response{
		{Provider: "openai:econ", Success: false, Err: provider.ErrTimeout},
		{Provider: "none", Success: false, Err: provider.ErrNoProviders},
	}, intent.DomainCode)
	if fusion.Score != 0 || fusion.Text != NoUsefulResponseText {
		t.Errorf("fusion = %+v, want the fixed no-response result", fusion)
	}
}

func TestFuseWeakSecondExcluded(t *testing.T) {
	// A strong and a weak response: the weak one falls below the backbone
	// threshold, so only the backbone is used.
	strong := okResponse("anthropic:mid",
		"## Analisi\n"+strings.Repeat("- punto dettagliato della risposta\n", 40), 300)
	weak := okResponse("weaklocal:econ", "ok", 15000)

	fusion := Fuse([]provider.Response{weak, strong}, intent.DomainCode)
	if len(fusion.Used) != 1 {
		t.Fatalf("used %d responses, want 1", len(fusion.Used))
	}
	if fusion.Used[0].Provider != "anthropic:mid" {
		t.Errorf("backbone = %s, want anthropic:mid", fusion.Used[0].Provider)
	}
	if strings.Contains(fusion.Text, "Prospettiva aggiuntiva") {
		t.Error("no integration should be appended")
	}
}

func TestFuseCloseScoresIntegrate(t *testing.T) {
	first := okResponse("anthropic:mid",
		"## Risposta\n"+strings.Repeat("- considerazione ampia\n", 30), 400)
	second := okResponse("openai:econ",
		"## Alternativa\n"+strings.Repeat("- considerazione simile\n", 28), 500)

	fusion := Fuse([]provider.Response{first, second}, intent.DomainCode)
	if len(fusion.Used) != 2 {
		t.Fatalf("used %d responses, want 2", len(fusion.Used))
	}
	if !strings.Contains(fusion.Text, "Prospettiva aggiuntiva (openai)") {
		t.Errorf("fused text missing the integration: %q", fusion.Text)
	}
	if fusion.Score < 0 || fusion.Score > 1 {
		t.Errorf("fusion score %f out of bounds", fusion.Score)
	}
	if fusion.Used[0].Score < fusion.Used[1].Score {
		t.Error("backbone must be the top-scoring response")
	}
}

func TestFuseCapsIntegrations(t *testing.T) {
	text := "## Risposta\n" + strings.Repeat("- punto\n", 30)
	responses := []provider.Response{
		okResponse("anthropic:mid", text, 300),
		okResponse("openai:econ", text, 310),
		okResponse("gemini:econ", text, 320),
		okResponse("groq:econ", text, 330),
	}
	fusion := Fuse(responses, intent.DomainCode)
	if len(fusion.Used) > 3 {
		t.Errorf("used %d responses, cap is 3", len(fusion.Used))
	}
}
