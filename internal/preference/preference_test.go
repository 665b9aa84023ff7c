package preference

import "testing"

func TestDetectFullStatement(t *testing.T) {
	e := NewEngine()
	d := e.Detect("da ora in poi dammi solo risposte brevi e dirette")

	if d.Preference == nil {
		t.Fatal("expected a detected preference")
	}
	if d.NeedsClarification {
		t.Fatalf("unambiguous statement should not ask: %q", d.ClarificationQuestion)
	}
	if d.Preference.Detail != "low" {
		t.Errorf("detail = %q, want low", d.Preference.Detail)
	}
	if d.Preference.Tone != "concise" {
		t.Errorf("tone = %q, want concise", d.Preference.Tone)
	}
	if d.Preference.Scope != ScopePersistent {
		t.Errorf("scope = %q, want persistent", d.Preference.Scope)
	}
	if d.Preference.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %q, want high", d.Preference.Confidence)
	}
}

func TestDetectContradictionNeverHighConfidence(t *testing.T) {
	e := NewEngine()
	d := e.Detect("voglio risposte brevi ma anche lunghe e complete")

	if d.Preference == nil {
		t.Fatal("contradictory statement should still produce a candidate preference")
	}
	if d.Preference.Confidence == ConfidenceHigh {
		t.Error("contradictory cues must never yield high confidence")
	}
	if !d.NeedsClarification {
		t.Error("low confidence must trigger a clarification question")
	}
	if d.ClarificationQuestion == "" {
		t.Error("clarification question missing")
	}
}

func TestDetectOnlyCodeBypass(t *testing.T) {
	e := NewEngine()
	d := e.Detect("per il codice dammi solo codice senza spiegazioni")

	if d.Preference == nil {
		t.Fatal("expected a detected preference")
	}
	if d.NeedsClarification {
		t.Error("the only-code statement applies without asking")
	}
	p := d.Preference
	if p.Detail != "low" || p.Tone != "concise" {
		t.Errorf("detail/tone = %q/%q, want low/concise", p.Detail, p.Tone)
	}
	if p.Domain != "code" {
		t.Errorf("domain = %q, want code", p.Domain)
	}
	if p.Scope != ScopeContextual {
		t.Errorf("scope = %q, want contextual", p.Scope)
	}
	if p.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %q, want high", p.Confidence)
	}
}

func TestDetectIgnoresNonStyleText(t *testing.T) {
	e := NewEngine()
	tests := []string{
		"scrivi una funzione di ordinamento in go",
		"qual è la capitale della Mongolia?",
		"ok",
	}
	for _, text := range tests {
		d := e.Detect(text)
		if d.Preference != nil || d.NeedsClarification {
			t.Errorf("Detect(%q) = %+v, want empty detection", text, d)
		}
	}
}

func TestDetectIgnoresContentRequestsWithAdjectives(t *testing.T) {
	e := NewEngine()
	tests := []string{
		"scrivi una storia breve su un drago e un castello",
		"scrivimi un racconto lungo ambientato a venezia",
		"riassumi in modo sintetico questo articolo",
		"componi una poesia corta sull'autunno",
	}
	for _, text := range tests {
		d := e.Detect(text)
		if d.Preference != nil {
			t.Errorf("Detect(%q) hijacked a content request: %+v", text, d.Preference)
		}
		if d.NeedsClarification {
			t.Errorf("Detect(%q) should not ask about a content request", text)
		}
	}
}

func TestDetectStyleMentionWithoutAxis(t *testing.T) {
	e := NewEngine()
	d := e.Detect("vorrei cambiare il tono delle conversazioni")

	if d.Preference != nil {
		t.Errorf("no axis resolved, preference should be nil: %+v", d.Preference)
	}
	if !d.NeedsClarification {
		t.Error("unresolvable style statement should ask for clarification")
	}
}

func TestDetectDiminutive(t *testing.T) {
	e := NewEngine()
	d := e.Detect("risposte brevine per favore")

	if d.Preference == nil {
		t.Fatal("diminutive form should resolve through the lexicon")
	}
	if d.Preference.Detail != "low" {
		t.Errorf("detail = %q, want low", d.Preference.Detail)
	}
}

func TestDetectNegationLowersConfidence(t *testing.T) {
	e := NewEngine()
	d := e.Detect("le risposte non troppo lunghe per favore")

	if d.Preference == nil {
		t.Fatal("expected a detected preference")
	}
	if d.Preference.Detail != "medium" {
		t.Errorf("detail = %q, want medium", d.Preference.Detail)
	}
	if d.Preference.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %q, want medium", d.Preference.Confidence)
	}
	if !d.NeedsClarification {
		t.Error("medium confidence must be confirmed before applying")
	}
}

func TestDetectContextualScope(t *testing.T) {
	e := NewEngine()
	d := e.Detect("quando parliamo di codice voglio risposte brevi")

	if d.Preference == nil {
		t.Fatal("expected a detected preference")
	}
	if d.Preference.Scope != ScopeContextual {
		t.Errorf("scope = %q, want contextual", d.Preference.Scope)
	}
	if d.Preference.Domain != "code" {
		t.Errorf("domain = %q, want code", d.Preference.Domain)
	}
}

func TestDetectOnceScopeDefault(t *testing.T) {
	e := NewEngine()
	d := e.Detect("dammi una risposta breve")

	if d.Preference == nil {
		t.Fatal("expected a detected preference")
	}
	if d.Preference.Scope != ScopeOnce {
		t.Errorf("scope = %q, want once", d.Preference.Scope)
	}
}

func TestLexiconHints(t *testing.T) {
	tests := []struct {
		text       string
		wantDetail string
		wantTone   string
	}{
		{"voglio risposte brevi", "low", ""},
		{"una spiegazione dettagliata e ricca", "high", "rich"},
		{"tono neutro va bene", "", "neutral"},
		{"qualcosa di normale", "medium", ""},
		{"nessun indizio qui", "", ""},
		{"breve, anzi dettagliata", "high", ""},
	}
	for _, tt := range tests {
		detail, tone := LexiconHints(tt.text)
		if detail != tt.wantDetail || tone != tt.wantTone {
			t.Errorf("LexiconHints(%q) = (%q, %q), want (%q, %q)",
				tt.text, detail, tone, tt.wantDetail, tt.wantTone)
		}
	}
}

func TestStripDiminutive(t *testing.T) {
	if lookupLexicon(detailLexicon, "brevino") != "low" {
		t.Error("brevino should strip to breve")
	}
	if lookupLexicon(detailLexicon, "vino") != "" {
		t.Error("short words must not be stripped")
	}
}
