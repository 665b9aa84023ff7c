// Package preference detects explicit user statements about desired response
// style (length and tone) and decides whether to apply them, ask for
// clarification, or ignore the text entirely. Wrong guesses here degrade every
// subsequent response, so the engine prefers asking over assuming.
package preference

import "strings"

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type Scope string

const (
	ScopeOnce       Scope = "once"
	ScopePersistent Scope = "persistent"
	ScopeContextual Scope = "contextual"
)

// Preference is a detected response-style preference. Detail and Tone use the
// lexicon buckets (low/medium/high, concise/neutral/rich); either may be empty
// when only one axis was stated.
type Preference struct {
	Detail     string
	Tone       string
	Scope      Scope
	Domain     string // optional: code, strategy, creative, factual, work
	Confidence Confidence
}

// Detection is the engine output. Preference is nil when the text is not a
// style statement. NeedsClarification with a question means the statement was
// recognized but too ambiguous to act on.
type Detection struct {
	Preference            *Preference
	NeedsClarification    bool
	ClarificationQuestion string
}

var responseNouns = []string{"risposta", "risposte", "answer", "response"}

// responseAnchors mark a statement as being about responses rather than about
// content. A bare length adjective ("una storia breve") never counts: without
// an anchor the text is a content request and must flow to the providers.
var responseAnchors = []string{
	"risposta", "risposte", "rispond", "spiegazion", "tono", "stile",
	"answer", "response", "reply", "replies", "tone", "style",
}

var styleGateTerms = []string{
	"rispond", "risposta", "risposte", "answer", "response", "spiegazion",
	"tono", "stile", "dettagl", "brev", "lung", "cort", "sintetic", "concis",
	"short", "long", "tone", "style", "detail", "parole",
}

var shortCues = []string{"brev", "cort", "sintetic", "concis", "stringat", "short", "brief"}
var longCues = []string{"lung", "dettagliat", "approfondit", "esaustiv", "estes", "long", "detailed", "thorough"}

var negationCues = []string{
	"non troppo", "meno", "più ", "piu ", "troppo lung", "troppo cort",
	"not too", "less ", "more ", "too long", "too short",
}

var persistentCues = []string{
	"da ora in poi", "d'ora in poi", "d'ora in avanti", "da adesso", "sempre",
	"from now on", "always",
}

var onceCues = []string{
	"per questa volta", "solo questa volta", "solo ora", "solo adesso",
	"per stavolta", "this time", "just now",
}

var contextualCues = []string{
	"quando parliamo di", "quando si tratta di", "quando chiedo", "per il codice",
	"when we talk about", "when i ask",
}

var domainCues = map[string][]string{
	"code":     {"codice", "programmazione", "code", "programming"},
	"strategy": {"strategia", "business", "piani", "strategy"},
	"creative": {"creativ", "storie", "racconti", "creative"},
	"factual":  {"fatti", "dati", "informazioni", "facts"},
	"work":     {"lavoro", "professionale", "work", "professional"},
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Detect runs the layered detection: word-count gate, style gate, response
// anchor, lexicon lookup, phrase overrides, scope and domain cues, confidence
// computation.
func (e *Engine) Detect(text string) Detection {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	words := strings.Fields(lower)

	if len(words) < 3 && !mentionsResponseNoun(lower) {
		return Detection{}
	}
	if !styleGateHit(lower) {
		return Detection{}
	}
	if !hasResponseAnchor(lower) {
		return Detection{}
	}

	// Hard special case: "only code, no explanation" bypasses all confidence
	// logic and applies immediately.
	if isOnlyCodeStatement(lower) {
		return Detection{Preference: &Preference{
			Detail:     "low",
			Tone:       "concise",
			Scope:      ScopeContextual,
			Domain:     "code",
			Confidence: ConfidenceHigh,
		}}
	}

	detail, tone := LexiconHints(trimmed)
	detail, tone = applyPhraseOverrides(lower, detail, tone)

	if detail == "" && tone == "" {
		// The gate saw a style statement but no axis resolved: ask instead of
		// silently dropping it.
		return Detection{
			NeedsClarification:    true,
			ClarificationQuestion: "Vuoi risposte più brevi o più dettagliate? E con quale tono?",
		}
	}

	pref := &Preference{
		Detail:     detail,
		Tone:       tone,
		Scope:      detectScope(lower),
		Domain:     detectPreferenceDomain(lower),
		Confidence: computeConfidence(lower),
	}

	if pref.Confidence != ConfidenceHigh {
		return Detection{
			Preference:            pref,
			NeedsClarification:    true,
			ClarificationQuestion: clarificationQuestion(detail, tone),
		}
	}

	return Detection{Preference: pref}
}

func mentionsResponseNoun(lower string) bool {
	for _, noun := range responseNouns {
		if strings.Contains(lower, noun) {
			return true
		}
	}
	return false
}

func hasResponseAnchor(lower string) bool {
	for _, anchor := range responseAnchors {
		if strings.Contains(lower, anchor) {
			return true
		}
	}
	return false
}

func styleGateHit(lower string) bool {
	for _, term := range styleGateTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func isOnlyCodeStatement(lower string) bool {
	hasOnlyCode := strings.Contains(lower, "solo codice") || strings.Contains(lower, "only code") ||
		strings.Contains(lower, "solo il codice")
	hasNoExplanation := strings.Contains(lower, "senza spiegazion") ||
		strings.Contains(lower, "niente spiegazion") || strings.Contains(lower, "no explanation")
	return hasOnlyCode && hasNoExplanation
}

func applyPhraseOverrides(lower, detail, tone string) (string, string) {
	switch {
	case strings.Contains(lower, "non troppo lung"), strings.Contains(lower, "not too long"):
		detail = "medium"
	case strings.Contains(lower, "troppo lung"), strings.Contains(lower, "too long"):
		detail = "low"
	case strings.Contains(lower, "troppo cort"), strings.Contains(lower, "too short"):
		detail = "high"
	case strings.Contains(lower, "più dettagli"), strings.Contains(lower, "piu dettagli"),
		strings.Contains(lower, "more detail"):
		detail = "high"
	}

	if strings.Contains(lower, "dritto al punto") || strings.Contains(lower, "dritte al punto") ||
		strings.Contains(lower, "al sodo") || strings.Contains(lower, "to the point") {
		tone = "concise"
	}
	if strings.Contains(lower, "spiegami tutto") || strings.Contains(lower, "in dettaglio") {
		detail = "high"
		if tone == "" {
			tone = "rich"
		}
	}

	return detail, tone
}

func detectScope(lower string) Scope {
	for _, cue := range contextualCues {
		if strings.Contains(lower, cue) {
			return ScopeContextual
		}
	}
	for _, cue := range persistentCues {
		if strings.Contains(lower, cue) {
			return ScopePersistent
		}
	}
	for _, cue := range onceCues {
		if strings.Contains(lower, cue) {
			return ScopeOnce
		}
	}
	return ScopeOnce
}

func detectPreferenceDomain(lower string) string {
	for domain, cues := range domainCues {
		for _, cue := range cues {
			if strings.Contains(lower, cue) {
				return domain
			}
		}
	}
	return ""
}

func computeConfidence(lower string) Confidence {
	short := containsAny(lower, shortCues)
	long := containsAny(lower, longCues)
	if short && long {
		return ConfidenceLow
	}
	if containsAny(lower, negationCues) {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}

func clarificationQuestion(detail, tone string) string {
	switch {
	case detail != "" && tone == "":
		return "Quanto brevi o dettagliate vuoi le risposte, esattamente?"
	case tone != "" && detail == "":
		return "Che tono preferisci per le risposte: diretto, neutro o discorsivo?"
	default:
		return "Non mi è chiaro: preferisci risposte brevi o dettagliate, e con quale tono?"
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
