package intent

import (
	"strings"

	"github.com/stellarlinkco/anova/internal/preference"
)

const (
	smallTalkMaxLen     = 120
	complexityMediumLen = 80
	complexityHighLen   = 240
	vagueGoalMaxLen     = 60
)

var domainKeywords = map[Domain][]string{
	DomainCode: {
		"codice", "funzione", "script", "programma", "bug", "debug", "api",
		"compila", "refactor", "sql", "regex", "endpoint", "deploy",
		"code", "function", "backend", "frontend", "database",
	},
	DomainCreative: {
		"storia", "racconto", "poesia", "slogan", "creativo", "creativa",
		"romanzo", "canzone", "metafora", "story", "poem", "creative",
	},
	DomainFactual: {
		"cos'è", "cosa è", "chi è", "quando", "dove", "perché", "spiega",
		"spiegami", "definizione", "significa", "what is", "who is", "explain",
	},
	DomainStrategy: {
		"strategia", "piano", "business", "progetta", "progettami", "sistema",
		"architettura", "roadmap", "marketing", "organizza", "strategy", "plan",
	},
}

var smallTalkPhrases = []string{
	"ciao", "ehi", "hey", "hello", "hi", "salve", "buongiorno", "buonasera",
	"come stai", "come va", "tutto bene", "grazie", "thank you", "thanks",
	"chi sei", "cosa sai fare", "cosa puoi fare", "come funzioni",
	"who are you", "what can you do",
}

var smallTalkExclusions = []string{
	"errore", "error", "bug", "non funziona", "crash", "exception", "problema",
}

var genericImperatives = []string{
	"fammi", "fai", "dammi", "scrivi", "crea", "genera", "aiuta", "migliora",
	"sistemalo", "make", "write", "create", "help", "improve", "fix",
}

var vagueGoalPhrases = []string{
	"aiutami", "ho bisogno di aiuto", "non so cosa fare", "non so da dove iniziare",
	"voglio migliorare", "help me", "i need help", "i don't know",
}

// anovaContextTerms disambiguate a mention of "anova": statistics vocabulary
// on one side, product vocabulary on the other.
var anovaContextTerms = []string{
	"beta", "statistica", "statistical", "varianza", "variance", "test",
	"progetto", "piattaforma", "app", "prodotto", "multi-ai",
}

// KeywordClassifier is the curated-list classifier. Pure and deterministic:
// same prompt, same Intent, no I/O.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(prompt string) Intent {
	text := strings.TrimSpace(prompt)
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	it := Intent{
		Text:       text,
		Domain:     detectDomain(lower),
		Tone:       "neutral",
		Complexity: detectComplexity(text),
	}

	it.DetailHint, it.ToneHint = preference.LexiconHints(text)
	it.SmallTalk = isSmallTalk(lower)
	it.SimpleQuestion = !it.SmallTalk && len(words) <= 6 && strings.HasSuffix(lower, "?")

	if !it.SmallTalk {
		it.NeedsClarification, it.ClarificationType = detectClarification(lower, words)
	}

	it.AutoPromptNeeded = text != "" && !it.SmallTalk && !it.NeedsClarification
	return it
}

func detectDomain(lower string) Domain {
	for _, domain := range Domains() {
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(lower, kw) {
				return domain
			}
		}
	}
	return DomainLogic
}

func detectComplexity(text string) Complexity {
	switch {
	case len(text) >= complexityHighLen:
		return ComplexityHigh
	case len(text) >= complexityMediumLen:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func isSmallTalk(lower string) bool {
	if lower == "" || len(lower) >= smallTalkMaxLen {
		return false
	}
	for _, excl := range smallTalkExclusions {
		if strings.Contains(lower, excl) {
			return false
		}
	}
	// Trailing punctuation does not change the phrase: "come stai?" greets
	// exactly like "come stai".
	bare := strings.TrimRight(lower, "!?. ")
	for _, phrase := range smallTalkPhrases {
		if bare == phrase {
			return true
		}
	}
	// Meta questions about the assistant count as small talk even when padded.
	for _, phrase := range []string{"chi sei", "cosa sai fare", "cosa puoi fare", "who are you", "what can you do"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// detectClarification applies the clarification rules in fixed order; the
// first rule that matches sets the type and no later rule can override it.
func detectClarification(lower string, words []string) (bool, string) {
	if strings.Contains(lower, "anova") && !hasAnovaContext(lower) {
		return true, ClarifyAnovaAmbiguous
	}

	if len(words) > 0 && len(words) < 5 && isGenericImperative(words[0]) && !hasTopicNoun(lower) {
		return true, ClarifyVagueGoal
	}

	if len(lower) < vagueGoalMaxLen {
		for _, phrase := range vagueGoalPhrases {
			if strings.Contains(lower, phrase) {
				return true, ClarifyVagueGoal
			}
		}
	}

	if len(words) > 0 && len(words) < 4 && !strings.HasSuffix(lower, "?") && !hasTopicNoun(lower) {
		return true, ClarifyGeneric
	}

	return false, ""
}

func hasAnovaContext(lower string) bool {
	for _, term := range anovaContextTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func isGenericImperative(word string) bool {
	for _, imp := range genericImperatives {
		if word == imp {
			return true
		}
	}
	return false
}

func hasTopicNoun(lower string) bool {
	for _, keywords := range domainKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
