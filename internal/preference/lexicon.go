package preference

import "strings"

// Word lexicons mapping single tokens to a detail bucket and a tone bucket.
// Italian diminutives ("brevino", "corticino") are stripped to their base
// before lookup so colloquial phrasing still lands on the right bucket.

var detailLexicon = map[string]string{
	"breve": "low", "brevi": "low", "corto": "low", "corta": "low",
	"corti": "low", "corte": "low", "sintetico": "low", "sintetica": "low",
	"conciso": "low", "concisa": "low", "stringato": "low", "essenziale": "low",
	"short": "low", "brief": "low", "concise": "low",
	"normale": "medium", "media": "medium", "medio": "medium", "normal": "medium",
	"dettagliato": "high", "dettagliata": "high", "dettagliate": "high",
	"approfondito": "high", "approfondita": "high", "approfondite": "high",
	"lungo": "high", "lunga": "high", "lunghi": "high", "lunghe": "high",
	"completo": "high", "completa": "high", "esteso": "high", "estesa": "high",
	"esaustivo": "high", "esaustiva": "high",
	"detailed": "high", "long": "high", "thorough": "high", "complete": "high",
}

var toneLexicon = map[string]string{
	"diretto": "concise", "diretta": "concise", "diretti": "concise",
	"dirette": "concise", "asciutto": "concise", "asciutta": "concise",
	"secco": "concise", "secca": "concise", "direct": "concise",
	"neutro": "neutral", "neutra": "neutral", "semplice": "neutral",
	"neutral": "neutral", "plain": "neutral",
	"ricco": "rich", "ricca": "rich", "discorsivo": "rich", "discorsiva": "rich",
	"colorito": "rich", "elaborato": "rich", "elaborata": "rich", "rich": "rich",
}

var diminutiveSuffixes = []string{
	"ino", "ina", "ini", "ine", "etto", "etta", "etti", "ette", "uccio", "uccia",
}

func stripDiminutive(word string) []string {
	for _, suffix := range diminutiveSuffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			base := strings.TrimSuffix(word, suffix)
			return []string{base, base + "e", base + "o", base + "a", base + "i"}
		}
	}
	return nil
}

func lookupLexicon(lexicon map[string]string, word string) string {
	if v, ok := lexicon[word]; ok {
		return v
	}
	for _, candidate := range stripDiminutive(word) {
		if v, ok := lexicon[candidate]; ok {
			return v
		}
	}
	return ""
}

func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', ';', ':', '!', '?', '"', '(', ')':
			return true
		}
		return false
	})
}

// LexiconHints walks the text word by word and returns the detail and tone
// buckets it lands on, empty strings when no token matches. The last match
// wins for each axis.
func LexiconHints(text string) (detail, tone string) {
	for _, word := range tokenize(text) {
		if v := lookupLexicon(detailLexicon, word); v != "" {
			detail = v
		}
		if v := lookupLexicon(toneLexicon, word); v != "" {
			tone = v
		}
	}
	return detail, tone
}
