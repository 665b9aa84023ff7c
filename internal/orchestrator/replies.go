package orchestrator

import (
	"strings"

	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/preference"
)

// Local replies are deterministic: no provider is involved on these paths.

const emptyPromptReply = "Non ho ricevuto nessuna richiesta. Scrivimi cosa ti serve e ci penso io."

func smallTalkReply(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lower, "chi sei"), strings.Contains(lower, "who are you"):
		return "Sono l'assistente di anova. Posso aiutarti con domande, analisi e progetti: dimmi pure."
	case strings.Contains(lower, "cosa sai fare"), strings.Contains(lower, "cosa puoi fare"),
		strings.Contains(lower, "come funzioni"):
		return "Posso rispondere a domande, scrivere e rivedere testi e codice, e aiutarti a ragionare su problemi complessi."
	case strings.Contains(lower, "grazie"), strings.Contains(lower, "thank"):
		return "Di niente! Se ti serve altro sono qui."
	case strings.Contains(lower, "buongiorno"):
		return "Buongiorno! Come posso aiutarti?"
	case strings.Contains(lower, "buonasera"):
		return "Buonasera! Come posso aiutarti?"
	default:
		return "Ciao! Come posso aiutarti?"
	}
}

func clarificationReply(clarificationType string) string {
	switch clarificationType {
	case intent.ClarifyAnovaAmbiguous:
		return "Con \"anova\" intendi il test statistico (analisi della varianza) oppure questa applicazione? Dammi un po' di contesto e ti rispondo subito."
	case intent.ClarifyVagueGoal:
		return "Mi serve qualche dettaglio in più: qual è l'obiettivo concreto? Su cosa vuoi lavorare esattamente?"
	default:
		return "Puoi aggiungere qualche dettaglio? Così capisco meglio cosa ti serve."
	}
}

// acknowledgment describes the applied preference back to the user in the
// user's own terms.
func acknowledgment(pref *preference.Preference) string {
	var parts []string
	switch pref.Detail {
	case "low":
		parts = append(parts, "brevi")
	case "medium":
		parts = append(parts, "di lunghezza media")
	case "high":
		parts = append(parts, "dettagliate")
	}
	switch pref.Tone {
	case "concise":
		parts = append(parts, "dirette")
	case "rich":
		parts = append(parts, "discorsive")
	case "neutral":
		parts = append(parts, "con tono neutro")
	}

	desc := strings.Join(parts, " e ")
	if desc == "" {
		desc = "come preferisci"
	}

	switch pref.Scope {
	case preference.ScopePersistent:
		return "Va bene, d'ora in poi terrò le risposte " + desc + "."
	case preference.ScopeContextual:
		return "Va bene, in questo contesto terrò le risposte " + desc + "."
	default:
		return "Va bene, per questa risposta resto su risposte " + desc + "."
	}
}
