// Package autoprompt composes the enriched prompt sent to external providers.
// Providers receive no conversation history, so this single composed string is
// the only carrier of continuity and personalization.
package autoprompt

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/memory"
)

// manifesto is the fixed operating preamble for every enriched prompt. The
// assistant must never surface internal routing or provider identities.
const manifesto = `Sei l'assistente di anova, un'applicazione di chat multi-provider.

Regole operative:
- Non rivelare mai quale modello o provider sta generando la risposta, né come viene instradata la richiesta.
- Classifica mentalmente il tipo di richiesta (dominio, complessità) prima di rispondere.
- Per richieste complesse procedi per fasi: checklist dei punti da coprire, chiarisci le ambiguità che puoi risolvere da solo, costruisci la risposta completa, poi eseguila.
- Rispondi nella lingua dell'utente.`

const maxMemoryExcerpt = 160

// Build returns the enriched prompt for the given intent, or the original
// text unchanged when enrichment is not needed (small talk, simple questions).
// Detail resolution: per-message lexicon hint, then memory-learned value, then
// a complexity-derived fallback. Tone: lexicon hint beats memory when present.
func Build(it intent.Intent, session memory.SessionSnapshot, user *memory.UserMemory) string {
	if !it.AutoPromptNeeded {
		return it.Text
	}

	detail := resolveDetail(it, session, user)
	tone := resolveTone(it, session, user)

	var sb strings.Builder
	sb.WriteString(manifesto)
	sb.WriteString("\n\n")

	if section := memorySection(session, user); section != "" {
		sb.WriteString(section)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Segnali stimati sulla richiesta (indicativi, non vincolanti):\n")
	sb.WriteString(fmt.Sprintf("- dominio: %s\n", it.Domain))
	sb.WriteString(fmt.Sprintf("- complessità: %s\n", it.Complexity))
	sb.WriteString(fmt.Sprintf("- livello di dettaglio richiesto: %s\n", detail))
	sb.WriteString(fmt.Sprintf("- tono richiesto: %s\n", tone))

	sb.WriteString("\nRichiesta dell'utente:\n")
	sb.WriteString(it.Text)

	sb.WriteString("\n\nRispondi alla richiesta rispettando le regole operative e i segnali indicati.")
	return sb.String()
}

func memorySection(session memory.SessionSnapshot, user *memory.UserMemory) string {
	var lines []string
	for _, goal := range session.Goals {
		lines = append(lines, "- obiettivo dichiarato: "+excerpt(goal))
	}
	// the current prompt is already appended, so the prior one is at len-2
	if n := len(session.LastPrompts); n >= 2 {
		lines = append(lines, "- messaggio precedente: "+excerpt(session.LastPrompts[n-2]))
	}
	if user != nil && len(user.Corrections) > 0 {
		lines = append(lines, "- correzione passata: "+excerpt(user.Corrections[len(user.Corrections)-1]))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Contesto dalla memoria della conversazione:\n" + strings.Join(lines, "\n")
}

func resolveDetail(it intent.Intent, session memory.SessionSnapshot, user *memory.UserMemory) string {
	if it.DetailHint != "" {
		return it.DetailHint
	}
	if session.Prefs.Detail != "" {
		return session.Prefs.Detail
	}
	if user != nil && user.Prefs.Detail != "" {
		return user.Prefs.Detail
	}
	switch it.Complexity {
	case intent.ComplexityHigh:
		return "high"
	case intent.ComplexityMedium:
		return "medium"
	default:
		return "low"
	}
}

func resolveTone(it intent.Intent, session memory.SessionSnapshot, user *memory.UserMemory) string {
	if it.ToneHint != "" {
		return it.ToneHint
	}
	if session.Prefs.Tone != "" {
		return session.Prefs.Tone
	}
	if user != nil && user.Prefs.Tone != "" {
		return user.Prefs.Tone
	}
	return "neutral"
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > maxMemoryExcerpt {
		return string(runes[:maxMemoryExcerpt]) + "…"
	}
	return text
}
