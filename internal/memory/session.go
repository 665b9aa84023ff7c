// Package memory holds the two-tier memory model: per-session behavioral
// state and long-term per-user memory persisted in the document store.
package memory

import (
	"strings"
	"sync"

	"github.com/stellarlinkco/anova/internal/intent"
)

const (
	maxLastPrompts  = 3
	statDecayFactor = 0.93
)

var goalTriggers = []string{
	"voglio ", "vorrei ", "il mio obiettivo", "devo ", "sto cercando di",
	"i want", "i need", "my goal",
}

var correctionTriggers = []string{
	"non intendevo", "non è quello che", "sbagliato", "hai capito male",
	"non volevo dire", "not what i meant", "that's wrong",
}

// PreferenceStats tracks the learned tone and detail preference with
// confidence values that decay geometrically on every update.
type PreferenceStats struct {
	Tone             string  `json:"tone,omitempty"`
	Detail           string  `json:"detail,omitempty"`
	ToneConfidence   float64 `json:"toneConfidence"`
	DetailConfidence float64 `json:"detailConfidence"`
}

// Session is the short-lived behavioral memory for one chat session. It is
// owned by the gateway's session registry and passed into each orchestration
// call; there is no package-level instance.
type Session struct {
	mu sync.Mutex

	Goals           []string
	Prefs           PreferenceStats
	Corrections     []string
	DomainHistory   []string
	LastPrompts     []string
	MessageCount    int
	AvgPromptLength float64
}

func NewSession() *Session {
	return &Session{}
}

// Update folds one orchestrated prompt into the session: decays preference
// confidence, updates counters and bounded histories, and picks up goal and
// correction statements from trigger phrases.
func (s *Session) Update(prompt string, domain intent.Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prefs.ToneConfidence = clamp01(s.Prefs.ToneConfidence * statDecayFactor)
	s.Prefs.DetailConfidence = clamp01(s.Prefs.DetailConfidence * statDecayFactor)

	s.MessageCount++
	s.AvgPromptLength += (float64(len(prompt)) - s.AvgPromptLength) / float64(s.MessageCount)

	s.LastPrompts = append(s.LastPrompts, prompt)
	if len(s.LastPrompts) > maxLastPrompts {
		s.LastPrompts = s.LastPrompts[len(s.LastPrompts)-maxLastPrompts:]
	}

	s.appendDomain(string(domain))

	lower := strings.ToLower(prompt)
	for _, trigger := range goalTriggers {
		if strings.Contains(lower, trigger) {
			s.Goals = appendUnique(s.Goals, strings.TrimSpace(prompt))
			break
		}
	}
	for _, trigger := range correctionTriggers {
		if strings.Contains(lower, trigger) {
			s.Corrections = append(s.Corrections, strings.TrimSpace(prompt))
			break
		}
	}
}

// ApplyPreference records an explicitly stated preference at full confidence.
func (s *Session) ApplyPreference(detail, tone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if detail != "" {
		s.Prefs.Detail = detail
		s.Prefs.DetailConfidence = 1.0
	}
	if tone != "" {
		s.Prefs.Tone = tone
		s.Prefs.ToneConfidence = 1.0
	}
}

// Snapshot returns a copy safe to embed in response metadata.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		Goals:           append([]string(nil), s.Goals...),
		Prefs:           s.Prefs,
		Corrections:     append([]string(nil), s.Corrections...),
		DomainHistory:   append([]string(nil), s.DomainHistory...),
		LastPrompts:     append([]string(nil), s.LastPrompts...),
		MessageCount:    s.MessageCount,
		AvgPromptLength: s.AvgPromptLength,
	}
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Goals = nil
	s.Prefs = PreferenceStats{}
	s.Corrections = nil
	s.DomainHistory = nil
	s.LastPrompts = nil
	s.MessageCount = 0
	s.AvgPromptLength = 0
}

// SessionSnapshot is an immutable copy of the session state.
type SessionSnapshot struct {
	Goals           []string        `json:"goals,omitempty"`
	Prefs           PreferenceStats `json:"prefs"`
	Corrections     []string        `json:"corrections,omitempty"`
	DomainHistory   []string        `json:"domainHistory,omitempty"`
	LastPrompts     []string        `json:"lastPrompts,omitempty"`
	MessageCount    int             `json:"messageCount"`
	AvgPromptLength float64         `json:"avgPromptLength"`
}

func (s *Session) appendDomain(domain string) {
	for _, d := range s.DomainHistory {
		if d == domain {
			return
		}
	}
	s.DomainHistory = append(s.DomainHistory, domain)
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
