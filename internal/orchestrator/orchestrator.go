// Package orchestrator sequences one request through classification,
// preference handling, local short-circuits, prompt enrichment, provider
// fanout and fusion. Only the enrich-fanout-fuse path costs money; every
// other path answers locally with a fixed fusion score of 1.
package orchestrator

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/stellarlinkco/anova/internal/autoprompt"
	"github.com/stellarlinkco/anova/internal/intent"
	"github.com/stellarlinkco/anova/internal/memory"
	"github.com/stellarlinkco/anova/internal/preference"
	"github.com/stellarlinkco/anova/internal/provider"
	"github.com/stellarlinkco/anova/internal/quality"
	"github.com/stellarlinkco/anova/internal/routing"
)

// Meta carries per-request diagnostics alongside the answer.
type Meta struct {
	RequestID          string                 `json:"requestId"`
	Intent             intent.Intent          `json:"intent"`
	SmallTalkHandled   bool                   `json:"smallTalkHandled"`
	ClarificationUsed  bool                   `json:"clarificationUsed"`
	AutoPromptUsed     bool                   `json:"autoPromptUsed"`
	PreferenceDetected bool                   `json:"preferenceDetected"`
	EnrichedPrompt     string                 `json:"enrichedPrompt,omitempty"`
	FanoutStats        routing.Stats          `json:"fanoutStats"`
	Session            memory.SessionSnapshot `json:"session"`
}

// Result is the full orchestration outcome for one prompt.
type Result struct {
	Fusion          quality.Fusion      `json:"fusion"`
	Raw             []provider.Response `json:"raw,omitempty"`
	Meta            Meta                `json:"meta"`
	CostThisRequest float64             `json:"costThisRequest"`
}

type Orchestrator struct {
	classifier intent.Classifier
	prefs      *preference.Engine
	router     *routing.Router
	users      *memory.UserStore
	queue      *memory.PersistQueue
}

func New(classifier intent.Classifier, prefs *preference.Engine, router *routing.Router,
	users *memory.UserStore, queue *memory.PersistQueue) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		prefs:      prefs,
		router:     router,
		users:      users,
		queue:      queue,
	}
}

// Orchestrate runs the request state machine. The session belongs to the
// caller's connection and is mutated in place; user memory persistence happens
// off the response path.
func (o *Orchestrator) Orchestrate(ctx context.Context, prompt, userID string, session *memory.Session) Result {
	requestID := uuid.NewString()
	it := o.classifier.Classify(prompt)
	session.Update(prompt, it.Domain)

	meta := Meta{RequestID: requestID, Intent: it}

	detection := o.prefs.Detect(prompt)
	if detection.Preference != nil && !detection.NeedsClarification {
		pref := detection.Preference
		session.ApplyPreference(pref.Detail, pref.Tone)
		if pref.Scope == preference.ScopePersistent {
			o.persistAsync(userID, session)
		}
		meta.PreferenceDetected = true
		meta.Session = session.Snapshot()
		log.Printf("[orchestrator] %s preference applied (detail=%s tone=%s scope=%s)",
			requestID, pref.Detail, pref.Tone, pref.Scope)
		return localResult(acknowledgment(pref), meta)
	}
	if detection.NeedsClarification {
		meta.PreferenceDetected = detection.Preference != nil
		meta.ClarificationUsed = true
		meta.Session = session.Snapshot()
		return localResult(detection.ClarificationQuestion, meta)
	}

	if it.SmallTalk {
		meta.SmallTalkHandled = true
		meta.Session = session.Snapshot()
		return localResult(smallTalkReply(prompt), meta)
	}
	if it.NeedsClarification {
		meta.ClarificationUsed = true
		meta.Session = session.Snapshot()
		return localResult(clarificationReply(it.ClarificationType), meta)
	}
	if !it.AutoPromptNeeded {
		// Only blank input lands here: nothing to enrich or route, so it must
		// not reach the providers.
		meta.ClarificationUsed = true
		meta.Session = session.Snapshot()
		return localResult(emptyPromptReply, meta)
	}

	userMem := o.users.Load(ctx, userID)
	enriched := autoprompt.Build(it, session.Snapshot(), userMem)
	meta.AutoPromptUsed = it.AutoPromptNeeded
	meta.EnrichedPrompt = enriched

	fanout := o.router.Fanout(ctx, it, enriched)
	meta.FanoutStats = fanout.Stats

	fusion := quality.Fuse(fanout.Responses, it.Domain)

	var cost float64
	for _, resp := range fanout.Responses {
		cost += resp.EstimatedCost
	}

	o.persistAsync(userID, session)
	meta.Session = session.Snapshot()

	log.Printf("[orchestrator] %s domain=%s calls=%d score=%.2f cost=%.6f",
		requestID, it.Domain, fanout.Stats.Calls, fusion.Score, cost)

	return Result{
		Fusion:          fusion,
		Raw:             fanout.Responses,
		Meta:            meta,
		CostThisRequest: cost,
	}
}

// localResult wraps a deterministic local answer: fusion score 1 signals
// "local deterministic reply", not a scored provider fusion.
func localResult(text string, meta Meta) Result {
	return Result{
		Fusion: quality.Fusion{Text: text, Score: 1},
		Meta:   meta,
	}
}

func (o *Orchestrator) persistAsync(userID string, session *memory.Session) {
	if o.queue == nil || userID == "" {
		return
	}
	o.queue.Enqueue(userID, session.Snapshot())
}
