package intent

// Domain is the closed set of request domains used by routing policy and
// scoring. Unknown text falls back to DomainLogic.
type Domain string

const (
	DomainLogic    Domain = "logic"
	DomainCode     Domain = "code"
	DomainCreative Domain = "creative"
	DomainFactual  Domain = "factual"
	DomainStrategy Domain = "strategy"
)

// Domains lists every known domain, in classifier priority order after code.
func Domains() []Domain {
	return []Domain{DomainCode, DomainCreative, DomainFactual, DomainStrategy, DomainLogic}
}

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Clarification kinds. First matching rule wins; later rules never override.
const (
	ClarifyAnovaAmbiguous = "anova_ambiguous"
	ClarifyVagueGoal      = "vague_goal"
	ClarifyGeneric        = "generic"
)

// Intent is the per-request classification result. It is created once per
// inbound prompt and never mutated afterwards.
type Intent struct {
	Text               string
	Domain             Domain
	Tone               string
	Complexity         Complexity
	SmallTalk          bool
	SimpleQuestion     bool
	NeedsClarification bool
	ClarificationType  string
	AutoPromptNeeded   bool
	DetailHint         string // lexicon-derived, may be empty
	ToneHint           string // lexicon-derived, may be empty
}

// Classifier turns raw user text into an Intent. The keyword implementation is
// one conforming classifier, not the contract; callers must not assume keyword
// semantics.
type Classifier interface {
	Classify(prompt string) Intent
}
