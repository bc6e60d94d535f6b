// Package mode routes a free-text query to one of six operating modes.
// Each mode bundles a formula choice, concurrency profile, and feature
// toggles; classification is ordered pattern matching, most specific
// vocabulary first, so a trial-testimony query never falls through to
// the bulk path just because it also mentions documents.
package mode

import (
	"fmt"
	"strings"
)

// Mode names the six operating profiles.
type Mode string

const (
	TrialAnalysis  Mode = "trial_analysis"
	EntityLinking  Mode = "entity_linking"
	ExhibitLinking Mode = "exhibit_linking"
	BulkLinking    Mode = "bulk_linking"
	DeepDive       Mode = "deep_dive"
	QuickSearch    Mode = "quick_search"
)

// Profile carries the settings a mode implies for the rest of the
// pipeline. BatchSize is the scoring/search concurrency for that mode:
// 1 for exhaustive deep-dives up to 100 for fast bulk passes.
type Profile struct {
	Mode             Mode   `json:"mode"`
	PrimaryFormula   string `json:"primary_formula"`
	SecondaryFormula string `json:"secondary_formula,omitempty"`
	UseLLM           bool   `json:"use_llm"`
	UseValidator     bool   `json:"use_validator"`
	BatchSize        int    `json:"batch_size"`
	KnowledgeSource  string `json:"knowledge_source,omitempty"`
}

// Match is the router's answer: the selected profile, a confidence in
// the match itself, and a human-readable justification used for both
// logging and tests.
type Match struct {
	Profile       Profile `json:"profile"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

// profiles maps each mode to its tuned settings.
var profiles = map[Mode]Profile{
	TrialAnalysis: {
		Mode: TrialAnalysis, PrimaryFormula: "context", SecondaryFormula: "category",
		UseLLM: true, UseValidator: true, BatchSize: 10, KnowledgeSource: "transcripts",
	},
	DeepDive: {
		Mode: DeepDive, PrimaryFormula: "combined",
		UseLLM: true, UseValidator: true, BatchSize: 1,
	},
	ExhibitLinking: {
		Mode: ExhibitLinking, PrimaryFormula: "category", SecondaryFormula: "baseline",
		UseLLM: false, UseValidator: false, BatchSize: 25, KnowledgeSource: "exhibits",
	},
	EntityLinking: {
		Mode: EntityLinking, PrimaryFormula: "baseline", SecondaryFormula: "category",
		UseLLM: true, UseValidator: false, BatchSize: 20, KnowledgeSource: "entities",
	},
	BulkLinking: {
		Mode: BulkLinking, PrimaryFormula: "baseline",
		UseLLM: false, UseValidator: false, BatchSize: 100,
	},
	QuickSearch: {
		Mode: QuickSearch, PrimaryFormula: "baseline",
		UseLLM: false, UseValidator: false, BatchSize: 50,
	},
}

// ProfileFor returns the settings bundle for a mode.
func ProfileFor(m Mode) Profile {
	if p, ok := profiles[m]; ok {
		return p
	}
	return profiles[QuickSearch]
}

// vocabulary is one ordered pattern set. Sets are checked in priority
// order and the first set with a hit wins.
type vocabulary struct {
	mode       Mode
	confidence float64
	phrases    []string
}

// vocabularies in fixed priority order: trial testimony first (highest
// specificity), quick-search verbs last before the default.
var vocabularies = []vocabulary{
	{TrialAnalysis, 0.9, []string{
		"testify", "testified", "testimony", "cross-examination", "cross examination",
		"direct examination", "witness stand", "trial", "juror", "voir dire",
		"opening statement", "closing argument",
	}},
	{DeepDive, 0.85, []string{
		"why does", "why did", "contradict", "contradiction", "inconsisten",
		"investigate", "dig into", "deep dive", "explain how", "timeline conflict",
		"doesn't add up", "does not add up", "discrepanc",
	}},
	{ExhibitLinking, 0.85, []string{
		"exhibit", "attachment", "bates", "document number", "marked as",
	}},
	{EntityLinking, 0.8, []string{
		"who is", "relationship between", "connected to", "associates of",
		"works with", "related to", "link between",
	}},
	{BulkLinking, 0.75, []string{
		"all documents", "every document", "link all", "across all", "bulk",
	}},
	{QuickSearch, 0.7, []string{
		"show me", "find", "search for", "list", "emails from", "look up",
	}},
}

// Router classifies queries, with optional workflow-stage fallback.
type Router struct {
	// stageDefault maps a prior workflow stage to the mode it implies
	// when the query itself matches nothing.
	stageDefault map[string]Mode
}

// NewRouter creates a query router.
func NewRouter() *Router {
	return &Router{
		stageDefault: map[string]Mode{
			"trial_prep":    TrialAnalysis,
			"review":        ExhibitLinking,
			"intake":        BulkLinking,
			"investigation": DeepDive,
		},
	}
}

// Classify routes a query. The stage argument is the prior workflow
// stage ("" if unknown); it is only consulted when no vocabulary
// matches. The global default is quick_search.
func (r *Router) Classify(query, stage string) Match {
	lower := strings.ToLower(query)

	for _, v := range vocabularies {
		for _, phrase := range v.phrases {
			if strings.Contains(lower, phrase) {
				return Match{
					Profile:       ProfileFor(v.mode),
					Confidence:    v.confidence,
					Justification: fmt.Sprintf("matched %q in %s vocabulary", phrase, v.mode),
				}
			}
		}
	}

	if m, ok := r.stageDefault[stage]; ok {
		return Match{
			Profile:       ProfileFor(m),
			Confidence:    0.5,
			Justification: fmt.Sprintf("no vocabulary match; workflow stage %q implies %s", stage, m),
		}
	}

	return Match{
		Profile:       ProfileFor(QuickSearch),
		Confidence:    0.3,
		Justification: "no vocabulary or stage match; defaulting to quick_search",
	}
}
