// Package score implements the multi-formula relevance engine. Each
// formula is a pure function of a document chunk and a scoring context,
// emitting a clamped score, a defense category, and named signal
// sub-scores so every number in the output can be traced back to an
// input. The combiner blends the formulas and applies the external
// constraint adjustment.
package score

import (
	"fmt"
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// Formula identifiers, used in FormulaResult.FormulaID and in mode
// profiles that pick a primary formula.
const (
	FormulaBaseline = "baseline"
	FormulaContext  = "context"
	FormulaCategory = "category"
	FormulaCombined = "combined"
)

// categoryImportance maps a defense category to the multiplier Formula
// C applies to its raw score. Exculpatory material keeps full weight;
// administrative noise is crushed.
var categoryImportance = map[model.DefenseCategory]float64{
	model.CategoryExculpatory:    1.0,
	model.CategoryBrady:          1.0,
	model.CategoryImpeachment:    0.9,
	model.CategoryContradiction:  0.85,
	model.CategoryCorroboration:  0.7,
	model.CategoryContext:        0.5,
	model.CategoryAdministrative: 0.1,
	model.CategoryDismissed:      0,
}

// Engine evaluates chunks against the formula set.
type Engine struct {
	cfg      model.ScoringConfig
	patterns *Patterns
}

// NewEngine creates a scoring engine with the given tuning and pattern
// tables. A nil patterns argument uses the built-in tables.
func NewEngine(cfg model.ScoringConfig, patterns *Patterns) *Engine {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Engine{cfg: cfg, patterns: patterns}
}

// importanceMultiplier returns the category multiplier, honoring
// operator overrides from config.
func (e *Engine) importanceMultiplier(cat model.DefenseCategory) float64 {
	if e.cfg.CategoryWeights != nil {
		if m, ok := e.cfg.CategoryWeights[cat]; ok {
			return m
		}
	}
	if m, ok := categoryImportance[cat]; ok {
		return m
	}
	return 0.5
}

// finalize clamps the result and derives ShouldSuggest.
func (e *Engine) finalize(r *model.FormulaResult) {
	r.Score = clampScore(r.Score)
	r.ImportanceScore = clampScore(r.ImportanceScore)
	r.ShouldSuggest = r.ImportanceScore >= e.cfg.MinConfidence &&
		r.Category != model.CategoryAdministrative &&
		r.Category != model.CategoryDismissed
}

// Score runs the full pipeline for one chunk: the administrative
// pre-filter, all four formulas, and the constraint adjustment when a
// validator result is supplied (nil means unvalidated).
func (e *Engine) Score(chunk model.DocumentChunk, sctx model.ScoringContext, cv *model.ConstraintValidationResult) model.FormulaResult {
	if e.IsLikelyAdministrative(chunk) {
		r := model.FormulaResult{
			FormulaID:       FormulaCombined,
			Score:           10,
			Category:        model.CategoryAdministrative,
			ImportanceScore: 10,
			Signals:         map[string]float64{"prefilter_administrative": 1},
			Reasoning:       "pre-filter: signature/header boilerplate",
		}
		e.finalize(&r)
		return r
	}
	combined := e.Combine(
		e.Baseline(chunk, sctx),
		e.ContextAware(chunk, sctx),
		e.Classify(chunk, sctx),
	)
	return e.AdjustForConstraints(combined, cv)
}

// Combine is Formula D: a weighted blend of the three base formulas.
// The category comes from Formula C unless Formula B flagged the chunk
// administrative; a signature penalty in B deflates the combined
// importance, because one strong negative signal outweighs three
// positive ones.
func (e *Engine) Combine(a, b, c model.FormulaResult) model.FormulaResult {
	wA, wB, wC := e.cfg.WeightBaseline, e.cfg.WeightContext, e.cfg.WeightCategory

	r := model.FormulaResult{
		FormulaID:       FormulaCombined,
		Score:           a.Score*wA + b.Score*wB + c.Score*wC,
		ImportanceScore: a.ImportanceScore*wA + b.ImportanceScore*wB + c.ImportanceScore*wC,
		Category:        c.Category,
		Signals: map[string]float64{
			"baseline_score":      a.Score,
			"context_score":       b.Score,
			"category_score":      c.Score,
			"baseline_importance": a.ImportanceScore,
			"context_importance":  b.ImportanceScore,
			"category_importance": c.ImportanceScore,
		},
	}

	if b.Category == model.CategoryAdministrative {
		r.Category = model.CategoryAdministrative
	}
	if b.Signals["signature_penalty"] > 0 {
		r.ImportanceScore *= e.cfg.SignatureDeflate
		r.Signals["signature_deflated"] = 1
	}
	r.Reasoning = fmt.Sprintf("combined %.2f/%.2f/%.2f of baseline/context/category; category=%s",
		wA, wB, wC, r.Category)
	e.finalize(&r)
	return r
}

// AdjustForConstraints applies the post-combiner constraint adjustment.
// A logical contradiction between this evidence and known facts is
// disproportionately valuable to the defense, so it bumps importance
// and recategorizes unless the chunk already carries a stronger label.
func (e *Engine) AdjustForConstraints(r model.FormulaResult, cv *model.ConstraintValidationResult) model.FormulaResult {
	if cv == nil || !cv.Validated {
		return r
	}
	if r.Signals == nil {
		r.Signals = map[string]float64{}
	}
	switch {
	case cv.HasConflicts:
		r.ImportanceScore += e.cfg.ConflictBonus
		r.Signals["constraint_conflict"] = float64(cv.ConstraintCount)
		if r.Category != model.CategoryExculpatory && r.Category != model.CategoryBrady {
			r.Category = model.CategoryContradiction
		}
		r.Reasoning += fmt.Sprintf("; constraint conflict (+%.0f, %d constraints)", e.cfg.ConflictBonus, cv.ConstraintCount)
	case cv.ConstraintCount > 0:
		r.ImportanceScore += e.cfg.ConsistencyBonus
		r.Signals["constraint_consistent"] = float64(cv.ConstraintCount)
		r.Reasoning += fmt.Sprintf("; constraints satisfiable (+%.0f)", e.cfg.ConsistencyBonus)
	}
	e.finalize(&r)
	return r
}

// ByID returns the single-formula entry point named by a mode profile.
// Unknown IDs fall back to the combined pipeline.
func (e *Engine) ByID(id string, chunk model.DocumentChunk, sctx model.ScoringContext) model.FormulaResult {
	switch id {
	case FormulaBaseline:
		return e.Baseline(chunk, sctx)
	case FormulaContext:
		return e.ContextAware(chunk, sctx)
	case FormulaCategory:
		return e.Classify(chunk, sctx)
	default:
		return e.Score(chunk, sctx, nil)
	}
}

// mentionsActor reports whether the lower-cased text contains the
// actor's name or any alias.
func mentionsActor(lower string, sctx model.ScoringContext) bool {
	if sctx.ActorName != "" && strings.Contains(lower, strings.ToLower(sctx.ActorName)) {
		return true
	}
	for alias := range sctx.ActorAliases {
		if alias != "" && strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}
