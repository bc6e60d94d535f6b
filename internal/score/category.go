package score

import (
	"fmt"
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// Category priority scores for Formula C. Exculpatory material ranks
// above everything; administrative noise scores near zero.
var categoryPriority = map[model.DefenseCategory]float64{
	model.CategoryExculpatory:    90,
	model.CategoryBrady:          90,
	model.CategoryImpeachment:    75,
	model.CategoryContradiction:  70,
	model.CategoryCorroboration:  55,
	model.CategoryContext:        35,
	model.CategoryAdministrative: 5,
	model.CategoryDismissed:      0,
}

const (
	categoryActorBonus   = 10.0
	categoryTheoryCap    = 15.0
	categoryTheoryWeight = 3.0
)

// Classify is Formula C: category-first scoring. The chunk's category
// is derived from tag features (with the position heuristic downgrading
// boilerplate to administrative), then importance is the raw score
// scaled by the category multiplier table.
func (e *Engine) Classify(chunk model.DocumentChunk, sctx model.ScoringContext) model.FormulaResult {
	lower := strings.ToLower(chunk.Content)
	signals := map[string]float64{}

	category := e.categoryFromTags(chunk.TagFeatures)
	info := e.detectPosition(chunk.Content)
	if info.Position == model.PositionSignature || info.Position == model.PositionHeader {
		category = model.CategoryAdministrative
	}

	base := categoryPriority[category]
	signals["category_priority"] = base

	actorScore := 0.0
	if mentionsActor(lower, sctx) {
		actorScore = categoryActorBonus
	}
	signals["actor_relevance"] = actorScore

	theoryScore := 0.0
	if sctx.TheoryContext != "" {
		for _, word := range strings.Fields(strings.ToLower(sctx.TheoryContext)) {
			if len(word) < 4 {
				continue
			}
			if strings.Contains(lower, word) {
				theoryScore += categoryTheoryWeight
			}
		}
		if theoryScore > categoryTheoryCap {
			theoryScore = categoryTheoryCap
		}
	}
	signals["theory_overlap"] = theoryScore

	total := clampScore(base + actorScore + theoryScore)
	mult := e.importanceMultiplier(category)
	signals["importance_multiplier"] = mult

	r := model.FormulaResult{
		FormulaID:       FormulaCategory,
		Score:           total,
		Category:        category,
		ImportanceScore: clampScore(total * mult),
		Signals:         signals,
		Reasoning: fmt.Sprintf("category=%s (priority %.0f, multiplier %.2f), actor %.0f, theory %.0f",
			category, base, mult, actorScore, theoryScore),
	}
	e.finalize(&r)
	return r
}
