package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// Baseline tuning. Keyword overlap and tag features are capped so a
// keyword-stuffed chunk cannot buy its way to the top.
const (
	baselineKeywordWeight = 8.0
	baselineKeywordCap    = 40.0
	baselineActorBonus    = 20.0
	baselineTagCap        = 40.0
)

// Baseline is Formula A: keyword overlap, actor mention, and a
// weighted sum of backend tag features. Cheap and position-blind.
func (e *Engine) Baseline(chunk model.DocumentChunk, sctx model.ScoringContext) model.FormulaResult {
	lower := strings.ToLower(chunk.Content)
	signals := map[string]float64{}

	keywordScore := float64(len(chunk.Keywords)) * baselineKeywordWeight
	if keywordScore > baselineKeywordCap {
		keywordScore = baselineKeywordCap
	}
	signals["keyword_overlap"] = keywordScore

	actorScore := 0.0
	if mentionsActor(lower, sctx) {
		actorScore = baselineActorBonus
	}
	signals["actor_match"] = actorScore

	tagScore := 0.0
	for tag, value := range chunk.TagFeatures {
		if w, ok := e.patterns.TagWeights[tag]; ok {
			tagScore += w * value
		}
	}
	if tagScore > baselineTagCap {
		tagScore = baselineTagCap
	}
	if tagScore < 0 {
		tagScore = 0
	}
	signals["tag_features"] = tagScore

	total := clampScore(keywordScore + actorScore + tagScore)

	r := model.FormulaResult{
		FormulaID:       FormulaBaseline,
		Score:           total,
		Category:        e.categoryFromTags(chunk.TagFeatures),
		ImportanceScore: total,
		Signals:         signals,
		Reasoning: fmt.Sprintf("baseline: %d keywords (%.0f), actor %.0f, tags %.0f",
			len(chunk.Keywords), keywordScore, actorScore, tagScore),
	}
	e.finalize(&r)
	return r
}

// categoryFromTags picks the category implied by the strongest
// recognized tag feature; ties break on tag name for determinism.
func (e *Engine) categoryFromTags(tags map[string]float64) model.DefenseCategory {
	best := model.CategoryContext
	bestVal := 0.0
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cat, ok := e.patterns.CategoryTags[name]
		if !ok {
			continue
		}
		if v := tags[name]; v > bestVal {
			bestVal = v
			best = cat
		}
	}
	return best
}
