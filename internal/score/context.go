package score

import (
	"fmt"
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// Position bonuses for Formula B. Body text is where substance lives;
// signatures are forced down no matter what else fires.
const (
	contextBodyBonus      = 20.0
	contextHeaderBonus    = 10.0
	contextFooterPenalty  = -10.0
	contextSignatureScore = -30.0
	contextVerbWeight     = 5.0
	contextVerbCap        = 20.0
	contextTermWeight     = 4.0
	contextTermCap        = 20.0
	contextCoActorBonus   = 10.0
	contextFlatPenalty    = 15.0
	contextSignatureFloor = 10.0
)

// ContextAware is Formula B: position-sensitive scoring. It rewards
// body text with action verbs and legal terms near the actor, and
// suppresses signatures hard: a signature block's importance is pinned
// to the floor even when other signals fire.
func (e *Engine) ContextAware(chunk model.DocumentChunk, sctx model.ScoringContext) model.FormulaResult {
	lower := strings.ToLower(chunk.Content)
	info := e.detectPosition(chunk.Content)
	signals := map[string]float64{}

	positionScore := 0.0
	switch info.Position {
	case model.PositionBody:
		positionScore = contextBodyBonus
	case model.PositionHeader:
		positionScore = contextHeaderBonus
	case model.PositionFooter:
		positionScore = contextFooterPenalty
	case model.PositionSignature:
		positionScore = contextSignatureScore
	}
	signals["position"] = positionScore

	verbScore := 0.0
	if mentionsActor(lower, sctx) {
		for _, verb := range e.patterns.ActionVerbs {
			verbScore += float64(strings.Count(lower, verb)) * contextVerbWeight
		}
		if verbScore > contextVerbCap {
			verbScore = contextVerbCap
		}
	}
	signals["action_verbs"] = verbScore

	termScore := 0.0
	for _, term := range e.patterns.LegalTerms {
		termScore += float64(strings.Count(lower, term)) * contextTermWeight
	}
	if termScore > contextTermCap {
		termScore = contextTermCap
	}
	signals["legal_terms"] = termScore

	coActorScore := 0.0
	for _, actor := range sctx.CaseActors {
		if actor == "" || strings.EqualFold(actor, sctx.ActorName) {
			continue
		}
		if strings.Contains(lower, strings.ToLower(actor)) {
			coActorScore = contextCoActorBonus
			break
		}
	}
	signals["co_actor"] = coActorScore

	typeScore := e.patterns.DocumentTypeBonus[chunk.DocumentType]
	signals["document_type"] = typeScore

	total := positionScore + verbScore + termScore + coActorScore + typeScore
	if info.SignatureHits > 0 {
		// Flat penalty whenever sign-off markers appear, even mid-body.
		total -= contextFlatPenalty
	}

	category := model.CategoryContext
	if info.Position == model.PositionSignature || info.Position == model.PositionHeader {
		category = model.CategoryAdministrative
	}

	r := model.FormulaResult{
		FormulaID:       FormulaContext,
		Score:           clampScore(total),
		Category:        category,
		ImportanceScore: clampScore(total),
		Signals:         signals,
		Reasoning: fmt.Sprintf("context: position=%s (%.0f), verbs %.0f, terms %.0f, co-actors %.0f, type %.0f",
			info.Position, positionScore, verbScore, termScore, coActorScore, typeScore),
	}

	// Signature override: a sign-off must never look important.
	if info.SignatureHits > 0 {
		r.Signals["signature_penalty"] = float64(info.SignatureHits)
		if info.Position == model.PositionSignature {
			r.ImportanceScore = contextSignatureFloor
			r.Category = model.CategoryAdministrative
		}
	}

	e.finalize(&r)
	return r
}
