package score

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/probelab/inquest/internal/model"
)

func testEngine() *Engine {
	cfg := model.DefaultConfig()
	return NewEngine(cfg.Scoring, nil)
}

const signatureBlock = `Sincerely,

John Smith, Esq.
Smith & Associates
(555) 123-4567
jsmith@smithlaw.example.com`

const bodyChunk = `Gary Cox testified that he never met the informant before June.
The witness stated during cross-examination that the wire transfer
was approved by someone else entirely, contradicting the indictment.`

func TestBaseline_ScoreRange(t *testing.T) {
	e := testEngine()

	chunk := model.DocumentChunk{
		Content:  bodyChunk,
		Keywords: []string{"cox", "wire", "transfer", "informant", "testify", "june", "approved", "indictment"},
		TagFeatures: map[string]float64{
			"exculpatory": 1.0,
			"witness":     1.0,
		},
	}
	sctx := model.ScoringContext{ActorName: "Gary Cox"}

	r := e.Baseline(chunk, sctx)
	if r.Score < 0 || r.Score > 100 {
		t.Errorf("score out of range: %f", r.Score)
	}
	if r.Signals["keyword_overlap"] != 40 {
		t.Errorf("expected keyword overlap capped at 40, got %f", r.Signals["keyword_overlap"])
	}
	if r.Signals["actor_match"] != 20 {
		t.Errorf("expected actor match bonus, got %f", r.Signals["actor_match"])
	}
	if r.Category != model.CategoryExculpatory {
		t.Errorf("expected exculpatory category, got %s", r.Category)
	}
}

func TestContextAware_SignatureForcedLow(t *testing.T) {
	e := testEngine()

	// Even with an actor mention and legal terms mixed in, a signature
	// block must come out with importance pinned to the floor.
	chunk := model.DocumentChunk{
		Content:      signatureBlock,
		DocumentType: "transcript",
	}
	sctx := model.ScoringContext{ActorName: "John Smith"}

	r := e.ContextAware(chunk, sctx)
	if r.ImportanceScore != 10 {
		t.Errorf("expected signature importance forced to 10, got %f", r.ImportanceScore)
	}
	if r.Category != model.CategoryAdministrative {
		t.Errorf("expected administrative category, got %s", r.Category)
	}
	if r.Signals["signature_penalty"] == 0 {
		t.Error("expected signature_penalty signal to fire")
	}
}

func TestContextAware_BodyBonus(t *testing.T) {
	e := testEngine()

	chunk := model.DocumentChunk{Content: bodyChunk, DocumentType: "transcript"}
	sctx := model.ScoringContext{
		ActorName:  "Gary Cox",
		CaseActors: []string{"Gary Cox", "the informant"},
	}

	r := e.ContextAware(chunk, sctx)
	if r.Signals["position"] != 20 {
		t.Errorf("expected body position bonus 20, got %f", r.Signals["position"])
	}
	if r.Signals["action_verbs"] == 0 {
		t.Error("expected action verb signal near actor mention")
	}
	if r.Signals["legal_terms"] == 0 {
		t.Error("expected legal term signal")
	}
}

func TestClassify_MultiplierTable(t *testing.T) {
	e := testEngine()

	cases := []struct {
		tag  string
		cat  model.DefenseCategory
		mult float64
	}{
		{"exculpatory", model.CategoryExculpatory, 1.0},
		{"impeachment", model.CategoryImpeachment, 0.9},
		{"contradiction", model.CategoryContradiction, 0.85},
		{"corroboration", model.CategoryCorroboration, 0.7},
	}
	for _, tc := range cases {
		chunk := model.DocumentChunk{
			Content:     bodyChunk,
			TagFeatures: map[string]float64{tc.tag: 1.0},
		}
		r := e.Classify(chunk, model.ScoringContext{})
		if r.Category != tc.cat {
			t.Errorf("tag %s: expected category %s, got %s", tc.tag, tc.cat, r.Category)
		}
		if r.Signals["importance_multiplier"] != tc.mult {
			t.Errorf("tag %s: expected multiplier %f, got %f", tc.tag, tc.mult, r.Signals["importance_multiplier"])
		}
	}
}

func TestCombine_AdministrativeNeverSuggested(t *testing.T) {
	e := testEngine()

	// Exhaustive-ish sweep: whatever the component scores, an
	// administrative result from Formula B must never be suggested.
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := model.FormulaResult{Score: rng.Float64() * 100, ImportanceScore: rng.Float64() * 100, Category: model.CategoryExculpatory}
		b := model.FormulaResult{Score: rng.Float64() * 100, ImportanceScore: rng.Float64() * 100, Category: model.CategoryAdministrative}
		c := model.FormulaResult{Score: rng.Float64() * 100, ImportanceScore: rng.Float64() * 100, Category: model.CategoryExculpatory}

		r := e.Combine(a, b, c)
		if r.Category != model.CategoryAdministrative {
			t.Fatalf("expected administrative override, got %s", r.Category)
		}
		if r.ShouldSuggest {
			t.Fatal("administrative result must never be suggested")
		}
	}
}

func TestCombine_SignatureDeflation(t *testing.T) {
	e := testEngine()

	a := model.FormulaResult{Score: 80, ImportanceScore: 80, Category: model.CategoryExculpatory}
	b := model.FormulaResult{
		Score: 60, ImportanceScore: 60, Category: model.CategoryContext,
		Signals: map[string]float64{"signature_penalty": 1},
	}
	c := model.FormulaResult{Score: 90, ImportanceScore: 90, Category: model.CategoryExculpatory}

	r := e.Combine(a, b, c)
	// 80*0.3 + 60*0.35 + 90*0.35 = 76.5, deflated by 0.2 = 15.3
	if r.ImportanceScore > 16 {
		t.Errorf("expected heavy deflation, got %f", r.ImportanceScore)
	}
	if r.Signals["signature_deflated"] != 1 {
		t.Error("expected signature_deflated signal")
	}
}

func TestAdjustForConstraints(t *testing.T) {
	e := testEngine()

	base := model.FormulaResult{
		FormulaID: FormulaCombined, Score: 50, ImportanceScore: 50,
		Category: model.CategoryCorroboration,
	}

	conflict := e.AdjustForConstraints(base, &model.ConstraintValidationResult{
		HasConflicts: true, ConstraintCount: 4, Validated: true,
	})
	if conflict.ImportanceScore != 70 {
		t.Errorf("expected +20 on conflict, got %f", conflict.ImportanceScore)
	}
	if conflict.Category != model.CategoryContradiction {
		t.Errorf("expected contradiction recategorization, got %s", conflict.Category)
	}

	// Brady material keeps its category even on conflict.
	brady := base
	brady.Category = model.CategoryBrady
	adjusted := e.AdjustForConstraints(brady, &model.ConstraintValidationResult{
		HasConflicts: true, ConstraintCount: 1, Validated: true,
	})
	if adjusted.Category != model.CategoryBrady {
		t.Errorf("brady category must survive conflict adjustment, got %s", adjusted.Category)
	}

	consistent := e.AdjustForConstraints(base, &model.ConstraintValidationResult{
		ConstraintCount: 2, Validated: true,
	})
	if consistent.ImportanceScore != 55 {
		t.Errorf("expected +5 on consistent constraints, got %f", consistent.ImportanceScore)
	}

	untouched := e.AdjustForConstraints(base, nil)
	if untouched.ImportanceScore != base.ImportanceScore {
		t.Errorf("nil validation must not change importance, got %f", untouched.ImportanceScore)
	}
}

func TestScore_PreFilterShortCircuit(t *testing.T) {
	e := testEngine()

	chunk := model.DocumentChunk{Content: signatureBlock}
	r := e.Score(chunk, model.ScoringContext{}, nil)
	if r.Category != model.CategoryAdministrative {
		t.Errorf("expected administrative from pre-filter, got %s", r.Category)
	}
	if r.ImportanceScore != 10 {
		t.Errorf("expected importance 10 from pre-filter, got %f", r.ImportanceScore)
	}
	if r.Signals["prefilter_administrative"] != 1 {
		t.Error("expected prefilter signal")
	}
}

func TestScore_ClampedForRandomInputs(t *testing.T) {
	e := testEngine()
	rng := rand.New(rand.NewSource(42))
	words := []string{"testified", "sincerely", "warrant", "gary", "cox", "transfer", "subject:", "lorem", "ipsum"}

	for i := 0; i < 300; i++ {
		n := rng.Intn(60)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteString(words[rng.Intn(len(words))])
			if rng.Intn(5) == 0 {
				sb.WriteString("\n")
			} else {
				sb.WriteString(" ")
			}
		}
		chunk := model.DocumentChunk{
			Content:  sb.String(),
			Keywords: words[:rng.Intn(len(words))],
			TagFeatures: map[string]float64{
				"exculpatory": rng.Float64() * 10,
				"boilerplate": rng.Float64() * 10,
			},
		}
		r := e.Score(chunk, model.ScoringContext{ActorName: "Gary Cox"}, nil)
		if r.Score < 0 || r.Score > 100 {
			t.Fatalf("score out of range: %f", r.Score)
		}
		if r.ImportanceScore < 0 || r.ImportanceScore > 100 {
			t.Fatalf("importance out of range: %f", r.ImportanceScore)
		}
	}
}

func TestLoadPatterns_Defaults(t *testing.T) {
	p, err := LoadPatterns("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.ActionVerbs) == 0 || len(p.signatureRe) == 0 {
		t.Error("expected built-in tables to be populated and compiled")
	}
}
