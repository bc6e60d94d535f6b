package model

// DefenseCategory classifies a scored chunk by its value to the defense.
type DefenseCategory string

const (
	CategoryExculpatory    DefenseCategory = "exculpatory"
	CategoryBrady          DefenseCategory = "brady"
	CategoryImpeachment    DefenseCategory = "impeachment"
	CategoryContradiction  DefenseCategory = "contradiction"
	CategoryCorroboration  DefenseCategory = "corroboration"
	CategoryContext        DefenseCategory = "context"
	CategoryAdministrative DefenseCategory = "administrative"
	CategoryDismissed      DefenseCategory = "dismissed"
)

// FormulaResult is the output of any scoring formula.
// Score and ImportanceScore are always clamped to [0,100].
type FormulaResult struct {
	FormulaID       string             `json:"formula_id"`
	Score           float64            `json:"score"`
	Category        DefenseCategory    `json:"category"`
	ImportanceScore float64            `json:"importance_score"`
	Signals         map[string]float64 `json:"signals,omitempty"` // Named sub-scores for explainability
	Reasoning       string             `json:"reasoning,omitempty"`
	ShouldSuggest   bool               `json:"should_suggest"`
}

// ConstraintValidationResult is the answer from the external
// logical-consistency validator.
type ConstraintValidationResult struct {
	HasConflicts    bool `json:"has_conflicts"`
	ConstraintCount int  `json:"constraint_count"`
	Validated       bool `json:"validated"`
}
