package model

// DocumentChunk is one retrieved unit of text from the search backend.
// It is immutable once retrieved; the scoring engine never mutates it.
type DocumentChunk struct {
	Content      string             `json:"content"`
	DocumentID   string             `json:"document_id"`
	DocumentName string             `json:"document_name,omitempty"`
	Keywords     []string           `json:"keywords,omitempty"`     // Backend-matched query terms
	TagFeatures  map[string]float64 `json:"tag_features,omitempty"` // Externally supplied relevance tags
	DocumentType string             `json:"document_type,omitempty"`
}

// ScoringContext carries the per-call parameters for one scoring pass.
// Constructed fresh per call; it has no persistent identity.
type ScoringContext struct {
	ActorName     string          `json:"actor_name,omitempty"`
	ActorAliases  map[string]bool `json:"actor_aliases,omitempty"`
	CountContext  string          `json:"count_context,omitempty"`
	TheoryContext string          `json:"theory_context,omitempty"`
	CaseActors    []string        `json:"case_actors,omitempty"`
}

// ChunkPosition classifies where in a document a chunk sits.
type ChunkPosition string

const (
	PositionHeader    ChunkPosition = "header"
	PositionBody      ChunkPosition = "body"
	PositionFooter    ChunkPosition = "footer"
	PositionSignature ChunkPosition = "signature"
)
