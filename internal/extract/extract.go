// Package extract pulls entity candidates out of document chunks. The
// primary path asks an LLM and parses its JSON answer; any transport or
// parse failure falls back to the local heuristic extractor, so the
// pipeline never stalls on a flaky completion service.
package extract

import (
	"context"

	"github.com/probelab/inquest/internal/model"
)

// Usage tracks LLM token/cost accounting for one extraction call. The
// local extractor reports zero usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Extractor produces entity candidates from a chunk.
type Extractor interface {
	Extract(ctx context.Context, chunk model.DocumentChunk, sctx model.ScoringContext) ([]model.EntityCandidate, Usage, error)
}

// Chain tries each extractor in order and returns the first success.
// The last extractor's error is surfaced only if every path fails; in
// practice the local extractor terminates the chain and cannot fail.
type Chain struct {
	extractors []Extractor
}

// NewChain builds an extraction chain. Nil entries are skipped.
func NewChain(extractors ...Extractor) *Chain {
	var filtered []Extractor
	for _, e := range extractors {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return &Chain{extractors: filtered}
}

// Extract runs the chain.
func (c *Chain) Extract(ctx context.Context, chunk model.DocumentChunk, sctx model.ScoringContext) ([]model.EntityCandidate, Usage, error) {
	var lastErr error
	var usage Usage
	for _, e := range c.extractors {
		candidates, u, err := e.Extract(ctx, chunk, sctx)
		usage.PromptTokens += u.PromptTokens
		usage.CompletionTokens += u.CompletionTokens
		usage.TotalTokens += u.TotalTokens
		if err == nil {
			return candidates, usage, nil
		}
		lastErr = err
	}
	return nil, usage, lastErr
}
