package score

import (
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// positionInfo is the result of the chunk-position heuristic shared by
// Formula B and the administrative pre-filter.
type positionInfo struct {
	Position      model.ChunkPosition
	SignatureHits int
	HeaderHits    int
	LineCount     int
}

// detectPosition classifies a chunk as header, body, footer, or
// signature using line-count and regex heuristics. Signature wins over
// everything else: a block that looks like a sign-off must never be
// treated as substantive body text.
func (e *Engine) detectPosition(content string) positionInfo {
	trimmed := strings.TrimSpace(content)
	lines := strings.Split(trimmed, "\n")
	info := positionInfo{
		Position:      model.PositionBody,
		SignatureHits: e.patterns.signatureHits(trimmed),
		HeaderHits:    e.patterns.headerHits(trimmed),
		LineCount:     len(lines),
	}

	// Two or more independent signature markers in a short block is a
	// signature; a single marker in a short block still counts when the
	// block has almost no prose.
	shortBlock := info.LineCount <= 8 && len(trimmed) < 600
	if info.SignatureHits >= 2 || (info.SignatureHits >= 1 && shortBlock && wordCount(trimmed) < 40) {
		info.Position = model.PositionSignature
		return info
	}

	if info.HeaderHits > 0 && shortBlock {
		info.Position = model.PositionHeader
		return info
	}

	// Trailing boilerplate without full signature markers.
	if info.SignatureHits == 1 && info.LineCount <= 4 {
		info.Position = model.PositionFooter
	}
	return info
}

// IsLikelyAdministrative is the fast pre-filter: it runs only the
// position/signature heuristic so obvious boilerplate short-circuits
// before the full formula pass.
func (e *Engine) IsLikelyAdministrative(chunk model.DocumentChunk) bool {
	info := e.detectPosition(chunk.Content)
	return info.Position == model.PositionSignature ||
		(info.Position == model.PositionHeader && len(chunk.Keywords) == 0)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
