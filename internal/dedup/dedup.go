// Package dedup merges near-identical entity candidates. Within one
// extraction batch candidates collapse on a normalized name key; across
// batches they are fuzzy-matched against the known-entity store using
// normalized Levenshtein similarity so "Gary  Cox" and "Gary Cox" end
// up as one record with combined sources.
package dedup

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/probelab/inquest/internal/model"
)

// MatchDecision is the result of matching one candidate against the
// known-entity store.
type MatchDecision struct {
	Candidate  model.EntityCandidate
	Matched    *model.KnownEntity // nil when the candidate is new
	Similarity float64
}

// junkPatterns reject candidate names that are document metadata, bare
// role words, acronyms, numbers, or date-like tokens rather than real
// entities. Kept as data so the denylist can be swapped per domain.
var junkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(page|exhibit|document|file|bates|case|row|section|appendix)\b`),
	regexp.MustCompile(`(?i)^(witness|defendant|plaintiff|attorney|counsel|officer|agent|detective|judge|court)$`),
	regexp.MustCompile(`^[A-Z]{2,5}$`),              // bare acronyms
	regexp.MustCompile(`^[\d\s.,/-]+$`),             // pure numbers
	regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`), // date-like
	regexp.MustCompile(`(?i)^(january|february|march|april|may|june|july|august|september|october|november|december)( \d{1,2},? \d{4})?$`),
}

// Deduplicator filters junk and matches candidates against known
// entities.
type Deduplicator struct {
	cfg model.DedupConfig
}

// New creates a deduplicator.
func New(cfg model.DedupConfig) *Deduplicator {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.8
	}
	if cfg.MinNameLength <= 0 {
		cfg.MinNameLength = 3
	}
	return &Deduplicator{cfg: cfg}
}

// IsJunk reports whether a candidate name should be dropped before
// scoring: too short, or matching the denylist.
func (d *Deduplicator) IsJunk(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < d.cfg.MinNameLength {
		return true
	}
	for _, re := range junkPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// CollapseBatch deduplicates candidates within one extraction batch by
// normalized name, dropping junk and merging mention lists. Order of
// first appearance is preserved.
func (d *Deduplicator) CollapseBatch(candidates []model.EntityCandidate) []model.EntityCandidate {
	byKey := make(map[string]int)
	var out []model.EntityCandidate

	for _, c := range candidates {
		if d.IsJunk(c.Name) {
			continue
		}
		key := model.NormalizeName(c.Name)
		if key == "" {
			continue
		}
		if idx, ok := byKey[key]; ok {
			out[idx].Mentions = append(out[idx].Mentions, c.Mentions...)
			continue
		}
		c.NormalizedName = key
		byKey[key] = len(out)
		out = append(out, c)
	}
	return out
}

// Similarity computes normalized Levenshtein similarity between two
// names after normalization: 1 - editDistance/maxLength. Both the
// distance and the length count runes, so multi-byte characters do not
// inflate the score.
func Similarity(a, b string) float64 {
	na, nb := model.NormalizeName(a), model.NormalizeName(b)
	if na == "" && nb == "" {
		return 1
	}
	maxLen := utf8.RuneCountInString(na)
	if n := utf8.RuneCountInString(nb); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(dist)/float64(maxLen)
}

// Match compares a candidate against known entities (names and all
// aliases). A similarity at or above the threshold means "already
// known"; ties break to the highest similarity. Below threshold the
// candidate is new, even if one entity came close.
func (d *Deduplicator) Match(candidate model.EntityCandidate, known []model.KnownEntity) MatchDecision {
	decision := MatchDecision{Candidate: candidate}

	for i := range known {
		best := Similarity(candidate.Name, known[i].Name)
		for _, alias := range known[i].Aliases {
			if s := Similarity(candidate.Name, alias); s > best {
				best = s
			}
		}
		if best > decision.Similarity {
			decision.Similarity = best
			if best >= d.cfg.SimilarityThreshold {
				decision.Matched = &known[i]
			} else {
				decision.Matched = nil
			}
		}
	}
	return decision
}

// MatchAll runs Match for every candidate.
func (d *Deduplicator) MatchAll(candidates []model.EntityCandidate, known []model.KnownEntity) []MatchDecision {
	decisions := make([]MatchDecision, 0, len(candidates))
	for _, c := range candidates {
		decisions = append(decisions, d.Match(c, known))
	}
	return decisions
}
