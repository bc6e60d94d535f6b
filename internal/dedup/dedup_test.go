package dedup

import (
	"testing"

	"github.com/probelab/inquest/internal/model"
)

func testDedup() *Deduplicator {
	return New(model.DefaultConfig().Dedup)
}

func TestIsJunk(t *testing.T) {
	d := testDedup()

	junk := []string{
		"Exhibit 12", "Page 4", "WITNESS", "FBI", "123", "12/04/2023",
		"January 5, 2021", "al", "  ", "Bates 000123", "Defendant",
	}
	for _, name := range junk {
		if !d.IsJunk(name) {
			t.Errorf("expected %q to be junk", name)
		}
	}

	real := []string{"Gary Cox", "First National Bank", "Maria Alvarez-Ruiz"}
	for _, name := range real {
		if d.IsJunk(name) {
			t.Errorf("expected %q to survive the junk filter", name)
		}
	}
}

func TestCollapseBatch(t *testing.T) {
	d := testDedup()

	candidates := []model.EntityCandidate{
		{Name: "Gary Cox", Mentions: []model.Mention{{DocumentID: "d1"}}},
		{Name: "gary cox ", Mentions: []model.Mention{{DocumentID: "d2"}}},
		{Name: "GARY  COX", Mentions: []model.Mention{{DocumentID: "d3"}}},
		{Name: "Maria Alvarez", Mentions: []model.Mention{{DocumentID: "d1"}}},
		{Name: "Exhibit 9"}, // junk
	}

	out := d.CollapseBatch(candidates)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d", len(out))
	}
	if out[0].NormalizedName != "gary cox" {
		t.Errorf("expected normalized key, got %q", out[0].NormalizedName)
	}
	if len(out[0].Mentions) != 3 {
		t.Errorf("expected merged mentions, got %d", len(out[0].Mentions))
	}
}

func TestSimilarity(t *testing.T) {
	// Whitespace variants normalize to identical strings.
	if s := Similarity("Gary Cox", "Gary  Cox"); s < 0.8 {
		t.Errorf("expected whitespace variant above threshold, got %f", s)
	}
	// Boundary case just under the 0.8 cutoff.
	if s := Similarity("Gary Cox", "Larry Cox"); s >= 0.8 {
		t.Errorf("expected Gary/Larry below threshold, got %f", s)
	}
	if s := Similarity("", ""); s != 1 {
		t.Errorf("expected identical empties, got %f", s)
	}
}

func TestSimilarity_CountsRunesNotBytes(t *testing.T) {
	// "André Cox" and "Andra Fox" differ by two substitutions over nine
	// runes: 1 - 2/9 = 0.778. A byte-based length would divide by ten
	// and land exactly on the 0.8 merge threshold, fusing two distinct
	// people.
	s := Similarity("André Cox", "Andra Fox")
	if s >= 0.8 {
		t.Errorf("expected below merge threshold, got %f", s)
	}
	if s < 0.77 || s > 0.79 {
		t.Errorf("expected rune-normalized 0.778, got %f", s)
	}

	// Accented variants of the same name still merge.
	if s := Similarity("André Cox", "Andre Cox"); s < 0.8 {
		t.Errorf("expected accent variant above threshold, got %f", s)
	}
}

func TestMatch_MergeAndNew(t *testing.T) {
	d := testDedup()

	known := []model.KnownEntity{
		{ID: "e1", Name: "Gary Cox", Aliases: []string{"G. Cox"}},
		{ID: "e2", Name: "Maria Alvarez"},
	}

	merge := d.Match(model.EntityCandidate{Name: "Gary  Cox"}, known)
	if merge.Matched == nil || merge.Matched.ID != "e1" {
		t.Fatalf("expected match on e1, got %+v", merge.Matched)
	}
	if merge.Similarity < 0.8 {
		t.Errorf("expected similarity >= 0.8, got %f", merge.Similarity)
	}

	fresh := d.Match(model.EntityCandidate{Name: "Larry Cox"}, known)
	if fresh.Matched != nil {
		t.Errorf("expected no match below threshold, got %s (%.3f)", fresh.Matched.ID, fresh.Similarity)
	}

	// Alias matching: close to an alias but not the canonical name.
	alias := d.Match(model.EntityCandidate{Name: "G. Cox"}, known)
	if alias.Matched == nil || alias.Matched.ID != "e1" {
		t.Errorf("expected alias match on e1, got %+v", alias.Matched)
	}
}

func TestMatch_TieBreaksOnHighestSimilarity(t *testing.T) {
	d := testDedup()

	known := []model.KnownEntity{
		{ID: "close", Name: "Garry Cox"},
		{ID: "exact", Name: "Gary Cox"},
	}
	m := d.Match(model.EntityCandidate{Name: "Gary Cox"}, known)
	if m.Matched == nil || m.Matched.ID != "exact" {
		t.Fatalf("expected highest-similarity match, got %+v", m.Matched)
	}
	if m.Similarity != 1 {
		t.Errorf("expected exact similarity 1, got %f", m.Similarity)
	}
}
