package score

import (
	"fmt"
	"os"
	"regexp"

	"github.com/probelab/inquest/internal/model"
	"gopkg.in/yaml.v3"
)

// Patterns holds the heuristic tables the formulas consume. Tables are
// data, not logic: operators can swap them per domain from a YAML file
// without touching the scoring algorithms.
type Patterns struct {
	// SignaturePatterns mark signature blocks and closing boilerplate.
	SignaturePatterns []string `yaml:"signature_patterns"`
	// HeaderPatterns mark letterheads, captions, and subject lines.
	HeaderPatterns []string `yaml:"header_patterns"`
	// ActionVerbs are verbs suggesting actor conduct near a mention.
	ActionVerbs []string `yaml:"action_verbs"`
	// LegalTerms are domain terms that raise substantive relevance.
	LegalTerms []string `yaml:"legal_terms"`
	// TagWeights maps backend tag features to baseline-score weights.
	TagWeights map[string]float64 `yaml:"tag_weights"`
	// CategoryTags maps tag features to the category they imply.
	CategoryTags map[string]model.DefenseCategory `yaml:"category_tags"`
	// DocumentTypeBonus rewards chunk types worth a closer look.
	DocumentTypeBonus map[string]float64 `yaml:"document_type_bonus"`

	signatureRe []*regexp.Regexp
	headerRe    []*regexp.Regexp
}

// DefaultPatterns returns the built-in tables, tuned for criminal
// defense discovery review.
func DefaultPatterns() *Patterns {
	p := &Patterns{
		SignaturePatterns: []string{
			`(?i)\bsincerely\b|\bbest regards\b|\brespectfully submitted\b|\bvery truly yours\b`,
			`(?i)\bconfidential(ity)? notice\b|\bprivileged and confidential\b|\battorney.client\b`,
			`(?i)\bthis (e-?mail|message) (and any attachments )?(is|are) intended\b`,
			`\(\d{3}\)\s*\d{3}[-.]\d{4}|\b\d{3}[-.]\d{3}[-.]\d{4}\b`,
			`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
			`(?i)\bsent from my (iphone|ipad|android)\b`,
		},
		HeaderPatterns: []string{
			`(?i)^\s*(from|to|cc|bcc|subject|date|re)\s*:`,
			`(?i)\bunited states district court\b|\bcase no\.?\b|\bin the matter of\b`,
			`(?i)\bmemorandum\b|\bexhibit\s+[A-Z0-9]+\b`,
		},
		ActionVerbs: []string{
			"testified", "stated", "admitted", "denied", "claimed", "told",
			"instructed", "ordered", "signed", "approved", "transferred",
			"withdrew", "deposited", "met", "called", "emailed", "threatened",
			"recanted", "identified", "witnessed",
		},
		LegalTerms: []string{
			"indictment", "subpoena", "warrant", "testimony", "deposition",
			"cross-examination", "grand jury", "plea", "immunity", "proffer",
			"wire transfer", "conspiracy", "intent", "alibi", "motive",
			"chain of custody", "miranda", "suppression",
		},
		TagWeights: map[string]float64{
			"exculpatory":   25,
			"brady":         25,
			"impeachment":   18,
			"contradiction": 15,
			"corroboration": 10,
			"witness":       8,
			"timeline":      6,
			"financial":     6,
			"context":       4,
			"boilerplate":   -10,
		},
		CategoryTags: map[string]model.DefenseCategory{
			"exculpatory":   model.CategoryExculpatory,
			"brady":         model.CategoryBrady,
			"impeachment":   model.CategoryImpeachment,
			"contradiction": model.CategoryContradiction,
			"corroboration": model.CategoryCorroboration,
			"boilerplate":   model.CategoryAdministrative,
		},
		DocumentTypeBonus: map[string]float64{
			"transcript":  8,
			"deposition":  8,
			"report":      5,
			"email":       3,
			"filing":      2,
			"cover_sheet": -5,
		},
	}
	p.compile()
	return p
}

// LoadPatterns reads operator table overrides from a YAML file and
// merges them over the defaults. Empty fields keep the built-ins.
func LoadPatterns(path string) (*Patterns, error) {
	p := DefaultPatterns()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	var over Patterns
	if err := yaml.Unmarshal(data, &over); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}
	if len(over.SignaturePatterns) > 0 {
		p.SignaturePatterns = over.SignaturePatterns
	}
	if len(over.HeaderPatterns) > 0 {
		p.HeaderPatterns = over.HeaderPatterns
	}
	if len(over.ActionVerbs) > 0 {
		p.ActionVerbs = over.ActionVerbs
	}
	if len(over.LegalTerms) > 0 {
		p.LegalTerms = over.LegalTerms
	}
	if len(over.TagWeights) > 0 {
		p.TagWeights = over.TagWeights
	}
	if len(over.CategoryTags) > 0 {
		p.CategoryTags = over.CategoryTags
	}
	if len(over.DocumentTypeBonus) > 0 {
		p.DocumentTypeBonus = over.DocumentTypeBonus
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Patterns) compile() error {
	p.signatureRe = p.signatureRe[:0]
	for _, pat := range p.SignaturePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return fmt.Errorf("signature pattern %q: %w", pat, err)
		}
		p.signatureRe = append(p.signatureRe, re)
	}
	p.headerRe = p.headerRe[:0]
	for _, pat := range p.HeaderPatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return fmt.Errorf("header pattern %q: %w", pat, err)
		}
		p.headerRe = append(p.headerRe, re)
	}
	return nil
}

func (p *Patterns) signatureHits(text string) int {
	hits := 0
	for _, re := range p.signatureRe {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits
}

func (p *Patterns) headerHits(text string) int {
	hits := 0
	for _, re := range p.headerRe {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits
}
