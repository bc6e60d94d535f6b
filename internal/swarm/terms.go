package swarm

import (
	"regexp"
	"strings"
)

var quotedPattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// stopwords are dropped from heuristic term extraction. Question
// vocabulary ("what", "show", "did") dominates investigation requests
// and is useless as a search term.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "about": true, "into": true,
	"what": true, "when": true, "where": true, "who": true, "why": true,
	"how": true, "which": true, "did": true, "does": true, "do": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"show": true, "find": true, "me": true, "all": true, "any": true,
	"this": true, "that": true, "these": true, "those": true, "there": true,
	"during": true,
}

// ExtractSearchTerms turns a natural-language question into search
// terms. Quoted strings are taken verbatim first; then capitalized
// words and long words survive the stopword filter. Terms are
// deduplicated case-insensitively and capped at max.
func ExtractSearchTerms(question string, max int) []string {
	if max <= 0 {
		max = 8
	}

	var terms []string
	seen := make(map[string]bool)
	add := func(term string) {
		term = strings.TrimSpace(term)
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			return
		}
		seen[key] = true
		terms = append(terms, term)
	}

	// Quoted phrases are explicit user intent; they go first.
	for _, m := range quotedPattern.FindAllStringSubmatch(question, -1) {
		if m[1] != "" {
			add(m[1])
		} else if m[2] != "" {
			add(m[2])
		}
	}

	// Heuristic pass: capitalized words (proper nouns) and long words.
	stripped := quotedPattern.ReplaceAllString(question, " ")
	for _, word := range strings.Fields(stripped) {
		cleaned := strings.Trim(word, ".,;:!?()[]{}\"'")
		if cleaned == "" || stopwords[strings.ToLower(cleaned)] {
			continue
		}
		first := rune(cleaned[0])
		if (first >= 'A' && first <= 'Z') || len(cleaned) >= 7 {
			add(cleaned)
		}
	}

	if len(terms) > max {
		terms = terms[:max]
	}
	return terms
}
