package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/probelab/inquest/internal/model"
	"golang.org/x/net/html"
)

// namePattern matches runs of two to four capitalized words, the usual
// shape of person and organization names in discovery text.
var namePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:[-'][A-Z][a-z]+)?(?:\s+(?:[A-Z]\.\s+)?[A-Z][a-z]+(?:[-'][A-Z][a-z]+)?){1,3}\b`)

// sentenceLeads are words that start sentences and therefore produce
// false capitalized-pair hits when followed by a name.
var sentenceLeads = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"he": true, "she": true, "they": true, "it": true, "this": true,
	"that": true, "when": true, "after": true, "before": true, "during": true,
	"later": true, "then": true, "meanwhile": true,
}

// LocalExtractor is the regex-based fallback. It never fails, so it
// terminates every extraction chain.
type LocalExtractor struct{}

// NewLocalExtractor creates the heuristic extractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract finds capitalized name-like spans in the chunk. HTML chunks
// are stripped to visible text first.
func (e *LocalExtractor) Extract(ctx context.Context, chunk model.DocumentChunk, sctx model.ScoringContext) ([]model.EntityCandidate, Usage, error) {
	text := chunk.Content
	if looksLikeHTML(text) {
		text = stripHTML(text)
	}

	seen := make(map[string]int)
	var candidates []model.EntityCandidate

	for _, loc := range namePattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		name := trimSentenceLead(raw)
		if name == "" {
			continue
		}
		key := model.NormalizeName(name)
		mention := model.Mention{
			DocumentID:   chunk.DocumentID,
			DocumentName: chunk.DocumentName,
			Position:     loc[0],
			Snippet:      snippetAround(text, loc[0], loc[1]),
		}
		if idx, ok := seen[key]; ok {
			candidates[idx].Mentions = append(candidates[idx].Mentions, mention)
			continue
		}
		seen[key] = len(candidates)
		candidates = append(candidates, model.EntityCandidate{
			Name:           name,
			NormalizedName: key,
			SuggestedType:  "other",
			Mentions:       []model.Mention{mention},
		})
	}
	return candidates, Usage{}, nil
}

// trimSentenceLead drops a leading sentence word ("The Gary Cox" hit
// shape) and rejects spans that collapse below two words.
func trimSentenceLead(name string) string {
	words := strings.Fields(name)
	if len(words) > 1 && sentenceLeads[strings.ToLower(words[0])] {
		words = words[1:]
	}
	if len(words) < 2 {
		return ""
	}
	return strings.Join(words, " ")
}

// snippetAround returns a trimmed window of text surrounding a match.
func snippetAround(text string, start, end int) string {
	const window = 60
	from := start - window
	if from < 0 {
		from = 0
	}
	to := end + window
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

func looksLikeHTML(text string) bool {
	return strings.Contains(text, "</") || strings.Contains(text, "/>") ||
		strings.Contains(strings.ToLower(text), "<p>") || strings.Contains(strings.ToLower(text), "<br")
}

// stripHTML extracts visible text, skipping script/style subtrees.
func stripHTML(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				buf.WriteString(t)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
