package model

import (
	"fmt"
	"strings"
	"time"
)

// Mention records one place an entity was seen in the evidence.
type Mention struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name,omitempty"`
	Position     int    `json:"position,omitempty"` // Byte offset within the chunk
	Snippet      string `json:"snippet,omitempty"`
	SourceID     string `json:"source_id,omitempty"`
}

// EntityCandidate is an extracted mention cluster not yet matched
// against the known-entity store.
type EntityCandidate struct {
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	SuggestedType  string    `json:"suggested_type,omitempty"`
	Mentions       []Mention `json:"mentions,omitempty"`
}

// NormalizeName lower-cases, trims, and collapses internal whitespace.
// Candidates are deduplicated by this key within a single batch.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// KnownEntity is a record already promoted into the knowledge base.
type KnownEntity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Aliases   []string  `json:"aliases,omitempty"`
	SourceIDs []string  `json:"source_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityKind tags the payload variant carried by a queue item.
type EntityKind string

const (
	KindActor   EntityKind = "actor"
	KindTheory  EntityKind = "theory"
	KindClaim   EntityKind = "claim"
	KindSnippet EntityKind = "snippet"
	KindEvent   EntityKind = "event"
	KindCount   EntityKind = "count"
)

// EntityPayload is a tagged union: exactly one variant field is set,
// and it must agree with Kind. Validate is checked at the queue
// promotion boundary.
type EntityPayload struct {
	Kind    EntityKind      `json:"kind"`
	Actor   *ActorPayload   `json:"actor,omitempty"`
	Theory  *TheoryPayload  `json:"theory,omitempty"`
	Claim   *ClaimPayload   `json:"claim,omitempty"`
	Snippet *SnippetPayload `json:"snippet,omitempty"`
	Event   *EventPayload   `json:"event,omitempty"`
	Count   *CountPayload   `json:"count,omitempty"`
}

// ActorPayload describes a person or organization in the case.
type ActorPayload struct {
	Name    string   `json:"name"`
	Role    string   `json:"role,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// TheoryPayload describes a defense theory candidate.
type TheoryPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ActorNames  []string `json:"actor_names,omitempty"`
}

// ClaimPayload is a factual assertion tied to source text.
type ClaimPayload struct {
	Text     string `json:"text"`
	Asserter string `json:"asserter,omitempty"`
}

// SnippetPayload is a quotable passage worth preserving verbatim.
type SnippetPayload struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id,omitempty"`
}

// EventPayload is a dated occurrence relevant to the timeline.
type EventPayload struct {
	Description string     `json:"description"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

// CountPayload ties evidence to a specific charged count.
type CountPayload struct {
	CountNumber int    `json:"count_number"`
	Statute     string `json:"statute,omitempty"`
}

// Validate checks that exactly the variant matching Kind is populated.
func (p *EntityPayload) Validate() error {
	set := 0
	if p.Actor != nil {
		set++
	}
	if p.Theory != nil {
		set++
	}
	if p.Claim != nil {
		set++
	}
	if p.Snippet != nil {
		set++
	}
	if p.Event != nil {
		set++
	}
	if p.Count != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("entity payload: expected exactly one variant, got %d", set)
	}
	ok := false
	switch p.Kind {
	case KindActor:
		ok = p.Actor != nil && p.Actor.Name != ""
	case KindTheory:
		ok = p.Theory != nil && p.Theory.Title != ""
	case KindClaim:
		ok = p.Claim != nil && p.Claim.Text != ""
	case KindSnippet:
		ok = p.Snippet != nil && p.Snippet.Text != ""
	case KindEvent:
		ok = p.Event != nil && p.Event.Description != ""
	case KindCount:
		ok = p.Count != nil && p.Count.CountNumber > 0
	default:
		return fmt.Errorf("entity payload: unknown kind %q", p.Kind)
	}
	if !ok {
		return fmt.Errorf("entity payload: variant does not match kind %q or is empty", p.Kind)
	}
	return nil
}
