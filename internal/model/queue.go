package model

import "time"

// Priority orders validation queue items and investigations.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the scheduling weight of a priority. Higher runs first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// QueueStatus is the review state of a validation queue item.
type QueueStatus string

const (
	StatusPending  QueueStatus = "pending"
	StatusApproved QueueStatus = "approved"
	StatusRejected QueueStatus = "rejected"
	StatusMerged   QueueStatus = "merged"
)

// QueueItem is a discovery awaiting human review. Items are never
// deleted, only status-transitioned; the append/merge path may extend
// SourceDocumentIDs on an existing record.
type QueueItem struct {
	ID                string             `json:"id"`
	EntityType        string             `json:"entity_type"`
	EntityName        string             `json:"entity_name"`
	EntityData        EntityPayload      `json:"entity_data"`
	DiscoverySource   string             `json:"discovery_source,omitempty"`
	SourceDocumentIDs []string           `json:"source_document_ids,omitempty"`
	Confidence        float64            `json:"confidence"` // [0,1]
	ConfidenceFactors map[string]float64 `json:"confidence_factors,omitempty"`
	Priority          Priority           `json:"priority"`
	Status            QueueStatus        `json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
