package model

import "time"

// InvestigationStatus is the lifecycle state of an investigation.
type InvestigationStatus string

const (
	InvestigationQueued     InvestigationStatus = "queued"
	InvestigationProcessing InvestigationStatus = "processing"
	InvestigationCompleted  InvestigationStatus = "completed"
	InvestigationFailed     InvestigationStatus = "failed"
)

// Investigation is one natural-language request queued for the
// processing loop. Created on enqueue and mutated only by the loop;
// there is a single active processor per tick.
type Investigation struct {
	ID             string              `json:"id"`
	Question       string              `json:"question"`
	RequestedBy    string              `json:"requested_by,omitempty"`
	Priority       Priority            `json:"priority"`
	Status         InvestigationStatus `json:"status"`
	DiscoveryCount int                 `json:"discovery_count"`
	Error          string              `json:"error,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	FinishedAt     *time.Time          `json:"finished_at,omitempty"`
}
