// Package store is the persistence boundary. The real backend is a
// remote service that can fail under load; the interface here is what
// the batch writer and loop program against, and MemoryStore is the
// in-process implementation used for local runs and tests.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/probelab/inquest/internal/model"
)

// ErrDuplicate is returned when creating a queue item that is already
// pending for the same entity. Callers treat it as a non-error: log
// and skip.
var ErrDuplicate = errors.New("queue item already pending for entity")

// ErrNotFound is returned for append/get on a missing record.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface the core depends on.
type Store interface {
	// CreateQueueItem persists a new discovery in pending status.
	// Returns ErrDuplicate if a pending item for the same normalized
	// entity name and type already exists.
	CreateQueueItem(ctx context.Context, item *model.QueueItem) error

	// AppendToQueueItem merges additional source documents onto an
	// existing item.
	AppendToQueueItem(ctx context.Context, id string, sourceDocIDs []string) error

	// PendingItemID returns the ID of the pending item for the given
	// entity type and name, or ErrNotFound when none is pending.
	PendingItemID(ctx context.Context, entityType, entityName string) (string, error)

	// QueueItems returns items with the given status ("" for all).
	QueueItems(ctx context.Context, status model.QueueStatus) ([]model.QueueItem, error)

	// KnownEntities returns the promoted entity records.
	KnownEntities(ctx context.Context) ([]model.KnownEntity, error)

	// AppendToEntity accumulates aliases and source documents onto an
	// existing known entity (the merge path).
	AppendToEntity(ctx context.Context, id string, aliases, sourceIDs []string) error
}

// IsRetryable reports whether a persistence error is worth retrying:
// timeouts and connection-pool exhaustion are transient, duplicates
// and validation errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range retryableSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// retryableSignatures are substrings of transient downstream failures.
var retryableSignatures = []string{
	"timeout",
	"timed out",
	"connection pool",
	"pool exhausted",
	"too many connections",
	"connection refused",
	"connection reset",
	"temporarily unavailable",
}
