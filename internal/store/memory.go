package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/probelab/inquest/internal/model"
)

// MemoryStore keeps queue items and known entities in a go-cache
// instance with no expiration. Queue items are never deleted, only
// status-transitioned, so unbounded retention matches the contract.
type MemoryStore struct {
	mu       sync.Mutex
	items    *gocache.Cache
	entities *gocache.Cache
	// pendingKey -> item ID, for duplicate detection
	pending map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    gocache.New(gocache.NoExpiration, 0),
		entities: gocache.New(gocache.NoExpiration, 0),
		pending:  make(map[string]string),
	}
}

func pendingKey(entityType, entityName string) string {
	return entityType + "|" + model.NormalizeName(entityName)
}

// CreateQueueItem implements Store.
func (s *MemoryStore) CreateQueueItem(ctx context.Context, item *model.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pendingKey(item.EntityType, item.EntityName)
	if _, exists := s.pending[key]; exists {
		return fmt.Errorf("%s %q: %w", item.EntityType, item.EntityName, ErrDuplicate)
	}
	if err := item.EntityData.Validate(); err != nil {
		return fmt.Errorf("queue item %q: %w", item.EntityName, err)
	}

	now := time.Now().UTC()
	stored := *item
	stored.Status = model.StatusPending
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.items.Set(stored.ID, stored, gocache.NoExpiration)
	s.pending[key] = stored.ID
	return nil
}

// AppendToQueueItem implements Store.
func (s *MemoryStore) AppendToQueueItem(ctx context.Context, id string, sourceDocIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.items.Get(id)
	if !found {
		return fmt.Errorf("queue item %s: %w", id, ErrNotFound)
	}
	item := raw.(model.QueueItem)
	item.SourceDocumentIDs = appendUnique(item.SourceDocumentIDs, sourceDocIDs)
	item.UpdatedAt = time.Now().UTC()
	s.items.Set(id, item, gocache.NoExpiration)
	return nil
}

// PendingItemID implements Store.
func (s *MemoryStore) PendingItemID(ctx context.Context, entityType, entityName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found := s.pending[pendingKey(entityType, entityName)]
	if !found {
		return "", fmt.Errorf("pending %s %q: %w", entityType, entityName, ErrNotFound)
	}
	return id, nil
}

// QueueItems implements Store. Results are sorted by creation time for
// deterministic iteration.
func (s *MemoryStore) QueueItems(ctx context.Context, status model.QueueStatus) ([]model.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.QueueItem
	for _, entry := range s.items.Items() {
		item := entry.Object.(model.QueueItem)
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PutEntity seeds a known entity (test/bootstrap helper).
func (s *MemoryStore) PutEntity(entity model.KnownEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities.Set(entity.ID, entity, gocache.NoExpiration)
}

// KnownEntities implements Store.
func (s *MemoryStore) KnownEntities(ctx context.Context) ([]model.KnownEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.KnownEntity
	for _, entry := range s.entities.Items() {
		out = append(out, entry.Object.(model.KnownEntity))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AppendToEntity implements Store.
func (s *MemoryStore) AppendToEntity(ctx context.Context, id string, aliases, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.entities.Get(id)
	if !found {
		return fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	entity := raw.(model.KnownEntity)
	entity.Aliases = appendUnique(entity.Aliases, aliases)
	entity.SourceIDs = appendUnique(entity.SourceIDs, sourceIDs)
	entity.UpdatedAt = time.Now().UTC()
	s.entities.Set(id, entity, gocache.NoExpiration)
	return nil
}

func appendUnique(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range extra {
		if v != "" && !seen[v] {
			seen[v] = true
			existing = append(existing, v)
		}
	}
	return existing
}
