package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/probelab/inquest/internal/breaker"
	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/store"
)

// stubStore counts calls and fails on demand.
type stubStore struct {
	mu        sync.Mutex
	calls     int64
	failUntil int64 // fail the first N create calls with a transient error
	failWith  error
	inFlight  int64
	maxSeen   int64
}

func (s *stubStore) CreateQueueItem(ctx context.Context, item *model.QueueItem) error {
	cur := atomic.AddInt64(&s.inFlight, 1)
	defer atomic.AddInt64(&s.inFlight, -1)
	s.mu.Lock()
	if cur > s.maxSeen {
		s.maxSeen = cur
	}
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	if n <= s.failUntil {
		return errors.New("connection pool exhausted")
	}
	return nil
}

func (s *stubStore) AppendToQueueItem(ctx context.Context, id string, docs []string) error {
	return nil
}
func (s *stubStore) PendingItemID(ctx context.Context, entityType, entityName string) (string, error) {
	return "", store.ErrNotFound
}
func (s *stubStore) QueueItems(ctx context.Context, status model.QueueStatus) ([]model.QueueItem, error) {
	return nil, nil
}
func (s *stubStore) KnownEntities(ctx context.Context) ([]model.KnownEntity, error) {
	return nil, nil
}
func (s *stubStore) AppendToEntity(ctx context.Context, id string, aliases, sources []string) error {
	return nil
}

func items(n int) []*model.QueueItem {
	out := make([]*model.QueueItem, n)
	for i := range out {
		out[i] = &model.QueueItem{ID: fmt.Sprintf("q%d", i), EntityName: fmt.Sprintf("Entity %d", i)}
	}
	return out
}

func testWriter(st store.Store, cfg model.WriterConfig) *Writer {
	cb := breaker.New("persistence", breaker.Config{
		FailureThreshold: 100, // effectively disabled unless a test wants it
		SuccessThreshold: 1,
		ResetTimeout:     time.Minute,
	})
	return New(cfg, st, cb, nil)
}

func TestWriteAll_BatchCountAndPacing(t *testing.T) {
	st := &stubStore{}
	w := testWriter(st, model.WriterConfig{
		BatchSize:       5,
		InterBatchDelay: 100 * time.Millisecond,
	})

	start := time.Now()
	results, stats := w.WriteAll(context.Background(), items(12))
	elapsed := time.Since(start)

	if stats.Batches != 3 {
		t.Errorf("expected ceil(12/5)=3 batches, got %d", stats.Batches)
	}
	if stats.Written != 12 {
		t.Errorf("expected 12 written, got %+v", stats)
	}
	if len(results) != 12 {
		t.Errorf("expected 12 results, got %d", len(results))
	}
	// Two inter-batch delays separate three batches.
	if elapsed < 200*time.Millisecond {
		t.Errorf("expected elapsed >= 200ms for 3 batches, got %v", elapsed)
	}
	if st.maxSeen > 5 {
		t.Errorf("concurrency exceeded batch size: %d", st.maxSeen)
	}
}

func TestWriteAll_RetriesTransientFailures(t *testing.T) {
	st := &stubStore{failUntil: 2}
	w := testWriter(st, model.WriterConfig{
		BatchSize:      5,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
	})

	_, stats := w.WriteAll(context.Background(), items(2))
	if stats.Written != 2 {
		t.Errorf("expected both writes to succeed after retries, got %+v", stats)
	}
	if st.calls < 3 {
		t.Errorf("expected retried calls, got %d", st.calls)
	}
}

func TestWriteAll_DuplicatesSkipped(t *testing.T) {
	st := &stubStore{failWith: fmt.Errorf("actor: %w", store.ErrDuplicate)}
	w := testWriter(st, model.WriterConfig{BatchSize: 5, MaxRetries: 3, InitialBackoff: time.Millisecond})

	results, stats := w.WriteAll(context.Background(), items(3))
	if stats.Duplicates != 3 || stats.Failed != 0 {
		t.Errorf("duplicates must be skipped, not failed: %+v", stats)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("duplicate result must not carry an error: %v", r.Err)
		}
		if !r.Duplicate {
			t.Error("expected duplicate flag")
		}
	}
	// No retries for duplicates: one call per item.
	if st.calls != 3 {
		t.Errorf("expected 3 calls without retries, got %d", st.calls)
	}
}

func TestWriteAll_DuplicateMergesSources(t *testing.T) {
	st := store.NewMemoryStore()
	w := testWriter(st, model.WriterConfig{BatchSize: 5, MaxRetries: 3, InitialBackoff: time.Millisecond})
	ctx := context.Background()

	first := &model.QueueItem{
		ID:                "q1",
		EntityType:        "person",
		EntityName:        "Gary Cox",
		EntityData:        model.EntityPayload{Kind: model.KindActor, Actor: &model.ActorPayload{Name: "Gary Cox"}},
		SourceDocumentIDs: []string{"d1"},
	}
	second := &model.QueueItem{
		ID:                "q2",
		EntityType:        "person",
		EntityName:        "gary  cox", // same entity after normalization
		EntityData:        model.EntityPayload{Kind: model.KindActor, Actor: &model.ActorPayload{Name: "Gary Cox"}},
		SourceDocumentIDs: []string{"d2", "d1"},
	}

	_, stats := w.WriteAll(ctx, []*model.QueueItem{first})
	if stats.Written != 1 {
		t.Fatalf("expected first write to succeed, got %+v", stats)
	}
	results, stats := w.WriteAll(ctx, []*model.QueueItem{second})
	if stats.Duplicates != 1 || !results[0].Duplicate {
		t.Fatalf("expected duplicate, got %+v", stats)
	}

	pending, err := st.QueueItems(ctx, model.StatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected a single pending item, got %d", len(pending))
	}
	want := []string{"d1", "d2"}
	got := pending[0].SourceDocumentIDs
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected merged sources %v, got %v", want, got)
	}
}

func TestWriteAll_PermanentFailureNoRetry(t *testing.T) {
	st := &stubStore{failWith: errors.New("validation failed")}
	w := testWriter(st, model.WriterConfig{BatchSize: 5, MaxRetries: 5, InitialBackoff: time.Millisecond})

	_, stats := w.WriteAll(context.Background(), items(1))
	if stats.Failed != 1 {
		t.Errorf("expected failure surfaced, got %+v", stats)
	}
	if st.calls != 1 {
		t.Errorf("permanent failures must not be retried, got %d calls", st.calls)
	}
}

func TestWriteAll_OpenCircuitFailsFast(t *testing.T) {
	st := &stubStore{failWith: errors.New("timeout")}
	cb := breaker.New("persistence", breaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	w := New(model.WriterConfig{BatchSize: 1, MaxRetries: 5, InitialBackoff: time.Millisecond}, st, cb, nil)

	// First item trips the breaker (threshold 1); remaining items are
	// rejected without reaching the store.
	_, stats := w.WriteAll(context.Background(), items(4))
	if stats.Failed != 4 {
		t.Errorf("expected all failed, got %+v", stats)
	}
	if st.calls > 6 {
		t.Errorf("open circuit must stop calls reaching the store, got %d", st.calls)
	}
}
