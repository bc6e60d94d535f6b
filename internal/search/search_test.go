package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/probelab/inquest/internal/model"
)

func TestSearch_DecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query  string `json:"query"`
			Source string `json:"source"`
			Limit  int    `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "wire transfer" || req.Limit != 10 {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []model.DocumentChunk{
				{Content: "the wire transfer was approved", DocumentID: "d1"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL})
	chunks, err := c.Search(context.Background(), Query{Text: "wire transfer", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].DocumentID != "d1" {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
}

func TestSearch_SourceRestriction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Source string `json:"source"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Source != "transcripts" {
			t.Errorf("expected source restriction, got %q", req.Source)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []model.DocumentChunk{}})
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), Query{Text: "testimony", Source: "transcripts", Limit: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_CachesRepeats(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []model.DocumentChunk{{DocumentID: "d1"}}})
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL})
	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), Query{Text: "same query", Limit: 5}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Errorf("expected a single backend call, got %d", calls)
	}

	// A different limit is a different query.
	if _, err := c.Search(context.Background(), Query{Text: "same query", Limit: 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Errorf("expected second backend call for new limit, got %d", calls)
	}

	// So is a different source.
	if _, err := c.Search(context.Background(), Query{Text: "same query", Source: "exhibits", Limit: 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&calls) != 3 {
		t.Errorf("expected third backend call for new source, got %d", calls)
	}
}

func TestSearch_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(model.SearchConfig{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), Query{Text: "anything", Limit: 5}); err == nil {
		t.Fatal("expected error on backend failure")
	}
}
