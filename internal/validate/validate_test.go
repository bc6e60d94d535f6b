package validate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/probelab/inquest/internal/confidence"
	"github.com/probelab/inquest/internal/model"
)

func TestCheckConsistency_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/validate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Findings []string `json:"findings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Findings) != 2 {
			t.Errorf("expected 2 findings, got %d", len(req.Findings))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"satisfiable":      false,
			"constraint_count": 3,
		})
	}))
	defer srv.Close()

	c := NewClient(model.ValidatorConfig{BaseURL: srv.URL})
	result := c.CheckConsistency(context.Background(), []string{"a", "b"})
	if !result.Validated {
		t.Fatal("expected validated result")
	}
	if !result.HasConflicts {
		t.Error("expected conflicts when unsatisfiable")
	}
	if result.ConstraintCount != 3 {
		t.Errorf("expected 3 constraints, got %d", result.ConstraintCount)
	}
}

func TestCheckConsistency_AbsentValidator(t *testing.T) {
	var c *Client // not configured
	result := c.CheckConsistency(context.Background(), []string{"a"})
	if result.Validated {
		t.Error("nil client must return unvalidated result")
	}
}

func TestCheckConsistency_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(model.ValidatorConfig{BaseURL: srv.URL})
	result := c.CheckConsistency(context.Background(), []string{"a"})
	if result.Validated {
		t.Error("server error must yield unvalidated result, not a crash")
	}
}

func TestValidateFindings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"confidence": 0.83})
	}))
	defer srv.Close()

	c := NewClient(model.ValidatorConfig{BaseURL: srv.URL})
	v, err := c.ValidateFindings(context.Background(), []confidence.Finding{{Name: "x", Hits: 5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0.83 {
		t.Errorf("expected 0.83, got %f", v)
	}
}

func TestNewClient_Disabled(t *testing.T) {
	if NewClient(model.ValidatorConfig{}) != nil {
		t.Error("empty base URL must disable the client")
	}
}
