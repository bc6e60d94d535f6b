package mode

import "testing"

func TestClassify_Routing(t *testing.T) {
	r := NewRouter()

	cases := []struct {
		query string
		want  Mode
	}{
		{"What did the witness testify about during cross-examination?", TrialAnalysis},
		{"Show me all emails from January 2024", QuickSearch},
		{"Why does this contradict the government's timeline?", DeepDive},
		{"Link exhibit 14 to the relevant counts", ExhibitLinking},
		{"What is the relationship between Cox and the accountant?", EntityLinking},
		{"Link all documents mentioning the warehouse", BulkLinking},
	}

	for _, tc := range cases {
		m := r.Classify(tc.query, "")
		if m.Profile.Mode != tc.want {
			t.Errorf("query %q: expected %s, got %s (%s)", tc.query, tc.want, m.Profile.Mode, m.Justification)
		}
		if m.Confidence <= 0 || m.Confidence > 1 {
			t.Errorf("query %q: confidence out of range: %f", tc.query, m.Confidence)
		}
		if m.Justification == "" {
			t.Errorf("query %q: expected a justification", tc.query)
		}
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	r := NewRouter()

	// Trial vocabulary outranks quick-search even when both match.
	m := r.Classify("Show me the testimony about the ledger", "")
	if m.Profile.Mode != TrialAnalysis {
		t.Errorf("expected trial_analysis to win, got %s", m.Profile.Mode)
	}
}

func TestClassify_StageFallback(t *testing.T) {
	r := NewRouter()

	m := r.Classify("the ledger entries from March", "trial_prep")
	if m.Profile.Mode != TrialAnalysis {
		t.Errorf("expected stage fallback to trial_analysis, got %s", m.Profile.Mode)
	}
	if m.Confidence != 0.5 {
		t.Errorf("expected reduced confidence on stage fallback, got %f", m.Confidence)
	}
}

func TestClassify_GlobalDefault(t *testing.T) {
	r := NewRouter()

	m := r.Classify("the ledger entries from March", "")
	if m.Profile.Mode != QuickSearch {
		t.Errorf("expected quick_search default, got %s", m.Profile.Mode)
	}
}

func TestProfiles_BatchSizes(t *testing.T) {
	if ProfileFor(DeepDive).BatchSize != 1 {
		t.Error("deep_dive must be exhaustive (batch size 1)")
	}
	if ProfileFor(BulkLinking).BatchSize != 100 {
		t.Error("bulk_linking must run wide (batch size 100)")
	}
	if !ProfileFor(TrialAnalysis).UseValidator {
		t.Error("trial_analysis should use the consistency validator")
	}
	if ProfileFor(QuickSearch).UseLLM {
		t.Error("quick_search should not pay for LLM extraction")
	}
}
