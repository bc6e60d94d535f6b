package swarm

import (
	"github.com/probelab/inquest/internal/breaker"
	"github.com/probelab/inquest/internal/model"
)

// Status is a point-in-time snapshot of the swarm for the status
// surface. Everything is copied; callers can hold it without racing
// the loop.
type Status struct {
	Running        bool                      `json:"running"`
	QueueDepth     int                       `json:"queue_depth"`
	Processing     int                       `json:"processing"`
	Completed      int                       `json:"completed"`
	Failed         int                       `json:"failed"`
	Investigations []model.Investigation     `json:"investigations,omitempty"`
	Breakers       map[string]breaker.Status `json:"breakers,omitempty"`
	RecentActivity []Activity                `json:"recent_activity,omitempty"`
}

// Snapshot returns the current swarm status.
func (s *Swarm) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:  s.running,
		Breakers: make(map[string]breaker.Status),
	}
	for _, inv := range s.investigations {
		st.Investigations = append(st.Investigations, *inv)
		switch inv.Status {
		case model.InvestigationQueued:
			st.QueueDepth++
		case model.InvestigationProcessing:
			st.Processing++
		case model.InvestigationCompleted:
			st.Completed++
		case model.InvestigationFailed:
			st.Failed++
		}
	}
	for _, cb := range []*breaker.CircuitBreaker{s.deps.SearchCB, s.deps.StoreCB} {
		if cb == nil {
			continue
		}
		snap := cb.Snapshot()
		st.Breakers[snap.Name] = snap
	}
	st.RecentActivity = append(st.RecentActivity, s.activity...)
	return st
}

// Investigation returns a copy of one investigation by ID.
func (s *Swarm) Investigation(id string) (model.Investigation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.investigations[id]
	if !ok {
		return model.Investigation{}, false
	}
	return *inv, true
}
