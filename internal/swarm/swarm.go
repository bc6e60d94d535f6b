// Package swarm runs the autonomous investigation loop: it accepts
// natural-language investigation requests, turns them into searches,
// and feeds the results through extraction, dedup, and scoring into
// the review queue. The loop is a single logical worker: one
// investigation in flight per tick, so state mutation never interleaves.
package swarm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/probelab/inquest/internal/breaker"
	"github.com/probelab/inquest/internal/confidence"
	"github.com/probelab/inquest/internal/dedup"
	"github.com/probelab/inquest/internal/extract"
	"github.com/probelab/inquest/internal/mode"
	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/score"
	"github.com/probelab/inquest/internal/search"
	"github.com/probelab/inquest/internal/store"
	"github.com/probelab/inquest/internal/validate"
	"github.com/probelab/inquest/internal/writer"
)

// Deps are the collaborators the swarm orchestrates. Validator and the
// LLM path may be absent; everything else is required.
type Deps struct {
	Router     *mode.Router
	Engine     *score.Engine
	Dedup      *dedup.Deduplicator
	Extractors *extract.Chain      // LLM + local chain
	LocalOnly  extract.Extractor   // used when the mode disables LLM
	Confidence *confidence.Calculator
	Validator  *validate.Client // may be nil
	Searcher   search.Searcher
	Store      store.Store
	Writer     *writer.Writer
	SearchCB   *breaker.CircuitBreaker
	StoreCB    *breaker.CircuitBreaker
	Log        *slog.Logger
}

// Swarm owns the investigation queue and the processing loop. All
// mutable state lives behind its mutex; external readers only ever get
// snapshot copies.
type Swarm struct {
	cfg  model.SwarmConfig
	deps Deps

	mu             sync.Mutex
	running        bool
	investigations map[string]*model.Investigation
	queue          []string // investigation IDs awaiting processing
	activity       []Activity
	stop           chan struct{}
	done           chan struct{}
}

// Activity is one entry in the recent-activity ring.
type Activity struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// New creates a swarm.
func New(cfg model.SwarmConfig, deps Deps) *Swarm {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.MaxSearchTerms <= 0 {
		cfg.MaxSearchTerms = 8
	}
	if cfg.ResultsPerTerm <= 0 {
		cfg.ResultsPerTerm = 20
	}
	if cfg.ActivityLogSize <= 0 {
		cfg.ActivityLogSize = 50
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Swarm{
		cfg:            cfg,
		deps:           deps,
		investigations: make(map[string]*model.Investigation),
	}
}

// Enqueue adds an investigation request and returns its record.
func (s *Swarm) Enqueue(question, requestedBy string, priority model.Priority) model.Investigation {
	if priority == "" {
		priority = model.PriorityNormal
	}
	inv := &model.Investigation{
		ID:          uuid.NewString(),
		Question:    question,
		RequestedBy: requestedBy,
		Priority:    priority,
		Status:      model.InvestigationQueued,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.investigations[inv.ID] = inv
	s.queue = append(s.queue, inv.ID)
	s.mu.Unlock()

	s.record("queued investigation %s (%s)", inv.ID[:8], priority)
	return *inv
}

// Start launches the background loop. It returns immediately; the loop
// runs until Stop or context cancellation.
func (s *Swarm) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.setRunning(false)
				return
			case <-stop:
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for the current tick to finish.
func (s *Swarm) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Swarm) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// Tick processes at most one investigation: the highest-priority
// queued item, FIFO within a priority. Any failure is recorded on the
// investigation; the loop itself never dies on a bad item.
func (s *Swarm) Tick(ctx context.Context) {
	inv := s.nextQueued()
	if inv == nil {
		return
	}

	count, err := s.process(ctx, inv)

	s.mu.Lock()
	now := time.Now().UTC()
	inv.FinishedAt = &now
	if err != nil {
		inv.Status = model.InvestigationFailed
		inv.Error = err.Error()
	} else {
		inv.Status = model.InvestigationCompleted
		inv.DiscoveryCount = count
	}
	s.mu.Unlock()

	if err != nil {
		s.deps.Log.Error("investigation failed", "id", inv.ID, "error", err)
		s.record("investigation %s failed: %v", inv.ID[:8], err)
	} else {
		s.record("investigation %s completed with %d discoveries", inv.ID[:8], count)
	}
}

// nextQueued selects and claims the next eligible investigation.
func (s *Swarm) nextQueued() *model.Investigation {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stable sort keeps FIFO order within equal priorities.
	sort.SliceStable(s.queue, func(i, j int) bool {
		return s.investigations[s.queue[i]].Priority.Rank() > s.investigations[s.queue[j]].Priority.Rank()
	})

	for i, id := range s.queue {
		inv := s.investigations[id]
		if inv.Status != model.InvestigationQueued {
			continue
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		inv.Status = model.InvestigationProcessing
		now := time.Now().UTC()
		inv.StartedAt = &now
		return inv
	}
	return nil
}

// process runs one investigation end to end and returns the number of
// discoveries queued for review.
func (s *Swarm) process(ctx context.Context, inv *model.Investigation) (int, error) {
	match := s.deps.Router.Classify(inv.Question, "")
	s.deps.Log.Info("investigation routed",
		"id", inv.ID, "mode", match.Profile.Mode, "confidence", match.Confidence,
		"justification", match.Justification)

	terms := ExtractSearchTerms(inv.Question, s.cfg.MaxSearchTerms)
	if len(terms) == 0 {
		return 0, fmt.Errorf("no usable search terms in question")
	}

	// The mode's batch size bounds how much each term may pull back,
	// and its knowledge source restricts where the backend looks.
	limit := s.cfg.ResultsPerTerm
	if match.Profile.BatchSize > 0 && match.Profile.BatchSize < limit {
		limit = match.Profile.BatchSize
	}

	var allCandidates []model.EntityCandidate
	var findings []confidence.Finding
	chunkByDoc := make(map[string]model.DocumentChunk)

	for _, term := range terms {
		query := search.Query{Text: term, Source: match.Profile.KnowledgeSource, Limit: limit}
		var chunks []model.DocumentChunk
		err := s.deps.SearchCB.Execute(ctx, func(callCtx context.Context) error {
			var searchErr error
			chunks, searchErr = s.deps.Searcher.Search(callCtx, query)
			return searchErr
		})
		if err != nil {
			// A single dead term must not sink the investigation.
			s.deps.Log.Warn("search failed", "term", term, "error", err)
			findings = append(findings, confidence.Finding{Name: term, Hits: 0})
			continue
		}
		findings = append(findings, confidence.Finding{Name: term, Hits: float64(len(chunks))})

		for _, chunk := range chunks {
			chunkByDoc[chunk.DocumentID] = chunk
			candidates := s.extractFrom(ctx, match.Profile, chunk)
			allCandidates = append(allCandidates, candidates...)
		}
	}

	conf := s.deps.Confidence.Calculate(ctx, findings)

	unique := s.deps.Dedup.CollapseBatch(allCandidates)
	known, err := s.deps.Store.KnownEntities(ctx)
	if err != nil {
		s.deps.Log.Warn("known-entity fetch failed, treating all candidates as new", "error", err)
		known = nil
	}
	decisions := s.deps.Dedup.MatchAll(unique, known)

	var toWrite []*model.QueueItem
	for _, d := range decisions {
		if d.Matched != nil {
			s.mergeKnown(ctx, d)
			continue
		}
		item := s.buildQueueItem(ctx, inv, match.Profile, d.Candidate, conf, chunkByDoc)
		toWrite = append(toWrite, item)
	}

	_, stats := s.deps.Writer.WriteAll(ctx, toWrite)
	s.deps.Log.Info("investigation persisted",
		"id", inv.ID, "written", stats.Written, "duplicates", stats.Duplicates,
		"failed", stats.Failed, "batches", stats.Batches)

	return stats.Written, nil
}

// extractFrom picks the extraction path the mode allows and swallows
// extraction errors (a chunk that defeats both extractors contributes
// nothing rather than failing the run).
func (s *Swarm) extractFrom(ctx context.Context, profile mode.Profile, chunk model.DocumentChunk) []model.EntityCandidate {
	sctx := model.ScoringContext{}
	var (
		candidates []model.EntityCandidate
		err        error
	)
	if profile.UseLLM && s.deps.Extractors != nil {
		candidates, _, err = s.deps.Extractors.Extract(ctx, chunk, sctx)
	} else if s.deps.LocalOnly != nil {
		candidates, _, err = s.deps.LocalOnly.Extract(ctx, chunk, sctx)
	}
	if err != nil {
		s.deps.Log.Warn("extraction failed", "document", chunk.DocumentID, "error", err)
		return nil
	}
	return candidates
}

// mergeKnown appends new sources and the candidate's surface form onto
// the matched entity. Best-effort: a failed merge is logged, the
// candidate is simply not re-queued.
func (s *Swarm) mergeKnown(ctx context.Context, d dedup.MatchDecision) {
	sources := make([]string, 0, len(d.Candidate.Mentions))
	for _, m := range d.Candidate.Mentions {
		sources = append(sources, m.DocumentID)
	}
	var aliases []string
	if d.Candidate.Name != d.Matched.Name {
		aliases = []string{d.Candidate.Name}
	}
	err := s.deps.StoreCB.Execute(ctx, func(callCtx context.Context) error {
		return s.deps.Store.AppendToEntity(callCtx, d.Matched.ID, aliases, sources)
	})
	if err != nil {
		s.deps.Log.Warn("entity merge failed", "entity", d.Matched.ID, "error", err)
		return
	}
	s.record("merged %q into %s (similarity %.2f)", d.Candidate.Name, d.Matched.Name, d.Similarity)
}

// buildQueueItem scores the candidate's best mention and assembles the
// discovery record.
func (s *Swarm) buildQueueItem(ctx context.Context, inv *model.Investigation, profile mode.Profile,
	candidate model.EntityCandidate, conf confidence.Result, chunkByDoc map[string]model.DocumentChunk) *model.QueueItem {

	sctx := model.ScoringContext{ActorName: candidate.Name}

	var best model.FormulaResult
	sources := make([]string, 0, len(candidate.Mentions))
	for _, m := range candidate.Mentions {
		sources = append(sources, m.DocumentID)
		chunk, ok := chunkByDoc[m.DocumentID]
		if !ok {
			continue
		}
		var cv *model.ConstraintValidationResult
		if profile.UseValidator && s.deps.Validator != nil {
			result := s.deps.Validator.CheckConsistency(ctx, []string{chunk.Content})
			cv = &result
		}
		// Score with the formula the mode selected, not always the
		// combined pipeline.
		r := s.deps.Engine.ByID(profile.PrimaryFormula, chunk, sctx)
		r = s.deps.Engine.AdjustForConstraints(r, cv)
		if r.ImportanceScore > best.ImportanceScore {
			best = r
		}
	}

	factors := map[string]float64{
		"match_confidence": conf.Value,
		"importance":       best.ImportanceScore,
	}
	for k, v := range best.Signals {
		factors[k] = v
	}

	return &model.QueueItem{
		ID:                uuid.NewString(),
		EntityType:        candidate.SuggestedType,
		EntityName:        candidate.Name,
		EntityData:        payloadFor(candidate),
		DiscoverySource:   fmt.Sprintf("investigation:%s", inv.ID),
		SourceDocumentIDs: dedupStrings(sources),
		Confidence:        conf.Value,
		ConfidenceFactors: factors,
		Priority:          priorityFor(best.ImportanceScore, inv.Priority),
		Status:            model.StatusPending,
	}
}

// payloadFor builds the tagged-union payload for a candidate based on
// its suggested type.
func payloadFor(candidate model.EntityCandidate) model.EntityPayload {
	snippet := ""
	docID := ""
	if len(candidate.Mentions) > 0 {
		snippet = candidate.Mentions[0].Snippet
		docID = candidate.Mentions[0].DocumentID
	}
	switch candidate.SuggestedType {
	case "person", "organization", "actor":
		return model.EntityPayload{
			Kind:  model.KindActor,
			Actor: &model.ActorPayload{Name: candidate.Name},
		}
	case "claim":
		return model.EntityPayload{
			Kind:  model.KindClaim,
			Claim: &model.ClaimPayload{Text: snippet},
		}
	case "event":
		return model.EntityPayload{
			Kind:  model.KindEvent,
			Event: &model.EventPayload{Description: snippet},
		}
	default:
		return model.EntityPayload{
			Kind:    model.KindSnippet,
			Snippet: &model.SnippetPayload{Text: firstNonEmpty(snippet, candidate.Name), DocumentID: docID},
		}
	}
}

// priorityFor derives review priority from scored importance, never
// below the investigation's own priority.
func priorityFor(importance float64, floor model.Priority) model.Priority {
	var p model.Priority
	switch {
	case importance >= 80:
		p = model.PriorityUrgent
	case importance >= 60:
		p = model.PriorityHigh
	case importance >= 40:
		p = model.PriorityNormal
	default:
		p = model.PriorityLow
	}
	if floor.Rank() > p.Rank() {
		return floor
	}
	return p
}

// record appends to the activity ring.
func (s *Swarm) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, Activity{
		At:      time.Now().UTC(),
		Message: fmt.Sprintf(format, args...),
	})
	if len(s.activity) > s.cfg.ActivityLogSize {
		s.activity = s.activity[len(s.activity)-s.cfg.ActivityLogSize:]
	}
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
