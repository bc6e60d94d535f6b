package swarm

import (
	"fmt"
	"log/slog"

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

// FromConfig assembles a fully wired swarm from configuration: search
// client, extraction chain, scoring engine, breakers, store, and
// writer. The store defaults to in-memory when none is supplied.
func FromConfig(cfg model.Config, st store.Store, log *slog.Logger) (*Swarm, error) {
	if log == nil {
		log = slog.Default()
	}
	if st == nil {
		st = store.NewMemoryStore()
	}

	patterns, err := score.LoadPatterns(cfg.Patterns.File)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	breakerCfg := breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		CallTimeout:      cfg.Breaker.CallTimeout,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
	}
	searchCB := breaker.New("search", breakerCfg)
	storeCB := breaker.New("store", breakerCfg)

	local := extract.NewLocalExtractor()
	var chain *extract.Chain
	if llm := extract.NewLLMExtractor(cfg.LLM); llm != nil {
		chain = extract.NewChain(llm, local)
	} else {
		chain = extract.NewChain(local)
	}

	validator := validate.NewClient(cfg.Validator)
	var confValidator confidence.Validator
	if validator != nil {
		confValidator = validator
	}

	return New(cfg.Swarm, Deps{
		Router:     mode.NewRouter(),
		Engine:     score.NewEngine(cfg.Scoring, patterns),
		Dedup:      dedup.New(cfg.Dedup),
		Extractors: chain,
		LocalOnly:  local,
		Confidence: confidence.New(cfg.Confidence, confValidator),
		Validator:  validator,
		Searcher:   search.NewClient(cfg.Search),
		Store:      st,
		Writer:     writer.New(cfg.Writer, st, storeCB, log),
		SearchCB:   searchCB,
		StoreCB:    storeCB,
		Log:        log,
	}), nil
}
