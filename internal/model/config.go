package model

import "time"

// Config is the complete Inquest configuration. All numeric policy
// values (formula weights, thresholds, batch sizes) are tuned defaults,
// not invariants; operators may override any of them via the config
// file or INQUEST_* environment variables.
type Config struct {
	Scoring    ScoringConfig    `yaml:"scoring"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Breaker    BreakerConfig    `yaml:"breaker"`
	Writer     WriterConfig     `yaml:"writer"`
	Swarm      SwarmConfig      `yaml:"swarm"`
	Search     SearchConfig     `yaml:"search"`
	LLM        LLMConfig        `yaml:"llm"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Patterns   PatternsConfig   `yaml:"patterns"`
}

// ScoringConfig tunes the formula engine.
type ScoringConfig struct {
	MinConfidence    float64 `yaml:"min_confidence"`     // Importance floor for ShouldSuggest
	WeightBaseline   float64 `yaml:"weight_baseline"`    // Formula A share in the combiner
	WeightContext    float64 `yaml:"weight_context"`     // Formula B share
	WeightCategory   float64 `yaml:"weight_category"`    // Formula C share
	SignatureDeflate float64 `yaml:"signature_deflate"`  // Combined importance multiplier on signature hits
	ConflictBonus    float64 `yaml:"conflict_bonus"`     // Importance bump on constraint conflicts
	ConsistencyBonus float64 `yaml:"consistency_bonus"`  // Importance bump on validated consistency

	// CategoryWeights overrides the built-in multiplier table.
	CategoryWeights map[DefenseCategory]float64 `yaml:"category_weights,omitempty"`
}

// ConfidenceConfig tunes the confidence calculator.
type ConfidenceConfig struct {
	HitWeight      float64 `yaml:"hit_weight"`
	CoverageWeight float64 `yaml:"coverage_weight"`
	MaxHits        float64 `yaml:"max_hits"`
	MaxFindings    int     `yaml:"max_findings"`
	Fallback       float64 `yaml:"fallback"`
}

// DedupConfig tunes the fuzzy deduplicator.
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MinNameLength       int     `yaml:"min_name_length"`
}

// BreakerConfig tunes every per-dependency circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	CallTimeout      time.Duration `yaml:"call_timeout"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// WriterConfig tunes the rate-limited batch writer.
type WriterConfig struct {
	BatchSize       int           `yaml:"batch_size"`
	InterBatchDelay time.Duration `yaml:"inter_batch_delay"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialBackoff  time.Duration `yaml:"initial_backoff"`
}

// SwarmConfig tunes the investigation processing loop.
type SwarmConfig struct {
	TickInterval    time.Duration `yaml:"tick_interval"`
	MaxSearchTerms  int           `yaml:"max_search_terms"`
	ResultsPerTerm  int           `yaml:"results_per_term"`
	ActivityLogSize int           `yaml:"activity_log_size"`
}

// SearchConfig points at the external search backend.
type SearchConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LLMConfig configures the entity-extraction provider. An empty
// provider disables the LLM path entirely; extraction then uses the
// local heuristic extractor.
type LLMConfig struct {
	Provider  string        `yaml:"provider"` // "openai" or ""
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// ValidatorConfig points at the optional logical-consistency validator.
type ValidatorConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"` // Empty disables validation
	Timeout time.Duration `yaml:"timeout"`
}

// PatternsConfig optionally replaces the built-in heuristic tables
// with operator-supplied ones, so scoring/dedup rules can be swapped
// per domain without touching the algorithms.
type PatternsConfig struct {
	File string `yaml:"file,omitempty"` // YAML file of pattern table overrides
}

// DefaultConfig returns the tuned default configuration.
func DefaultConfig() Config {
	return Config{
		Scoring: ScoringConfig{
			MinConfidence:    40,
			WeightBaseline:   0.30,
			WeightContext:    0.35,
			WeightCategory:   0.35,
			SignatureDeflate: 0.2,
			ConflictBonus:    20,
			ConsistencyBonus: 5,
		},
		Confidence: ConfidenceConfig{
			HitWeight:      0.6,
			CoverageWeight: 0.4,
			MaxHits:        10000,
			MaxFindings:    100,
			Fallback:       0.5,
		},
		Dedup: DedupConfig{
			SimilarityThreshold: 0.8,
			MinNameLength:       3,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			CallTimeout:      10 * time.Second,
			ResetTimeout:     30 * time.Second,
		},
		Writer: WriterConfig{
			BatchSize:       5,
			InterBatchDelay: 100 * time.Millisecond,
			MaxRetries:      3,
			InitialBackoff:  200 * time.Millisecond,
		},
		Swarm: SwarmConfig{
			TickInterval:    5 * time.Second,
			MaxSearchTerms:  8,
			ResultsPerTerm:  20,
			ActivityLogSize: 50,
		},
		Search: SearchConfig{
			BaseURL:  "http://localhost:8108",
			Timeout:  15 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 1000,
		},
		Validator: ValidatorConfig{
			Timeout: 10 * time.Second,
		},
	}
}
