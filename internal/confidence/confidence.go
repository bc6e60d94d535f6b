// Package confidence turns per-finding hit statistics into a bounded
// confidence value. The calculator is deliberately paranoid about its
// input: callers feed it whatever the search backend returned, so every
// number is clamped, every non-finite intermediate replaced, and the
// result always explains how it was derived.
package confidence

import (
	"context"
	"math"

	"github.com/probelab/inquest/internal/model"
)

// Level is the discretized confidence band.
type Level string

const (
	LevelHigh   Level = "HIGH"   // >= 0.8
	LevelMedium Level = "MEDIUM" // >= 0.3
	LevelLow    Level = "LOW"
)

// Method tags explain where a Result's value came from.
const (
	MethodLocal     = "local"     // Computed from findings
	MethodFallback  = "fallback"  // Degenerate input, fixed fallback value
	MethodValidator = "validator" // External validator supplied the value
)

// Finding is one search finding with its hit statistics.
type Finding struct {
	Name   string  `json:"name"`
	Hits   float64 `json:"hits"`
	Weight float64 `json:"weight,omitempty"`
}

// Result is the calculator's output. Value is always finite and in
// [0,1]; Method records how it was derived.
type Result struct {
	Value   float64            `json:"value"`
	Level   Level              `json:"level"`
	Method  string             `json:"method"`
	Factors map[string]float64 `json:"factors,omitempty"`
}

// Validator is the optional external path. When available it replaces
// the local computation entirely; any error falls back to local.
type Validator interface {
	ValidateFindings(ctx context.Context, findings []Finding) (float64, error)
}

// Calculator computes bounded confidence values.
type Calculator struct {
	cfg       model.ConfidenceConfig
	validator Validator // nil disables the external path
}

// New creates a calculator. validator may be nil.
func New(cfg model.ConfidenceConfig, validator Validator) *Calculator {
	if cfg.MaxFindings <= 0 {
		cfg.MaxFindings = 100
	}
	if cfg.MaxHits <= 0 {
		cfg.MaxHits = 10000
	}
	return &Calculator{cfg: cfg, validator: validator}
}

// Calculate computes confidence for a set of findings. It never
// returns NaN or a value outside [0,1], whatever the input.
func (c *Calculator) Calculate(ctx context.Context, findings []Finding) Result {
	if c.validator != nil {
		if v, err := c.validator.ValidateFindings(ctx, findings); err == nil {
			if clamped, ok := sanitize(v); ok {
				return Result{
					Value:  round3(clamped),
					Level:  levelFor(clamped),
					Method: MethodValidator,
				}
			}
		}
		// Validator failed or returned garbage; fall through to local.
	}
	return c.calculateLocal(findings)
}

func (c *Calculator) calculateLocal(findings []Finding) Result {
	if len(findings) > c.cfg.MaxFindings {
		findings = findings[:c.cfg.MaxFindings]
	}

	var validHits []float64
	for _, f := range findings {
		h := f.Hits
		if math.IsNaN(h) || math.IsInf(h, 0) {
			continue
		}
		if h < 0 {
			h = 0
		}
		if h > c.cfg.MaxHits {
			h = c.cfg.MaxHits
		}
		validHits = append(validHits, h)
	}

	if len(validHits) == 0 {
		return c.fallback("no valid findings")
	}

	sum := 0.0
	for _, h := range validHits {
		sum += h
	}
	avg := sum / float64(len(validHits))
	hitScore := math.Min(avg/100, 1)

	expectedMin := math.Max(3, math.Ceil(float64(len(validHits))*0.5))
	coverage := math.Min(float64(len(validHits))/expectedMin, 1)

	value := hitScore*c.cfg.HitWeight + coverage*c.cfg.CoverageWeight
	clamped, ok := sanitize(value)
	if !ok {
		return c.fallback("non-finite intermediate")
	}

	return Result{
		Value:  round3(clamped),
		Level:  levelFor(clamped),
		Method: MethodLocal,
		Factors: map[string]float64{
			"hit_score": round3(hitScore),
			"coverage":  round3(coverage),
			"avg_hits":  round3(avg),
			"findings":  float64(len(validHits)),
		},
	}
}

func (c *Calculator) fallback(reason string) Result {
	v := c.cfg.Fallback
	if clamped, ok := sanitize(v); ok {
		v = clamped
	} else {
		v = 0.5
	}
	return Result{
		Value:   round3(v),
		Level:   levelFor(v),
		Method:  MethodFallback,
		Factors: map[string]float64{"fallback": 1},
	}
}

// sanitize clamps to [0,1] and rejects non-finite values.
func sanitize(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	if v > 1 {
		return 1, true
	}
	return v, true
}

func levelFor(v float64) Level {
	switch {
	case v >= 0.8:
		return LevelHigh
	case v >= 0.3:
		return LevelMedium
	default:
		return LevelLow
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
