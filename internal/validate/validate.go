// Package validate is the client for the external logical-consistency
// validator. The validator extracts structured constraints from a set
// of findings and checks their mutual satisfiability; it is optional,
// and its absence or failure must never block scoring.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/probelab/inquest/internal/confidence"
	"github.com/probelab/inquest/internal/model"
)

// Client talks to the validator service. A nil *Client is a valid
// "validator absent" value: its methods report unvalidated results.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a validator client, or nil when no base URL is
// configured.
func NewClient(cfg model.ValidatorConfig) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type consistencyRequest struct {
	Findings []string `json:"findings"`
}

type consistencyResponse struct {
	Satisfiable     bool `json:"satisfiable"`
	ConstraintCount int  `json:"constraint_count"`
}

// CheckConsistency submits findings and returns the validation result.
// A nil client or any transport/decode failure yields an unvalidated
// result and no error: the caller treats it as "validator unavailable".
func (c *Client) CheckConsistency(ctx context.Context, findings []string) model.ConstraintValidationResult {
	unvalidated := model.ConstraintValidationResult{}
	if c == nil || len(findings) == 0 {
		return unvalidated
	}

	body, err := json.Marshal(consistencyRequest{Findings: findings})
	if err != nil {
		return unvalidated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return unvalidated
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unvalidated
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return unvalidated
	}
	var decoded consistencyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return unvalidated
	}

	return model.ConstraintValidationResult{
		HasConflicts:    !decoded.Satisfiable,
		ConstraintCount: decoded.ConstraintCount,
		Validated:       true,
	}
}

// ValidateFindings implements confidence.Validator: the validator can
// replace the local confidence computation when it is reachable.
func (c *Client) ValidateFindings(ctx context.Context, findings []confidence.Finding) (float64, error) {
	if c == nil {
		return 0, fmt.Errorf("validator not configured")
	}

	texts := make([]string, 0, len(findings))
	for _, f := range findings {
		texts = append(texts, f.Name)
	}
	body, err := json.Marshal(consistencyRequest{Findings: texts})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/confidence", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("validator returned %d", resp.StatusCode)
	}
	var decoded struct {
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, err
	}
	return decoded.Confidence, nil
}
