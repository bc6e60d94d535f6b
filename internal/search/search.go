// Package search is the client boundary for the external full-text
// search backend. The backend is opaque: it takes a term query and a
// result limit and returns ranked chunks. Failures and timeouts are
// expected here and surface as errors for the caller's breaker/retry
// layers; they never crash the core.
package search

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/probelab/inquest/internal/model"
)

// Query is one request against the backend. Source restricts the
// search to a named knowledge source (transcripts, exhibits, entities);
// empty searches everything.
type Query struct {
	Text   string `json:"query"`
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit"`
}

// Searcher is the interface the processing loop consumes.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]model.DocumentChunk, error)
}

// Client is the HTTP implementation with an in-memory result cache:
// the loop issues the same term queries repeatedly across ticks, and
// the backend is the expensive resource being protected.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *gocache.Cache
	cacheTTL   time.Duration
}

// NewClient creates a search client.
func NewClient(cfg model.SearchConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(ttl, 2*ttl),
		cacheTTL:   ttl,
	}
}

type searchResponse struct {
	Results []model.DocumentChunk `json:"results"`
}

// Search issues a term query, serving repeats from cache.
func (c *Client) Search(ctx context.Context, q Query) ([]model.DocumentChunk, error) {
	key := cacheKey(q)
	if cached, found := c.cache.Get(key); found {
		return cached.([]model.DocumentChunk), nil
	}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Text, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: backend returned %d", q.Text, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search %q: decode response: %w", q.Text, err)
	}

	c.cache.Set(key, decoded.Results, c.cacheTTL)
	return decoded.Results, nil
}

func cacheKey(q Query) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", q.Text, q.Source, q.Limit)))
	return "inquest:search:" + hex.EncodeToString(hash[:8])
}
