package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check backend health and show effective settings",
	Long: `Status probes the configured backends and prints what an
investigation run would use:
- Search backend reachability
- Constraint validator reachability (if configured)
- LLM extraction availability
- Effective scoring and writer settings

Example:
  inquest status
  inquest status --search-url http://corpus:8108 --validator-url http://validator:9000`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&searchURL, "search-url", "http://localhost:8108", "search backend base URL")
	statusCmd.Flags().StringVar(&validatorURL, "validator-url", "", "constraint validator base URL (optional)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Inquest Status")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()

	probe(cmd.Context(), "Search backend", cfg.Search.BaseURL)
	if cfg.Validator.BaseURL != "" {
		probe(cmd.Context(), "Validator", cfg.Validator.BaseURL)
	} else {
		fmt.Printf("  Validator:       not configured (findings marked unvalidated)\n")
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		fmt.Printf("  LLM extraction:  available (OPENAI_API_KEY set)\n")
	} else {
		fmt.Printf("  LLM extraction:  local fallback only (no OPENAI_API_KEY)\n")
	}

	fmt.Println()
	fmt.Printf("  Formula weights: %.2f baseline / %.2f context / %.2f category\n",
		cfg.Scoring.WeightBaseline, cfg.Scoring.WeightContext, cfg.Scoring.WeightCategory)
	fmt.Printf("  Suggest floor:   %.0f importance\n", cfg.Scoring.MinConfidence)
	fmt.Printf("  Dedup threshold: %.2f similarity\n", cfg.Dedup.SimilarityThreshold)
	fmt.Printf("  Writer batches:  %d items / %v apart, %d retries\n",
		cfg.Writer.BatchSize, cfg.Writer.InterBatchDelay, cfg.Writer.MaxRetries)
	fmt.Printf("  Breaker:         open after %d failures, reset after %v\n",
		cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeout)
	fmt.Println()

	return nil
}

// probe issues a cheap GET to the base URL. Any HTTP response counts as
// reachable; only transport errors mark a backend down.
func probe(ctx context.Context, label, baseURL string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		fmt.Printf("  %-16s ✗ invalid URL: %v\n", label+":", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("  %-16s ✗ unreachable: %v\n", label+":", err)
		return
	}
	resp.Body.Close()
	fmt.Printf("  %-16s ✓ reachable (%s)\n", label+":", baseURL)
}
