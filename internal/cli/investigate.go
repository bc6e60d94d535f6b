package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/store"
	"github.com/probelab/inquest/internal/swarm"
	"github.com/spf13/cobra"
)

var (
	searchURL    string
	validatorURL string
	timeout      time.Duration
	priority     string
	outJSON      string
	patternsFile string
	llmEnabled   bool
	llmModel     string
)

// investigateCmd represents the investigate command
var investigateCmd = &cobra.Command{
	Use:   "investigate <question>",
	Short: "Run a single investigation against the document corpus",
	Long: `Investigate turns one natural-language question into a full pass over
the corpus:
- Route the question to an analysis mode
- Extract search terms and query the search backend
- Pull entity candidates from the matching chunks
- Deduplicate against already-known entities
- Score each discovery and queue it for human review

Example:
  inquest investigate "what did Harrison testify about the payments"
  inquest investigate "who is Gary Cox" --priority high --json found.json
  inquest investigate "find the wire transfers" --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runInvestigate,
}

func init() {
	rootCmd.AddCommand(investigateCmd)

	// Backend flags
	investigateCmd.Flags().StringVar(&searchURL, "search-url", "http://localhost:8108", "search backend base URL")
	investigateCmd.Flags().StringVar(&validatorURL, "validator-url", "", "constraint validator base URL (optional)")
	investigateCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall investigation timeout")
	investigateCmd.Flags().StringVar(&priority, "priority", "normal", "investigation priority (low, normal, high, urgent)")
	investigateCmd.Flags().StringVar(&outJSON, "json", "", "write discovered queue items to a JSON file (optional)")
	investigateCmd.Flags().StringVar(&patternsFile, "patterns", "", "YAML file of pattern table overrides (optional)")

	// LLM flags
	investigateCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM entity extraction")
	investigateCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Investigating: %s\n", question)
		fmt.Fprintf(os.Stderr, "Search backend: %s\n", searchURL)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	st := store.NewMemoryStore()
	s, err := swarm.FromConfig(cfg, st, newLogger())
	if err != nil {
		return fmt.Errorf("assemble swarm: %w", err)
	}

	inv := s.Enqueue(question, "cli", model.Priority(priority))

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Processing investigation %s...\n", inv.ID)
	}
	s.Tick(ctx)

	done, _ := s.Investigation(inv.ID)
	if done.Status == model.InvestigationFailed {
		return fmt.Errorf("investigation failed: %s", done.Error)
	}

	items, err := st.QueueItems(ctx, model.StatusPending)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}

	fmt.Printf("✓ Investigation complete: %d discoveries queued for review\n\n", done.DiscoveryCount)
	for _, item := range items {
		fmt.Printf("  [%s] %s (%s)  confidence %.2f\n", item.Priority, item.EntityName, item.EntityType, item.Confidence)
		if verbose {
			for k, v := range item.ConfidenceFactors {
				fmt.Printf("      %s: %.2f\n", k, v)
			}
		}
	}

	if outJSON != "" {
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("encode queue items: %w", err)
		}
		if err := os.WriteFile(outJSON, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outJSON, err)
		}
		fmt.Printf("\n✓ Wrote %d queue items to %s\n", len(items), outJSON)
	}

	return nil
}

// buildConfig assembles the runtime configuration from defaults plus
// command flags. The OpenAI key comes from the environment only.
func buildConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Search.BaseURL = searchURL
	cfg.Validator.BaseURL = validatorURL
	cfg.Patterns.File = patternsFile

	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return cfg, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return cfg, nil
}
