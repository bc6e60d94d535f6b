package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/store"
	"github.com/probelab/inquest/internal/swarm"
	"github.com/spf13/cobra"
)

var (
	runTimeout   time.Duration
	tickInterval time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Process a file of investigation questions",
	Long: `Run reads investigation questions from a file (one per line) and
processes them through the background swarm loop:
- Every question is queued up front
- The loop works through the queue highest priority first
- A failing investigation is recorded and the loop moves on
- A final summary shows discoveries, failures, and breaker health

Lines starting with # are skipped. A line may carry an optional
priority prefix, e.g. "urgent: who signed the second ledger".

Example:
  inquest run questions.txt
  inquest run questions.txt --timeout 10m --llm
  inquest run questions.txt --tick 1s --search-url http://corpus:8108`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "total timeout for the whole run")
	runCmd.Flags().DurationVar(&tickInterval, "tick", time.Second, "interval between queue ticks")

	// Backend flags shared with investigate
	runCmd.Flags().StringVar(&searchURL, "search-url", "http://localhost:8108", "search backend base URL")
	runCmd.Flags().StringVar(&validatorURL, "validator-url", "", "constraint validator base URL (optional)")
	runCmd.Flags().StringVar(&patternsFile, "patterns", "", "YAML file of pattern table overrides (optional)")

	// LLM flags
	runCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM entity extraction")
	runCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runRun(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	questions, err := readQuestions(file)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions in %s", file)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Inquest Investigation Run\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Questions:    %d\n", len(questions))
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", searchURL)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", runTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Swarm.TickInterval = tickInterval

	st := store.NewMemoryStore()
	s, err := swarm.FromConfig(cfg, st, newLogger())
	if err != nil {
		return fmt.Errorf("assemble swarm: %w", err)
	}

	for _, q := range questions {
		s.Enqueue(q.question, "run", q.priority)
	}

	s.Start(ctx)
	defer s.Stop()

	// Wait until every investigation has left the queue.
	for {
		status := s.Snapshot()
		if status.QueueDepth == 0 && status.Processing == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("run timed out with %d investigations pending", status.QueueDepth+status.Processing)
		case <-time.After(tickInterval):
		}
	}

	status := s.Snapshot()
	discoveries := 0
	for _, inv := range status.Investigations {
		if inv.Status == model.InvestigationFailed {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", inv.Question, inv.Error)
			continue
		}
		discoveries += inv.DiscoveryCount
		fmt.Fprintf(os.Stderr, "✓ %s (%d discoveries)\n", inv.Question, inv.DiscoveryCount)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d investigations\n", len(questions))
	fmt.Fprintf(os.Stderr, "  Completed:    %d\n", status.Completed)
	fmt.Fprintf(os.Stderr, "  Failed:       %d\n", status.Failed)
	fmt.Fprintf(os.Stderr, "  Discoveries:  %d queued for review\n", discoveries)
	for name, cb := range status.Breakers {
		fmt.Fprintf(os.Stderr, "  Breaker %-8s %s (%d/%d failed)\n", name+":", cb.State, cb.TotalFailures, cb.TotalRequests)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

type runQuestion struct {
	question string
	priority model.Priority
}

// readQuestions parses the input file: one question per line, optional
// "<priority>:" prefix, # comments and blank lines skipped.
func readQuestions(path string) ([]runQuestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []runQuestion
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q := runQuestion{question: line, priority: model.PriorityNormal}
		for _, p := range []model.Priority{model.PriorityLow, model.PriorityNormal, model.PriorityHigh, model.PriorityUrgent} {
			prefix := string(p) + ":"
			if strings.HasPrefix(strings.ToLower(line), prefix) {
				q.priority = p
				q.question = strings.TrimSpace(line[len(prefix):])
				break
			}
		}
		out = append(out, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
