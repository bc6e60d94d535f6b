package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/score"
	"github.com/spf13/cobra"
)

var (
	scoreActor   string
	scoreAliases []string
	scoreFormula string
	scoreDocType string
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score a document chunk for defense relevance",
	Long: `Score runs the relevance formulas over a local text file and prints
the full signal breakdown, so a reviewer can see exactly why a chunk
received its importance score.

Formulas:
  baseline   keyword, actor, and tag signals
  context    position-aware scoring with signature-block suppression
  category   defense-category priority scoring
  combined   weighted blend of all three (default)

Example:
  inquest score exhibit-14.txt --actor "Gary Cox"
  inquest score transcript.txt --actor "Sarah Miller" --formula context
  inquest score memo.txt --doc-type email`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreActor, "actor", "", "actor name to score against")
	scoreCmd.Flags().StringSliceVar(&scoreAliases, "alias", nil, "actor aliases (repeatable)")
	scoreCmd.Flags().StringVar(&scoreFormula, "formula", "combined", "formula to run (baseline, context, category, combined)")
	scoreCmd.Flags().StringVar(&scoreDocType, "doc-type", "", "document type hint (email, transcript, exhibit, report)")
	scoreCmd.Flags().StringVar(&patternsFile, "patterns", "", "YAML file of pattern table overrides (optional)")
}

func runScore(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	patterns, err := score.LoadPatterns(patternsFile)
	if err != nil {
		return fmt.Errorf("load patterns: %w", err)
	}
	engine := score.NewEngine(model.DefaultConfig().Scoring, patterns)

	chunk := model.DocumentChunk{
		Content:      string(data),
		DocumentID:   filepath.Base(path),
		DocumentName: filepath.Base(path),
		DocumentType: scoreDocType,
	}
	sctx := model.ScoringContext{ActorName: scoreActor}
	if len(scoreAliases) > 0 {
		sctx.ActorAliases = make(map[string]bool, len(scoreAliases))
		for _, a := range scoreAliases {
			sctx.ActorAliases[strings.ToLower(a)] = true
		}
	}

	switch scoreFormula {
	case "", "combined", "baseline", "context", "category":
	default:
		return fmt.Errorf("unknown formula %q (want baseline, context, category, or combined)", scoreFormula)
	}
	result := engine.ByID(scoreFormula, chunk, sctx)

	fmt.Printf("Document:    %s\n", chunk.DocumentID)
	fmt.Printf("Formula:     %s\n", result.FormulaID)
	fmt.Printf("Category:    %s\n", result.Category)
	fmt.Printf("Importance:  %.1f/100\n", result.ImportanceScore)
	fmt.Printf("Suggest:     %v\n", result.ShouldSuggest)
	if result.Reasoning != "" {
		fmt.Printf("Reasoning:   %s\n", result.Reasoning)
	}

	if len(result.Signals) > 0 {
		fmt.Println("\nSignals:")
		names := make([]string, 0, len(result.Signals))
		for name := range result.Signals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-24s %.1f\n", name, result.Signals[name])
		}
	}

	return nil
}
