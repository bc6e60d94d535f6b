package cli

import (
	"fmt"

	"github.com/probelab/inquest/internal/mode"
	"github.com/spf13/cobra"
)

var routeStage string

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route <query>",
	Short: "Show how a query would be routed",
	Long: `Route classifies a query against the mode vocabularies and prints the
selected analysis mode, the routing confidence, and the phrase that
triggered it. Useful for checking why an investigation picked a mode.

Example:
  inquest route "what did Harrison testify about"
  inquest route "link all exhibits to the timeline" --stage intake`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		match := mode.NewRouter().Classify(args[0], routeStage)

		fmt.Printf("Mode:          %s\n", match.Profile.Mode)
		fmt.Printf("Confidence:    %.2f\n", match.Confidence)
		fmt.Printf("Justification: %s\n", match.Justification)
		fmt.Printf("Formula:       %s", match.Profile.PrimaryFormula)
		if match.Profile.SecondaryFormula != "" {
			fmt.Printf(" (secondary: %s)", match.Profile.SecondaryFormula)
		}
		fmt.Println()
		fmt.Printf("LLM:           %v\n", match.Profile.UseLLM)
		fmt.Printf("Validator:     %v\n", match.Profile.UseValidator)
		fmt.Printf("Batch size:    %d\n", match.Profile.BatchSize)
		if match.Profile.KnowledgeSource != "" {
			fmt.Printf("Knowledge:     %s\n", match.Profile.KnowledgeSource)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().StringVar(&routeStage, "stage", "", "prior workflow stage (trial_prep, review, intake, investigation)")
}
