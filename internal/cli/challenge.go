package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utakatalp/prem-predictor/internal/scoring"
)

func (rt *runtime) challengeCmd() *cobra.Command {
	var (
		answer, correct float64
		kind            string
		asJSON          bool
	)
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Score a single weekly challenge answer",
		Example: `  prempred challenge --answer 3 --correct 4
  prempred challenge --answer 55.5 --correct 52 --kind percentage`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := scoring.ChallengeKind(kind)
			points := scoring.ScoreChallengeAnswer(answer, correct, k)

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(map[string]any{
					"kind":   k,
					"points": points,
				})
			}
			styles := newPrintStyles()
			fmt.Fprintf(out, "%s %s\n", styles.header.Render("points:"), styles.points(points).Render(fmt.Sprint(points)))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&answer, "answer", "a", 0, "Submitted answer")
	cmd.Flags().Float64Var(&correct, "correct", 0, "Correct answer")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(scoring.KindNumber), "Answer kind (number|percentage)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.MarkFlagRequired("answer")
	cmd.MarkFlagRequired("correct")
	return cmd
}
