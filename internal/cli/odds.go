package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (rt *runtime) oddsCmd() *cobra.Command {
	oddsCmd := &cobra.Command{
		Use:   "odds",
		Short: "Inspect the configured odds source",
	}

	var asJSON bool
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show title favourites, top-four longshots and relegation favourites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rt.cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.svc.OddsSummary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			renderOddsSummary(out, sum)
			return nil
		},
	}
	summaryCmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")

	oddsCmd.AddCommand(summaryCmd)
	return oddsCmd
}
