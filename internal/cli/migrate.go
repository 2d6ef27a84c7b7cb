package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utakatalp/prem-predictor/internal/store"
)

func (rt *runtime) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.Database.URL == "" {
				return errors.New("database.url is not set")
			}
			st, err := store.NewStore(cmd.Context(), rt.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
