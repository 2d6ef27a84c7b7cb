// Package cli implements the prempred command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/utakatalp/prem-predictor/internal/config"
)

// runtime is shared by every subcommand. cfg is filled by the root
// command's PersistentPreRunE.
type runtime struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	version string
}

// NewRootCmd builds the prempred command tree.
func NewRootCmd(version string) *cobra.Command {
	rt := &runtime{v: viper.New(), version: version}

	rootCmd := &cobra.Command{
		Use:   "prempred",
		Short: "Premier League season prediction game",
		Long: `prempred scores friends' Premier League season predictions.

Predictions name the top eight and bottom three clubs. Points depend on
how close each placement was and how unlikely the bookmakers thought the
outcome, with bonuses for perfect sections and a multiplier for the
player's favourite club.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rt.v, rt.cfgFile)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&rt.cfgFile, "config", "c", "", "Config file (default ./prempred.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")

	rt.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	rt.v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(
		rt.serveCmd(),
		rt.migrateCmd(),
		rt.scoreCmd(),
		rt.challengeCmd(),
		rt.oddsCmd(),
		rt.mcpCmd(),
	)
	return rootCmd
}

func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
