package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

// predictionFile is one user's prediction on disk. User defaults to the
// file name without extension.
type predictionFile struct {
	User               string `yaml:"user"`
	scoring.Prediction `yaml:",inline"`
}

type scoreOptions struct {
	table       string
	predictions string
	noOdds      bool
	asJSON      bool
	detail      bool
}

func (rt *runtime) scoreCmd() *cobra.Command {
	var opts scoreOptions
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score prediction files against a final table",
		Example: `  prempred score --table table.yaml --predictions 'predictions/**/*.yaml'
  prempred score --table table.yaml --predictions 'predictions/*.yaml' --no-odds --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.score(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.table, "table", "t", "", "Final table YAML file")
	cmd.Flags().StringVarP(&opts.predictions, "predictions", "p", "", "Glob of prediction YAML files (supports **)")
	cmd.Flags().BoolVar(&opts.noOdds, "no-odds", false, "Score on expected ranges only")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print standings as JSON")
	cmd.Flags().BoolVar(&opts.detail, "detail", false, "Print every team's narrative")
	cmd.MarkFlagRequired("table")
	cmd.MarkFlagRequired("predictions")
	return cmd
}

func (rt *runtime) score(cmd *cobra.Command, opts scoreOptions) error {
	season, table, err := league.LoadTableFile(opts.table)
	if err != nil {
		return err
	}
	if season == "" {
		season = rt.cfg.Game.Season
	}

	entries, err := loadPredictions(opts.predictions)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), rt.cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	standings, err := a.svc.ScoreAll(cmd.Context(), season, entries, table, !opts.noOdds)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(standings)
	}
	renderStandings(out, season, standings, opts.detail)
	return nil
}

// loadPredictions reads every file matching pattern, in path order.
func loadPredictions(pattern string) ([]game.Entry, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad predictions pattern: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no prediction files match %q", pattern)
	}
	sort.Strings(paths)

	entries := make([]game.Entry, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		pf, err := readPredictionFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[pf.User]; ok {
			return nil, fmt.Errorf("user %s appears in %s and %s", pf.User, prev, path)
		}
		seen[pf.User] = path
		entries = append(entries, game.Entry{User: pf.User, Prediction: pf.Prediction})
	}
	return entries, nil
}

func readPredictionFile(path string) (predictionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return predictionFile{}, err
	}
	defer f.Close()

	var pf predictionFile
	if err := yaml.NewDecoder(f).Decode(&pf); err != nil {
		return predictionFile{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	pf.User = strings.TrimSpace(pf.User)
	if pf.User == "" {
		pf.User = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if pf.User == "" {
		return predictionFile{}, errors.New("prediction file without a user: " + path)
	}
	return pf, nil
}
