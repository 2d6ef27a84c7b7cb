package game

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

// Standing is one user's row in a season leaderboard. Exactly one of
// Breakdown and Error is set.
type Standing struct {
	User       string                  `json:"user"`
	FinalScore int                     `json:"finalScore"`
	Breakdown  *scoring.ScoreBreakdown `json:"breakdown,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Entry is one user's prediction to be scored.
type Entry struct {
	User       string
	Prediction scoring.Prediction
}

// Leaderboard evaluates every stored prediction for season against its
// recorded final table.
func (s *Service) Leaderboard(ctx context.Context, season string, useOdds bool) ([]Standing, error) {
	table, err := s.repo.GetSeasonTable(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("loading final table: %w", err)
	}
	preds, err := s.repo.ListPredictions(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}

	entries := make([]Entry, len(preds))
	for i, p := range preds {
		entries[i] = Entry{User: p.User, Prediction: p.Prediction}
	}
	return s.ScoreAll(ctx, season, entries, table.Table, useOdds)
}

// ScoreAll evaluates entries in parallel against table. Odds are fetched
// once and shared by all entries; a failing entry is reported in its
// Standing and does not stop the others.
func (s *Service) ScoreAll(ctx context.Context, season string, entries []Entry, table league.FinalTable, useOdds bool) ([]Standing, error) {
	var lookup scoring.ProbabilityLookup
	if useOdds {
		lookup = s.lookup(ctx)
	}

	p := pool.NewWithResults[Standing]().WithContext(ctx).WithMaxGoroutines(s.workers)
	for _, e := range entries {
		p.Go(func(ctx context.Context) (Standing, error) {
			return s.standing(season, e, table, lookup, useOdds), ctx.Err()
		})
	}
	standings, err := p.Wait()
	if err != nil {
		return nil, err
	}

	sortStandings(standings)
	return standings, nil
}

func (s *Service) standing(season string, e Entry, table league.FinalTable, lookup scoring.ProbabilityLookup, useOdds bool) Standing {
	b, err := s.eval.Evaluate(e.Prediction, table, lookup, useOdds)
	if err != nil {
		s.log.WithError(err).WithField("user", e.User).Warn("prediction could not be scored")
		return Standing{User: e.User, Error: err.Error()}
	}
	s.logDegraded(e.User, season, b)
	return Standing{User: e.User, FinalScore: b.FinalScore, Breakdown: b}
}

// sortStandings orders by final score, highest first; failed entries go last
// and ties break on user name.
func sortStandings(st []Standing) {
	sort.SliceStable(st, func(i, j int) bool {
		a, b := st[i], st[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		return a.User < b.User
	})
}
