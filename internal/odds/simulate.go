package odds

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/utakatalp/prem-predictor/internal/league"
)

// Simulator estimates finishing-position probabilities by playing out the
// rest of the season many times with the league's match model.
type Simulator struct {
	Teams     []*league.Team
	Fixtures  [][]*league.Match
	StartWeek int
	Runs      int
	Seed      int64
	Now       func() time.Time
}

// NewSeasonSimulator builds a simulator for a fresh double round-robin
// between teams.
func NewSeasonSimulator(teams []*league.Team, runs int, seed int64) *Simulator {
	return &Simulator{
		Teams:    teams,
		Fixtures: league.GenerateFullSeason(teams),
		Runs:     runs,
		Seed:     seed,
	}
}

// Snapshot runs the simulation. Results are deterministic for a given seed.
func (s *Simulator) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.Runs <= 0 {
		return nil, fmt.Errorf("simulation runs must be positive, got %d", s.Runs)
	}
	if len(s.Teams) == 0 {
		return nil, fmt.Errorf("simulation needs teams")
	}
	r := rand.New(rand.NewSource(s.Seed))

	// 1) count how often each team finishes in each position
	counts := make(map[string][]int, len(s.Teams))
	for _, t := range s.Teams {
		counts[t.Name] = make([]int, len(s.Teams))
	}
	for i := 0; i < s.Runs; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("simulating season: %w", err)
			}
		}
		table := league.SimulateSeason(r, s.Teams, s.Fixtures, s.StartWeek)
		for pos, name := range table {
			counts[name][pos]++
		}
	}

	// 2) turn counts into percentages
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	snap := &Snapshot{
		Source:    "simulation",
		FetchedAt: now().UTC(),
		Teams:     make(map[string]Markets, len(counts)),
	}
	for name, byPos := range counts {
		m := Markets{Positions: make(map[int]float64, len(byPos))}
		for i, c := range byPos {
			m.Positions[i+1] = round2(float64(c) / float64(s.Runs) * 100.0)
		}
		snap.Teams[name] = m
	}
	return snap, nil
}
