package odds

import (
	"time"

	"github.com/utakatalp/prem-predictor/internal/league"
)

// Markets holds the implied probabilities, in percent, for one team.
type Markets struct {
	Positions map[int]float64 `json:"positions"`
	Top4      *float64        `json:"top4,omitempty"`
	Relegated *float64        `json:"relegated,omitempty"`
}

// Snapshot is a point-in-time view of the outright finishing-position
// markets. It is read-only once built and safe for concurrent use.
type Snapshot struct {
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Teams     map[string]Markets `json:"teams"`
}

// Probability implements scoring.ProbabilityLookup. A nil snapshot has no
// markets.
func (s *Snapshot) Probability(team string, position int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	m, ok := s.Teams[team]
	if !ok {
		return 0, false
	}
	p, ok := m.Positions[position]
	return p, ok
}

// Top4 returns the team's top-four probability, summing positions 1-4 when
// no dedicated market is quoted.
func (s *Snapshot) Top4(team string) (float64, bool) {
	return s.market(team, func(m Markets) *float64 { return m.Top4 }, 1, 4)
}

// Relegated returns the team's relegation probability, summing positions
// 18-20 when no dedicated market is quoted.
func (s *Snapshot) Relegated(team string) (float64, bool) {
	return s.market(team, func(m Markets) *float64 { return m.Relegated }, 18, league.TableSize)
}

func (s *Snapshot) market(team string, quoted func(Markets) *float64, from, to int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	m, ok := s.Teams[team]
	if !ok {
		return 0, false
	}
	if p := quoted(m); p != nil {
		return *p, true
	}
	total, found := 0.0, false
	for pos := from; pos <= to; pos++ {
		if p, ok := m.Positions[pos]; ok {
			total += p
			found = true
		}
	}
	return total, found
}
