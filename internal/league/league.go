package league

import (
	"errors"
	"fmt"
)

// TableSize is the number of clubs in a Premier League season.
const TableSize = 20

var ErrMalformedTable = errors.New("malformed final table")

// Team represents a club in the league.
type Team struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Played       int     `json:"played"`
	Points       int     `json:"points"`
	Win          int     `json:"win"`
	Draw         int     `json:"draw"`
	Lose         int     `json:"lose"`
	GoalsFor     int     `json:"goals_for"`
	GoalsAgainst int     `json:"goals_against"`
	ELO          float64 `json:"elo"`
}

// Match represents a fixture between two teams. Played is false until a
// result has been recorded or simulated.
type Match struct {
	ID        int
	Week      int
	Home      *Team
	Away      *Team
	HomeGoals int
	AwayGoals int
	Played    bool
}

// TableEntry holds the standings info for one team.
type TableEntry struct {
	Team                        *Team
	Played, Wins, Draws, Losses int
	GoalsFor, GoalsAgainst      int
	GoalDiff, Points            int
}

// FinalTable is a finishing order, index 0 = champion (position 1).
type FinalTable []string

// Position returns the 1-based finishing position of team, or 0 when the
// team is not in the table.
func (t FinalTable) Position(team string) int {
	for i, name := range t {
		if name == team {
			return i + 1
		}
	}
	return 0
}

// Range returns the teams finishing in positions from..to inclusive. ok is
// false when the table is too short to cover the range.
func (t FinalTable) Range(from, to int) (teams []string, ok bool) {
	if from < 1 || to < from || to > len(t) {
		return nil, false
	}
	return t[from-1 : to], true
}

// Validate rejects empty names and duplicates. A short table is allowed so
// partially known standings can still be scored.
func (t FinalTable) Validate() error {
	if len(t) > TableSize {
		return fmt.Errorf("%w: %d teams, at most %d allowed", ErrMalformedTable, len(t), TableSize)
	}
	seen := make(map[string]int, len(t))
	for i, name := range t {
		if name == "" {
			return fmt.Errorf("%w: empty team at position %d", ErrMalformedTable, i+1)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s listed at positions %d and %d", ErrMalformedTable, name, prev, i+1)
		}
		seen[name] = i + 1
	}
	return nil
}

// Section is one of the fixed position bands used for coarse scoring.
type Section int

const (
	SectionNone Section = iota
	SectionTop4
	SectionEuropa
	SectionMidTable
	SectionRelegation
)

// SectionOf maps a 1-based position to its band.
func SectionOf(position int) Section {
	switch {
	case position >= 1 && position <= 4:
		return SectionTop4
	case position >= 5 && position <= 8:
		return SectionEuropa
	case position >= 9 && position <= 17:
		return SectionMidTable
	case position >= 18 && position <= TableSize:
		return SectionRelegation
	default:
		return SectionNone
	}
}

func (s Section) String() string {
	switch s {
	case SectionTop4:
		return "top4"
	case SectionEuropa:
		return "europa"
	case SectionMidTable:
		return "midTable"
	case SectionRelegation:
		return "relegation"
	default:
		return "none"
	}
}
