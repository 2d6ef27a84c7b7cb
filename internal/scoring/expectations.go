package scoring

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Range is the inclusive band of positions a team is expected to finish in.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// ExpectedRanges is the coarse prior consulted when no market probability
// is available for a team and position.
type ExpectedRanges interface {
	ExpectedRange(team string) (Range, bool)
}

// StaticRanges is an ExpectedRanges backed by a fixed map.
type StaticRanges map[string]Range

func (s StaticRanges) ExpectedRange(team string) (Range, bool) {
	r, ok := s[team]
	return r, ok
}

// DefaultRanges is the historical prior shipped with the game.
var DefaultRanges = StaticRanges{
	"Man City":     {Min: 1, Max: 3},
	"Arsenal":      {Min: 2, Max: 5},
	"Liverpool":    {Min: 2, Max: 5},
	"Chelsea":      {Min: 3, Max: 8},
	"Man United":   {Min: 4, Max: 10},
	"Spurs":        {Min: 5, Max: 12},
	"Newcastle":    {Min: 6, Max: 14},
	"West Ham":     {Min: 8, Max: 16},
	"Brighton":     {Min: 10, Max: 18},
	"Aston Villa":  {Min: 8, Max: 15},
	"Burnley":      {Min: 15, Max: 20},
	"Leeds United": {Min: 12, Max: 20},
	"Sunderland":   {Min: 16, Max: 20},
}

// LoadRanges reads a YAML mapping of team name to {min, max}.
func LoadRanges(r io.Reader) (StaticRanges, error) {
	var ranges StaticRanges
	if err := yaml.NewDecoder(r).Decode(&ranges); err != nil {
		return nil, fmt.Errorf("decoding expected ranges: %w", err)
	}
	for team, rng := range ranges {
		if rng.Min < 1 || rng.Max < rng.Min {
			return nil, fmt.Errorf("expected range for %s: invalid [%d,%d]", team, rng.Min, rng.Max)
		}
	}
	return ranges, nil
}

// FallbackTier grades a finishing position against the team's expected
// range: outside the range by more than twice its width is a huge surprise,
// by more than its width a big one, otherwise mild. Unknown teams and
// positions inside the range are EXPECTED.
func FallbackTier(ranges ExpectedRanges, team string, position int) SurpriseTier {
	if ranges == nil {
		return Expected
	}
	rng, ok := ranges.ExpectedRange(team)
	if !ok {
		return Expected
	}
	if position >= rng.Min && position <= rng.Max {
		return Expected
	}

	width := rng.Max - rng.Min
	deviation := min(abs(position-rng.Min), abs(position-rng.Max))
	switch {
	case deviation > width*2:
		return HugeSurprise
	case deviation > width:
		return BigSurprise
	default:
		return MildSurprise
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
