package odds

import (
	"sort"
	"time"
)

// longshotCeiling is the top-four probability, in percent, below which a
// team counts as a longshot.
const longshotCeiling = 15.0

// noMarketOdds is shown for a team without a quoted price.
const noMarketOdds = 999.0

// Line is one team's price in a summary list.
type Line struct {
	Team        string  `json:"team"`
	Probability float64 `json:"probability"`
	Odds        float64 `json:"odds"`
}

// Summary highlights the headline outright markets.
type Summary struct {
	Favorites           []Line    `json:"favorites"`
	Longshots           []Line    `json:"longshots"`
	RelegationFavorites []Line    `json:"relegationFavorites"`
	UpdatedAt           time.Time `json:"lastUpdated"`
}

// Summarize picks the three title favourites, the three longest top-four
// shots and the three teams most likely to go down.
func Summarize(snap *Snapshot, now time.Time) Summary {
	var title, top4, relegated []Line
	if snap != nil {
		for team := range snap.Teams {
			p, _ := snap.Probability(team, 1)
			title = append(title, line(team, p))

			p, _ = snap.Top4(team)
			if p < longshotCeiling {
				top4 = append(top4, line(team, p))
			}

			p, _ = snap.Relegated(team)
			relegated = append(relegated, line(team, p))
		}
	}

	byProbability(title, true)
	byProbability(top4, false)
	byProbability(relegated, true)

	return Summary{
		Favorites:           firstN(title, 3),
		Longshots:           firstN(top4, 3),
		RelegationFavorites: firstN(relegated, 3),
		UpdatedAt:           now.UTC(),
	}
}

func line(team string, percent float64) Line {
	odds, err := PercentToDecimal(percent)
	if err != nil {
		odds = noMarketOdds
	}
	return Line{Team: team, Probability: percent, Odds: round2(odds)}
}

func byProbability(lines []Line, desc bool) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Probability != b.Probability {
			if desc {
				return a.Probability > b.Probability
			}
			return a.Probability < b.Probability
		}
		return a.Team < b.Team
	})
}

func firstN(lines []Line, n int) []Line {
	if len(lines) > n {
		lines = lines[:n]
	}
	if lines == nil {
		return []Line{}
	}
	return lines
}
