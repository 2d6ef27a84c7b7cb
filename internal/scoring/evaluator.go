package scoring

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/utakatalp/prem-predictor/internal/league"
)

var ErrMalformedPrediction = errors.New("malformed prediction")

// Slot is one predicted placement. Position is implied by the slot's index
// in its list; when set it must agree with that index.
type Slot struct {
	Position int    `json:"position,omitempty" yaml:"position,omitempty"`
	Team     string `json:"team" yaml:"team"`
}

// Prediction is one user's predicted final table for one season.
type Prediction struct {
	TopEight     []Slot `json:"topEight" yaml:"topEight"`
	BottomThree  []Slot `json:"bottomThree" yaml:"bottomThree"`
	FavoriteTeam string `json:"favoriteTeam,omitempty" yaml:"favoriteTeam,omitempty"`
}

// Validate checks slot counts, names and explicit positions.
func (p Prediction) Validate() error {
	if len(p.TopEight) != TopEightSlots {
		return fmt.Errorf("%w: topEight has %d slots, want %d", ErrMalformedPrediction, len(p.TopEight), TopEightSlots)
	}
	if len(p.BottomThree) != BottomThreeSlots {
		return fmt.Errorf("%w: bottomThree has %d slots, want %d", ErrMalformedPrediction, len(p.BottomThree), BottomThreeSlots)
	}
	if err := checkSlots(ListTopEight, p.TopEight, 1); err != nil {
		return err
	}
	return checkSlots(ListBottomThree, p.BottomThree, FirstRelegationSlot)
}

func checkSlots(list string, slots []Slot, first int) error {
	for i, s := range slots {
		if s.Team == "" {
			return fmt.Errorf("%w: %s slot %d has no team", ErrMalformedPrediction, list, i+1)
		}
		if s.Position != 0 && s.Position != first+i {
			return fmt.Errorf("%w: %s slot %d claims position %d, want %d",
				ErrMalformedPrediction, list, i+1, s.Position, first+i)
		}
	}
	return nil
}

// Teams returns the team names of slots in order.
func Teams(slots []Slot) []string {
	teams := make([]string, len(slots))
	for i, s := range slots {
		teams[i] = s.Team
	}
	return teams
}

// PerfectSections reports which prediction blocks matched the table exactly.
type PerfectSections struct {
	Top4       bool `json:"top4"`
	Top8       bool `json:"top8"`
	Relegation bool `json:"relegation"`
}

// Bonus is a section bonus that was awarded.
type Bonus struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Narrative string `json:"narrative"`
}

// Bonus names.
const (
	BonusPerfectTop8       = "PERFECT_TOP_8"
	BonusPerfectTop4       = "PERFECT_TOP_4"
	BonusPerfectRelegation = "PERFECT_RELEGATION"
)

// FavoriteScore describes how the favourite team scaled the season score.
type FavoriteScore struct {
	Team              string       `json:"team"`
	PredictedPosition int          `json:"predictedPosition"`
	ActualPosition    int          `json:"actualPosition"`
	Delta             int          `json:"delta"`
	Tier              FavoriteTier `json:"tier"`
	Multiplier        float64      `json:"multiplier"`
	Narrative         string       `json:"narrative"`
}

// ScoreBreakdown is the itemised result of one evaluation.
type ScoreBreakdown struct {
	Teams              []TeamScore     `json:"teams"`
	Bonuses            []Bonus         `json:"bonuses"`
	Favorite           *FavoriteScore  `json:"favorite,omitempty"`
	BaseScore          int             `json:"baseScore"`
	BonusPoints        int             `json:"bonusPoints"`
	Subtotal           int             `json:"subtotal"`
	FavoriteMultiplier float64         `json:"favoriteMultiplier"`
	FavoriteTier       FavoriteTier    `json:"favoriteTier,omitempty"`
	FinalScore         int             `json:"finalScore"`
	PerfectSections    PerfectSections `json:"perfectSections"`
	// Degraded is set when odds were requested but at least one slot had
	// to fall back to the expected-range prior.
	Degraded bool `json:"degraded"`
}

// FallbackTeams lists the teams whose multiplier came from the prior.
func (b *ScoreBreakdown) FallbackTeams() []string {
	var teams []string
	for _, t := range b.Teams {
		if t.OddsSource == SourceFallback {
			teams = append(teams, t.Team)
		}
	}
	return teams
}

// Evaluator scores predictions. The zero value uses DefaultRanges.
type Evaluator struct {
	Ranges ExpectedRanges
}

// EvaluatePrediction scores p against table with the default prior.
func EvaluatePrediction(p Prediction, table league.FinalTable, lookup ProbabilityLookup, useOdds bool) (*ScoreBreakdown, error) {
	return Evaluator{}.Evaluate(p, table, lookup, useOdds)
}

// Evaluate scores p against table. It fails only on a malformed prediction
// or table; missing teams and missing odds degrade the result instead.
func (e Evaluator) Evaluate(p Prediction, table league.FinalTable, lookup ProbabilityLookup, useOdds bool) (*ScoreBreakdown, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	ranges := e.Ranges
	if ranges == nil {
		ranges = DefaultRanges
	}

	b := &ScoreBreakdown{
		Teams:              make([]TeamScore, 0, TopEightSlots+BottomThreeSlots),
		Bonuses:            []Bonus{},
		FavoriteMultiplier: 1.0,
	}

	// 1) top eight, odds multiplier applies
	for i, s := range p.TopEight {
		score := ScorePosition(i+1, s.Team, table.Position(s.Team), lookup, ranges, useOdds)
		b.Teams = append(b.Teams, score)
		b.BaseScore += score.Points
		if useOdds && score.OddsSource == SourceFallback {
			b.Degraded = true
		}
	}

	// 2) bottom three, flat relegation rule
	for i, s := range p.BottomThree {
		score := ScoreRelegation(FirstRelegationSlot+i, s.Team, table.Position(s.Team))
		b.Teams = append(b.Teams, score)
		b.BaseScore += score.Points
	}

	// 3) perfect sections; top 8 supersedes top 4
	b.PerfectSections = perfectSections(p, table)
	switch {
	case b.PerfectSections.Top8:
		b.addBonus(BonusPerfectTop8, PerfectTop8Bonus, "perfect top 8")
	case b.PerfectSections.Top4:
		b.addBonus(BonusPerfectTop4, PerfectTop4Bonus, "perfect top 4")
	}
	if b.PerfectSections.Relegation {
		b.addBonus(BonusPerfectRelegation, PerfectRelegationBonus, "perfect relegation order")
	}
	b.Subtotal = b.BaseScore + b.BonusPoints

	// 4) favourite team scales everything
	if fav := favoriteScore(p, table); fav != nil {
		b.Favorite = fav
		b.FavoriteMultiplier = fav.Multiplier
		b.FavoriteTier = fav.Tier
	}

	// 5) final
	b.FinalScore = roundProduct(b.Subtotal, b.FavoriteMultiplier)
	return b, nil
}

func (b *ScoreBreakdown) addBonus(name string, points int, narrative string) {
	b.Bonuses = append(b.Bonuses, Bonus{Name: name, Points: points, Narrative: narrative})
	b.BonusPoints += points
}

func perfectSections(p Prediction, table league.FinalTable) PerfectSections {
	predicted := Teams(p.TopEight)
	var ps PerfectSections
	if actual, ok := table.Range(1, 4); ok {
		ps.Top4 = slices.Equal(predicted[:4], actual)
	}
	if actual, ok := table.Range(1, 8); ok {
		ps.Top8 = slices.Equal(predicted, actual)
	}
	if actual, ok := table.Range(FirstRelegationSlot, league.TableSize); ok {
		ps.Relegation = slices.Equal(Teams(p.BottomThree), actual)
	}
	return ps
}

// favoriteScore returns nil when no favourite is set or it is missing from
// the table.
func favoriteScore(p Prediction, table league.FinalTable) *FavoriteScore {
	if p.FavoriteTeam == "" {
		return nil
	}
	actual := table.Position(p.FavoriteTeam)
	if actual == 0 {
		return nil
	}

	predicted := UnpredictedFavoritePosition
	if i := slices.Index(Teams(p.TopEight), p.FavoriteTeam); i >= 0 {
		predicted = i + 1
	} else if i := slices.Index(Teams(p.BottomThree), p.FavoriteTeam); i >= 0 {
		predicted = FirstRelegationSlot + i
	}

	delta := predicted - actual
	tier := FavoriteTierForDelta(delta)
	return &FavoriteScore{
		Team:              p.FavoriteTeam,
		PredictedPosition: predicted,
		ActualPosition:    actual,
		Delta:             delta,
		Tier:              tier,
		Multiplier:        tier.Multiplier(),
		Narrative: fmt.Sprintf("%s performance: %s (%sx multiplier)",
			p.FavoriteTeam, tier, strconv.FormatFloat(tier.Multiplier(), 'f', -1, 64)),
	}
}
