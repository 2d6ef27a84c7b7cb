package scoring

import (
	"fmt"
	"strconv"

	"github.com/utakatalp/prem-predictor/internal/league"
)

// ProbabilityLookup answers the market-implied chance, in percent, that a
// team finishes at a position. ok is false when no market exists.
type ProbabilityLookup interface {
	Probability(team string, position int) (percent float64, ok bool)
}

// OddsSource records where a slot's multiplier came from.
type OddsSource string

const (
	SourceOdds     OddsSource = "odds"
	SourceFallback OddsSource = "fallback"
	SourceNone     OddsSource = "none"
)

// Slot list names used in TeamScore.List.
const (
	ListTopEight    = "topEight"
	ListBottomThree = "bottomThree"
)

// TeamScore is the scored result for one predicted placement.
type TeamScore struct {
	Team              string       `json:"team"`
	List              string       `json:"list"`
	PredictedPosition int          `json:"predictedPosition"`
	ActualPosition    int          `json:"actualPosition"`
	BasePoints        int          `json:"basePoints"`
	Points            int          `json:"points"`
	Narrative         string       `json:"narrative"`
	SurpriseTier      SurpriseTier `json:"surpriseTier,omitempty"`
	Multiplier        float64      `json:"multiplier"`
	OddsSource        OddsSource   `json:"oddsSource"`
}

// Found reports whether the team was located in the final table.
func (s TeamScore) Found() bool { return s.ActualPosition > 0 }

// BaseScore returns the distance-based points for one placement. Distances
// 0-3 use the fixed ladder even across a section boundary; from 4 on only a
// shared section earns anything.
func BaseScore(predicted, actual int) int {
	switch abs(actual - predicted) {
	case 0:
		return ExactPosition
	case 1:
		return OffByOne
	case 2:
		return OffByTwo
	case 3:
		return OffByThree
	}
	if sameSection(predicted, actual) {
		return CorrectSection
	}
	return CompletelyWrong
}

func sameSection(predicted, actual int) bool {
	s := league.SectionOf(predicted)
	return s != league.SectionNone && s == league.SectionOf(actual)
}

// ScorePosition scores one top-eight placement. actual is 0 when the team
// is missing from the final table. With useOdds false, or when the lookup
// has no market for the team and position, the multiplier comes from
// ranges instead.
func ScorePosition(predicted int, team string, actual int, lookup ProbabilityLookup, ranges ExpectedRanges, useOdds bool) TeamScore {
	score := TeamScore{
		Team:              team,
		List:              ListTopEight,
		PredictedPosition: predicted,
		ActualPosition:    actual,
		Multiplier:        1.0,
		OddsSource:        SourceNone,
	}
	if actual == 0 {
		score.Narrative = "team not in final table"
		return score
	}

	score.BasePoints = BaseScore(predicted, actual)
	score.Narrative = describeMiss(team, predicted, actual, score.BasePoints)

	score.SurpriseTier, score.OddsSource = surpriseFor(team, actual, lookup, ranges, useOdds)
	score.Multiplier = score.SurpriseTier.Multiplier()
	score.Points = roundProduct(score.BasePoints, score.Multiplier)

	if score.Multiplier > 1.0 {
		score.Narrative += fmt.Sprintf(" + %s bonus (%sx multiplier)",
			score.SurpriseTier, strconv.FormatFloat(score.Multiplier, 'f', -1, 64))
	}
	return score
}

func surpriseFor(team string, actual int, lookup ProbabilityLookup, ranges ExpectedRanges, useOdds bool) (SurpriseTier, OddsSource) {
	if useOdds && lookup != nil {
		if p, ok := lookup.Probability(team, actual); ok {
			return TierForProbability(p), SourceOdds
		}
	}
	return FallbackTier(ranges, team, actual), SourceFallback
}

func describeMiss(team string, predicted, actual, base int) string {
	switch base {
	case ExactPosition:
		return fmt.Sprintf("%s finished exactly %s", team, ordinal(actual))
	case OffByOne:
		return fmt.Sprintf("%s finished %s, predicted %s", team, ordinal(actual), ordinal(predicted))
	case OffByTwo:
		return fmt.Sprintf("%s off by 2 (finished %s)", team, ordinal(actual))
	case OffByThree:
		return fmt.Sprintf("%s off by 3 (finished %s)", team, ordinal(actual))
	case CorrectSection:
		return fmt.Sprintf("%s right section, wrong position (finished %s)", team, ordinal(actual))
	default:
		return fmt.Sprintf("%s wrong section entirely (finished %s)", team, ordinal(actual))
	}
}

// ScoreRelegation scores one bottom-three placement: exact position earns
// the full 100, any other finish in 18-20 earns the section points.
// Relegation slots never carry an odds multiplier.
func ScoreRelegation(predicted int, team string, actual int) TeamScore {
	score := TeamScore{
		Team:              team,
		List:              ListBottomThree,
		PredictedPosition: predicted,
		ActualPosition:    actual,
		Multiplier:        1.0,
		OddsSource:        SourceNone,
	}
	switch {
	case actual == 0:
		score.Narrative = "team not in final table"
		return score
	case actual == predicted:
		score.BasePoints = ExactPosition
		score.Narrative = fmt.Sprintf("%s relegated in exactly %s", team, ordinal(actual))
	case league.SectionOf(actual) == league.SectionRelegation:
		score.BasePoints = CorrectSection
		score.Narrative = fmt.Sprintf("%s relegated, wrong order (finished %s)", team, ordinal(actual))
	default:
		score.BasePoints = CompletelyWrong
		score.Narrative = fmt.Sprintf("%s avoided relegation (finished %s)", team, ordinal(actual))
	}
	score.Points = score.BasePoints
	return score
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
