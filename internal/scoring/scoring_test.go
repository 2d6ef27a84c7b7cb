package scoring

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/prem-predictor/internal/league"
)

var season = league.FinalTable{
	"Man City", "Arsenal", "Liverpool", "Chelsea", "Man United",
	"Spurs", "Newcastle", "Aston Villa", "West Ham", "Brighton",
	"Fulham", "Brentford", "Crystal Palace", "Everton", "Wolves",
	"Bournemouth", "Nottm Forest", "Burnley", "Leeds United", "Sunderland",
}

// fixedLookup answers def for every team and position unless overridden.
type fixedLookup struct {
	def       float64
	missing   bool
	overrides map[string]float64
}

func (f fixedLookup) Probability(team string, position int) (float64, bool) {
	if p, ok := f.overrides[fmt.Sprintf("%s/%d", team, position)]; ok {
		return p, true
	}
	if f.missing {
		return 0, false
	}
	return f.def, true
}

func slots(teams ...string) []Slot {
	out := make([]Slot, len(teams))
	for i, t := range teams {
		out[i] = Slot{Team: t}
	}
	return out
}

func perfectPrediction(table league.FinalTable) Prediction {
	return Prediction{
		TopEight:    slots(table[:8]...),
		BottomThree: slots(table[17:]...),
	}
}

func moveTo(table league.FinalTable, team string, position int) league.FinalTable {
	out := slices.DeleteFunc(slices.Clone(table), func(s string) bool { return s == team })
	return slices.Insert(out, position-1, team)
}

func TestBaseScore(t *testing.T) {
	tests := []struct {
		name              string
		predicted, actual int
		want              int
	}{
		{"exact", 5, 5, ExactPosition},
		{"off by one", 3, 4, OffByOne},
		{"off by two", 8, 6, OffByTwo},
		{"off by three crossing sections", 4, 7, OffByThree},
		{"off by three top to mid", 7, 10, OffByThree},
		{"same mid-table section", 9, 15, CorrectSection},
		{"same europa section impossible beyond three", 5, 8, OffByThree},
		{"different section", 1, 10, CompletelyWrong},
		{"top4 to relegation", 2, 19, CompletelyWrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseScore(tt.predicted, tt.actual))
		})
	}
}

func TestBaseScoreExactIsAlwaysHundred(t *testing.T) {
	for pos := 1; pos <= league.TableSize; pos++ {
		assert.Equal(t, ExactPosition, BaseScore(pos, pos))
	}
}

func TestTierForProbability(t *testing.T) {
	tests := []struct {
		percent float64
		want    SurpriseTier
	}{
		{0, Astronomical},
		{0.49, Astronomical},
		{0.5, HugeSurprise},
		{1.99, HugeSurprise},
		{2, BigSurprise},
		{9.99, BigSurprise},
		{10, MildSurprise},
		{24.9, MildSurprise},
		{25, Expected},
		{70, Expected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForProbability(tt.percent), "p=%v", tt.percent)
	}
}

func TestSurpriseMultipliers(t *testing.T) {
	assert.Equal(t, 10.0, Astronomical.Multiplier())
	assert.Equal(t, 5.0, HugeSurprise.Multiplier())
	assert.Equal(t, 3.0, BigSurprise.Multiplier())
	assert.Equal(t, 1.8, MildSurprise.Multiplier())
	assert.Equal(t, 1.0, Expected.Multiplier())
}

func TestFallbackTier(t *testing.T) {
	tests := []struct {
		name     string
		team     string
		position int
		want     SurpriseTier
	}{
		{"inside range", "Man City", 2, Expected},
		{"just outside", "Man City", 4, MildSurprise},
		{"beyond width", "Man City", 6, BigSurprise},
		{"beyond twice width", "Man City", 8, HugeSurprise},
		{"above range", "Burnley", 9, BigSurprise},
		{"above range mild", "Burnley", 10, MildSurprise},
		{"unknown team", "Fulham", 1, Expected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackTier(DefaultRanges, tt.team, tt.position))
		})
	}
	assert.Equal(t, Expected, FallbackTier(nil, "Man City", 20))
}

func TestScorePositionExpectedWinner(t *testing.T) {
	got := ScorePosition(1, "TeamA", 1, fixedLookup{def: 70}, DefaultRanges, true)

	assert.Equal(t, 100, got.BasePoints)
	assert.Equal(t, 100, got.Points)
	assert.Equal(t, Expected, got.SurpriseTier)
	assert.Equal(t, 1.0, got.Multiplier)
	assert.Equal(t, SourceOdds, got.OddsSource)
}

func TestScorePositionAppliesOddsMultiplier(t *testing.T) {
	got := ScorePosition(2, "Burnley", 3, fixedLookup{def: 1.5}, DefaultRanges, true)

	assert.Equal(t, OffByOne, got.BasePoints)
	assert.Equal(t, 300, got.Points)
	assert.Equal(t, HugeSurprise, got.SurpriseTier)
	assert.Contains(t, got.Narrative, "HUGE_SURPRISE bonus (5x multiplier)")
}

func TestScorePositionRoundsHalfUp(t *testing.T) {
	got := ScorePosition(4, "X", 7, fixedLookup{def: 20}, DefaultRanges, true)

	assert.Equal(t, OffByThree, got.BasePoints)
	assert.Equal(t, 27, got.Points)
	assert.Equal(t, 45, roundProduct(25, 1.8))
	assert.Equal(t, 74, roundProduct(105, 0.7))
}

func TestScorePositionFallsBackWhenOddsMissing(t *testing.T) {
	got := ScorePosition(1, "Man City", 4, fixedLookup{missing: true}, DefaultRanges, true)

	assert.Equal(t, SourceFallback, got.OddsSource)
	assert.Equal(t, MildSurprise, got.SurpriseTier)
	assert.Equal(t, 27, got.Points)
}

func TestScorePositionTeamNotInTable(t *testing.T) {
	got := ScorePosition(1, "Ghost", 0, fixedLookup{def: 0.1}, DefaultRanges, true)

	assert.Equal(t, 0, got.Points)
	assert.Equal(t, "team not in final table", got.Narrative)
	assert.Equal(t, 1.0, got.Multiplier)
	assert.Equal(t, SourceNone, got.OddsSource)
	assert.False(t, got.Found())
}

func TestScoreRelegation(t *testing.T) {
	tests := []struct {
		name              string
		predicted, actual int
		want              int
	}{
		{"exact", 20, 20, ExactPosition},
		{"wrong order", 20, 18, CorrectSection},
		{"survived", 18, 12, CompletelyWrong},
		{"off by one outside zone", 18, 17, CompletelyWrong},
		{"missing", 19, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreRelegation(tt.predicted, "TeamZ", tt.actual)
			assert.Equal(t, tt.want, got.Points)
			assert.Equal(t, 1.0, got.Multiplier)
			assert.Empty(t, got.SurpriseTier)
		})
	}
}

func TestEvaluatePerfectTop8SuppressesTop4(t *testing.T) {
	got, err := EvaluatePrediction(perfectPrediction(season), season, fixedLookup{def: 70}, true)
	require.NoError(t, err)

	assert.True(t, got.PerfectSections.Top8)
	assert.True(t, got.PerfectSections.Top4)
	assert.True(t, got.PerfectSections.Relegation)

	names := make([]string, 0, len(got.Bonuses))
	for _, b := range got.Bonuses {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{BonusPerfectTop8, BonusPerfectRelegation}, names)
	assert.Equal(t, PerfectTop8Bonus+PerfectRelegationBonus, got.BonusPoints)
	assert.Equal(t, 11*ExactPosition, got.BaseScore)
	assert.Equal(t, 2400, got.FinalScore)
	assert.False(t, got.Degraded)
}

func TestEvaluatePerfectTop4Only(t *testing.T) {
	p := perfectPrediction(season)
	p.TopEight[4], p.TopEight[5] = p.TopEight[5], p.TopEight[4]

	got, err := EvaluatePrediction(p, season, fixedLookup{def: 70}, true)
	require.NoError(t, err)

	assert.True(t, got.PerfectSections.Top4)
	assert.False(t, got.PerfectSections.Top8)
	require.NotEmpty(t, got.Bonuses)
	assert.Equal(t, BonusPerfectTop4, got.Bonuses[0].Name)
	assert.Equal(t, PerfectTop4Bonus+PerfectRelegationBonus, got.BonusPoints)
	assert.Equal(t, 6*ExactPosition+2*OffByOne+3*ExactPosition, got.BaseScore)
}

func TestEvaluateRelegationNeverMultiplied(t *testing.T) {
	got, err := EvaluatePrediction(perfectPrediction(season), season, fixedLookup{def: 0.1}, true)
	require.NoError(t, err)

	for _, ts := range got.Teams {
		if ts.List == ListBottomThree {
			assert.Equal(t, 1.0, ts.Multiplier, ts.Team)
			assert.Equal(t, ExactPosition, ts.Points, ts.Team)
		} else {
			assert.Equal(t, 10.0, ts.Multiplier, ts.Team)
		}
	}
}

func TestEvaluateFavoriteNotPredictedUsesDefaultPosition(t *testing.T) {
	table := moveTo(season, "Everton", 3)
	p := perfectPrediction(season)
	p.FavoriteTeam = "Everton"

	got, err := EvaluatePrediction(p, table, fixedLookup{def: 70}, true)
	require.NoError(t, err)
	require.NotNil(t, got.Favorite)

	assert.Equal(t, UnpredictedFavoritePosition, got.Favorite.PredictedPosition)
	assert.Equal(t, 7, got.Favorite.Delta)
	assert.Equal(t, GreatSuccess, got.FavoriteTier)
	assert.Equal(t, 2.5, got.FavoriteMultiplier)
	assert.Equal(t, roundProduct(got.Subtotal, 2.5), got.FinalScore)
	assert.Greater(t, got.FinalScore, got.Subtotal)
}

func TestEvaluateFavoriteScalesWholeScore(t *testing.T) {
	p := perfectPrediction(season)
	p.FavoriteTeam = "Everton"

	seen := make(map[FavoriteTier]bool)
	for pos := 1; pos <= league.TableSize; pos++ {
		table := moveTo(season, "Everton", pos)
		got, err := EvaluatePrediction(p, table, fixedLookup{def: 70}, true)
		require.NoError(t, err)
		require.NotNil(t, got.Favorite)

		wantTier := FavoriteTierForDelta(UnpredictedFavoritePosition - pos)
		assert.Equal(t, wantTier, got.FavoriteTier, "position %d", pos)
		assert.Equal(t, got.BaseScore+got.BonusPoints, got.Subtotal)
		assert.Equal(t, roundProduct(got.Subtotal, wantTier.Multiplier()), got.FinalScore, "position %d", pos)
		seen[got.FavoriteTier] = true
	}
	assert.Len(t, seen, 7)
}

func TestEvaluateFavoriteFromBottomThree(t *testing.T) {
	p := perfectPrediction(season)
	p.FavoriteTeam = "Leeds United"
	table := moveTo(season, "Leeds United", 12)

	got, err := EvaluatePrediction(p, table, fixedLookup{def: 70}, true)
	require.NoError(t, err)
	require.NotNil(t, got.Favorite)

	assert.Equal(t, 19, got.Favorite.PredictedPosition)
	assert.Equal(t, GreatSuccess, got.FavoriteTier)
}

func TestEvaluateFavoriteMissingSkipsMultiplier(t *testing.T) {
	p := perfectPrediction(season)
	p.FavoriteTeam = "Ipswich"

	got, err := EvaluatePrediction(p, season, fixedLookup{def: 70}, true)
	require.NoError(t, err)

	assert.Nil(t, got.Favorite)
	assert.Equal(t, 1.0, got.FavoriteMultiplier)
	assert.Equal(t, got.Subtotal, got.FinalScore)
}

func TestEvaluateTeamMissingFromTable(t *testing.T) {
	p := perfectPrediction(season)
	p.TopEight[0] = Slot{Team: "Ghost"}
	p.BottomThree[2] = Slot{Team: "Phantom"}

	got, err := EvaluatePrediction(p, season, fixedLookup{def: 70}, true)
	require.NoError(t, err)
	require.Len(t, got.Teams, 11)

	assert.Equal(t, 0, got.Teams[0].Points)
	assert.Equal(t, "team not in final table", got.Teams[0].Narrative)
	assert.Equal(t, 0, got.Teams[10].Points)
	assert.Equal(t, 7*ExactPosition+2*ExactPosition, got.BaseScore)
	assert.False(t, got.PerfectSections.Top4)
	assert.False(t, got.PerfectSections.Relegation)
}

func TestEvaluateWithoutOddsUsesPrior(t *testing.T) {
	p := perfectPrediction(season)
	table := moveTo(season, "Man City", 6)

	got, err := EvaluatePrediction(p, table, fixedLookup{def: 70}, false)
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, got.Teams[0].OddsSource)
	assert.Equal(t, BigSurprise, got.Teams[0].SurpriseTier)
	assert.False(t, got.Degraded)
}

func TestEvaluateNilLookupIsDegraded(t *testing.T) {
	got, err := EvaluatePrediction(perfectPrediction(season), season, nil, true)
	require.NoError(t, err)

	assert.True(t, got.Degraded)
	assert.Len(t, got.FallbackTeams(), 8)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	p := perfectPrediction(season)
	p.TopEight[0], p.TopEight[7] = p.TopEight[7], p.TopEight[0]
	p.FavoriteTeam = "Arsenal"
	lookup := fixedLookup{def: 12, overrides: map[string]float64{"Aston Villa/8": 0.3}}

	first, err := EvaluatePrediction(p, season, lookup, true)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := EvaluatePrediction(p, season, lookup, true)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvaluateRejectsMalformed(t *testing.T) {
	short := perfectPrediction(season)
	short.TopEight = short.TopEight[:7]

	wrongPos := perfectPrediction(season)
	wrongPos.BottomThree[0].Position = 17

	blank := perfectPrediction(season)
	blank.TopEight[3].Team = ""

	for name, p := range map[string]Prediction{"short": short, "position": wrongPos, "blank": blank} {
		_, err := EvaluatePrediction(p, season, nil, true)
		assert.ErrorIs(t, err, ErrMalformedPrediction, name)
	}

	dup := slices.Clone(season)
	dup[1] = dup[0]
	_, err := EvaluatePrediction(perfectPrediction(season), dup, nil, true)
	assert.ErrorIs(t, err, league.ErrMalformedTable)
}

func TestEvaluateCustomRanges(t *testing.T) {
	e := Evaluator{Ranges: StaticRanges{"Man City": {Min: 1, Max: 10}}}
	table := moveTo(season, "Man City", 6)

	got, err := e.Evaluate(perfectPrediction(season), table, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Expected, got.Teams[0].SurpriseTier)
}
