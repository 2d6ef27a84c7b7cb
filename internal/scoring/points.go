// Package scoring turns a season prediction and the actual final table into
// points. Everything here is a pure function of its inputs; odds arrive
// through a read-only ProbabilityLookup.
package scoring

import "github.com/shopspring/decimal"

// Base points by distance between predicted and actual position.
const (
	ExactPosition   = 100
	OffByOne        = 60
	OffByTwo        = 30
	OffByThree      = 15
	CorrectSection  = 10
	CompletelyWrong = 0
)

// Section bonuses.
const (
	PerfectTop4Bonus       = 500
	PerfectTop8Bonus       = 1000
	PerfectRelegationBonus = 300
)

// Slot counts and the first position covered by the bottom-three list.
const (
	TopEightSlots       = 8
	BottomThreeSlots    = 3
	FirstRelegationSlot = 18
	// UnpredictedFavoritePosition is assumed for a favourite team that
	// appears in neither list.
	UnpredictedFavoritePosition = 10
)

// roundProduct returns round-half-up(points × multiplier) computed in
// decimal so that e.g. 15 × 1.8 cannot land a hair below 27.
func roundProduct(points int, multiplier float64) int {
	return int(decimal.NewFromInt(int64(points)).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(0).
		IntPart())
}
