package scoring

// SurpriseTier classifies how unlikely an actual finishing position was.
type SurpriseTier string

const (
	Astronomical SurpriseTier = "ASTRONOMICAL"
	HugeSurprise SurpriseTier = "HUGE_SURPRISE"
	BigSurprise  SurpriseTier = "BIG_SURPRISE"
	MildSurprise SurpriseTier = "MILD_SURPRISE"
	Expected     SurpriseTier = "EXPECTED"
)

// surpriseBands are strict upper bounds in percent, checked in order.
var surpriseBands = []struct {
	below float64
	tier  SurpriseTier
}{
	{0.5, Astronomical},
	{2, HugeSurprise},
	{10, BigSurprise},
	{25, MildSurprise},
}

// TierForProbability buckets a market-implied percent into a surprise tier.
func TierForProbability(percent float64) SurpriseTier {
	for _, band := range surpriseBands {
		if percent < band.below {
			return band.tier
		}
	}
	return Expected
}

// Multiplier is the points multiplier for the tier.
func (t SurpriseTier) Multiplier() float64 {
	switch t {
	case Astronomical:
		return 10.0
	case HugeSurprise:
		return 5.0
	case BigSurprise:
		return 3.0
	case MildSurprise:
		return 1.8
	default:
		return 1.0
	}
}

// FavoriteTier classifies how the favourite team did against its prediction.
type FavoriteTier string

const (
	GreatSuccess       FavoriteTier = "GREAT_SUCCESS"
	Success            FavoriteTier = "SUCCESS"
	MildSuccess        FavoriteTier = "MILD_SUCCESS"
	Neutral            FavoriteTier = "NEUTRAL"
	MildDisappointment FavoriteTier = "MILD_DISAPPOINTMENT"
	Disappointment     FavoriteTier = "DISAPPOINTMENT"
	Disaster           FavoriteTier = "DISASTER"
)

// FavoriteTierForDelta maps predicted minus actual position to a tier.
// Positive delta means the team finished higher than predicted.
func FavoriteTierForDelta(delta int) FavoriteTier {
	switch {
	case delta >= 5:
		return GreatSuccess
	case delta >= 2:
		return Success
	case delta == 1:
		return MildSuccess
	case delta == 0:
		return Neutral
	case delta == -1:
		return MildDisappointment
	case delta >= -4:
		return Disappointment
	default:
		return Disaster
	}
}

// Multiplier is applied to the whole season score.
func (t FavoriteTier) Multiplier() float64 {
	switch t {
	case GreatSuccess:
		return 2.5
	case Success:
		return 1.8
	case MildSuccess:
		return 1.3
	case MildDisappointment:
		return 0.7
	case Disappointment:
		return 0.4
	case Disaster:
		return 0.2
	default:
		return 1.0
	}
}
