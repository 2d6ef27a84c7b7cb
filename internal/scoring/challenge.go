package scoring

import "math"

// ChallengeKind selects the distance table for a weekly challenge.
type ChallengeKind string

const (
	KindNumber     ChallengeKind = "number"
	KindPercentage ChallengeKind = "percentage"
)

// Weekly challenge points.
const (
	ChallengeBasePoints = 50
	ChallengePerfect    = 200
	ChallengeVeryClose  = 100
	ChallengeClose      = 75
	ChallengeDecent     = 50
	ChallengePoor       = 25
	ChallengeTerrible   = 0
)

// bucket matches diff <= maxDiff, or diff == maxDiff when exact is set.
type bucket struct {
	maxDiff float64
	exact   bool
	points  int
}

func (b bucket) matches(diff float64) bool {
	if b.exact {
		return diff == b.maxDiff
	}
	return diff <= b.maxDiff
}

var (
	numberBuckets = []bucket{
		{0, true, ChallengePerfect},
		{1, true, ChallengeVeryClose},
		{2, true, ChallengeClose},
		{3, false, ChallengeDecent},
		{5, false, ChallengePoor},
	}
	percentageBuckets = []bucket{
		{0, true, ChallengePerfect},
		{5, false, ChallengeVeryClose},
		{10, false, ChallengeClose},
		{20, false, ChallengeDecent},
		{50, false, ChallengePoor},
	}
)

// ScoreChallengeAnswer buckets |userAnswer - correctAnswer| by kind. Kinds
// other than number and percentage earn the flat base points.
func ScoreChallengeAnswer(userAnswer, correctAnswer float64, kind ChallengeKind) int {
	var buckets []bucket
	switch kind {
	case KindNumber:
		buckets = numberBuckets
	case KindPercentage:
		buckets = percentageBuckets
	default:
		return ChallengeBasePoints
	}

	diff := math.Abs(userAnswer - correctAnswer)
	for _, b := range buckets {
		if b.matches(diff) {
			return b.points
		}
	}
	return ChallengeTerrible
}
