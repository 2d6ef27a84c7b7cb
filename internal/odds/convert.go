package odds

import (
	"fmt"
	"math"
)

// DecimalToPercent converts decimal odds to implied probability in percent.
// Decimal 2.00 → 50, decimal 1.50 → 66.67
func DecimalToPercent(decimalOdds float64) (float64, error) {
	if decimalOdds < 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be >= 1.0", decimalOdds)
	}
	return 100.0 / decimalOdds, nil
}

// PercentToDecimal converts an implied probability in percent to decimal odds.
// 50 → 2.00, 4 → 25.00
func PercentToDecimal(percent float64) (float64, error) {
	if percent <= 0 || percent > 100 {
		return 0, fmt.Errorf("invalid probability %v: must be in (0, 100]", percent)
	}
	return 100.0 / percent, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
