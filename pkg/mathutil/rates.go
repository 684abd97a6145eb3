// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
)

// CompoundFactor returns (1 + annualPercent/100)^(periods/basis).
func CompoundFactor(annualPercent float64, periods, basis int) float64 {
	if periods == 0 || basis == 0 {
		return 1
	}
	return math.Pow(1+annualPercent/constants.PercentageMultiplier, float64(periods)/float64(basis))
}
