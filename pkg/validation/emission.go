package validation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

// ErrInvalidEmission marks a request-level problem with the bond definition.
var ErrInvalidEmission = errors.New("invalid emission parameters")

// ValidateEmission checks the request-level constraints the engine assumes.
// Date order failures wrap schedule.ErrInvalidDateOrder; everything else wraps
// ErrInvalidEmission.
func ValidateEmission(p cashflow.Emission) error {
	if p.EmissionDate.IsZero() || p.MaturityDate.IsZero() {
		return fmt.Errorf("%w: emission and maturity dates are required", ErrInvalidEmission)
	}
	if !p.MaturityDate.After(p.EmissionDate) {
		return fmt.Errorf("%w: maturity %s is not after emission %s", schedule.ErrInvalidDateOrder,
			p.MaturityDate.Format(constants.DateLayout), p.EmissionDate.Format(constants.DateLayout))
	}
	if p.UnitFaceValue <= 0 {
		return fmt.Errorf("%w: unit face value must be positive, got %v", ErrInvalidEmission, p.UnitFaceValue)
	}
	if p.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidEmission, p.Quantity)
	}
	if p.GraceMonths < 0 {
		return fmt.Errorf("%w: grace period cannot be negative, got %d", ErrInvalidEmission, p.GraceMonths)
	}
	if p.SpreadAnnual <= -100 || p.FloatingRateAnnual <= -100 {
		return fmt.Errorf("%w: annual rates must be above -100%%", ErrInvalidEmission)
	}

	if p.Indexer == cashflow.IPCA {
		if p.Inflation.AnniversaryDay < 1 || p.Inflation.AnniversaryDay > 31 {
			return fmt.Errorf("%w: anniversary day must be between 1 and 31, got %d", ErrInvalidEmission, p.Inflation.AnniversaryDay)
		}
		if p.Inflation.ProjectedAnnual <= -100 {
			return fmt.Errorf("%w: projected inflation must be above -100%%", ErrInvalidEmission)
		}
	}
	return nil
}
