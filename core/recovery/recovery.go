// Package recovery computes present values of capital cost recovery:
// depreciation deductions, expensing, and investment and production
// credits, all in continuous time per dollar of investment.
package recovery

import (
	"math"

	"capwedge/core/params"
)

// Depreciation method flags.
const (
	// FlagEconomic conforms tax depreciation to economic depreciation.
	FlagEconomic = -1

	// FlagDecliningBalance is declining balance with no switch.
	FlagDecliningBalance = 0

	// FlagSwitchToStraightLine is declining balance switching to straight
	// line at the optimal time.
	FlagSwitchToStraightLine = 1
)

// noSwitchHorizon stands in for "never" when no straight-line switch
// applies; at 300 years the straight-line tail is numerically zero.
const noSwitchHorizon = 300.0

// Input collects everything needed to value one asset's cost recovery.
type Input struct {
	// Flag selects the depreciation method (-1, 0 or 1).
	Flag int

	// RecoveryPeriod is the tax recovery period in years, or the
	// non-depreciable sentinel.
	RecoveryPeriod float64

	// AccelerationRate is the declining-balance multiple (e.g. 2.0 for
	// double declining balance). Unused under FlagEconomic.
	AccelerationRate float64

	// EconDepreciation is the geometric economic depreciation rate.
	EconDepreciation float64

	// InflationShare is the share of remaining basis indexed for
	// inflation (1 = fully indexed).
	InflationShare float64

	// ExpensingShare is the share of basis deducted immediately.
	ExpensingShare float64

	// NominalDiscount is the investor's nominal discount rate.
	NominalDiscount float64

	// Inflation is the expected inflation rate.
	Inflation float64

	// IncomeForecast values intellectual property recovered under the
	// income-forecast method instead of declining balance.
	IncomeForecast bool
}

// DeductionPV returns the present value of depreciation deductions per
// dollar of basis, before expensing. A non-depreciable asset returns
// exactly zero.
func DeductionPV(in Input) float64 {
	if in.RecoveryPeriod == params.NonDepreciable {
		return 0
	}

	i := in.NominalDiscount
	adjInflation := in.Inflation * in.InflationShare

	if in.Flag == FlagEconomic {
		d := in.EconDepreciation
		return d / (d + i - adjInflation)
	}

	if in.IncomeForecast {
		return incomeForecastPV(in.EconDepreciation, i, in.Inflation)
	}

	n := in.RecoveryPeriod
	d := in.AccelerationRate / n

	switchTime := noSwitchHorizon
	if in.Flag == FlagSwitchToStraightLine {
		// At a <= 1 the straight-line deduction already dominates at
		// t = 0, so the whole recovery period is straight line.
		switchTime = 0
		if in.AccelerationRate > 1 {
			switchTime = n * (1 - 1/in.AccelerationRate)
		}
	}

	// Declining-balance phase, then the straight-line tail over the
	// remaining basis.
	db := d / (d + i - adjInflation) * (1 - math.Exp(-(d+i)*switchTime))
	sl := math.Exp(-d*switchTime) *
		(math.Exp(-i*switchTime) - math.Exp(-i*n)) /
		(i * (n - switchTime))
	return db + sl
}

// incomeForecastPV values deductions proportional to declining income
// over a ten-year forecast window. The decay factor has a removable
// singularity where economic depreciation equals inflation; that case
// takes the limit form.
func incomeForecastPV(econDep, nominal, inflation float64) float64 {
	real := nominal - inflation
	decay := econDep - inflation
	if decay == 0 {
		return (1 - math.Exp(-10*(real+econDep))) / (10 * (real + econDep))
	}
	return decay / (real + econDep) *
		(1 - math.Exp(-10*(real+econDep))) /
		(1 - math.Exp(-10*decay))
}

// TotalPV returns the present value of all depreciation-related recovery:
// the expensed share plus the depreciated remainder.
func TotalPV(in Input) float64 {
	return in.ExpensingShare + (1-in.ExpensingShare)*DeductionPV(in)
}

// CreditStreamPV returns the present value of a production credit paid at
// a constant rate over the first ten years of an investment, discounted
// at the real rate.
func CreditStreamPV(rate, nominalDiscount, inflation float64) float64 {
	if rate == 0 {
		return 0
	}
	r := nominalDiscount - inflation
	if r == 0 {
		return rate * 10
	}
	return rate * (1 - math.Exp(-10*r)) / r
}

// Shield is the total capital cost recovery tax shield per dollar of
// investment: investment credit, production credit stream, and the tax
// value of depreciation on the credit-adjusted basis.
func Shield(deductionRate, itcRate, itcNondeprcblShare, ptcPV, totalPV float64) float64 {
	return itcRate + ptcPV + (1-itcRate*itcNondeprcblShare)*totalPV*deductionRate
}
