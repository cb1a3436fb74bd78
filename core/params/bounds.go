package params

import (
	"fmt"
	"math"

	"capwedge/internal/errors"
)

// NonDepreciable is the recovery period sentinel for assets whose basis
// is never recovered through depreciation deductions.
const NonDepreciable = 100000

// Bounds is the permitted range for one parameter family.
type Bounds struct {
	Min, Max float64
}

// Contains reports whether v lies in the permitted range. NaN never does.
func (b Bounds) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= b.Min && v <= b.Max
}

// CheckSeries validates every year of a series against its bounds.
func CheckSeries(name string, s Series, b Bounds) error {
	for y, v := range s {
		if !b.Contains(v) {
			return errors.Range(name, v, b.Min, b.Max).WithContext("year_offset", y)
		}
	}
	return nil
}

// CheckYearGrid validates every element of a year grid against its bounds.
func CheckYearGrid(name string, g *YearGrid, b Bounds) error {
	for y := 0; y < g.Years; y++ {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				if v := g.At(r, c, y); !b.Contains(v) {
					return errors.Range(name, v, b.Min, b.Max).
						WithContext("row", r).
						WithContext("col", c).
						WithContext("year_offset", y)
				}
			}
		}
	}
	return nil
}

// CheckRecoveryPeriods validates recovery periods: any strictly positive
// period is legal, up to and including the non-depreciable sentinel.
func CheckRecoveryPeriods(name string, g *YearGrid) error {
	for y := 0; y < g.Years; y++ {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				v := g.At(r, c, y)
				if math.IsNaN(v) || v <= 0 || v > NonDepreciable {
					return errors.Range(name, v, 0, NonDepreciable).
						WithContext("row", r).
						WithContext("col", c).
						WithContext("year_offset", y)
				}
			}
		}
	}
	return nil
}

// CheckStraightLineFlags validates that every flag is -1, 0 or 1.
func CheckStraightLineFlags(name string, g *YearGrid) error {
	for y := 0; y < g.Years; y++ {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				v := g.At(r, c, y)
				if v != -1 && v != 0 && v != 1 {
					return errors.Newf(errors.TypeRange,
						"parameter %s value %g is not a valid straight-line flag (-1, 0 or 1)", name, v).
						WithContext("row", r).
						WithContext("col", c).
						WithContext("year_offset", y)
				}
			}
		}
	}
	return nil
}

// CheckShareSum validates that shares sum to 1 within tol.
func CheckShareSum(group string, tol float64, shares ...float64) error {
	sum := 0.0
	for _, s := range shares {
		sum += s
	}
	if math.Abs(sum-1) > tol {
		return errors.ShareSum(group, sum, tol)
	}
	return nil
}

// CheckSeriesShareSum validates that per-year share series sum to 1
// within tol for every year.
func CheckSeriesShareSum(group string, tol float64, series ...Series) error {
	if len(series) == 0 {
		return nil
	}
	for y := range series[0] {
		sum := 0.0
		for _, s := range series {
			sum += s[y]
		}
		if math.Abs(sum-1) > tol {
			return errors.ShareSum(fmt.Sprintf("%s, year offset %d", group, y), sum, tol)
		}
	}
	return nil
}
