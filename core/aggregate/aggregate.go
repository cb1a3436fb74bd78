// Package aggregate collapses per-cell results into weighted summary
// statistics along any subset of dimensions.
package aggregate

import (
	"math"
	"strconv"
	"strings"

	"capwedge/core/dims"
	"capwedge/core/weights"
	"capwedge/internal/errors"
)

// Aggregate is the weighted summary of one group of cells.
type Aggregate struct {
	// Mean is the weighted mean of the collapsed values.
	Mean float64

	// StdDev is the weighted standard deviation around the mean.
	StdDev float64

	// CV is the coefficient of variation, StdDev / |Mean|.
	CV float64

	// MeanAbsDiff is the weighted mean absolute difference from the mean,
	// the model's headline dispersion statistic.
	MeanAbsDiff float64

	// Cells is the number of defined cells in the group.
	Cells int
}

// Group is one kept-coordinate combination with its aggregate.
type Group struct {
	// Coords holds the group's value along each kept axis, in Keep order.
	Coords []int

	// Label is a human-readable key built from registry labels.
	Label string

	Agg Aggregate
}

// Grouped is the result of one Collapse call.
type Grouped struct {
	Keep   []dims.Axis
	Groups []Group
}

// Filter selects which cells participate in an aggregation.
type Filter func(dims.Cell) bool

// All includes every cell.
func All(dims.Cell) bool { return true }

// BusinessOnly excludes owner-occupied housing.
func BusinessOnly(c dims.Cell) bool { return c.Form != dims.OwnerOccupied }

// Collapse aggregates values over all axes not named in keep, weighted
// by w. Cells with NaN values (structurally absent or undefined rates)
// are excluded and their weight renormalized away. Groups with no weight
// are omitted. Group order follows coordinate order and is deterministic.
func Collapse(reg *dims.Registry, values []float64, w *weights.Set, include Filter, keep ...dims.Axis) (*Grouped, error) {
	space := w.Space
	if len(values) != len(w.W) {
		return nil, errors.Newf(errors.TypeInternal,
			"value arena has %d cells, weights have %d", len(values), len(w.W))
	}

	// Group index = mixed-radix number over the kept axes.
	nGroups := 1
	for _, a := range keep {
		nGroups *= space.AxisSize(a)
	}

	sums := make([]float64, nGroups)
	wsums := make([]float64, nGroups)
	counts := make([]int, nGroups)

	groupOf := func(c dims.Cell) int {
		g := 0
		for _, a := range keep {
			g = g*space.AxisSize(a) + c.AxisValue(a)
		}
		return g
	}

	for off, v := range values {
		wt := w.W[off]
		if wt == 0 || math.IsNaN(v) {
			continue
		}
		c := space.Coords(off)
		if !include(c) {
			continue
		}
		g := groupOf(c)
		sums[g] += wt * v
		wsums[g] += wt
		counts[g]++
	}

	// Second pass: dispersion around each group's mean.
	varSums := make([]float64, nGroups)
	absSums := make([]float64, nGroups)
	shareSums := make([]float64, nGroups)
	for off, v := range values {
		wt := w.W[off]
		if wt == 0 || math.IsNaN(v) {
			continue
		}
		c := space.Coords(off)
		if !include(c) {
			continue
		}
		g := groupOf(c)
		share := wt / wsums[g]
		mean := sums[g] / wsums[g]
		shareSums[g] += share
		varSums[g] += share * (v - mean) * (v - mean)
		absSums[g] += share * math.Abs(v-mean)
	}

	out := &Grouped{Keep: keep}
	for g := 0; g < nGroups; g++ {
		if wsums[g] == 0 {
			continue
		}
		if math.Abs(shareSums[g]-1) > dims.ShareTol {
			return nil, errors.ShareSum("normalized aggregation weights", shareSums[g], dims.ShareTol)
		}
		mean := sums[g] / wsums[g]
		stddev := math.Sqrt(varSums[g])
		cv := 0.0
		if mean != 0 {
			cv = stddev / math.Abs(mean)
		}
		out.Groups = append(out.Groups, Group{
			Coords: coordsOf(space, keep, g),
			Label:  labelOf(reg, space, keep, g),
			Agg: Aggregate{
				Mean:        mean,
				StdDev:      stddev,
				CV:          cv,
				MeanAbsDiff: absSums[g],
				Cells:       counts[g],
			},
		})
	}
	return out, nil
}

func coordsOf(space dims.Space, keep []dims.Axis, g int) []int {
	coords := make([]int, len(keep))
	for i := len(keep) - 1; i >= 0; i-- {
		size := space.AxisSize(keep[i])
		coords[i] = g % size
		g /= size
	}
	return coords
}

func labelOf(reg *dims.Registry, space dims.Space, keep []dims.Axis, g int) string {
	coords := coordsOf(space, keep, g)
	parts := make([]string, len(keep))
	for i, a := range keep {
		v := coords[i]
		switch a {
		case dims.AxisYear:
			parts[i] = strconv.Itoa(dims.FirstYear + v)
		case dims.AxisIndustry:
			parts[i] = reg.Industries()[v]
		case dims.AxisAsset:
			parts[i] = reg.Assets()[v]
		case dims.AxisLegalForm:
			parts[i] = dims.LegalForm(v).String()
		case dims.AxisFinancing:
			parts[i] = dims.Financing(v).String()
		case dims.AxisAccount:
			parts[i] = dims.Account(v).String()
		}
	}
	return strings.Join(parts, "/")
}
