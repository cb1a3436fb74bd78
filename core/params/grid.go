// Package params holds the typed, year-resolved parameter tables the
// calculators consume. Tables are flat float64 arenas; every lookup is
// integer offset arithmetic. All validation happens at load time, so the
// calculators can index without error returns.
package params

import (
	"capwedge/internal/errors"
)

// Series is one value per policy year, indexed by year offset.
type Series []float64

// Constant builds a series holding the same value every year.
func Constant(years int, v float64) Series {
	s := make(Series, years)
	for i := range s {
		s[i] = v
	}
	return s
}

// Scale returns a new series with every element multiplied by the
// corresponding factor.
func (s Series) Scale(factors Series) Series {
	out := make(Series, len(s))
	for i, v := range s {
		out[i] = v * factors[i]
	}
	return out
}

// Grid is a static two-dimensional table.
type Grid struct {
	Rows, Cols int
	vals       []float64
}

// NewGrid allocates a zeroed rows x cols grid.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, vals: make([]float64, rows*cols)}
}

// At returns the value at (r, c).
func (g *Grid) At(r, c int) float64 {
	return g.vals[r*g.Cols+c]
}

// Set stores a value at (r, c).
func (g *Grid) Set(r, c int, v float64) {
	g.vals[r*g.Cols+c] = v
}

// Fill sets every element to v.
func (g *Grid) Fill(v float64) {
	for i := range g.vals {
		g.vals[i] = v
	}
}

// Values exposes the backing slice, row-major.
func (g *Grid) Values() []float64 { return g.vals }

// YearGrid is a rows x cols table with one layer per policy year.
type YearGrid struct {
	Rows, Cols, Years int
	vals              []float64
}

// NewYearGrid allocates a zeroed year grid.
func NewYearGrid(rows, cols, years int) *YearGrid {
	return &YearGrid{Rows: rows, Cols: cols, Years: years, vals: make([]float64, rows*cols*years)}
}

// At returns the value at (r, c) for year offset y.
func (g *YearGrid) At(r, c, y int) float64 {
	return g.vals[(y*g.Rows+r)*g.Cols+c]
}

// Set stores a value at (r, c) for year offset y.
func (g *YearGrid) Set(r, c, y int, v float64) {
	g.vals[(y*g.Rows+r)*g.Cols+c] = v
}

// Layer returns the year-y slice of the grid, row-major.
func (g *YearGrid) Layer(y int) []float64 {
	start := y * g.Rows * g.Cols
	return g.vals[start : start+g.Rows*g.Cols]
}

// SetLayer copies a static grid into year offset y.
func (g *YearGrid) SetLayer(y int, layer *Grid) error {
	if layer.Rows != g.Rows || layer.Cols != g.Cols {
		return errors.Newf(errors.TypeInternal, "layer shape %dx%d does not match grid shape %dx%d",
			layer.Rows, layer.Cols, g.Rows, g.Cols)
	}
	copy(g.Layer(y), layer.vals)
	return nil
}
