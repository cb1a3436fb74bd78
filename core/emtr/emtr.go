// Package emtr computes effective marginal tax rates over the full cell
// space from the rate-of-return tables.
package emtr

import (
	"fmt"
	"math"

	"capwedge/core/dims"
	"capwedge/core/returns"
	"capwedge/internal/errors"
	"capwedge/internal/logging"

	"go.uber.org/zap"
)

// UndefinedCell records one cell whose EMTR is undefined because the
// required before-tax return is zero. Undefined cells never abort a run;
// they are reported and excluded from aggregation.
type UndefinedCell struct {
	Cell dims.Cell
	Err  *errors.Error
}

// ResultSet holds the per-cell results as flat arenas over the full
// six-dimensional space. Structurally absent cells (legal form and
// industry pairings that cannot occur) hold NaN throughout.
type ResultSet struct {
	Space dims.Space

	BeforeTax []float64
	Saver     []float64
	Wedge     []float64
	Rate      []float64

	Undefined []UndefinedCell
}

// Defined reports whether a cell holds a usable EMTR.
func (r *ResultSet) Defined(offset int) bool {
	return !math.IsNaN(r.Rate[offset])
}

// Compute fills a result set from the rate-of-return tables. The tax
// wedge is the before-tax return minus the saver's after-tax return; the
// EMTR is the wedge as a share of the before-tax return.
func Compute(reg *dims.Registry, t *returns.Tables) *ResultSet {
	space := dims.Space{Years: t.Years, Industries: t.Industries, Assets: t.Assets}
	n := space.Cells()
	rs := &ResultSet{
		Space:     space,
		BeforeTax: make([]float64, n),
		Saver:     make([]float64, n),
		Wedge:     make([]float64, n),
		Rate:      make([]float64, n),
	}

	for y := 0; y < space.Years; y++ {
		for ind := 0; ind < space.Industries; ind++ {
			for asset := 0; asset < space.Assets; asset++ {
				for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
					for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
						T := t.BeforeTaxAt(ind, asset, lf, fin, y)
						for acct := dims.Account(0); acct < dims.AccountCount; acct++ {
							off := space.Offset(y, ind, asset, lf, fin, acct)
							s := t.SaverAt(lf, fin, acct, y)
							rs.BeforeTax[off] = T
							rs.Saver[off] = s

							if math.IsNaN(T) {
								rs.Wedge[off] = math.NaN()
								rs.Rate[off] = math.NaN()
								continue
							}
							if T == 0 {
								cell := dims.Cell{Year: y, Industry: ind, Asset: asset, Form: lf, Fin: fin, Acct: acct}
								rs.Undefined = append(rs.Undefined, UndefinedCell{
									Cell: cell,
									Err:  errors.UndefinedRate(cellLabel(reg, cell)),
								})
								rs.Wedge[off] = math.NaN()
								rs.Rate[off] = math.NaN()
								continue
							}
							rs.Wedge[off] = T - s
							rs.Rate[off] = (T - s) / T
						}
					}
				}
			}
		}
	}

	logging.Info("cell results calculated",
		zap.Int("cells", n),
		zap.Int("undefined", len(rs.Undefined)))
	return rs
}

func cellLabel(reg *dims.Registry, c dims.Cell) string {
	return fmt.Sprintf("year %d, %s, %s, %s/%s/%s",
		dims.FirstYear+c.Year,
		reg.Industries()[c.Industry],
		reg.Assets()[c.Asset],
		c.Form, c.Fin, c.Acct)
}
