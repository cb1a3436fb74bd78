// Package weights builds the cell weight arena used to aggregate
// results: dollar capital stocks crossed with legal form, financing and
// account category shares.
package weights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"capwedge/core/dims"
	"capwedge/core/params"
	"capwedge/internal/errors"
	"capwedge/internal/logging"

	"go.uber.org/zap"
)

// StockGrid holds dollar capital stocks by industry and asset type.
// Stocks are money and stay decimal until weight construction.
type StockGrid struct {
	Rows, Cols int
	vals       []decimal.Decimal
}

// NewStockGrid allocates a zeroed stock grid.
func NewStockGrid(rows, cols int) *StockGrid {
	return &StockGrid{Rows: rows, Cols: cols, vals: make([]decimal.Decimal, rows*cols)}
}

// At returns the stock at (r, c).
func (g *StockGrid) At(r, c int) decimal.Decimal {
	return g.vals[r*g.Cols+c]
}

// Set stores a stock value.
func (g *StockGrid) Set(r, c int, v decimal.Decimal) {
	g.vals[r*g.Cols+c] = v
}

// Data is the raw material for weight construction.
type Data struct {
	// Stocks are capital stocks in millions of dollars.
	Stocks *StockGrid

	// CCorpShares and PassThruShares split each (industry, asset) stock
	// across taxable legal forms. The remainder is the untaxed nonprofit
	// sector, which drops out of the weighted universe.
	CCorpShares    *params.Grid
	PassThruShares *params.Grid
}

// Validate checks shapes, share ranges and the nonprofit residual.
func (d *Data) Validate(reg *dims.Registry) error {
	inds, assets := reg.IndustryCount(), reg.AssetCount()
	if d.Stocks == nil || d.Stocks.Rows != inds || d.Stocks.Cols != assets {
		return errors.Coverage("capital_stocks", "industry x asset type grid")
	}
	for _, g := range []struct {
		name string
		grid *params.Grid
	}{
		{"c_corp_asset_shares", d.CCorpShares},
		{"pass_thru_asset_shares", d.PassThruShares},
	} {
		if g.grid == nil || g.grid.Rows != inds || g.grid.Cols != assets {
			return errors.Coverage(g.name, "industry x asset type grid")
		}
	}

	oohInd := reg.OOHIndustry()
	for ind := 0; ind < inds; ind++ {
		for asset := 0; asset < assets; asset++ {
			if d.Stocks.At(ind, asset).IsNegative() {
				return errors.Newf(errors.TypeRange,
					"capital stock for %s / %s is negative",
					reg.Industries()[ind], reg.Assets()[asset])
			}
			cc := d.CCorpShares.At(ind, asset)
			pt := d.PassThruShares.At(ind, asset)
			if cc < 0 || cc > 1 {
				return errors.Range("c_corp_asset_shares", cc, 0, 1)
			}
			if pt < 0 || pt > 1 {
				return errors.Range("pass_thru_asset_shares", pt, 0, 1)
			}
			if ind == oohInd {
				if cc != 0 || pt != 0 {
					return errors.Newf(errors.TypeShareSum,
						"owner-occupied housing stocks cannot be held by businesses (asset %s)",
						reg.Assets()[asset])
				}
				continue
			}
			// Nonprofit residual must be a valid share.
			if cc+pt > 1+dims.ShareTol {
				return errors.ShareSum(
					fmt.Sprintf("legal form shares for %s / %s",
						reg.Industries()[ind], reg.Assets()[asset]),
					cc+pt, dims.ShareTol)
			}
		}
	}
	return nil
}

// Set is the built weight arena over the full cell space. Weights are
// unnormalized dollar weights; aggregation normalizes per group.
type Set struct {
	Space dims.Space
	W     []float64
}

// At returns the weight at a cell offset.
func (s *Set) At(offset int) float64 { return s.W[offset] }

// Build constructs the weight arena for a policy:
//
//	weight = stock x legal form share x financing share x account share
//
// Financing shares come from the environment's industry debt shares
// after rescaling for the aggregate debt-share levers.
func Build(reg *dims.Registry, env *params.Environment, pol *params.Policy, data *Data) (*Set, error) {
	if err := data.Validate(reg); err != nil {
		return nil, err
	}

	space := reg.Space()
	space.Years = pol.Years
	set := &Set{Space: space, W: make([]float64, space.Cells())}

	debtShares := env.RescaledDebtShares(reg)
	oohInd := reg.OOHIndustry()

	for ind := 0; ind < space.Industries; ind++ {
		for asset := 0; asset < space.Assets; asset++ {
			stock := data.Stocks.At(ind, asset).InexactFloat64()
			if stock == 0 {
				continue
			}
			for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
				var formShare float64
				switch lf {
				case dims.CCorp:
					formShare = data.CCorpShares.At(ind, asset)
				case dims.PassThru:
					formShare = data.PassThruShares.At(ind, asset)
				case dims.OwnerOccupied:
					if ind == oohInd {
						formShare = 1
					}
				}
				if formShare == 0 {
					continue
				}
				debt := debtShares.At(ind, int(lf))
				for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
					finShare := debt
					if fin == dims.Equity {
						finShare = 1 - debt
					}
					if finShare == 0 {
						continue
					}
					for acct := dims.Account(0); acct < dims.AccountCount; acct++ {
						for y := 0; y < space.Years; y++ {
							acctShare := pol.AccountShares.At(lf, fin, acct, y)
							off := space.Offset(y, ind, asset, lf, fin, acct)
							set.W[off] = stock * formShare * finShare * acctShare
						}
					}
				}
			}
		}
	}

	logging.Info("cell weights built",
		zap.String("policy", pol.Name),
		zap.Int("cells", len(set.W)))
	return set, nil
}
