package returns

import (
	"math"

	"capwedge/core/dims"
	"capwedge/core/params"
	"capwedge/core/recovery"
)

// calcBeforeTax fills the before-tax return arena.
//
// For each cell, the present value of depreciation deductions is valued
// at the detailed-industry level and collapsed onto standard industries
// through the crosswalk; the required before-tax return then solves the
// zero-profit condition (1 - CCR) / PV = T + delta, where PV is the
// proportional present value of after-tax gross profits.
func (c *Calculator) calcBeforeTax(t *Tables, rates adjustedRates) {
	reg := c.reg
	years := c.pol.Years
	oohInd := reg.OOHIndustry()
	invAsset, hasInv := reg.Asset("Inventories")

	econStd := c.collapsedEconDepreciation()

	zDet := make([]float64, reg.DetailedCount())
	for y := 0; y < years; y++ {
		pi := c.env.Inflation[y]
		for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
			tNet := rates.netIncomeRate(lf, y)
			tDed := rates.deductionRate(lf, y)
			for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
				iNom := t.NominalDiscount[lfFinOffset(lf, fin, y, years)]
				rhoReal := t.RealDiscount[lfFinOffset(lf, fin, y, years)]

				for asset := 0; asset < reg.AssetCount(); asset++ {
					incomeForecast := c.pol.Depreciation.IncomeForecastAssets != nil &&
						c.pol.Depreciation.IncomeForecastAssets[asset]
					for det := 0; det < reg.DetailedCount(); det++ {
						zDet[det] = recovery.TotalPV(recovery.Input{
							Flag:             int(c.pol.Depreciation.StraightLineFlags.At(det, asset, y)),
							RecoveryPeriod:   c.pol.Depreciation.RecoveryPeriods.At(det, asset, y),
							AccelerationRate: c.pol.Depreciation.AccelerationRates.At(det, asset, y),
							EconDepreciation: c.env.EconDepreciation.At(det, asset),
							InflationShare:   c.pol.Depreciation.InflationShares.At(det, asset, y),
							ExpensingShare:   c.pol.Depreciation.ExpensingShares.At(det, asset, y),
							NominalDiscount:  iNom,
							Inflation:        pi,
							IncomeForecast:   incomeForecast,
						})
					}
					zStd, _ := reg.CollapseDetailed(zDet)

					for ind := 0; ind < reg.IndustryCount(); ind++ {
						off := t.Offset(ind, asset, lf, fin, y)

						// OOH is both the last industry and a legal form;
						// mismatched pairings are structurally absent.
						if (lf == dims.OwnerOccupied) != (ind == oohInd) {
							t.BeforeTax[off] = math.NaN()
							continue
						}

						itc := c.pol.Credits.ITCRates.At(ind, asset, y)
						nondep := c.pol.Credits.ITCNondeprcblShares.At(ind, asset, y)
						ptcPV := recovery.CreditStreamPV(c.pol.Credits.PTCRates.At(ind, asset, y), iNom, pi)
						ccr := recovery.Shield(tDed, itc, nondep, ptcPV, zStd[ind])
						delta := econStd.At(ind, asset)

						var T float64
						if lf == dims.OwnerOccupied {
							T = c.oohBeforeTax(rates, ccr, rhoReal, delta, y)
						} else if hasInv && asset == invAsset {
							T = c.inventoryBeforeTax(tNet, rhoReal, asset, ind, y)
						} else {
							pv := (1 - tNet) / (rhoReal + delta)
							x := (1 - ccr) / pv
							if lf == dims.CCorp && fin == dims.Equity {
								x *= c.repurchaseScale(y)
							}
							T = x - delta
						}
						t.BeforeTax[off] = T
					}
				}
			}
		}
	}
}

// repurchaseScale grosses up the return the retained-earnings share of
// C corp equity must earn to cover the excise tax on stock repurchases.
func (c *Calculator) repurchaseScale(y int) float64 {
	m := c.env.RetainedEarningsShare[y]
	phi := c.env.RepurchaseShare[y]
	tRep := c.pol.Rates.RepurchaseExcise[y]
	return (1 - m) + m*((1-phi)+phi/(1-tRep))
}

// oohBeforeTax computes the owner-occupied housing return. When imputed
// rent is untaxed, economic depreciation nets out of the zero-profit
// condition and the non-deductible part of property tax is the only
// wedge left on the cost side.
func (c *Calculator) oohBeforeTax(rates adjustedRates, ccr, rhoReal, delta float64, y int) float64 {
	tRent := rates.oohRent[y]
	denom := rhoReal
	if tRent > 0 {
		denom += delta
	}
	pv := (1 - tRent) / denom
	T := (1 - ccr) / pv
	if tRent > 0 {
		T -= delta
	} else {
		// The deduction is worth the property tax paid, valued at the
		// itemized-deduction rate, on the deductible share.
		T -= c.pol.Rates.PropertyTax[y] *
			c.pol.Rates.MortgageDeduction[y] *
			c.pol.Deduct.PropertyTaxShare[y]
	}
	return T
}

// inventoryBeforeTax computes the before-tax return on inventories,
// which are taxed on realization after a holding period rather than on
// accrual.
func (c *Calculator) inventoryBeforeTax(tNet, rhoReal float64, asset, ind, y int) float64 {
	n := c.env.InventoryHolding
	if n == 0 {
		return rhoReal
	}
	piAdj := c.collapsedInflationShare(asset, y)[ind] * c.env.Inflation[y]
	cum := math.Log((math.Exp(n*(rhoReal+piAdj)) - tNet) / (1 - tNet))
	return cum/n - piAdj
}

// collapsedEconDepreciation maps economic depreciation onto standard
// industries once per calculation.
func (c *Calculator) collapsedEconDepreciation() *params.Grid {
	reg := c.reg
	g := params.NewGrid(reg.IndustryCount(), reg.AssetCount())
	det := make([]float64, reg.DetailedCount())
	for asset := 0; asset < reg.AssetCount(); asset++ {
		for d := 0; d < reg.DetailedCount(); d++ {
			det[d] = c.env.EconDepreciation.At(d, asset)
		}
		std, _ := reg.CollapseDetailed(det)
		for ind, v := range std {
			g.Set(ind, asset, v)
		}
	}
	return g
}

// collapsedInflationShare maps the inflation-indexation share for one
// asset and year onto standard industries.
func (c *Calculator) collapsedInflationShare(asset, y int) []float64 {
	det := make([]float64, c.reg.DetailedCount())
	for d := range det {
		det[d] = c.pol.Depreciation.InflationShares.At(d, asset, y)
	}
	std, _ := c.reg.CollapseDetailed(det)
	return std
}
