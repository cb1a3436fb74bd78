package returns

import (
	"capwedge/core/dims"
	"capwedge/core/params"
)

// calcDiscounts fills the investor discount rate arenas.
//
// C corporations discount equity-financed investments at the market
// equity return. Pass-throughs and owner-occupiers discount at the
// typical equity saver's after-tax return, their opportunity cost of
// funds. All forms discount debt-financed investments at the market
// debt return net of the interest deduction flow.
func (c *Calculator) calcDiscounts(t *Tables, rates adjustedRates, debtReturn params.Series) {
	years := c.pol.Years
	for y := 0; y < years; y++ {
		pi := c.env.Inflation[y]
		realEquity := c.env.EquityReturn[y] - pi
		realDebt := debtReturn[y] - pi
		typicalEquity := t.TypicalSaverAt(dims.CCorp, dims.Equity, y)

		for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
			equity := realEquity
			if lf != dims.CCorp {
				equity = typicalEquity
			}
			t.RealDiscount[lfFinOffset(lf, dims.Equity, y, years)] = equity
			t.NominalDiscount[lfFinOffset(lf, dims.Equity, y, years)] = equity + pi

			nid := debtReturn[y] * c.interestDeductionRate(rates, lf, y)
			t.RealDiscount[lfFinOffset(lf, dims.Debt, y, years)] = realDebt - nid
			t.NominalDiscount[lfFinOffset(lf, dims.Debt, y, years)] = realDebt - nid + pi
		}
	}
}

// interestDeductionRate is the effective rate at which a legal form
// deducts interest expense: the deductible share times the rate the
// deduction is valued at. Owner-occupiers deduct mortgage interest
// against individual income.
func (c *Calculator) interestDeductionRate(rates adjustedRates, lf dims.LegalForm, y int) float64 {
	if lf == dims.OwnerOccupied {
		return c.pol.Deduct.MortgageShare[y] * c.pol.Rates.MortgageDeduction[y]
	}
	return c.pol.Deduct.InterestShare[y] * rates.deductionRate(lf, y)
}
