package returns

import (
	"math"

	"capwedge/core/dims"
	"capwedge/core/params"
)

// DeferredReturn is the annualized nominal after-tax return on an asset
// earning a nominal rate r, held n years, with the accumulated value
// taxed at rate t on distribution. With t = 0 it reduces to r.
func DeferredReturn(r, n, t float64) float64 {
	return math.Log((1-t)*math.Exp(r*n)+t) / n
}

// capGainsReturn is the nominal after-tax return on accrued capital
// gains, weighted across the short, long and at-death duration classes.
func (c *Calculator) capGainsReturn(y int) float64 {
	r := c.env.EquityReturn[y]
	classes := []struct {
		class params.CapGainsClass
		rate  float64
	}{
		{c.env.CapGainsShort, c.pol.Rates.CapGainsShort[y]},
		{c.env.CapGainsLong, c.pol.Rates.CapGainsLong[y]},
		{c.env.CapGainsDeath, c.pol.Rates.CapGainsDeath[y]},
	}
	sum := 0.0
	for _, cl := range classes {
		sum += cl.class.Share[y] * DeferredReturn(r, cl.class.HoldingYears, cl.rate)
	}
	return sum
}

// calcSavers fills the saver return arena. Equity saver returns are
// computed for C corporations and imposed on pass-throughs and
// owner-occupied housing as a non-arbitrage condition; debt saver
// returns are common to all legal forms.
func (c *Calculator) calcSavers(t *Tables, rates adjustedRates, debtReturn params.Series) {
	for y := 0; y < c.pol.Years; y++ {
		pi := c.env.Inflation[y]
		re := c.env.EquityReturn[y]
		rd := debtReturn[y]
		m := c.env.RetainedEarningsShare[y]
		phi := c.env.RepurchaseShare[y]

		capGains := c.capGainsReturn(y)
		dividends := re * (1 - c.pol.Rates.Dividends[y])

		// Taxable equity: new equity distributions are dividends unless
		// paid out through repurchases; retained earnings accrue as
		// capital gains either way.
		newEq := phi*capGains + (1-phi)*dividends
		retained := capGains
		equityTaxable := (1-m)*newEq + m*retained - pi

		equityDeferred := DeferredReturn(re,
			c.env.DeferredHolding, c.pol.Rates.RetPlanDeferred[y]) - pi
		equityNontaxable := DeferredReturn(re,
			c.env.NontaxableHolding, c.pol.Rates.RetPlanNontaxable[y]) - pi

		debtTaxable := rd*(1-rates.interestSaver[y]) - pi
		debtDeferred := DeferredReturn(rd,
			c.env.DeferredHolding, c.pol.Rates.RetPlanDeferred[y]) - pi
		debtNontaxable := DeferredReturn(rd,
			c.env.NontaxableHolding, c.pol.Rates.RetPlanNontaxable[y]) - pi

		for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
			t.setSaver(lf, dims.Equity, dims.Taxable, y, equityTaxable)
			t.setSaver(lf, dims.Equity, dims.Deferred, y, equityDeferred)
			t.setSaver(lf, dims.Equity, dims.Nontaxable, y, equityNontaxable)
			t.setSaver(lf, dims.Debt, dims.Taxable, y, debtTaxable)
			t.setSaver(lf, dims.Debt, dims.Deferred, y, debtDeferred)
			t.setSaver(lf, dims.Debt, dims.Nontaxable, y, debtNontaxable)
		}
	}

	for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
		for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
			for y := 0; y < c.pol.Years; y++ {
				t.TypicalSavers[lfFinOffset(lf, fin, y, c.pol.Years)] =
					c.typicalSaver(t, lf, fin, y)
			}
		}
	}
}
