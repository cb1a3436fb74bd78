// Package returns computes the three rate-of-return layers of the model:
// after-tax returns required by savers, discount rates applied by
// investors, and required before-tax returns on marginal investments.
package returns

import (
	"capwedge/core/dims"
	"capwedge/core/params"
	"capwedge/internal/logging"

	"go.uber.org/zap"
)

// Calculator computes the rate-of-return tables for one policy.
type Calculator struct {
	reg *dims.Registry
	env *params.Environment
	pol *params.Policy
}

// New creates a calculator. Environment and policy must already be
// validated; the calculator itself has no error paths.
func New(reg *dims.Registry, env *params.Environment, pol *params.Policy) *Calculator {
	return &Calculator{reg: reg, env: env, pol: pol}
}

// Tables holds the calculated rate-of-return arenas. Saver returns vary
// by legal form, financing and account; discount rates by legal form and
// financing; before-tax returns by industry, asset, legal form and
// financing. All are real annual rates.
type Tables struct {
	Years      int
	Industries int
	Assets     int

	// Savers is indexed by (legal form, financing, account, year).
	Savers []float64

	// TypicalSavers is Savers weighted across account categories by the
	// policy's account shares, indexed by (legal form, financing, year).
	TypicalSavers []float64

	// RealDiscount and NominalDiscount are indexed by (legal form,
	// financing, year). Real discounts are net of interest deduction
	// flows on debt.
	RealDiscount    []float64
	NominalDiscount []float64

	// BeforeTax is indexed by (industry, asset, legal form, financing,
	// year) via the Offset method.
	BeforeTax []float64
}

// SaverAt returns the saver after-tax real return for a cell.
func (t *Tables) SaverAt(lf dims.LegalForm, fin dims.Financing, acct dims.Account, y int) float64 {
	return t.Savers[((int(lf)*dims.FinancingCount+int(fin))*dims.AccountCount+int(acct))*t.Years+y]
}

func (t *Tables) setSaver(lf dims.LegalForm, fin dims.Financing, acct dims.Account, y int, v float64) {
	t.Savers[((int(lf)*dims.FinancingCount+int(fin))*dims.AccountCount+int(acct))*t.Years+y] = v
}

// TypicalSaverAt returns the account-share-weighted saver return.
func (t *Tables) TypicalSaverAt(lf dims.LegalForm, fin dims.Financing, y int) float64 {
	return t.TypicalSavers[(int(lf)*dims.FinancingCount+int(fin))*t.Years+y]
}

func lfFinOffset(lf dims.LegalForm, fin dims.Financing, y, years int) int {
	return (int(lf)*dims.FinancingCount+int(fin))*years + y
}

// Offset returns the flat index into BeforeTax.
func (t *Tables) Offset(ind, asset int, lf dims.LegalForm, fin dims.Financing, y int) int {
	o := ind
	o = o*t.Assets + asset
	o = o*dims.LegalFormCount + int(lf)
	o = o*dims.FinancingCount + int(fin)
	o = o*t.Years + y
	return o
}

// BeforeTaxAt returns the required before-tax return for a cell.
func (t *Tables) BeforeTaxAt(ind, asset int, lf dims.LegalForm, fin dims.Financing, y int) float64 {
	return t.BeforeTax[t.Offset(ind, asset, lf, fin, y)]
}

// Calc runs the full rate-of-return pipeline in dependency order.
func (c *Calculator) Calc() *Tables {
	t := &Tables{
		Years:      c.pol.Years,
		Industries: c.reg.IndustryCount(),
		Assets:     c.reg.AssetCount(),
	}
	n := dims.LegalFormCount * dims.FinancingCount * c.pol.Years
	t.Savers = make([]float64, n*dims.AccountCount)
	t.TypicalSavers = make([]float64, n)
	t.RealDiscount = make([]float64, n)
	t.NominalDiscount = make([]float64, n)
	t.BeforeTax = make([]float64, t.Industries*t.Assets*n)

	rates := c.adjustedRates()

	debtReturn := c.env.DebtReturn
	c.calcSavers(t, rates, debtReturn)

	if c.pol.Perspective == dims.Uniformity {
		debtReturn = c.uniformDebtReturn(t)
		c.calcSavers(t, rates, debtReturn)
		c.equalizeDebtSavers(t)
		logging.Debug("debt returns equalized for uniformity",
			zap.String("policy", c.pol.Name))
	}

	c.calcDiscounts(t, rates, debtReturn)
	c.calcBeforeTax(t, rates)

	logging.Info("rate of return tables calculated",
		zap.String("policy", c.pol.Name),
		zap.String("perspective", string(c.pol.Perspective)))
	return t
}

// uniformDebtReturn scales the nominal debt return so that the typical
// debt saver earns the same after-tax return as the typical equity
// saver. Returns the adjusted nominal debt return series.
func (c *Calculator) uniformDebtReturn(t *Tables) params.Series {
	out := make(params.Series, c.pol.Years)
	for y := 0; y < c.pol.Years; y++ {
		pi := c.env.Inflation[y]
		ratio := (c.typicalSaver(t, dims.CCorp, dims.Debt, y) + pi) /
			(c.typicalSaver(t, dims.CCorp, dims.Equity, y) + pi)
		out[y] = c.env.DebtReturn[y] / ratio
	}
	return out
}

// equalizeDebtSavers pins every debt saver's return to the typical
// equity saver's return, the uniformity-perspective non-arbitrage
// condition.
func (c *Calculator) equalizeDebtSavers(t *Tables) {
	for y := 0; y < c.pol.Years; y++ {
		target := c.typicalSaver(t, dims.CCorp, dims.Equity, y)
		for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
			for acct := dims.Account(0); acct < dims.AccountCount; acct++ {
				t.setSaver(lf, dims.Debt, acct, y, target)
			}
			t.TypicalSavers[lfFinOffset(lf, dims.Debt, y, c.pol.Years)] = target
		}
	}
}

// typicalSaver weights one (legal form, financing) saver return across
// account categories using the policy's account shares.
func (c *Calculator) typicalSaver(t *Tables, lf dims.LegalForm, fin dims.Financing, y int) float64 {
	sum := 0.0
	for acct := dims.Account(0); acct < dims.AccountCount; acct++ {
		sum += c.pol.AccountShares.At(lf, fin, acct, y) * t.SaverAt(lf, fin, acct, y)
	}
	return sum
}
