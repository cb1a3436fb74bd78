package params

import (
	"math"

	"capwedge/core/dims"
	"capwedge/internal/errors"
)

// Baseline aggregate debt shares, derived from the Federal Reserve
// Financial Accounts of the United States. Scenario debt-share levers are
// rescaled against these.
var BaselineAggDebtShares = AggDebtShares{
	Financial:      0.4932,
	NonfinCCorp:    0.2750,
	NonfinPassThru: 0.3054,
	OOH:            0.4136,
}

// AggDebtShares are the four aggregate debt-share levers.
type AggDebtShares struct {
	Financial      float64
	NonfinCCorp    float64
	NonfinPassThru float64
	OOH            float64
}

// CapGainsClass describes one capital-gains duration class: the share of
// accrued gains realized in the class and the average holding period over
// which the deferral advantage runs.
type CapGainsClass struct {
	Share        Series
	HoldingYears float64
}

// Environment holds the economic environment parameters: market returns,
// depreciation rates, holding periods and ownership shares. These do not
// vary across policy scenarios.
type Environment struct {
	FirstYear int
	Years     int

	// Market returns and inflation, nominal annual rates.
	Inflation      Series
	EquityReturn   Series
	DebtReturn     Series

	// Economic depreciation rates by detailed industry and asset type.
	EconDepreciation *Grid

	// Debt share of marginal financing by industry and legal form.
	DebtShares *Grid

	// Aggregate debt-share levers for the scenario environment. When these
	// differ from the baseline, industry debt shares are rescaled.
	AggDebt AggDebtShares

	// FinancialIndustries flags industries in the financial sector, for
	// debt-share rescaling.
	FinancialIndustries []bool

	// C-corp equity composition: share of marginal equity returns accruing
	// through retained earnings, and share of distributions made through
	// share repurchases.
	RetainedEarningsShare Series
	RepurchaseShare       Series

	// Capital gains duration classes: short, long, held until death.
	CapGainsShort CapGainsClass
	CapGainsLong  CapGainsClass
	CapGainsDeath CapGainsClass

	// Average holding periods for retirement accounts, in years.
	DeferredHolding   float64
	NontaxableHolding float64

	// Average inventory holding period, in years.
	InventoryHolding float64

	// OOH property values: rate of return imputed to owner-occupiers is
	// taken from the equity return, so no extra series is needed here.
}

// Validate checks the environment against its permitted ranges and share
// invariants. Shapes are checked against the registry.
func (e *Environment) Validate(reg *dims.Registry) error {
	if e.Years <= 0 {
		return errors.New(errors.TypeConfig, "environment year count must be positive")
	}
	for name, s := range map[string]Series{
		"inflation_rate":          e.Inflation,
		"equity_return":           e.EquityReturn,
		"debt_return":             e.DebtReturn,
		"retained_earnings_share": e.RetainedEarningsShare,
		"repurchase_share":        e.RepurchaseShare,
		"cap_gains_share_short":   e.CapGainsShort.Share,
		"cap_gains_share_long":    e.CapGainsLong.Share,
		"cap_gains_share_death":   e.CapGainsDeath.Share,
	} {
		if len(s) != e.Years {
			return errors.Coverage(name, "full year range")
		}
	}

	checks := []struct {
		name   string
		s      Series
		bounds Bounds
	}{
		{"inflation_rate", e.Inflation, Bounds{-0.05, 0.25}},
		{"equity_return", e.EquityReturn, Bounds{0, 0.5}},
		{"debt_return", e.DebtReturn, Bounds{0, 0.5}},
		{"retained_earnings_share", e.RetainedEarningsShare, Bounds{0, 1}},
		{"repurchase_share", e.RepurchaseShare, Bounds{0, 1}},
		{"cap_gains_share_short", e.CapGainsShort.Share, Bounds{0, 1}},
		{"cap_gains_share_long", e.CapGainsLong.Share, Bounds{0, 1}},
		{"cap_gains_share_death", e.CapGainsDeath.Share, Bounds{0, 1}},
	}
	for _, c := range checks {
		if err := CheckSeries(c.name, c.s, c.bounds); err != nil {
			return err
		}
	}

	if err := CheckSeriesShareSum("capital gains duration classes", dims.ShareTol,
		e.CapGainsShort.Share, e.CapGainsLong.Share, e.CapGainsDeath.Share); err != nil {
		return err
	}

	// Holding periods must be ordered: short gains turn over fastest,
	// gains held until death slowest.
	if !(e.CapGainsShort.HoldingYears < e.CapGainsLong.HoldingYears &&
		e.CapGainsLong.HoldingYears < e.CapGainsDeath.HoldingYears) {
		return errors.New(errors.TypeRange,
			"capital gains holding periods must be increasing: short < long < death")
	}
	if e.DeferredHolding <= 0 || e.NontaxableHolding <= 0 {
		return errors.New(errors.TypeRange, "retirement account holding periods must be positive")
	}
	if e.InventoryHolding <= 0 {
		return errors.New(errors.TypeRange, "inventory holding period must be positive")
	}

	if e.EconDepreciation == nil ||
		e.EconDepreciation.Rows != reg.DetailedCount() ||
		e.EconDepreciation.Cols != reg.AssetCount() {
		return errors.Coverage("economic_depreciation", "detailed industry x asset type grid")
	}
	for r := 0; r < e.EconDepreciation.Rows; r++ {
		for c := 0; c < e.EconDepreciation.Cols; c++ {
			if v := e.EconDepreciation.At(r, c); v < 0 || v > 1 || math.IsNaN(v) {
				return errors.Range("economic_depreciation", v, 0, 1)
			}
		}
	}

	if e.DebtShares == nil ||
		e.DebtShares.Rows != reg.IndustryCount() ||
		e.DebtShares.Cols != dims.LegalFormCount {
		return errors.Coverage("debt_shares", "industry x legal form grid")
	}
	for r := 0; r < e.DebtShares.Rows; r++ {
		for c := 0; c < e.DebtShares.Cols; c++ {
			if v := e.DebtShares.At(r, c); v < 0 || v > 1 {
				return errors.Range("debt_shares", v, 0, 1)
			}
		}
	}
	if len(e.FinancialIndustries) != reg.IndustryCount() {
		return errors.Coverage("financial_industries", "industry flags")
	}

	return nil
}

// RescaledDebtShares returns the industry debt shares adjusted for the
// scenario's aggregate debt-share levers. Each industry's share is scaled
// by the ratio of its lever to the baseline, capped so no share exceeds 1.
// When the levers equal the baseline this is the identity.
func (e *Environment) RescaledDebtShares(reg *dims.Registry) *Grid {
	factor := func(ind int, lf dims.LegalForm) float64 {
		switch {
		case lf == dims.OwnerOccupied:
			return e.AggDebt.OOH / BaselineAggDebtShares.OOH
		case e.FinancialIndustries[ind]:
			return e.AggDebt.Financial / BaselineAggDebtShares.Financial
		case lf == dims.CCorp:
			return e.AggDebt.NonfinCCorp / BaselineAggDebtShares.NonfinCCorp
		default:
			return e.AggDebt.NonfinPassThru / BaselineAggDebtShares.NonfinPassThru
		}
	}

	out := NewGrid(e.DebtShares.Rows, e.DebtShares.Cols)
	for r := 0; r < out.Rows; r++ {
		for c := 0; c < out.Cols; c++ {
			v := e.DebtShares.At(r, c) * factor(r, dims.LegalForm(c))
			if v > 1 {
				v = 1
			}
			out.Set(r, c, v)
		}
	}
	return out
}
