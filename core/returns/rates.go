package returns

import (
	"capwedge/core/dims"
	"capwedge/core/params"
)

// adjustedRates are the statutory rates after timing, portfolio and
// qualified business income adjustments. Entity-level rates come in a
// net-income flavor (applied to gross profits) and a deduction flavor
// (applied to cost recovery and interest); the two differ only through
// their adjustment factors in current law but are kept separate so a
// policy can move them independently.
type adjustedRates struct {
	corpNetInc     params.Series
	corpDeduct     params.Series
	passThruNetInc params.Series
	passThruDeduct params.Series
	secaNetInc     params.Series
	secaDeduct     params.Series

	// interestSaver is the saver-level rate on interest income, scaled
	// by the share of interest flowing to taxable portfolios.
	interestSaver params.Series

	// oohRent is the rate on owner-occupied imputed rent, usually zero.
	oohRent params.Series
}

func (c *Calculator) adjustedRates() adjustedRates {
	p := c.pol
	qbi := make(params.Series, p.Years)
	for y := range qbi {
		qbi[y] = 1 - p.Adjust.QBIDeduction[y]
	}

	return adjustedRates{
		corpNetInc:     p.Rates.CorpIncome.Scale(p.Adjust.CorpTiming),
		corpDeduct:     p.Rates.CorpIncome.Scale(p.Adjust.CorpTiming),
		passThruNetInc: p.Rates.PassThruIncome.Scale(p.Adjust.PassThruTiming).Scale(qbi),
		passThruDeduct: p.Rates.PassThruIncome.Scale(p.Adjust.PassThruTiming).Scale(qbi),
		secaNetInc:     p.Rates.SECA.Scale(p.Adjust.SECATaxableShare),
		secaDeduct:     p.Rates.SECA.Scale(p.Adjust.SECATaxableShare),
		interestSaver:  p.Rates.Interest.Scale(p.Adjust.PortfolioInterest),
		oohRent:        p.Rates.OOHImputedRent,
	}
}

// netIncomeRate returns the entity-level rate on net income for a legal
// form, including SECA for pass-throughs.
func (r adjustedRates) netIncomeRate(lf dims.LegalForm, y int) float64 {
	switch lf {
	case dims.CCorp:
		return r.corpNetInc[y]
	case dims.PassThru:
		return r.passThruNetInc[y] + r.secaNetInc[y]
	default:
		return r.oohRent[y]
	}
}

// deductionRate returns the entity-level rate at which deductions are
// valued for a legal form.
func (r adjustedRates) deductionRate(lf dims.LegalForm, y int) float64 {
	switch lf {
	case dims.CCorp:
		return r.corpDeduct[y]
	case dims.PassThru:
		return r.passThruDeduct[y] + r.secaDeduct[y]
	default:
		return r.oohRent[y]
	}
}
