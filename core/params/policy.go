package params

import (
	"fmt"

	"capwedge/core/dims"
	"capwedge/internal/errors"
)

// RateSet holds the statutory marginal tax rates of a policy, one series
// per instrument.
type RateSet struct {
	CorpIncome        Series
	PassThruIncome    Series
	Dividends         Series
	CapGainsShort     Series
	CapGainsLong      Series
	CapGainsDeath     Series
	Interest          Series
	RepurchaseExcise  Series
	SECA              Series
	PropertyTax       Series
	OOHImputedRent    Series
	MortgageDeduction Series
	RetPlanDeferred   Series
	RetPlanNontaxable Series
}

// AdjustSet holds the multiplicative adjustment factors applied to
// statutory rates before they enter the calculation: timing of tax
// payments, portfolio composition of interest recipients, and the
// pass-through qualified business income deduction.
type AdjustSet struct {
	CorpTiming        Series
	PassThruTiming    Series
	PortfolioInterest Series
	QBIDeduction      Series
	SECATaxableShare  Series
}

// DeductSet holds entity-level deduction shares.
type DeductSet struct {
	// InterestShare is the share of interest expense deductible at the
	// entity level.
	InterestShare Series

	// PropertyTaxShare is the share of owner-occupied property tax
	// deductible against individual income.
	PropertyTaxShare Series

	// MortgageShare is the share of mortgage interest deductible against
	// individual income.
	MortgageShare Series
}

// DepreciationSet holds the tax depreciation system, one grid per
// parameter over detailed industry x asset type x year. Grids are fully
// year-resolved from policy suffix variants at load time.
type DepreciationSet struct {
	RecoveryPeriods   *YearGrid
	AccelerationRates *YearGrid
	StraightLineFlags *YearGrid
	InflationShares   *YearGrid
	ExpensingShares   *YearGrid

	// IncomeForecastAssets flags asset types recovered under the
	// income-forecast method. Nil means none.
	IncomeForecastAssets []bool
}

// CreditSet holds investment and production credit parameters over
// standard industry x asset type x year.
type CreditSet struct {
	ITCRates            *YearGrid
	ITCNondeprcblShares *YearGrid
	PTCRates            *YearGrid
}

// AccountShareTable stores the share of each legal form's financing held
// through each account category, per year.
type AccountShareTable struct {
	Years int
	vals  []float64
}

// NewAccountShareTable allocates a zeroed table.
func NewAccountShareTable(years int) *AccountShareTable {
	n := dims.LegalFormCount * dims.FinancingCount * dims.AccountCount * years
	return &AccountShareTable{Years: years, vals: make([]float64, n)}
}

// At returns the share for (legal form, financing, account) in year offset y.
func (t *AccountShareTable) At(lf dims.LegalForm, fin dims.Financing, acct dims.Account, y int) float64 {
	return t.vals[t.offset(lf, fin, acct, y)]
}

// Set stores a share.
func (t *AccountShareTable) Set(lf dims.LegalForm, fin dims.Financing, acct dims.Account, y int, v float64) {
	t.vals[t.offset(lf, fin, acct, y)] = v
}

func (t *AccountShareTable) offset(lf dims.LegalForm, fin dims.Financing, acct dims.Account, y int) int {
	return ((int(lf)*dims.FinancingCount+int(fin))*dims.AccountCount+int(acct))*t.Years + y
}

// Validate checks that shares sum to 1 for every (legal form, financing,
// year) within the account-share tolerance.
func (t *AccountShareTable) Validate() error {
	for lf := dims.LegalForm(0); lf < dims.LegalFormCount; lf++ {
		for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
			for y := 0; y < t.Years; y++ {
				err := CheckShareSum(
					fmt.Sprintf("account categories for %s/%s, year offset %d", lf, fin, y),
					dims.AccountShareTol,
					t.At(lf, fin, dims.Taxable, y),
					t.At(lf, fin, dims.Deferred, y),
					t.At(lf, fin, dims.Nontaxable, y),
				)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Policy holds one scenario's tax law parameters, fully year-resolved.
type Policy struct {
	Name        string
	Perspective dims.Perspective
	Years       int

	Rates        RateSet
	Adjust       AdjustSet
	Deduct       DeductSet
	Depreciation DepreciationSet
	Credits      CreditSet

	AccountShares *AccountShareTable
}

// Validate runs all permitted-range and share-sum checks eagerly. A policy
// that passes Validate can be calculated without further error paths.
func (p *Policy) Validate(reg *dims.Registry) error {
	if !p.Perspective.Valid() {
		return errors.Newf(errors.TypeConfig, "policy %s has unknown perspective %q", p.Name, p.Perspective)
	}
	if p.Years <= 0 {
		return errors.Newf(errors.TypeConfig, "policy %s year count must be positive", p.Name)
	}

	rateChecks := []struct {
		name   string
		s      Series
		bounds Bounds
	}{
		{"tax_rate_corp_income", p.Rates.CorpIncome, Bounds{0, 1}},
		{"tax_rate_pass_thru_income", p.Rates.PassThruIncome, Bounds{0, 1}},
		{"tax_rate_dividends", p.Rates.Dividends, Bounds{0, 1}},
		{"tax_rate_cap_gains_short", p.Rates.CapGainsShort, Bounds{0, 1}},
		{"tax_rate_cap_gains_long", p.Rates.CapGainsLong, Bounds{0, 1}},
		{"tax_rate_cap_gains_death", p.Rates.CapGainsDeath, Bounds{0, 1}},
		{"tax_rate_interest", p.Rates.Interest, Bounds{0, 1}},
		{"tax_rate_repurchase_excise", p.Rates.RepurchaseExcise, Bounds{0, 0.5}},
		{"tax_rate_seca", p.Rates.SECA, Bounds{0, 1}},
		{"tax_rate_property", p.Rates.PropertyTax, Bounds{0, 0.1}},
		{"tax_rate_ooh_imputed_rent", p.Rates.OOHImputedRent, Bounds{0, 1}},
		{"tax_rate_mortgage_deduction", p.Rates.MortgageDeduction, Bounds{0, 1}},
		{"tax_rate_ret_plan_deferred", p.Rates.RetPlanDeferred, Bounds{0, 1}},
		{"tax_rate_ret_plan_nontaxable", p.Rates.RetPlanNontaxable, Bounds{0, 1}},
		{"adjustment_corp_timing", p.Adjust.CorpTiming, Bounds{0, 2}},
		{"adjustment_pass_thru_timing", p.Adjust.PassThruTiming, Bounds{0, 2}},
		{"adjustment_portfolio_interest", p.Adjust.PortfolioInterest, Bounds{0, 1}},
		{"adjustment_qbi_deduction", p.Adjust.QBIDeduction, Bounds{0, 1}},
		{"adjustment_seca_taxable_share", p.Adjust.SECATaxableShare, Bounds{0, 1}},
		{"deduction_interest_share", p.Deduct.InterestShare, Bounds{0, 1}},
		{"deduction_property_tax_share", p.Deduct.PropertyTaxShare, Bounds{0, 1}},
		{"deduction_mortgage_share", p.Deduct.MortgageShare, Bounds{0, 1}},
	}
	for _, c := range rateChecks {
		if len(c.s) != p.Years {
			return errors.Coverage(c.name, fmt.Sprintf("policy %s full year range", p.Name))
		}
		if err := CheckSeries(c.name, c.s, c.bounds); err != nil {
			return err
		}
	}

	depGrids := []struct {
		name string
		g    *YearGrid
	}{
		{"recovery_periods", p.Depreciation.RecoveryPeriods},
		{"acceleration_rates", p.Depreciation.AccelerationRates},
		{"straight_line_flags", p.Depreciation.StraightLineFlags},
		{"inflation_adjustments", p.Depreciation.InflationShares},
		{"expensing_shares", p.Depreciation.ExpensingShares},
	}
	for _, d := range depGrids {
		if d.g == nil || d.g.Rows != reg.DetailedCount() || d.g.Cols != reg.AssetCount() || d.g.Years != p.Years {
			return errors.Coverage(d.name, "detailed industry x asset type x year grid")
		}
	}
	if err := CheckRecoveryPeriods("recovery_periods", p.Depreciation.RecoveryPeriods); err != nil {
		return err
	}
	if err := CheckYearGrid("acceleration_rates", p.Depreciation.AccelerationRates, Bounds{0, 5}); err != nil {
		return err
	}
	if err := CheckStraightLineFlags("straight_line_flags", p.Depreciation.StraightLineFlags); err != nil {
		return err
	}
	if err := CheckYearGrid("inflation_adjustments", p.Depreciation.InflationShares, Bounds{0, 1}); err != nil {
		return err
	}
	if err := CheckYearGrid("expensing_shares", p.Depreciation.ExpensingShares, Bounds{0, 1}); err != nil {
		return err
	}

	creditGrids := []struct {
		name string
		g    *YearGrid
	}{
		{"itc_rates", p.Credits.ITCRates},
		{"itc_nondeprcbl_bases", p.Credits.ITCNondeprcblShares},
		{"ptc_rates", p.Credits.PTCRates},
	}
	for _, c := range creditGrids {
		if c.g == nil || c.g.Rows != reg.IndustryCount() || c.g.Cols != reg.AssetCount() || c.g.Years != p.Years {
			return errors.Coverage(c.name, "industry x asset type x year grid")
		}
		if err := CheckYearGrid(c.name, c.g, Bounds{0, 1}); err != nil {
			return err
		}
	}

	if p.AccountShares == nil || p.AccountShares.Years != p.Years {
		return errors.Coverage("account_category_shares", "legal form x financing x account x year table")
	}
	return p.AccountShares.Validate()
}
