package paramfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"capwedge/core/dims"
	"capwedge/core/engine"
	"capwedge/core/params"
	"capwedge/internal/errors"
	"capwedge/internal/logging"
)

const (
	depreciationDir = "depreciation_adjustments"
	itcDir          = "investment_tax_credit_adjustments"

	depreciationSuffixRow = "suffix_depreciation"
	itcSuffixRow          = "suffix_investment_tax_credit"
)

// depreciationFamilies are the suffixed grids over detailed industry x
// asset type; itcFamilies are over standard industry x asset type.
var (
	depreciationFamilies = []string{
		"recovery_periods",
		"acceleration_rates",
		"straight_line_flags",
		"inflation_adjustments",
		"expensing_shares",
	}
	itcFamilies = []string{
		"itc_rates",
		"itc_nondeprcbl_bases",
		"ptc_rates",
	}
)

// Policy assembles one scenario's fully year-resolved policy from the
// scenario's parameter file and the shared variant directories.
func (a *Adapter) Policy(ctx context.Context, sc engine.Scenario) (*params.Policy, error) {
	reg, err := a.Registry(ctx)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(a.polDir,
		fmt.Sprintf("policy_parameters_%s_%s.csv", sc.Name, sc.Perspective))
	sf, err := readSeriesFile(path, a.years)
	if err != nil {
		return nil, err
	}
	logging.Debug("loaded policy parameter file",
		zap.String("policy", sc.Name),
		zap.String("perspective", string(sc.Perspective)))

	pol := &params.Policy{
		Name:        sc.Name,
		Perspective: sc.Perspective,
		Years:       a.years,
	}

	for name, dst := range map[string]*params.Series{
		"tax_rate_corp_income":          &pol.Rates.CorpIncome,
		"tax_rate_pass_thru_income":     &pol.Rates.PassThruIncome,
		"tax_rate_dividends":            &pol.Rates.Dividends,
		"tax_rate_cap_gains_short":      &pol.Rates.CapGainsShort,
		"tax_rate_cap_gains_long":       &pol.Rates.CapGainsLong,
		"tax_rate_cap_gains_death":      &pol.Rates.CapGainsDeath,
		"tax_rate_interest":             &pol.Rates.Interest,
		"tax_rate_repurchase_excise":    &pol.Rates.RepurchaseExcise,
		"tax_rate_seca":                 &pol.Rates.SECA,
		"tax_rate_property":             &pol.Rates.PropertyTax,
		"tax_rate_ooh_imputed_rent":     &pol.Rates.OOHImputedRent,
		"tax_rate_mortgage_deduction":   &pol.Rates.MortgageDeduction,
		"tax_rate_ret_plan_deferred":    &pol.Rates.RetPlanDeferred,
		"tax_rate_ret_plan_nontaxable":  &pol.Rates.RetPlanNontaxable,
		"adjustment_corp_timing":        &pol.Adjust.CorpTiming,
		"adjustment_pass_thru_timing":   &pol.Adjust.PassThruTiming,
		"adjustment_portfolio_interest": &pol.Adjust.PortfolioInterest,
		"adjustment_qbi_deduction":      &pol.Adjust.QBIDeduction,
		"adjustment_seca_taxable_share": &pol.Adjust.SECATaxableShare,
		"deduction_interest_share":      &pol.Deduct.InterestShare,
		"deduction_property_tax_share":  &pol.Deduct.PropertyTaxShare,
		"deduction_mortgage_share":      &pol.Deduct.MortgageShare,
	} {
		if *dst, err = sf.get(name); err != nil {
			return nil, errors.Wrap(errors.TypeCoverage,
				fmt.Sprintf("policy %s is missing a parameter", sc.Name), err).
				WithContext("path", path)
		}
	}

	if pol.Depreciation, err = a.loadDepreciation(reg, sf); err != nil {
		return nil, err
	}
	if pol.Credits, err = a.loadCredits(reg, sf); err != nil {
		return nil, err
	}
	if pol.AccountShares, err = a.loadAccountShares(); err != nil {
		return nil, err
	}
	return pol, nil
}

func (a *Adapter) loadDepreciation(reg *dims.Registry, sf *seriesFile) (params.DepreciationSet, error) {
	var set params.DepreciationSet

	suffixes, err := sf.suffixRow(depreciationSuffixRow)
	if err != nil {
		return set, err
	}
	grids, err := a.resolveFamilies(
		filepath.Join(a.polDir, depreciationDir),
		depreciationFamilies,
		reg.DetailedCount(), reg.AssetCount(),
		suffixes)
	if err != nil {
		return set, err
	}
	set.RecoveryPeriods = grids["recovery_periods"]
	set.AccelerationRates = grids["acceleration_rates"]
	set.StraightLineFlags = grids["straight_line_flags"]
	set.InflationShares = grids["inflation_adjustments"]
	set.ExpensingShares = grids["expensing_shares"]

	set.IncomeForecastAssets, err = a.readIncomeForecastAssets(reg)
	if err != nil {
		return set, err
	}
	return set, nil
}

func (a *Adapter) loadCredits(reg *dims.Registry, sf *seriesFile) (params.CreditSet, error) {
	var set params.CreditSet

	suffixes, err := sf.suffixRow(itcSuffixRow)
	if err != nil {
		return set, err
	}
	grids, err := a.resolveFamilies(
		filepath.Join(a.polDir, itcDir),
		itcFamilies,
		reg.IndustryCount(), reg.AssetCount(),
		suffixes)
	if err != nil {
		return set, err
	}
	set.ITCRates = grids["itc_rates"]
	set.ITCNondeprcblShares = grids["itc_nondeprcbl_bases"]
	set.PTCRates = grids["ptc_rates"]
	return set, nil
}

// resolveFamilies scans a variant directory for files named
// <family>_<suffix>.csv, registers each matrix under its suffix, and
// materializes one year grid per family from the policy's suffix row.
func (a *Adapter) resolveFamilies(dir string, families []string, rows, cols int, suffixes []string) (map[string]*params.YearGrid, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "reading variant directory", err).
			WithContext("dir", dir)
	}

	sets := make(map[string]*params.VariantSet, len(families))
	for _, fam := range families {
		sets[fam] = params.NewVariantSet(fam, rows, cols)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		base := strings.TrimSuffix(name, ".csv")
		for _, fam := range families {
			if !strings.HasPrefix(base, fam+"_") {
				continue
			}
			suffix := strings.TrimPrefix(base, fam+"_")
			g, err := a.readVariantMatrix(filepath.Join(dir, name), rows, cols)
			if err != nil {
				return nil, err
			}
			if err := sets[fam].Add(suffix, g); err != nil {
				return nil, err
			}
			break
		}
	}

	out := make(map[string]*params.YearGrid, len(families))
	for _, fam := range families {
		g, err := sets[fam].Resolve(suffixes)
		if err != nil {
			return nil, errors.Wrap(errors.TypeCoverage,
				"resolving policy variant suffixes", err).
				WithContext("dir", dir)
		}
		out[fam] = g
	}
	return out, nil
}

// readVariantMatrix reads a variant matrix by position: variant files
// carry a label column and header for readability, but rows and columns
// follow the canonical dimension ordering.
func (a *Adapter) readVariantMatrix(path string, rows, cols int) (*params.Grid, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records)-1 != rows {
		return nil, errors.Newf(errors.TypeInput,
			"variant matrix has %d rows, want %d", len(records)-1, rows).
			WithContext("path", path)
	}
	g := params.NewGrid(rows, cols)
	for r, rec := range records[1:] {
		if len(rec) != cols+1 {
			return nil, errors.Newf(errors.TypeInput,
				"variant matrix row %q has %d cells, want %d", rec[0], len(rec)-1, cols).
				WithContext("path", path)
		}
		for c, cell := range rec[1:] {
			v, err := parseFloat(cell)
			if err != nil {
				return nil, errors.Parsing("parsing variant matrix cell", err).
					WithContext("path", path).
					WithContext("row", rec[0])
			}
			g.Set(r, c, v)
		}
	}
	return g, nil
}

// readIncomeForecastAssets reads the optional list of asset types
// recovered under the income-forecast method. A missing file means none.
func (a *Adapter) readIncomeForecastAssets(reg *dims.Registry) ([]bool, error) {
	path := filepath.Join(a.polDir, "income_forecast_assets.csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	labels, err := readLabels(path)
	if err != nil {
		return nil, err
	}
	flags := make([]bool, reg.AssetCount())
	for _, label := range labels {
		i, ok := reg.Asset(label)
		if !ok {
			return nil, errors.NotFound("asset type", label).WithContext("path", path)
		}
		flags[i] = true
	}
	return flags, nil
}

// loadAccountShares reads the shared account category share table. Rows
// are legal_form,financing,account followed by one value per year or a
// single constant value.
func (a *Adapter) loadAccountShares() (*params.AccountShareTable, error) {
	path := filepath.Join(a.polDir, "account_category_shares.csv")
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	finIndex := map[string]dims.Financing{
		"debt":   dims.Debt,
		"equity": dims.Equity,
	}
	acctIndex := map[string]dims.Account{
		"taxable":    dims.Taxable,
		"deferred":   dims.Deferred,
		"nontaxable": dims.Nontaxable,
	}

	table := params.NewAccountShareTable(a.years)
	seen := make(map[string]bool)
	for _, rec := range records[1:] {
		if len(rec) != 4 && len(rec) != 3+a.years {
			return nil, errors.Newf(errors.TypeInput,
				"account share row has %d cells, want 4 or %d", len(rec), 3+a.years).
				WithContext("path", path)
		}
		lf, ok := legalFormIndex[rec[0]]
		if !ok {
			return nil, errors.NotFound("legal form", rec[0]).WithContext("path", path)
		}
		fin, ok := finIndex[rec[1]]
		if !ok {
			return nil, errors.NotFound("financing source", rec[1]).WithContext("path", path)
		}
		acct, ok := acctIndex[rec[2]]
		if !ok {
			return nil, errors.NotFound("account category", rec[2]).WithContext("path", path)
		}
		key := rec[0] + "/" + rec[1] + "/" + rec[2]
		if seen[key] {
			return nil, errors.Newf(errors.TypeInput, "account share row %s is duplicated", key).
				WithContext("path", path)
		}
		seen[key] = true

		for y := 0; y < a.years; y++ {
			cell := rec[3]
			if len(rec) > 4 {
				cell = rec[3+y]
			}
			v, err := parseFloat(cell)
			if err != nil {
				return nil, errors.Parsing("parsing account share", err).
					WithContext("path", path).
					WithContext("row", key)
			}
			table.Set(dims.LegalForm(lf), fin, acct, y, v)
		}
	}

	want := dims.LegalFormCount * dims.FinancingCount * dims.AccountCount
	if len(seen) != want {
		return nil, errors.Coverage("account_category_shares",
			fmt.Sprintf("%d of %d legal form/financing/account rows", len(seen), want)).
			WithContext("path", path)
	}
	return table, nil
}
