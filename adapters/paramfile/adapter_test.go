// Package paramfile - data tree loading tests
package paramfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"capwedge/core/dims"
	"capwedge/core/engine"
	"capwedge/internal/config"
	"capwedge/internal/errors"
)

// writeFile writes one file under dir, creating parents.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}

// matrixCSV renders a labeled matrix with a uniform value.
func matrixCSV(rowLabels, colLabels []string, v float64) string {
	var b strings.Builder
	b.WriteString("label," + strings.Join(colLabels, ",") + "\n")
	for _, row := range rowLabels {
		b.WriteString(row)
		for range colLabels {
			fmt.Fprintf(&b, ",%g", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	testIndustries = []string{"business", "owner_occupied_housing"}
	testDetailed   = []string{"business_detailed", "ooh_detailed"}
	testAssets     = []string{"Equipment", "Structures"}
	testForms      = []string{"c_corp", "pass_thru", "ooh"}
)

// writeDataTree lays out a minimal but complete parameter tree.
func writeDataTree(t *testing.T) *config.DataConfig {
	t.Helper()
	root := t.TempDir()
	env := filepath.Join(root, "environment_parameters")
	pol := filepath.Join(root, "policy_parameters")

	labels := func(name string, vals []string) string {
		return name + "\n" + strings.Join(vals, "\n") + "\n"
	}
	writeFile(t, env, "industry_labels.csv", labels("industry", testIndustries))
	writeFile(t, env, "detailed_industry_labels.csv", labels("detailed_industry", testDetailed))
	writeFile(t, env, "asset_type_labels.csv", labels("asset_type", testAssets))
	writeFile(t, env, "industry_crosswalk.csv",
		"detailed_industry,industry,weight\n"+
			"business_detailed,business,1.0\n"+
			"ooh_detailed,owner_occupied_housing,1.0\n")
	writeFile(t, env, "financial_industries.csv", "industry\n")

	writeFile(t, env, "environment_parameters.csv",
		"parameter,values\n"+
			"inflation_rate,0.02\n"+
			"equity_return,0.07\n"+
			"debt_return,0.04\n"+
			"retained_earnings_share,0.4\n"+
			"repurchase_share,0.5\n"+
			"cap_gains_share_short,0.2\n"+
			"cap_gains_share_long,0.5\n"+
			"cap_gains_share_death,0.3\n"+
			"cap_gains_holding_short,0.5\n"+
			"cap_gains_holding_long,8\n"+
			"cap_gains_holding_death,30\n"+
			"deferred_holding,17\n"+
			"nontaxable_holding,17\n"+
			"inventory_holding,0.5\n"+
			"agg_debt_financial,0.4932\n"+
			"agg_debt_nonfin_c_corp,0.2750\n"+
			"agg_debt_nonfin_pass_thru,0.3054\n"+
			"agg_debt_ooh,0.4136\n")

	writeFile(t, env, "econ_depreciation.csv", matrixCSV(testDetailed, testAssets, 0.05))
	writeFile(t, env, "debt_shares.csv", matrixCSV(testIndustries, testForms, 0.35))
	writeFile(t, env, "capital_stocks.csv", matrixCSV(testIndustries, testAssets, 1000))
	writeFile(t, env, "c_corp_asset_shares.csv",
		"label,Equipment,Structures\nbusiness,0.55,0.55\nowner_occupied_housing,0,0\n")
	writeFile(t, env, "pass_thru_asset_shares.csv",
		"label,Equipment,Structures\nbusiness,0.40,0.40\nowner_occupied_housing,0,0\n")

	writeFile(t, pol, "policy_parameters_test_comprehensive.csv",
		"parameter,values\n"+
			"tax_rate_corp_income,0.21\n"+
			"tax_rate_pass_thru_income,0.25\n"+
			"tax_rate_dividends,0.15\n"+
			"tax_rate_cap_gains_short,0.2\n"+
			"tax_rate_cap_gains_long,0.15\n"+
			"tax_rate_cap_gains_death,0\n"+
			"tax_rate_interest,0.25\n"+
			"tax_rate_repurchase_excise,0.01\n"+
			"tax_rate_seca,0.03\n"+
			"tax_rate_property,0.01\n"+
			"tax_rate_ooh_imputed_rent,0\n"+
			"tax_rate_mortgage_deduction,0.2\n"+
			"tax_rate_ret_plan_deferred,0.2\n"+
			"tax_rate_ret_plan_nontaxable,0\n"+
			"adjustment_corp_timing,1\n"+
			"adjustment_pass_thru_timing,1\n"+
			"adjustment_portfolio_interest,0.6\n"+
			"adjustment_qbi_deduction,0.2\n"+
			"adjustment_seca_taxable_share,0.8\n"+
			"deduction_interest_share,1\n"+
			"deduction_property_tax_share,0.3\n"+
			"deduction_mortgage_share,0.6\n"+
			"suffix_depreciation,base\n"+
			"suffix_investment_tax_credit,base\n")

	dep := filepath.Join(pol, "depreciation_adjustments")
	writeFile(t, dep, "recovery_periods_base.csv", matrixCSV(testDetailed, testAssets, 7))
	writeFile(t, dep, "acceleration_rates_base.csv", matrixCSV(testDetailed, testAssets, 2))
	writeFile(t, dep, "straight_line_flags_base.csv", matrixCSV(testDetailed, testAssets, 1))
	writeFile(t, dep, "inflation_adjustments_base.csv", matrixCSV(testDetailed, testAssets, 1))
	writeFile(t, dep, "expensing_shares_base.csv", matrixCSV(testDetailed, testAssets, 0.5))

	itc := filepath.Join(pol, "investment_tax_credit_adjustments")
	writeFile(t, itc, "itc_rates_base.csv", matrixCSV(testIndustries, testAssets, 0))
	writeFile(t, itc, "itc_nondeprcbl_bases_base.csv", matrixCSV(testIndustries, testAssets, 0.5))
	writeFile(t, itc, "ptc_rates_base.csv", matrixCSV(testIndustries, testAssets, 0))

	var shares strings.Builder
	shares.WriteString("legal_form,financing,account,share\n")
	for _, lf := range testForms {
		for _, fin := range []string{"debt", "equity"} {
			shares.WriteString(lf + "," + fin + ",taxable,0.5\n")
			shares.WriteString(lf + "," + fin + ",deferred,0.3\n")
			shares.WriteString(lf + "," + fin + ",nontaxable,0.2\n")
		}
	}
	writeFile(t, pol, "account_category_shares.csv", shares.String())

	writeFile(t, root, "policies.yml",
		"scenarios:\n"+
			"  - name: test\n"+
			"    perspective: comprehensive\n"+
			"  - name: test\n"+
			"    perspective: uniformity\n")

	return &config.DataConfig{
		Dir:            root,
		EnvironmentDir: "environment_parameters",
		PolicyDir:      "policy_parameters",
		ScenarioFile:   "policies.yml",
	}
}

// TestAdapterLoadsTree proves the whole data tree loads, validates and
// feeds an engine run
func TestAdapterLoadsTree(t *testing.T) {
	cfg := writeDataTree(t)
	a := New(cfg)
	ctx := context.Background()

	reg, err := a.Registry(ctx)
	if err != nil {
		t.Fatalf("Registry: %v", err)
	}
	if reg.IndustryCount() != 2 || reg.DetailedCount() != 2 || reg.AssetCount() != 2 {
		t.Fatalf("registry sizes = %d/%d/%d", reg.IndustryCount(), reg.DetailedCount(), reg.AssetCount())
	}

	env, err := a.Environment(ctx)
	if err != nil {
		t.Fatalf("Environment: %v", err)
	}
	if err := env.Validate(reg); err != nil {
		t.Fatalf("environment should validate: %v", err)
	}
	if env.Years != dims.YearCount {
		t.Errorf("env years = %d, want %d", env.Years, dims.YearCount)
	}
	if got := env.Inflation[dims.YearCount-1]; got != 0.02 {
		t.Errorf("constant series should cover all years, got %g", got)
	}
	if got := env.CapGainsDeath.HoldingYears; got != 30 {
		t.Errorf("cap_gains_holding_death = %g, want 30", got)
	}

	wdata, err := a.WeightData(ctx)
	if err != nil {
		t.Fatalf("WeightData: %v", err)
	}
	if err := wdata.Validate(reg); err != nil {
		t.Fatalf("weight data should validate: %v", err)
	}

	scenarios, err := a.Scenarios(ctx)
	if err != nil {
		t.Fatalf("Scenarios: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("scenarios = %d, want 2", len(scenarios))
	}
	if scenarios[1].Perspective != dims.Uniformity {
		t.Errorf("second scenario perspective = %q", scenarios[1].Perspective)
	}

	pol, err := a.Policy(ctx, scenarios[0])
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if err := pol.Validate(reg); err != nil {
		t.Fatalf("policy should validate: %v", err)
	}
	if got := pol.Rates.CorpIncome[0]; got != 0.21 {
		t.Errorf("tax_rate_corp_income = %g, want 0.21", got)
	}
	if got := pol.Depreciation.RecoveryPeriods.At(0, 0, dims.YearCount-1); got != 7 {
		t.Errorf("recovery period = %g, want 7 in every year", got)
	}
	if got := pol.Credits.ITCNondeprcblShares.At(0, 0, 0); got != 0.5 {
		t.Errorf("itc_nondeprcbl_bases = %g, want 0.5", got)
	}

	// The loaded tree drives a full engine run.
	eng := engine.New(a)
	if err := eng.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	run, err := eng.Run(ctx, scenarios[0])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(run.Tables) == 0 {
		t.Error("run produced no tables")
	}
}

// TestAdapterMissingParameter proves a missing policy row is a typed
// coverage error
func TestAdapterMissingParameter(t *testing.T) {
	cfg := writeDataTree(t)
	path := filepath.Join(cfg.Dir, "policy_parameters", "policy_parameters_test_comprehensive.csv")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	trimmed := strings.Replace(string(raw), "tax_rate_interest,0.25\n", "", 1)
	if err := os.WriteFile(path, []byte(trimmed), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := New(cfg)
	_, err = a.Policy(context.Background(), engine.Scenario{Name: "test", Perspective: dims.Comprehensive})
	if err == nil {
		t.Fatal("Expected coverage error for missing parameter, got nil")
	}
	if !errors.IsType(err, errors.TypeCoverage) {
		t.Errorf("Expected TypeCoverage, got %v", err)
	}
}

// TestAdapterUnknownSuffix proves a suffix with no variant file is a
// coverage error
func TestAdapterUnknownSuffix(t *testing.T) {
	cfg := writeDataTree(t)
	path := filepath.Join(cfg.Dir, "policy_parameters", "policy_parameters_test_comprehensive.csv")
	raw, _ := os.ReadFile(path)
	bad := strings.Replace(string(raw), "suffix_depreciation,base\n", "suffix_depreciation,bonus\n", 1)
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := New(cfg)
	_, err := a.Policy(context.Background(), engine.Scenario{Name: "test", Perspective: dims.Comprehensive})
	if err == nil {
		t.Fatal("Expected coverage error for unknown suffix, got nil")
	}
}

// TestAdapterUnknownLabel proves an unrecognized matrix label is a typed
// not-found error
func TestAdapterUnknownLabel(t *testing.T) {
	cfg := writeDataTree(t)
	path := filepath.Join(cfg.Dir, "environment_parameters", "econ_depreciation.csv")
	raw, _ := os.ReadFile(path)
	bad := strings.Replace(string(raw), "business_detailed", "mystery_industry", 1)
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := New(cfg)
	_, err := a.Environment(context.Background())
	if err == nil {
		t.Fatal("Expected not-found error for unknown label, got nil")
	}
	if !errors.IsType(err, errors.TypeNotFound) {
		t.Errorf("Expected TypeNotFound, got %v", err)
	}
}

// TestAdapterScenarioValidation proves unknown perspectives are rejected
// at load time
func TestAdapterScenarioValidation(t *testing.T) {
	cfg := writeDataTree(t)
	writeFile(t, cfg.Dir, "policies.yml",
		"scenarios:\n  - name: test\n    perspective: sideways\n")
	a := New(cfg)
	if _, err := a.Scenarios(context.Background()); err == nil {
		t.Fatal("Expected config error for unknown perspective, got nil")
	}
}
