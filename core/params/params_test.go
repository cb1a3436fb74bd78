// Package params - parameter table and validation tests
package params

import (
	"math"
	"testing"

	"capwedge/core/dims"
	"capwedge/internal/errors"
)

// TestBoundsRejectNaN proves NaN never passes a range check
func TestBoundsRejectNaN(t *testing.T) {
	b := Bounds{0, 1}
	if b.Contains(math.NaN()) {
		t.Error("Bounds.Contains(NaN) should be false")
	}
	if !b.Contains(0) || !b.Contains(1) || !b.Contains(0.5) {
		t.Error("Bounds should include its endpoints and interior")
	}
}

// TestCheckSeriesReportsYear proves out-of-range values surface as typed
// range errors
func TestCheckSeriesReportsYear(t *testing.T) {
	s := Series{0.2, 0.3, 1.5}
	err := CheckSeries("tax_rate_corp_income", s, Bounds{0, 1})
	if err == nil {
		t.Fatal("Expected range error for value 1.5, got nil")
	}
	if !errors.IsType(err, errors.TypeRange) {
		t.Errorf("Expected TypeRange error, got %v", err)
	}
}

// TestCheckRecoveryPeriods proves every strictly positive period is
// legal, including short, very long and sentinel values, and that zero
// and negative periods are rejected
func TestCheckRecoveryPeriods(t *testing.T) {
	g := NewYearGrid(1, 4, 1)
	g.Set(0, 0, 0, NonDepreciable)
	g.Set(0, 1, 0, 7)
	g.Set(0, 2, 0, 0.1)
	g.Set(0, 3, 0, 250)
	if err := CheckRecoveryPeriods("recovery_periods", g); err != nil {
		t.Errorf("positive periods should pass validation: %v", err)
	}

	g.Set(0, 1, 0, 0)
	if err := CheckRecoveryPeriods("recovery_periods", g); err == nil {
		t.Error("Expected range error for recovery period 0, got nil")
	}
	g.Set(0, 1, 0, -3)
	if err := CheckRecoveryPeriods("recovery_periods", g); err == nil {
		t.Error("Expected range error for a negative recovery period, got nil")
	}
}

// TestCheckStraightLineFlags proves only -1, 0 and 1 are legal flags
func TestCheckStraightLineFlags(t *testing.T) {
	g := NewYearGrid(1, 3, 1)
	g.Set(0, 0, 0, -1)
	g.Set(0, 1, 0, 0)
	g.Set(0, 2, 0, 1)
	if err := CheckStraightLineFlags("straight_line_flags", g); err != nil {
		t.Errorf("valid flags should pass: %v", err)
	}
	g.Set(0, 2, 0, 2)
	if err := CheckStraightLineFlags("straight_line_flags", g); err == nil {
		t.Error("Expected error for flag value 2, got nil")
	}
}

// TestCheckShareSum proves the share-sum tolerance
func TestCheckShareSum(t *testing.T) {
	if err := CheckShareSum("accounts", 1e-3, 0.5, 0.3, 0.2004); err != nil {
		t.Errorf("sum within tolerance should pass: %v", err)
	}
	err := CheckShareSum("accounts", 1e-3, 0.5, 0.3, 0.21)
	if err == nil {
		t.Fatal("Expected share-sum error for sum 1.01, got nil")
	}
	if !errors.IsType(err, errors.TypeShareSum) {
		t.Errorf("Expected TypeShareSum error, got %v", err)
	}
}

// TestYearGridLayerRoundTrip proves SetLayer copies a static grid into one
// year of a year grid
func TestYearGridLayerRoundTrip(t *testing.T) {
	layer := NewGrid(2, 3)
	layer.Set(1, 2, 42)
	g := NewYearGrid(2, 3, 4)
	if err := g.SetLayer(3, layer); err != nil {
		t.Fatalf("SetLayer: %v", err)
	}
	if got := g.At(1, 2, 3); got != 42 {
		t.Errorf("At(1,2,3) = %g, want 42", got)
	}
	if got := g.At(1, 2, 0); got != 0 {
		t.Errorf("other years should stay zero, got %g", got)
	}

	bad := NewGrid(3, 3)
	if err := g.SetLayer(0, bad); err == nil {
		t.Error("Expected shape error for mismatched layer, got nil")
	}
}

// TestVariantSetResolve proves suffix resolution and the coverage error
// for a missing variant
func TestVariantSetResolve(t *testing.T) {
	set := NewVariantSet("recovery_periods", 1, 1)
	base := NewGrid(1, 1)
	base.Set(0, 0, 7)
	bonus := NewGrid(1, 1)
	bonus.Set(0, 0, 5)
	if err := set.Add("base", base); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := set.Add("bonus", bonus); err != nil {
		t.Fatalf("Add: %v", err)
	}

	g, err := set.Resolve([]string{"base", "bonus", "base"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []float64{7, 5, 7}
	for y, v := range want {
		if got := g.At(0, 0, y); got != v {
			t.Errorf("year %d: got %g, want %g", y, got, v)
		}
	}

	_, err = set.Resolve([]string{"base", "missing"})
	if err == nil {
		t.Fatal("Expected coverage error for unknown suffix, got nil")
	}
	if !errors.IsType(err, errors.TypeCoverage) {
		t.Errorf("Expected TypeCoverage error, got %v", err)
	}
}

// TestVariantSetRejectsDuplicates proves a suffix cannot be registered twice
func TestVariantSetRejectsDuplicates(t *testing.T) {
	set := NewVariantSet("itc_rates", 1, 1)
	if err := set.Add("base", NewGrid(1, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := set.Add("base", NewGrid(1, 1)); err == nil {
		t.Error("Expected error for duplicate suffix, got nil")
	}
	if err := set.Add("bad_shape", NewGrid(2, 1)); err == nil {
		t.Error("Expected error for mismatched variant shape, got nil")
	}
}

// TestRescaledDebtSharesIdentity proves baseline levers leave debt shares
// unchanged
func TestRescaledDebtSharesIdentity(t *testing.T) {
	env := &Environment{
		AggDebt:             BaselineAggDebtShares,
		FinancialIndustries: []bool{false, true},
		DebtShares:          NewGrid(2, dims.LegalFormCount),
	}
	env.DebtShares.Set(0, int(dims.CCorp), 0.3)
	env.DebtShares.Set(1, int(dims.PassThru), 0.25)

	out := env.RescaledDebtShares(nil)
	if got := out.At(0, int(dims.CCorp)); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("baseline rescale changed share: got %g, want 0.3", got)
	}
	if got := out.At(1, int(dims.PassThru)); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("baseline rescale changed share: got %g, want 0.25", got)
	}
}

// TestRescaledDebtSharesSectors proves each sector uses its own lever and
// shares are capped at one
func TestRescaledDebtSharesSectors(t *testing.T) {
	env := &Environment{
		AggDebt: AggDebtShares{
			Financial:      BaselineAggDebtShares.Financial,
			NonfinCCorp:    BaselineAggDebtShares.NonfinCCorp * 2,
			NonfinPassThru: BaselineAggDebtShares.NonfinPassThru,
			OOH:            BaselineAggDebtShares.OOH,
		},
		FinancialIndustries: []bool{false, true},
		DebtShares:          NewGrid(2, dims.LegalFormCount),
	}
	env.DebtShares.Set(0, int(dims.CCorp), 0.3)
	env.DebtShares.Set(0, int(dims.PassThru), 0.3)
	env.DebtShares.Set(1, int(dims.CCorp), 0.7)

	out := env.RescaledDebtShares(nil)
	if got := out.At(0, int(dims.CCorp)); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("nonfinancial c_corp share: got %g, want 0.6", got)
	}
	// Pass-through lever unchanged, so the same industry's pass-through
	// share stays put.
	if got := out.At(0, int(dims.PassThru)); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("nonfinancial pass_thru share: got %g, want 0.3", got)
	}
	// Financial industries use the financial lever regardless of form.
	if got := out.At(1, int(dims.CCorp)); math.Abs(got-0.7) > 1e-12 {
		t.Errorf("financial share: got %g, want 0.7", got)
	}

	env.AggDebt.NonfinCCorp = BaselineAggDebtShares.NonfinCCorp * 10
	out = env.RescaledDebtShares(nil)
	if got := out.At(0, int(dims.CCorp)); got != 1 {
		t.Errorf("rescaled share should cap at 1, got %g", got)
	}
}

// TestEnvironmentValidateHoldingOrder proves the capital gains holding
// period ordering invariant
func TestEnvironmentValidateHoldingOrder(t *testing.T) {
	reg := smallRegistry(t)
	env := validEnvironment(reg)
	if err := env.Validate(reg); err != nil {
		t.Fatalf("valid environment rejected: %v", err)
	}

	env.CapGainsLong.HoldingYears = env.CapGainsDeath.HoldingYears + 1
	if err := env.Validate(reg); err == nil {
		t.Error("Expected error for unordered holding periods, got nil")
	}
}

// TestEnvironmentValidateShareSum proves duration class shares must sum
// to one each year
func TestEnvironmentValidateShareSum(t *testing.T) {
	reg := smallRegistry(t)
	env := validEnvironment(reg)
	env.CapGainsShort.Share = Constant(env.Years, 0.5)
	err := env.Validate(reg)
	if err == nil {
		t.Fatal("Expected share-sum error, got nil")
	}
	if !errors.IsType(err, errors.TypeShareSum) {
		t.Errorf("Expected TypeShareSum error, got %v", err)
	}
}

func smallRegistry(t *testing.T) *dims.Registry {
	t.Helper()
	reg, err := dims.NewRegistry(
		[]string{"manufacturing", "owner_occupied_housing"},
		[]string{"manufacturing_detailed", "ooh"},
		[]string{"equipment"},
		[]dims.CrosswalkEntry{
			{Detailed: 0, Standard: 0, Weight: 1},
			{Detailed: 1, Standard: 1, Weight: 1},
		})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func validEnvironment(reg *dims.Registry) *Environment {
	years := 2
	env := &Environment{
		FirstYear:             2024,
		Years:                 years,
		Inflation:             Constant(years, 0.02),
		EquityReturn:          Constant(years, 0.07),
		DebtReturn:            Constant(years, 0.04),
		RetainedEarningsShare: Constant(years, 0.4),
		RepurchaseShare:       Constant(years, 0.5),
		CapGainsShort:         CapGainsClass{Share: Constant(years, 0.2), HoldingYears: 0.5},
		CapGainsLong:          CapGainsClass{Share: Constant(years, 0.5), HoldingYears: 8},
		CapGainsDeath:         CapGainsClass{Share: Constant(years, 0.3), HoldingYears: 30},
		DeferredHolding:       17,
		NontaxableHolding:     17,
		InventoryHolding:      0.5,
		EconDepreciation:      NewGrid(reg.DetailedCount(), reg.AssetCount()),
		DebtShares:            NewGrid(reg.IndustryCount(), dims.LegalFormCount),
		FinancialIndustries:   make([]bool, reg.IndustryCount()),
		AggDebt:               BaselineAggDebtShares,
	}
	env.EconDepreciation.Fill(0.1)
	env.DebtShares.Fill(0.3)
	return env
}
