// Package emtr - cell result tests
package emtr

import (
	"math"
	"testing"

	"capwedge/core/dims"
	"capwedge/core/returns"
	"capwedge/internal/errors"
)

func testRegistry(t *testing.T) *dims.Registry {
	t.Helper()
	reg, err := dims.NewRegistry(
		[]string{"business", "owner_occupied_housing"},
		[]string{"business_detailed", "ooh_detailed"},
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

// testTables builds a one-year rate table with every before-tax return
// and saver return set to fixed values, then pokes specific cells.
func testTables(reg *dims.Registry, beforeTax, saver float64) *returns.Tables {
	t := &returns.Tables{
		Years:      1,
		Industries: reg.IndustryCount(),
		Assets:     reg.AssetCount(),
	}
	n := dims.LegalFormCount * dims.FinancingCount
	t.Savers = make([]float64, n*dims.AccountCount)
	t.TypicalSavers = make([]float64, n)
	t.RealDiscount = make([]float64, n)
	t.NominalDiscount = make([]float64, n)
	t.BeforeTax = make([]float64, t.Industries*t.Assets*n)
	for i := range t.BeforeTax {
		t.BeforeTax[i] = beforeTax
	}
	for i := range t.Savers {
		t.Savers[i] = saver
	}
	return t
}

// TestComputeRateAndWedge proves the wedge and EMTR definitions
func TestComputeRateAndWedge(t *testing.T) {
	reg := testRegistry(t)
	tables := testTables(reg, 0.08, 0.05)
	rs := Compute(reg, tables)

	off := rs.Space.Offset(0, 0, 0, dims.CCorp, dims.Equity, dims.Taxable)
	if got := rs.Wedge[off]; math.Abs(got-0.03) > 1e-12 {
		t.Errorf("wedge = %g, want 0.03", got)
	}
	if got := rs.Rate[off]; math.Abs(got-0.375) > 1e-12 {
		t.Errorf("rate = %g, want 0.375", got)
	}
	if !rs.Defined(off) {
		t.Error("cell with nonzero before-tax return should be defined")
	}
	if len(rs.Undefined) != 0 {
		t.Errorf("no undefined cells expected, got %d", len(rs.Undefined))
	}
}

// TestComputeZeroBeforeTax proves a zero before-tax return produces a
// diagnostic and an excluded cell, not a crash or an infinity
func TestComputeZeroBeforeTax(t *testing.T) {
	reg := testRegistry(t)
	tables := testTables(reg, 0.08, 0.05)

	// Zero out one business cell.
	zeroOff := tables.Offset(0, 0, dims.CCorp, dims.Debt, 0)
	tables.BeforeTax[zeroOff] = 0

	rs := Compute(reg, tables)

	// Three account categories share the zeroed (industry, asset, form,
	// financing) slot.
	if len(rs.Undefined) != dims.AccountCount {
		t.Fatalf("undefined cells = %d, want %d", len(rs.Undefined), dims.AccountCount)
	}
	for _, u := range rs.Undefined {
		if !errors.IsType(u.Err, errors.TypeUndefinedRate) {
			t.Errorf("expected TypeUndefinedRate, got %v", u.Err)
		}
		off := rs.Space.Offset(u.Cell.Year, u.Cell.Industry, u.Cell.Asset, u.Cell.Form, u.Cell.Fin, u.Cell.Acct)
		if rs.Defined(off) {
			t.Error("undefined cell should not report as defined")
		}
		if !math.IsNaN(rs.Wedge[off]) {
			t.Errorf("undefined cell wedge should be NaN, got %g", rs.Wedge[off])
		}
	}

	// Other cells are untouched.
	okOff := rs.Space.Offset(0, 0, 0, dims.CCorp, dims.Equity, dims.Taxable)
	if !rs.Defined(okOff) {
		t.Error("unrelated cell should stay defined")
	}
}

// TestComputeStructuralNaN proves structurally absent cells carry NaN
// without generating diagnostics
func TestComputeStructuralNaN(t *testing.T) {
	reg := testRegistry(t)
	tables := testTables(reg, 0.08, 0.05)

	// Mark the mismatched OOH pairings absent the way the rate
	// calculator does.
	biz := 0
	ooh := reg.OOHIndustry()
	for fin := dims.Financing(0); fin < dims.FinancingCount; fin++ {
		tables.BeforeTax[tables.Offset(biz, 0, dims.OwnerOccupied, fin, 0)] = math.NaN()
		tables.BeforeTax[tables.Offset(ooh, 0, dims.CCorp, fin, 0)] = math.NaN()
		tables.BeforeTax[tables.Offset(ooh, 0, dims.PassThru, fin, 0)] = math.NaN()
	}

	rs := Compute(reg, tables)
	if len(rs.Undefined) != 0 {
		t.Errorf("structural NaN cells should not be diagnosed, got %d diagnostics", len(rs.Undefined))
	}
	off := rs.Space.Offset(0, biz, 0, dims.OwnerOccupied, dims.Equity, dims.Taxable)
	if rs.Defined(off) {
		t.Error("structurally absent cell should be undefined")
	}
}
