// Package output renders run results as CSV tables.
// This package produces the machine-readable outputs of a run.
package output

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"capwedge/core/compare"
	"capwedge/core/engine"
	"capwedge/internal/errors"
	"capwedge/internal/logging"

	"go.uber.org/zap"
)

// Writer renders aggregate tables and diffs as CSV.
type Writer struct {
	// Precision is the number of decimal places for rate columns.
	Precision int
}

// NewWriter creates a writer with the given rate precision.
func NewWriter(precision int) *Writer {
	if precision <= 0 {
		precision = 6
	}
	return &Writer{Precision: precision}
}

func (w *Writer) rate(v float64) string {
	return decimal.NewFromFloat(v).Round(int32(w.Precision)).String()
}

// WriteRun writes every aggregate table of a run into dir, one CSV file
// per table, named <policy>_<table>.csv.
func (w *Writer) WriteRun(run *engine.Run, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.TypeInternal, "creating output directory", err)
	}

	names := make([]string, 0, len(run.Tables))
	for name := range run.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, run.Scenario.Name+"_"+name+".csv")
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.TypeInternal, "creating table file", err).
				WithContext("path", path)
		}
		if err := w.RenderTable(f, run, name); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.Wrap(errors.TypeInternal, "closing table file", err)
		}
	}

	logging.Info("run tables written",
		zap.String("policy", run.Scenario.Name),
		zap.String("dir", dir),
		zap.Int("tables", len(names)))
	return nil
}

// RenderTable writes one aggregate table as CSV.
func (w *Writer) RenderTable(out io.Writer, run *engine.Run, name string) error {
	table, ok := run.Tables[name]
	if !ok {
		return errors.NotFound("aggregate table", name)
	}

	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"group", "mean", "stddev", "cv", "mean_abs_diff", "cells"}); err != nil {
		return errors.Wrap(errors.TypeInternal, "writing table header", err)
	}
	for _, g := range table.Groups {
		rec := []string{
			g.Label,
			w.rate(g.Agg.Mean),
			w.rate(g.Agg.StdDev),
			w.rate(g.Agg.CV),
			w.rate(g.Agg.MeanAbsDiff),
			strconv.Itoa(g.Agg.Cells),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(errors.TypeInternal, "writing table row", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiffs writes scenario comparison tables into dir, one CSV file
// per table, named <baseline>_vs_<reform>_<table>.csv.
func (w *Writer) WriteDiffs(diffs map[string]*compare.TableDiff, baseline, reform, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.TypeInternal, "creating output directory", err)
	}

	names := make([]string, 0, len(diffs))
	for name := range diffs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, baseline+"_vs_"+reform+"_"+name+".csv")
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(errors.TypeInternal, "creating diff file", err).
				WithContext("path", path)
		}
		if err := w.RenderDiff(f, diffs[name]); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.Wrap(errors.TypeInternal, "closing diff file", err)
		}
	}
	return nil
}

// RenderDiff writes one comparison table as CSV. Rows with an undefined
// percent change leave the column empty.
func (w *Writer) RenderDiff(out io.Writer, diff *compare.TableDiff) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"group", "baseline", "reform", "delta", "percent", "change"}); err != nil {
		return errors.Wrap(errors.TypeInternal, "writing diff header", err)
	}
	for _, row := range diff.Rows {
		pct := ""
		if row.PercentDefined {
			pct = w.rate(row.Percent)
		}
		rec := []string{
			row.Label,
			w.rate(row.Baseline),
			w.rate(row.Reform),
			w.rate(row.Delta),
			pct,
			row.ChangeType.String(),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(errors.TypeInternal, "writing diff row", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
