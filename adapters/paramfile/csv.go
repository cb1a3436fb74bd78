package paramfile

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"capwedge/core/params"
	"capwedge/internal/errors"
)

// readCSV reads a whole CSV file. Record lengths are not enforced here;
// each caller validates the shape it expects.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "opening parameter file", err).
			WithContext("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Parsing("reading parameter file", err).
			WithContext("path", path)
	}
	if len(records) == 0 {
		return nil, errors.Input("parameter file is empty").
			WithContext("path", path)
	}
	return records, nil
}

// readLabels reads a single-column label file with a header row.
func readLabels(path string) ([]string, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 1 || rec[0] == "" {
			return nil, errors.Input("label file has an empty row").
				WithContext("path", path)
		}
		labels = append(labels, rec[0])
	}
	return labels, nil
}

// lookup resolves a label against a registry dimension.
type lookup func(label string) (int, bool)

// readMatrix reads a labeled matrix: a header row of column labels and
// one row per row label. Every label must resolve; every cell must be
// numeric. The result grid is shaped rows x cols regardless of file
// ordering.
func readMatrix(path string, rows, cols int, rowIdx, colIdx lookup) (*params.Grid, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	header := records[0]
	if len(header) != cols+1 {
		return nil, errors.Newf(errors.TypeInput,
			"matrix has %d columns, want %d", len(header)-1, cols).
			WithContext("path", path)
	}
	colOf := make([]int, cols)
	for i, label := range header[1:] {
		c, ok := colIdx(label)
		if !ok {
			return nil, errors.NotFound("column label", label).WithContext("path", path)
		}
		colOf[i] = c
	}

	if len(records)-1 != rows {
		return nil, errors.Newf(errors.TypeInput,
			"matrix has %d rows, want %d", len(records)-1, rows).
			WithContext("path", path)
	}

	g := params.NewGrid(rows, cols)
	seen := make([]bool, rows)
	for _, rec := range records[1:] {
		if len(rec) != cols+1 {
			return nil, errors.Newf(errors.TypeInput,
				"matrix row %q has %d cells, want %d", rec[0], len(rec)-1, cols).
				WithContext("path", path)
		}
		r, ok := rowIdx(rec[0])
		if !ok {
			return nil, errors.NotFound("row label", rec[0]).WithContext("path", path)
		}
		if seen[r] {
			return nil, errors.Newf(errors.TypeInput, "matrix row %q is duplicated", rec[0]).
				WithContext("path", path)
		}
		seen[r] = true
		for i, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Parsing("parsing matrix cell", err).
					WithContext("path", path).
					WithContext("row", rec[0])
			}
			g.Set(r, colOf[i], v)
		}
	}
	for r, ok := range seen {
		if !ok {
			return nil, errors.Coverage("matrix", "row "+strconv.Itoa(r)).
				WithContext("path", path)
		}
	}
	return g, nil
}

// seriesFile is a parameter file of rows: parameter name followed by
// either one value (constant across years) or one value per year.
// String-valued rows are collected separately for suffix selectors.
type seriesFile struct {
	series   map[string]params.Series
	suffixes map[string][]string
}

func readSeriesFile(path string, years int) (*seriesFile, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := &seriesFile{
		series:   make(map[string]params.Series),
		suffixes: make(map[string][]string),
	}
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			return nil, errors.Input("parameter row has no values").
				WithContext("path", path)
		}
		name := rec[0]
		vals := rec[1:]
		if len(vals) != 1 && len(vals) != years {
			return nil, errors.Newf(errors.TypeInput,
				"parameter %s has %d values, want 1 or %d", name, len(vals), years).
				WithContext("path", path)
		}

		if _, numErr := strconv.ParseFloat(vals[0], 64); numErr != nil {
			// Suffix selector row.
			suffixes := make([]string, years)
			for y := range suffixes {
				if len(vals) == 1 {
					suffixes[y] = vals[0]
				} else {
					suffixes[y] = vals[y]
				}
			}
			out.suffixes[name] = suffixes
			continue
		}

		s := make(params.Series, years)
		for y := range s {
			cell := vals[0]
			if len(vals) > 1 {
				cell = vals[y]
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Parsing("parsing parameter value", err).
					WithContext("path", path).
					WithContext("parameter", name)
			}
			s[y] = v
		}
		out.series[name] = s
	}
	return out, nil
}

// get returns a named series or a coverage error.
func (f *seriesFile) get(name string) (params.Series, error) {
	s, ok := f.series[name]
	if !ok {
		return nil, errors.Coverage(name, "parameter file")
	}
	return s, nil
}

// scalar returns the first-year value of a named series.
func (f *seriesFile) scalar(name string) (float64, error) {
	s, err := f.get(name)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// suffixRow returns a named suffix selector row or a coverage error.
func (f *seriesFile) suffixRow(name string) ([]string, error) {
	s, ok := f.suffixes[name]
	if !ok {
		return nil, errors.Coverage(name, "parameter file")
	}
	return s, nil
}

// parseFloat parses a numeric cell, tolerating surrounding whitespace.
func parseFloat(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}
