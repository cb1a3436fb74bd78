// Package compare diffs the aggregate tables of two scenario runs.
// Compares a reform against a baseline, row by row.
package compare

import (
	"math"
	"sort"

	"capwedge/core/aggregate"
	"capwedge/internal/errors"
)

// RowDiff is the change in one aggregate row between two scenarios.
type RowDiff struct {
	// Label identifies the row (registry labels joined over kept axes).
	Label string

	Baseline float64
	Reform   float64
	Delta    float64

	// Percent is Delta relative to |Baseline|. It is only meaningful
	// when PercentDefined; a zero baseline leaves it undefined rather
	// than infinite.
	Percent        float64
	PercentDefined bool

	ChangeType ChangeType
}

// ChangeType indicates the direction of a row's change
type ChangeType int

const (
	ChangeUnchanged ChangeType = iota
	ChangeIncreased
	ChangeDecreased
)

// String returns the change type name
func (c ChangeType) String() string {
	switch c {
	case ChangeUnchanged:
		return "unchanged"
	case ChangeIncreased:
		return "increased"
	case ChangeDecreased:
		return "decreased"
	default:
		return "unknown"
	}
}

// TableDiff is the complete comparison of one aggregate table.
type TableDiff struct {
	Name string

	Rows []RowDiff

	IncreasedCount int
	DecreasedCount int
	UnchangedCount int
}

// Comparer diffs aggregate tables between scenarios.
type Comparer struct {
	// Threshold below which a delta counts as unchanged.
	ChangeThreshold float64
}

// NewComparer creates a comparer.
func NewComparer(changeThreshold float64) *Comparer {
	if changeThreshold <= 0 {
		changeThreshold = 1e-9
	}
	return &Comparer{ChangeThreshold: changeThreshold}
}

// Compare diffs two grouped aggregates by row label, reading the
// weighted mean of each group. The two tables must cover exactly the
// same rows; a mismatch is an input error naming the offending labels.
func (c *Comparer) Compare(name string, baseline, reform *aggregate.Grouped) (*TableDiff, error) {
	base := indexByLabel(baseline)
	ref := indexByLabel(reform)

	for label := range base {
		if _, ok := ref[label]; !ok {
			return nil, errors.Newf(errors.TypeInput,
				"table %s: row %q present in baseline but not in reform", name, label)
		}
	}
	for label := range ref {
		if _, ok := base[label]; !ok {
			return nil, errors.Newf(errors.TypeInput,
				"table %s: row %q present in reform but not in baseline", name, label)
		}
	}

	labels := make([]string, 0, len(base))
	for label := range base {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	diff := &TableDiff{Name: name}
	for _, label := range labels {
		b := base[label]
		r := ref[label]
		row := RowDiff{
			Label:    label,
			Baseline: b,
			Reform:   r,
			Delta:    r - b,
		}
		if b != 0 {
			row.Percent = row.Delta / math.Abs(b)
			row.PercentDefined = true
		}
		switch {
		case math.Abs(row.Delta) <= c.ChangeThreshold:
			row.ChangeType = ChangeUnchanged
			diff.UnchangedCount++
		case row.Delta > 0:
			row.ChangeType = ChangeIncreased
			diff.IncreasedCount++
		default:
			row.ChangeType = ChangeDecreased
			diff.DecreasedCount++
		}
		diff.Rows = append(diff.Rows, row)
	}
	return diff, nil
}

func indexByLabel(g *aggregate.Grouped) map[string]float64 {
	out := make(map[string]float64, len(g.Groups))
	for _, grp := range g.Groups {
		out[grp.Label] = grp.Agg.Mean
	}
	return out
}
