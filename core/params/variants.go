package params

import (
	"fmt"
	"sort"

	"capwedge/internal/errors"
)

// VariantSet holds the alternative matrices for one suffixed parameter
// family. A policy names one variant per year; Resolve materializes the
// chosen variants into a fully year-resolved grid at load time so the
// calculation path never sees a string key.
type VariantSet struct {
	Name       string
	Rows, Cols int
	variants   map[string]*Grid
}

// NewVariantSet creates an empty variant set for a parameter family.
func NewVariantSet(name string, rows, cols int) *VariantSet {
	return &VariantSet{
		Name:     name,
		Rows:     rows,
		Cols:     cols,
		variants: make(map[string]*Grid),
	}
}

// Add registers one variant matrix under a suffix key.
func (v *VariantSet) Add(suffix string, g *Grid) error {
	if g.Rows != v.Rows || g.Cols != v.Cols {
		return errors.Newf(errors.TypeInput,
			"variant %q of %s has shape %dx%d, want %dx%d",
			suffix, v.Name, g.Rows, g.Cols, v.Rows, v.Cols)
	}
	if _, dup := v.variants[suffix]; dup {
		return errors.Newf(errors.TypeInput, "variant %q of %s is duplicated", suffix, v.Name)
	}
	v.variants[suffix] = g
	return nil
}

// Suffixes returns the registered variant keys, sorted.
func (v *VariantSet) Suffixes() []string {
	keys := make([]string, 0, len(v.variants))
	for k := range v.variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve materializes one variant per year into a year grid. A suffix
// with no registered variant is a coverage error naming the family, the
// suffix and the year offset.
func (v *VariantSet) Resolve(suffixes []string) (*YearGrid, error) {
	out := NewYearGrid(v.Rows, v.Cols, len(suffixes))
	for y, suffix := range suffixes {
		g, ok := v.variants[suffix]
		if !ok {
			return nil, errors.Coverage(v.Name,
				fmt.Sprintf("variant %q (year offset %d)", suffix, y))
		}
		if err := out.SetLayer(y, g); err != nil {
			return nil, err
		}
	}
	return out, nil
}
