// Package dims defines the dimension registry for the model.
// Every calculated quantity is indexed over some subset of six dimensions:
// industry, detailed industry, asset type, legal form, financing source,
// and account category, plus the policy year.
package dims

import (
	"fmt"

	"capwedge/internal/errors"
)

// Canonical sizes of the data-driven dimensions in the standard data set.
// The registry itself accepts any sizes; file adapters check these.
const (
	StdIndustryCount      = 61
	DetailedIndustryCount = 88
	AssetTypeCount        = 83

	// FirstYear is the first policy year of the standard data set.
	FirstYear = 2024

	// YearCount is the number of consecutive policy years.
	YearCount = 11
)

// ShareTol is the tolerance for share-sum invariants on constructed weights.
const ShareTol = 1e-6

// AccountShareTol is the looser tolerance for account category shares,
// which are read from hand-maintained files.
const AccountShareTol = 1e-3

// LegalForm is the legal form of organization holding an asset.
type LegalForm int

const (
	CCorp LegalForm = iota
	PassThru
	OwnerOccupied
)

// LegalFormCount is the number of legal forms.
const LegalFormCount = 3

func (l LegalForm) String() string {
	switch l {
	case CCorp:
		return "c_corp"
	case PassThru:
		return "pass_thru"
	case OwnerOccupied:
		return "ooh"
	}
	return fmt.Sprintf("LegalForm(%d)", int(l))
}

// Financing is the marginal financing source for an investment.
type Financing int

const (
	Debt Financing = iota
	Equity
)

// FinancingCount is the number of financing sources.
const FinancingCount = 2

func (f Financing) String() string {
	switch f {
	case Debt:
		return "debt"
	case Equity:
		return "equity"
	}
	return fmt.Sprintf("Financing(%d)", int(f))
}

// Account is the tax treatment of the savings account holding the claim.
type Account int

const (
	Taxable Account = iota
	Deferred
	Nontaxable
)

// AccountCount is the number of account categories.
const AccountCount = 3

func (a Account) String() string {
	switch a {
	case Taxable:
		return "taxable"
	case Deferred:
		return "deferred"
	case Nontaxable:
		return "nontaxable"
	}
	return fmt.Sprintf("Account(%d)", int(a))
}

// Perspective selects how rates of return are equalized across cells.
type Perspective string

const (
	// Comprehensive uses each cell's own market returns.
	Comprehensive Perspective = "comprehensive"

	// Uniformity equalizes rates of return across legal forms and
	// account categories before computing wedges.
	Uniformity Perspective = "uniformity"
)

// Valid reports whether p is a known perspective.
func (p Perspective) Valid() bool {
	return p == Comprehensive || p == Uniformity
}

// CrosswalkEntry maps one detailed industry onto a standard industry
// with a weight. Weights incoming to each standard industry sum to 1.
type CrosswalkEntry struct {
	Detailed int
	Standard int
	Weight   float64
}

// Registry holds the labels of the data-driven dimensions and the
// detailed-to-standard industry crosswalk. The owner-occupied housing
// industry is always the last standard industry.
type Registry struct {
	industries []string
	detailed   []string
	assets     []string

	indIndex map[string]int
	detIndex map[string]int
	astIndex map[string]int

	crosswalk []CrosswalkEntry
}

// NewRegistry validates labels and crosswalk and builds a registry.
func NewRegistry(industries, detailed, assets []string, crosswalk []CrosswalkEntry) (*Registry, error) {
	r := &Registry{
		industries: industries,
		detailed:   detailed,
		assets:     assets,
		crosswalk:  crosswalk,
	}

	var err error
	if r.indIndex, err = indexLabels("industry", industries); err != nil {
		return nil, err
	}
	if r.detIndex, err = indexLabels("detailed industry", detailed); err != nil {
		return nil, err
	}
	if r.astIndex, err = indexLabels("asset type", assets); err != nil {
		return nil, err
	}

	if err := r.validateCrosswalk(); err != nil {
		return nil, err
	}
	return r, nil
}

func indexLabels(dim string, labels []string) (map[string]int, error) {
	if len(labels) == 0 {
		return nil, errors.Newf(errors.TypeInput, "%s labels are empty", dim)
	}
	idx := make(map[string]int, len(labels))
	for i, label := range labels {
		if label == "" {
			return nil, errors.Newf(errors.TypeInput, "%s label %d is empty", dim, i)
		}
		if _, dup := idx[label]; dup {
			return nil, errors.Newf(errors.TypeInput, "%s label %q is duplicated", dim, label)
		}
		idx[label] = i
	}
	return idx, nil
}

func (r *Registry) validateCrosswalk() error {
	sums := make([]float64, len(r.industries))
	seen := make([]bool, len(r.detailed))
	for _, e := range r.crosswalk {
		if e.Detailed < 0 || e.Detailed >= len(r.detailed) {
			return errors.Newf(errors.TypeInput, "crosswalk detailed industry index %d out of range", e.Detailed)
		}
		if e.Standard < 0 || e.Standard >= len(r.industries) {
			return errors.Newf(errors.TypeInput, "crosswalk standard industry index %d out of range", e.Standard)
		}
		if e.Weight < 0 {
			return errors.Newf(errors.TypeInput, "crosswalk weight %g for detailed industry %q is negative",
				e.Weight, r.detailed[e.Detailed])
		}
		sums[e.Standard] += e.Weight
		seen[e.Detailed] = true
	}
	for i, ok := range seen {
		if !ok {
			return errors.Coverage("industry_crosswalk", fmt.Sprintf("detailed industry %q", r.detailed[i]))
		}
	}
	// OOH maps onto itself outside the crosswalk file.
	for i, sum := range sums[:len(sums)-1] {
		if sum < 1-ShareTol || sum > 1+ShareTol {
			return errors.ShareSum(fmt.Sprintf("crosswalk weights into industry %q", r.industries[i]), sum, ShareTol)
		}
	}
	return nil
}

// Industries returns the standard industry labels, OOH last.
func (r *Registry) Industries() []string { return r.industries }

// Detailed returns the detailed industry labels.
func (r *Registry) Detailed() []string { return r.detailed }

// Assets returns the asset type labels.
func (r *Registry) Assets() []string { return r.assets }

// IndustryCount returns the number of standard industries.
func (r *Registry) IndustryCount() int { return len(r.industries) }

// DetailedCount returns the number of detailed industries.
func (r *Registry) DetailedCount() int { return len(r.detailed) }

// AssetCount returns the number of asset types.
func (r *Registry) AssetCount() int { return len(r.assets) }

// OOHIndustry returns the index of the owner-occupied housing industry.
func (r *Registry) OOHIndustry() int { return len(r.industries) - 1 }

// Industry looks up a standard industry by label.
func (r *Registry) Industry(label string) (int, bool) {
	i, ok := r.indIndex[label]
	return i, ok
}

// DetailedIndustry looks up a detailed industry by label.
func (r *Registry) DetailedIndustry(label string) (int, bool) {
	i, ok := r.detIndex[label]
	return i, ok
}

// Asset looks up an asset type by label.
func (r *Registry) Asset(label string) (int, bool) {
	i, ok := r.astIndex[label]
	return i, ok
}

// Crosswalk returns the detailed-to-standard industry crosswalk entries.
func (r *Registry) Crosswalk() []CrosswalkEntry { return r.crosswalk }

// CollapseDetailed maps per-detailed-industry values onto standard
// industries using the crosswalk weights.
func (r *Registry) CollapseDetailed(vals []float64) ([]float64, error) {
	if len(vals) != len(r.detailed) {
		return nil, errors.Newf(errors.TypeInternal,
			"collapse input has %d values, want %d detailed industries", len(vals), len(r.detailed))
	}
	out := make([]float64, len(r.industries))
	for _, e := range r.crosswalk {
		out[e.Standard] += e.Weight * vals[e.Detailed]
	}
	return out, nil
}

// Space describes the full cell space for a registry and year range.
func (r *Registry) Space() Space {
	return Space{
		Years:      YearCount,
		Industries: len(r.industries),
		Assets:     len(r.assets),
	}
}
