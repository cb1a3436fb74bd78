package dims

// Space describes the shape of the full cell space. Calculated quantities
// live in flat float64 arenas indexed by the offsets computed here; no
// string keys or map lookups appear on the calculation path.
type Space struct {
	Years      int
	Industries int
	Assets     int
}

// Cells returns the total number of cells in the space.
func (s Space) Cells() int {
	return s.Years * s.Industries * s.Assets * LegalFormCount * FinancingCount * AccountCount
}

// Offset returns the flat index for a cell. Dimension order, outermost
// first: year, industry, asset, legal form, financing, account.
func (s Space) Offset(year, ind, asset int, lf LegalForm, fin Financing, acct Account) int {
	o := year
	o = o*s.Industries + ind
	o = o*s.Assets + asset
	o = o*LegalFormCount + int(lf)
	o = o*FinancingCount + int(fin)
	o = o*AccountCount + int(acct)
	return o
}

// Cell is the coordinate tuple of one point in the space.
type Cell struct {
	Year     int
	Industry int
	Asset    int
	Form     LegalForm
	Fin      Financing
	Acct     Account
}

// Coords inverts Offset.
func (s Space) Coords(offset int) Cell {
	var c Cell
	c.Acct = Account(offset % AccountCount)
	offset /= AccountCount
	c.Fin = Financing(offset % FinancingCount)
	offset /= FinancingCount
	c.Form = LegalForm(offset % LegalFormCount)
	offset /= LegalFormCount
	c.Asset = offset % s.Assets
	offset /= s.Assets
	c.Industry = offset % s.Industries
	offset /= s.Industries
	c.Year = offset
	return c
}

// Axis names one dimension of the space, used to pick which dimensions
// an aggregation keeps.
type Axis int

const (
	AxisYear Axis = iota
	AxisIndustry
	AxisAsset
	AxisLegalForm
	AxisFinancing
	AxisAccount
)

func (a Axis) String() string {
	switch a {
	case AxisYear:
		return "year"
	case AxisIndustry:
		return "industry"
	case AxisAsset:
		return "asset"
	case AxisLegalForm:
		return "legal_form"
	case AxisFinancing:
		return "financing"
	case AxisAccount:
		return "account"
	}
	return "axis"
}

// AxisSize returns the extent of an axis within the space.
func (s Space) AxisSize(a Axis) int {
	switch a {
	case AxisYear:
		return s.Years
	case AxisIndustry:
		return s.Industries
	case AxisAsset:
		return s.Assets
	case AxisLegalForm:
		return LegalFormCount
	case AxisFinancing:
		return FinancingCount
	case AxisAccount:
		return AccountCount
	}
	return 0
}

// AxisValue returns a cell's coordinate along an axis.
func (c Cell) AxisValue(a Axis) int {
	switch a {
	case AxisYear:
		return c.Year
	case AxisIndustry:
		return c.Industry
	case AxisAsset:
		return c.Asset
	case AxisLegalForm:
		return int(c.Form)
	case AxisFinancing:
		return int(c.Fin)
	case AxisAccount:
		return int(c.Acct)
	}
	return 0
}
