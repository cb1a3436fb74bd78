// Package paramfile loads model parameters from the CSV and YAML data
// tree. It is the file-system implementation of engine.Loader; all
// input validation errors are typed and carry file context.
package paramfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"capwedge/core/dims"
	"capwedge/core/engine"
	"capwedge/core/params"
	"capwedge/core/weights"
	"capwedge/internal/config"
	"capwedge/internal/errors"
)

// Adapter reads parameters from a conventional data tree:
//
//	<dir>/environment_parameters/  labels, crosswalk, environment grids
//	<dir>/policy_parameters/       policy files and suffix variant dirs
//	<dir>/policies.yml             scenario list
type Adapter struct {
	envDir       string
	polDir       string
	scenarioFile string
	years        int

	reg *dims.Registry
}

// New creates an adapter over the configured data tree.
func New(cfg *config.DataConfig) *Adapter {
	return &Adapter{
		envDir:       filepath.Join(cfg.Dir, cfg.EnvironmentDir),
		polDir:       filepath.Join(cfg.Dir, cfg.PolicyDir),
		scenarioFile: filepath.Join(cfg.Dir, cfg.ScenarioFile),
		years:        dims.YearCount,
	}
}

var legalFormIndex = map[string]int{
	"c_corp":    int(dims.CCorp),
	"pass_thru": int(dims.PassThru),
	"ooh":       int(dims.OwnerOccupied),
}

// Registry loads and caches the dimension registry.
func (a *Adapter) Registry(ctx context.Context) (*dims.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "load cancelled", err)
	}
	if a.reg != nil {
		return a.reg, nil
	}

	industries, err := readLabels(filepath.Join(a.envDir, "industry_labels.csv"))
	if err != nil {
		return nil, err
	}
	detailed, err := readLabels(filepath.Join(a.envDir, "detailed_industry_labels.csv"))
	if err != nil {
		return nil, err
	}
	assets, err := readLabels(filepath.Join(a.envDir, "asset_type_labels.csv"))
	if err != nil {
		return nil, err
	}
	crosswalk, err := a.readCrosswalk(industries, detailed)
	if err != nil {
		return nil, err
	}

	reg, err := dims.NewRegistry(industries, detailed, assets, crosswalk)
	if err != nil {
		return nil, err
	}
	a.reg = reg
	return reg, nil
}

func (a *Adapter) readCrosswalk(industries, detailed []string) ([]dims.CrosswalkEntry, error) {
	path := filepath.Join(a.envDir, "industry_crosswalk.csv")
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	indIdx := make(map[string]int, len(industries))
	for i, l := range industries {
		indIdx[l] = i
	}
	detIdx := make(map[string]int, len(detailed))
	for i, l := range detailed {
		detIdx[l] = i
	}

	entries := make([]dims.CrosswalkEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, errors.Input("crosswalk row must be detailed,industry,weight").
				WithContext("path", path)
		}
		det, ok := detIdx[rec[0]]
		if !ok {
			return nil, errors.NotFound("detailed industry", rec[0]).WithContext("path", path)
		}
		std, ok := indIdx[rec[1]]
		if !ok {
			return nil, errors.NotFound("industry", rec[1]).WithContext("path", path)
		}
		w, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, errors.Parsing("parsing crosswalk weight", err).WithContext("path", path)
		}
		entries = append(entries, dims.CrosswalkEntry{Detailed: det, Standard: std, Weight: w})
	}
	return entries, nil
}

// Environment loads the economic environment parameters.
func (a *Adapter) Environment(ctx context.Context) (*params.Environment, error) {
	reg, err := a.Registry(ctx)
	if err != nil {
		return nil, err
	}

	sf, err := readSeriesFile(filepath.Join(a.envDir, "environment_parameters.csv"), a.years)
	if err != nil {
		return nil, err
	}

	env := &params.Environment{
		FirstYear: dims.FirstYear,
		Years:     a.years,
	}

	for name, dst := range map[string]*params.Series{
		"inflation_rate":          &env.Inflation,
		"equity_return":           &env.EquityReturn,
		"debt_return":             &env.DebtReturn,
		"retained_earnings_share": &env.RetainedEarningsShare,
		"repurchase_share":        &env.RepurchaseShare,
		"cap_gains_share_short":   &env.CapGainsShort.Share,
		"cap_gains_share_long":    &env.CapGainsLong.Share,
		"cap_gains_share_death":   &env.CapGainsDeath.Share,
	} {
		if *dst, err = sf.get(name); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*float64{
		"cap_gains_holding_short":   &env.CapGainsShort.HoldingYears,
		"cap_gains_holding_long":    &env.CapGainsLong.HoldingYears,
		"cap_gains_holding_death":   &env.CapGainsDeath.HoldingYears,
		"deferred_holding":          &env.DeferredHolding,
		"nontaxable_holding":        &env.NontaxableHolding,
		"inventory_holding":         &env.InventoryHolding,
		"agg_debt_financial":        &env.AggDebt.Financial,
		"agg_debt_nonfin_c_corp":    &env.AggDebt.NonfinCCorp,
		"agg_debt_nonfin_pass_thru": &env.AggDebt.NonfinPassThru,
		"agg_debt_ooh":              &env.AggDebt.OOH,
	} {
		if *dst, err = sf.scalar(name); err != nil {
			return nil, err
		}
	}

	env.EconDepreciation, err = readMatrix(
		filepath.Join(a.envDir, "econ_depreciation.csv"),
		reg.DetailedCount(), reg.AssetCount(),
		reg.DetailedIndustry, reg.Asset)
	if err != nil {
		return nil, err
	}

	env.DebtShares, err = readMatrix(
		filepath.Join(a.envDir, "debt_shares.csv"),
		reg.IndustryCount(), dims.LegalFormCount,
		reg.Industry, func(label string) (int, bool) {
			i, ok := legalFormIndex[label]
			return i, ok
		})
	if err != nil {
		return nil, err
	}

	env.FinancialIndustries, err = a.readFinancialFlags(reg)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// readFinancialFlags reads the list of financial-sector industries and
// turns it into per-industry membership flags.
func (a *Adapter) readFinancialFlags(reg *dims.Registry) ([]bool, error) {
	labels, err := readLabels(filepath.Join(a.envDir, "financial_industries.csv"))
	if err != nil {
		return nil, err
	}
	flags := make([]bool, reg.IndustryCount())
	for _, label := range labels {
		i, ok := reg.Industry(label)
		if !ok {
			return nil, errors.NotFound("industry", label).
				WithContext("file", "financial_industries.csv")
		}
		flags[i] = true
	}
	return flags, nil
}

// WeightData loads capital stocks and legal form shares.
func (a *Adapter) WeightData(ctx context.Context) (*weights.Data, error) {
	reg, err := a.Registry(ctx)
	if err != nil {
		return nil, err
	}

	stocks, err := a.readStockMatrix(filepath.Join(a.envDir, "capital_stocks.csv"), reg)
	if err != nil {
		return nil, err
	}
	ccorp, err := readMatrix(filepath.Join(a.envDir, "c_corp_asset_shares.csv"),
		reg.IndustryCount(), reg.AssetCount(), reg.Industry, reg.Asset)
	if err != nil {
		return nil, err
	}
	passThru, err := readMatrix(filepath.Join(a.envDir, "pass_thru_asset_shares.csv"),
		reg.IndustryCount(), reg.AssetCount(), reg.Industry, reg.Asset)
	if err != nil {
		return nil, err
	}

	return &weights.Data{
		Stocks:         stocks,
		CCorpShares:    ccorp,
		PassThruShares: passThru,
	}, nil
}

// readStockMatrix reads a dollar matrix, keeping values decimal.
func (a *Adapter) readStockMatrix(path string, reg *dims.Registry) (*weights.StockGrid, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records)-1 != reg.IndustryCount() || len(records[0])-1 != reg.AssetCount() {
		return nil, errors.Newf(errors.TypeInput,
			"stock matrix is %dx%d, want %dx%d",
			len(records)-1, len(records[0])-1, reg.IndustryCount(), reg.AssetCount()).
			WithContext("path", path)
	}

	colOf := make([]int, reg.AssetCount())
	for i, label := range records[0][1:] {
		c, ok := reg.Asset(label)
		if !ok {
			return nil, errors.NotFound("asset type", label).WithContext("path", path)
		}
		colOf[i] = c
	}

	g := weights.NewStockGrid(reg.IndustryCount(), reg.AssetCount())
	for _, rec := range records[1:] {
		r, ok := reg.Industry(rec[0])
		if !ok {
			return nil, errors.NotFound("industry", rec[0]).WithContext("path", path)
		}
		for i, cell := range rec[1:] {
			v, err := decimal.NewFromString(strings.TrimSpace(cell))
			if err != nil {
				return nil, errors.Parsing("parsing capital stock", err).
					WithContext("path", path).
					WithContext("row", rec[0])
			}
			g.Set(r, colOf[i], v)
		}
	}
	return g, nil
}

// Scenarios reads the YAML scenario list.
func (a *Adapter) Scenarios(ctx context.Context) ([]engine.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "load cancelled", err)
	}

	raw, err := os.ReadFile(a.scenarioFile)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "reading scenario file", err).
			WithContext("path", a.scenarioFile)
	}
	var doc struct {
		Scenarios []engine.Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Parsing("parsing scenario file", err).
			WithContext("path", a.scenarioFile)
	}
	if len(doc.Scenarios) == 0 {
		return nil, errors.Input("scenario file lists no scenarios").
			WithContext("path", a.scenarioFile)
	}
	for _, sc := range doc.Scenarios {
		if !sc.Perspective.Valid() {
			return nil, errors.Newf(errors.TypeConfig,
				"scenario %s has unknown perspective %q", sc.Name, sc.Perspective)
		}
	}
	return doc.Scenarios, nil
}
