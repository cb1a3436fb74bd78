// Package engine orchestrates scenario runs: load, validate, calculate,
// aggregate. CLI is a thin wrapper around this engine.
package engine

import (
	"context"

	"capwedge/core/aggregate"
	"capwedge/core/compare"
	"capwedge/core/dims"
	"capwedge/core/emtr"
	"capwedge/core/params"
	"capwedge/core/returns"
	"capwedge/core/weights"
	"capwedge/internal/errors"
	"capwedge/internal/logging"

	"go.uber.org/zap"
)

// Scenario names one policy run.
type Scenario struct {
	Name        string           `yaml:"name"`
	Perspective dims.Perspective `yaml:"perspective"`
}

// Loader supplies the engine with parameters. Implementations live in
// adapters; the engine never touches files itself.
type Loader interface {
	// Registry returns the validated dimension registry.
	Registry(ctx context.Context) (*dims.Registry, error)

	// Environment returns the economic environment parameters.
	Environment(ctx context.Context) (*params.Environment, error)

	// WeightData returns capital stocks and legal form shares.
	WeightData(ctx context.Context) (*weights.Data, error)

	// Policy resolves one scenario's policy parameters, suffixes
	// materialized and year-resolved.
	Policy(ctx context.Context, sc Scenario) (*params.Policy, error)

	// Scenarios lists the scenarios configured to run.
	Scenarios(ctx context.Context) ([]Scenario, error)
}

// Run is the complete output of one scenario.
type Run struct {
	Scenario Scenario

	Results *emtr.ResultSet
	Weights *weights.Set

	// Tables are the standard aggregate tables, keyed by table name.
	Tables map[string]*aggregate.Grouped
}

// Engine is the primary API for EMTR calculation.
type Engine struct {
	loader Loader

	reg   *dims.Registry
	env   *params.Environment
	wdata *weights.Data
}

// New creates an engine around a loader.
func New(loader Loader) *Engine {
	return &Engine{loader: loader}
}

// Init loads and validates the scenario-independent inputs.
func (e *Engine) Init(ctx context.Context) error {
	reg, err := e.loader.Registry(ctx)
	if err != nil {
		return err
	}
	env, err := e.loader.Environment(ctx)
	if err != nil {
		return err
	}
	if err := env.Validate(reg); err != nil {
		return err
	}
	wdata, err := e.loader.WeightData(ctx)
	if err != nil {
		return err
	}
	if err := wdata.Validate(reg); err != nil {
		return err
	}

	e.reg, e.env, e.wdata = reg, env, wdata
	logging.Info("environment loaded",
		zap.Int("industries", reg.IndustryCount()),
		zap.Int("detailed_industries", reg.DetailedCount()),
		zap.Int("asset_types", reg.AssetCount()))
	return nil
}

// Registry exposes the loaded registry to output formatting.
func (e *Engine) Registry() *dims.Registry { return e.reg }

// Run executes one scenario end to end.
func (e *Engine) Run(ctx context.Context, sc Scenario) (*Run, error) {
	if e.reg == nil {
		return nil, errors.New(errors.TypeInternal, "engine not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "run cancelled", err)
	}

	logging.Info("running scenario",
		zap.String("policy", sc.Name),
		zap.String("perspective", string(sc.Perspective)))

	pol, err := e.loader.Policy(ctx, sc)
	if err != nil {
		return nil, err
	}
	if err := pol.Validate(e.reg); err != nil {
		return nil, err
	}

	wset, err := weights.Build(e.reg, e.env, pol, e.wdata)
	if err != nil {
		return nil, err
	}

	tables := returns.New(e.reg, e.env, pol).Calc()
	results := emtr.Compute(e.reg, tables)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "run cancelled", err)
	}

	aggTables, err := e.standardTables(results, wset)
	if err != nil {
		return nil, err
	}

	logging.Info("scenario finished",
		zap.String("policy", sc.Name),
		zap.Int("tables", len(aggTables)),
		zap.Int("undefined_cells", len(results.Undefined)))

	return &Run{
		Scenario: sc,
		Results:  results,
		Weights:  wset,
		Tables:   aggTables,
	}, nil
}

// RunAll executes every configured scenario in order.
func (e *Engine) RunAll(ctx context.Context) ([]*Run, error) {
	scenarios, err := e.loader.Scenarios(ctx)
	if err != nil {
		return nil, err
	}
	runs := make([]*Run, 0, len(scenarios))
	for _, sc := range scenarios {
		run, err := e.Run(ctx, sc)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInternal, err, "scenario %s failed", sc.Name)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Compare runs two scenarios and diffs their aggregate tables.
func (e *Engine) Compare(ctx context.Context, baseline, reform Scenario) (map[string]*compare.TableDiff, error) {
	baseRun, err := e.Run(ctx, baseline)
	if err != nil {
		return nil, err
	}
	refRun, err := e.Run(ctx, reform)
	if err != nil {
		return nil, err
	}

	comparer := compare.NewComparer(0)
	diffs := make(map[string]*compare.TableDiff, len(baseRun.Tables))
	for name, baseTable := range baseRun.Tables {
		refTable, ok := refRun.Tables[name]
		if !ok {
			return nil, errors.Newf(errors.TypeInternal, "reform run is missing table %s", name)
		}
		diff, err := comparer.Compare(name, baseTable, refTable)
		if err != nil {
			return nil, err
		}
		diffs[name] = diff
	}
	return diffs, nil
}

// standardTables builds the report table set: EMTRs and tax wedges by
// year overall and split along each reporting dimension, for the
// business sector and for the economy-wide total.
func (e *Engine) standardTables(rs *emtr.ResultSet, w *weights.Set) (map[string]*aggregate.Grouped, error) {
	type tableDef struct {
		name    string
		values  []float64
		include aggregate.Filter
		keep    []dims.Axis
	}
	defs := []tableDef{
		{"emtr_total_by_year", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear}},
		{"emtr_business_by_year", rs.Rate, aggregate.BusinessOnly, []dims.Axis{dims.AxisYear}},
		{"emtr_by_industry", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear, dims.AxisIndustry}},
		{"emtr_by_asset", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear, dims.AxisAsset}},
		{"emtr_by_legal_form", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear, dims.AxisLegalForm}},
		{"emtr_by_financing", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear, dims.AxisFinancing}},
		{"emtr_by_account", rs.Rate, aggregate.All, []dims.Axis{dims.AxisYear, dims.AxisAccount}},
		{"wedge_total_by_year", rs.Wedge, aggregate.All, []dims.Axis{dims.AxisYear}},
		{"wedge_business_by_year", rs.Wedge, aggregate.BusinessOnly, []dims.Axis{dims.AxisYear}},
		{"before_tax_return_by_year", rs.BeforeTax, aggregate.All, []dims.Axis{dims.AxisYear}},
	}

	out := make(map[string]*aggregate.Grouped, len(defs))
	for _, s := range defs {
		g, err := aggregate.Collapse(e.reg, s.values, w, s.include, s.keep...)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeInternal, err, "aggregating table %s", s.name)
		}
		out[s.name] = g
	}
	return out, nil
}
