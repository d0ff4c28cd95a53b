// Package engine composes the metrics, scorer, azeo and recommend packages
// into calculators. An Engine holds only immutable tables and is safe for
// concurrent use; every call is a pure function of its inputs.
package engine

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/azeo"
	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/recommend"
	"github.com/sells-group/credit-optimizer/internal/scorer"
)

// ErrBadRequest marks requests naming an unknown calculator, model or rule
// set, or missing a calculator's required input.
var ErrBadRequest = eris.New("engine: bad request")

// Options are the empirical constants applied on top of the tables.
type Options struct {
	Azeo azeo.Defaults

	// Scale and Dampening, when set, replace those of every model that
	// has a bounded scale.
	Scale     *scorer.Scale
	Dampening []scorer.DampeningBand

	// TargetUtilization is the utilization tracker's default goal, in
	// percent.
	TargetUtilization float64
}

// DefaultOptions returns the stock constants.
func DefaultOptions() Options {
	return Options{
		Azeo:              azeo.DefaultDefaults(),
		TargetUtilization: 10,
	}
}

// Engine evaluates calculators over immutable tables.
type Engine struct {
	tables Tables
	opts   Options
	hash   string
}

// New validates t and returns an Engine. Options override model scales and
// dampening before validation.
func New(t Tables, opts Options) (*Engine, error) {
	models := make(map[string]scorer.Model, len(t.Models))
	for name, m := range t.Models {
		if m.Scale != nil {
			if opts.Scale != nil {
				s := *opts.Scale
				m.Scale = &s
			}
			if opts.Dampening != nil {
				m.Dampening = append([]scorer.DampeningBand(nil), opts.Dampening...)
			}
		}
		models[name] = m
	}
	t.Models = models

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if opts.Azeo.TargetCap < 0 || opts.Azeo.TargetFraction < 0 {
		return nil, eris.New("engine: azeo defaults must be non-negative")
	}
	if opts.TargetUtilization < 0 {
		return nil, eris.New("engine: target utilization must be non-negative")
	}

	hash, err := scorer.ConfigHash(struct {
		Tables  Tables
		Options Options
	}{t, opts})
	if err != nil {
		return nil, err
	}

	return &Engine{tables: t, opts: opts, hash: hash}, nil
}

// Default returns an Engine over the built-in tables.
func Default() *Engine {
	e, err := New(DefaultTables(), DefaultOptions())
	if err != nil {
		panic(err)
	}
	return e
}

// Hash identifies the tables and options this engine was built from.
func (e *Engine) Hash() string { return e.hash }

// Calculators lists configured calculator names in sorted order.
func (e *Engine) Calculators() []string {
	return sortedKeys(e.tables.Calculators)
}

// Model returns the named factor model.
func (e *Engine) Model(name string) (scorer.Model, bool) {
	m, ok := e.tables.Models[name]
	return m, ok
}

// RuleSet returns the named rule set.
func (e *Engine) RuleSet(name string) (recommend.RuleSet, bool) {
	rs, ok := e.tables.RuleSets[name]
	return rs, ok
}

// ComputeMetrics derives ratios from raw account data.
func (e *Engine) ComputeMetrics(accounts []model.Account) (model.Metrics, error) {
	return metrics.Compute(accounts)
}

// EstimateScore runs the named factor model over p.
func (e *Engine) EstimateScore(p model.Profile, modelName string) (model.ScoreEstimate, error) {
	m, ok := e.tables.Models[modelName]
	if !ok {
		return model.ScoreEstimate{}, eris.Wrapf(ErrBadRequest, "unknown model %q", modelName)
	}
	return scorer.Estimate(p, m)
}

// PlanAzeo computes an allocation plan with the engine's AZEO defaults.
func (e *Engine) PlanAzeo(accounts []model.Account, opts model.AzeoOptions) (*model.AllocationPlan, error) {
	return azeo.Plan(accounts, opts, e.opts.Azeo)
}

// Recommend evaluates the named rule set against a profile and report.
func (e *Engine) Recommend(p model.Profile, r model.Report, ruleSet string) ([]model.Recommendation, error) {
	rs, ok := e.tables.RuleSets[ruleSet]
	if !ok {
		return nil, eris.Wrapf(ErrBadRequest, "unknown rule set %q", ruleSet)
	}
	return recommend.Recommend(p, r, rs), nil
}

// Run evaluates one calculator request into a fresh Report.
func (e *Engine) Run(req model.Request) (model.Report, error) {
	calc, ok := e.tables.Calculators[req.Calculator]
	if !ok {
		return model.Report{}, eris.Wrapf(ErrBadRequest, "unknown calculator %q (have %v)", req.Calculator, e.Calculators())
	}

	m, err := metrics.ForProfile(req.Profile)
	if err != nil {
		return model.Report{}, err
	}
	report := model.Report{Calculator: calc.Name, Metrics: m}

	projected, extra, err := scenarios[calc.Scenario](e, req, &report)
	if err != nil {
		return model.Report{}, err
	}

	est, err := scorer.Estimate(projected, e.tables.Models[calc.Model])
	if err != nil {
		return model.Report{}, err
	}
	report.Estimate = &est
	report.Breakdown = est.Breakdown
	report.HealthScore = &est.HealthScore
	report.EstimatedScore = est.EstimatedScore
	report.PotentialScore = est.PotentialScore

	facts := recommend.FactsFrom(req.Profile, report)
	for k, v := range extra {
		facts[k] = v
	}
	rs := e.tables.RuleSets[calc.RuleSet]
	report.Recommendations = recommend.Evaluate(facts, rs)
	report.Verdict = recommend.Decide(facts, rs.Verdict)
	return report, nil
}
