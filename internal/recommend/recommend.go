package recommend

import (
	"sort"

	"github.com/sells-group/credit-optimizer/internal/model"
	"github.com/sells-group/credit-optimizer/internal/scorer"
)

// FactsFrom flattens a profile and the report computed for it into facts.
// Report-derived facts are only present when the report carries the
// corresponding section.
func FactsFrom(p model.Profile, r model.Report) model.Facts {
	facts := scorer.FactsOf(p)

	if r.HealthScore != nil {
		facts[model.FactHealthScore] = *r.HealthScore
	}
	if r.EstimatedScore != nil {
		facts[model.FactEstimatedScore] = *r.EstimatedScore
		if p.HasBaseScore() {
			facts[model.FactScoreDelta] = *r.EstimatedScore - *p.BaseScore
		}
	}
	if r.PotentialScore != nil {
		facts[model.FactPotentialScore] = *r.PotentialScore
		if r.EstimatedScore != nil {
			facts[model.FactScoreGain] = *r.PotentialScore - *r.EstimatedScore
		}
	}
	if _, ok := facts[model.FactScoreDelta]; !ok && r.Estimate != nil {
		// Without a bounded score the raw point change stands in.
		facts[model.FactScoreDelta] = r.Estimate.RawImpact
	}

	if r.Plan != nil {
		facts[model.FactPlanPayment] = r.Plan.TotalPayDown
		facts[model.FactPlanUtilization] = r.Plan.ResultingUtilization
	}

	if pm := r.ProjectedMetrics; pm != nil {
		facts[model.FactProjectedUtilization] = pm.AggregateUtilization
		facts[model.FactUtilizationReduction] = r.Metrics.AggregateUtilization - pm.AggregateUtilization
		if d := r.Metrics.TotalBalance - pm.TotalBalance; d > 0 {
			facts[model.FactBalanceReductionTotal] = d
		} else {
			facts[model.FactBalanceReductionTotal] = 0
		}
	}
	return facts
}

// Evaluate emits every matching rule, sorted by ascending priority. Rules
// with equal priority keep their table order.
func Evaluate(facts model.Facts, rs RuleSet) []model.Recommendation {
	out := make([]model.Recommendation, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		if !r.Matches(facts) {
			continue
		}
		out = append(out, model.Recommendation{
			RuleID:   r.ID,
			Priority: r.Priority,
			Text:     Render(r.Message, facts),
			Polarity: r.Polarity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Decide applies a decision table. It returns nil when t is nil.
func Decide(facts model.Facts, t *DecisionTable) *model.Verdict {
	if t == nil {
		return nil
	}
	for _, g := range t.Disqualifiers {
		if g.Holds(facts) {
			return &model.Verdict{Positive: false, Label: t.NegativeLabel, Reason: Render(g.Reason, facts)}
		}
	}
	for _, g := range t.Qualifiers {
		if !g.Holds(facts) {
			return &model.Verdict{Positive: false, Label: t.NegativeLabel, Reason: Render(g.Reason, facts)}
		}
	}
	return &model.Verdict{Positive: true, Label: t.PositiveLabel, Reason: Render(t.PositiveReason, facts)}
}

// Recommend evaluates rs against a profile and its report.
func Recommend(p model.Profile, r model.Report, rs RuleSet) []model.Recommendation {
	return Evaluate(FactsFrom(p, r), rs)
}

// Verdict derives rs's verdict for a profile and its report, or nil when
// rs has no decision table.
func Verdict(p model.Profile, r model.Report, rs RuleSet) *model.Verdict {
	return Decide(FactsFrom(p, r), rs.Verdict)
}
