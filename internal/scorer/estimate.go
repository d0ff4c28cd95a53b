package scorer

import (
	"math"

	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
)

// FactsOf flattens a profile into the named facts factors read.
func FactsOf(p model.Profile) model.Facts {
	f := model.Facts{
		model.FactUtilization:      metrics.AggregateUtilization(p.Accounts),
		model.FactPaymentHistory:   p.PaymentHistoryPercent,
		model.FactOldestAccountAge: p.OldestAccountAgeYears,
		model.FactHardInquiries:    float64(p.HardInquiries12Mo),
		model.FactDerogatoryMarks:  float64(p.DerogatoryMarks),
		model.FactNumAccounts:      float64(p.AccountCount()),
		model.FactDebtToIncome:     metrics.DebtToIncome(p.MonthlyDebt, p.MonthlyIncome),
		model.FactBusinessAge:      p.BusinessAgeYears,
	}

	var maxUtil float64
	var reporting int
	for _, a := range p.Accounts {
		if u := metrics.Utilization(a.Balance, a.Limit); u > maxUtil {
			maxUtil = u
		}
		if a.Balance > 0 {
			reporting++
		}
	}
	f[model.FactMaxUtilization] = maxUtil
	f[model.FactAccountsReporting] = float64(reporting)

	if p.HasBaseScore() {
		f[model.FactBaseScore] = *p.BaseScore
	}
	return f
}

// Points maps an input value onto the factor's step function. The result
// is always within [0, MaxPoints].
func Points(f Factor, value float64) float64 {
	pts := f.Floor
	for _, b := range f.Bands {
		if matches(f.Direction, value, b.Threshold) {
			pts = b.Points
			break
		}
	}
	return clamp(pts, 0, f.MaxPoints)
}

func matches(d Direction, value, threshold float64) bool {
	if d == LowerIsBetter {
		return value <= threshold
	}
	return value >= threshold
}

// Evaluate scores facts against every factor of m, preserving factor order.
func Evaluate(facts model.Facts, m Model) ([]model.FactorScore, float64) {
	total := WeightSum(m)
	breakdown := make([]model.FactorScore, 0, len(m.Factors))
	var earned float64
	for _, f := range m.Factors {
		in := facts[f.Input]
		pts := Points(f, in)
		weight := 0.0
		if total > 0 {
			weight = round2(f.MaxPoints / total)
		}
		breakdown = append(breakdown, model.FactorScore{
			Name:         f.Name,
			Label:        f.Label,
			Input:        round2(in),
			Weight:       weight,
			EarnedPoints: pts,
			MaxPoints:    f.MaxPoints,
		})
		earned += pts
	}
	return breakdown, earned
}

// BestFacts returns a copy of facts where every improvable factor below its
// top band is moved to that band's threshold. All other facts are held.
func BestFacts(facts model.Facts, m Model) model.Facts {
	out := make(model.Facts, len(facts))
	for k, v := range facts {
		out[k] = v
	}
	for _, f := range m.Factors {
		if !f.Improvable || len(f.Bands) == 0 {
			continue
		}
		if Points(f, out[f.Input]) < f.Bands[0].Points {
			out[f.Input] = f.Bands[0].Threshold
		}
	}
	return out
}

// Multiplier returns the diminishing-returns multiplier for a base score:
// the first band (highest first) the score is strictly above, else 1.
func Multiplier(baseScore float64, bands []DampeningBand) float64 {
	for _, b := range sortedDampening(bands) {
		if baseScore > b.Above {
			return b.Multiplier
		}
	}
	return 1.0
}

// Estimate runs m over p. The breakdown, health scores and RawImpact are
// always produced; EstimatedScore and PotentialScore are set only when p
// carries a base score and m has a bounded scale.
//
// The estimated score is base + multiplier * (points(p) - points(baseline)),
// where baseline is p.Baseline or p itself.
func Estimate(p model.Profile, m Model) (model.ScoreEstimate, error) {
	if err := model.ValidateProfile(p); err != nil {
		return model.ScoreEstimate{}, err
	}

	facts := FactsOf(p)
	breakdown, total := Evaluate(facts, m)
	_, potential := Evaluate(BestFacts(facts, m), m)
	max := WeightSum(m)

	est := model.ScoreEstimate{
		Model:                m.Name,
		Breakdown:            breakdown,
		TotalPoints:          total,
		MaxPoints:            max,
		HealthScore:          healthScore(total, max),
		PotentialHealthScore: healthScore(potential, max),
		Multiplier:           1,
	}

	baseTotal := total
	if p.Baseline != nil {
		if err := model.ValidateProfile(*p.Baseline); err != nil {
			return model.ScoreEstimate{}, err
		}
		_, baseTotal = Evaluate(FactsOf(*p.Baseline), m)
	}
	est.RawImpact = total - baseTotal

	if !p.HasBaseScore() || m.Scale == nil {
		return est, nil
	}

	base := *p.BaseScore
	mult := Multiplier(base, m.Dampening)
	est.Multiplier = mult

	score := clamp(round2(base+mult*est.RawImpact), m.Scale.Min, m.Scale.Max)
	best := clamp(round2(base+mult*(potential-baseTotal)), m.Scale.Min, m.Scale.Max)
	est.EstimatedScore = &score
	est.PotentialScore = &best
	return est, nil
}

func healthScore(points, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return clamp(round2(100*points/max), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
