package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// WriteText writes a human-readable report.
func WriteText(w io.Writer, r model.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p := func(format string, args ...any) {
		fmt.Fprintf(tw, format+"\n", args...)
	}

	p("Calculator:\t%s", r.Calculator)
	if r.EstimatedScore != nil {
		line := Points(*r.EstimatedScore)
		if r.PotentialScore != nil {
			line += fmt.Sprintf(" (potential %s)", Points(*r.PotentialScore))
		}
		p("Estimated score:\t%s", line)
	}
	if r.HealthScore != nil {
		p("Health score:\t%s / 100", Points(*r.HealthScore))
	}
	if v := r.Verdict; v != nil {
		if v.Reason != "" {
			p("Verdict:\t%s (%s)", v.Label, v.Reason)
		} else {
			p("Verdict:\t%s", v.Label)
		}
	}

	p("")
	p("Metrics")
	writeMetrics(p, r.Metrics)
	if r.ProjectedMetrics != nil {
		p("")
		p("Projected")
		writeMetrics(p, *r.ProjectedMetrics)
	}

	if plan := r.Plan; plan != nil {
		p("")
		p("Plan\treport on %s at %s", plan.ReportingAccountID, Money(plan.TargetBalance))
		for _, a := range plan.Actions {
			name := a.AccountID
			if a.Label != "" {
				name = a.Label
			}
			p("  %s\t%s\t%s", name, actionVerb(a.Action), Money(a.Amount))
		}
		for _, id := range plan.ExcludedAccountIDs {
			p("  %s\texcluded (zero limit)\t", id)
		}
		p("  Result\t%s utilization\t", Percent(plan.ResultingUtilization))
	}

	if len(r.Breakdown) > 0 {
		p("")
		p("Factors")
		for _, f := range r.Breakdown {
			name := f.Label
			if name == "" {
				name = f.Name
			}
			p("  %s\t%s / %s\t", name, Points(f.EarnedPoints), Points(f.MaxPoints))
		}
	}

	if len(r.Recommendations) > 0 {
		p("")
		p("Recommendations")
		for i, rec := range r.Recommendations {
			p("  %d. %s", i+1, rec.Text)
		}
	}

	return eris.Wrap(tw.Flush(), "export: write text")
}

func writeMetrics(p func(string, ...any), m model.Metrics) {
	p("  Total balance\t%s", Money(m.TotalBalance))
	p("  Total limit\t%s", Money(m.TotalLimit))
	p("  Utilization\t%s", Percent(m.AggregateUtilization))
	p("  Highest card\t%s", Percent(m.MaxUtilization))
	p("  Reporting balances\t%d of %d", m.AccountsReporting, len(m.Accounts))
	if m.DebtToIncome > 0 {
		p("  Debt-to-income\t%s", Percent(m.DebtToIncome*100))
	}
}

func actionVerb(k model.ActionKind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}
