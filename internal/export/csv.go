package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// csvHeader is the long-format layout: one value per row.
var csvHeader = []string{"section", "item", "field", "value"}

// WriteCSV writes r in long format (section, item, field, value).
func WriteCSV(w io.Writer, r model.Report) error {
	cw := csv.NewWriter(w)
	for _, rec := range records(r) {
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func records(r model.Report) [][]string {
	out := [][]string{csvHeader}
	add := func(section, item, field, value string) {
		out = append(out, []string{section, item, field, value})
	}

	add("summary", "", "calculator", r.Calculator)
	if r.EstimatedScore != nil {
		add("summary", "", "estimated_score", Amount(*r.EstimatedScore))
	}
	if r.PotentialScore != nil {
		add("summary", "", "potential_score", Amount(*r.PotentialScore))
	}
	if r.HealthScore != nil {
		add("summary", "", "health_score", Amount(*r.HealthScore))
	}
	if r.Verdict != nil {
		add("summary", "", "verdict", r.Verdict.Label)
		add("summary", "", "verdict_reason", r.Verdict.Reason)
	}

	addMetrics := func(section string, m model.Metrics) {
		add(section, "", "total_balance", Amount(m.TotalBalance))
		add(section, "", "total_limit", Amount(m.TotalLimit))
		add(section, "", "aggregate_utilization", Amount(m.AggregateUtilization))
		add(section, "", "max_utilization", Amount(m.MaxUtilization))
		add(section, "", "accounts_reporting", strconv.Itoa(m.AccountsReporting))
		add(section, "", "debt_to_income", decimalString(m.DebtToIncome))
		for _, a := range m.Accounts {
			add(section, a.AccountID, "utilization", Amount(a.Utilization))
		}
	}
	addMetrics("metrics", r.Metrics)
	if r.ProjectedMetrics != nil {
		addMetrics("projected", *r.ProjectedMetrics)
	}

	for _, f := range r.Breakdown {
		add("factor", f.Name, "input", decimalString(f.Input))
		add("factor", f.Name, "earned_points", Points(f.EarnedPoints))
		add("factor", f.Name, "max_points", Points(f.MaxPoints))
	}

	if p := r.Plan; p != nil {
		add("plan", "", "reporting_account_id", p.ReportingAccountID)
		add("plan", "", "target_balance", Amount(p.TargetBalance))
		add("plan", "", "resulting_utilization", Amount(p.ResultingUtilization))
		add("plan", "", "total_pay_down", Amount(p.TotalPayDown))
		add("plan", "", "total_charge_up", Amount(p.TotalChargeUp))
		for _, a := range p.Actions {
			add("plan", a.AccountID, string(a.Action), Amount(a.Amount))
		}
		for _, id := range p.ExcludedAccountIDs {
			add("plan", id, "excluded", "zero limit")
		}
	}

	for _, rec := range r.Recommendations {
		add("recommendation", rec.RuleID, strconv.Itoa(rec.Priority), rec.Text)
	}
	return out
}

func decimalString(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
