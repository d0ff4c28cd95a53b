package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/credit-optimizer/internal/model"
)

const (
	moneyFormat   = "#,##0.00"
	percentFormat = "0.00"
)

// BuildXLSX lays r out as a workbook with one sheet per section.
func BuildXLSX(r model.Report) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, eris.Wrap(err, "export: add summary sheet")
	}
	addStrings(summary, "Field", "Value")
	addStrings(summary, "Calculator", r.Calculator)
	addOptional(summary, "Estimated score", r.EstimatedScore)
	addOptional(summary, "Potential score", r.PotentialScore)
	addOptional(summary, "Health score", r.HealthScore)
	if r.Verdict != nil {
		addStrings(summary, "Verdict", r.Verdict.Label)
		addStrings(summary, "Reason", r.Verdict.Reason)
	}
	addNumber(summary, "Total balance", r.Metrics.TotalBalance, moneyFormat)
	addNumber(summary, "Total limit", r.Metrics.TotalLimit, moneyFormat)
	addNumber(summary, "Utilization %", r.Metrics.AggregateUtilization, percentFormat)
	addNumber(summary, "Highest card %", r.Metrics.MaxUtilization, percentFormat)
	if r.ProjectedMetrics != nil {
		addNumber(summary, "Projected utilization %", r.ProjectedMetrics.AggregateUtilization, percentFormat)
	}

	accounts, err := f.AddSheet("Accounts")
	if err != nil {
		return nil, eris.Wrap(err, "export: add accounts sheet")
	}
	addStrings(accounts, "Account", "Label", "Utilization %")
	for _, a := range r.Metrics.Accounts {
		row := accounts.AddRow()
		row.AddCell().SetString(a.AccountID)
		row.AddCell().SetString(a.Label)
		row.AddCell().SetFloatWithFormat(a.Utilization, percentFormat)
	}

	if len(r.Breakdown) > 0 {
		factors, err := f.AddSheet("Factors")
		if err != nil {
			return nil, eris.Wrap(err, "export: add factors sheet")
		}
		addStrings(factors, "Factor", "Input", "Earned", "Max", "Weight")
		for _, fs := range r.Breakdown {
			row := factors.AddRow()
			row.AddCell().SetString(fs.Name)
			row.AddCell().SetFloat(fs.Input)
			row.AddCell().SetFloat(fs.EarnedPoints)
			row.AddCell().SetFloat(fs.MaxPoints)
			row.AddCell().SetFloat(fs.Weight)
		}
	}

	if r.Plan != nil {
		plan, err := f.AddSheet("Plan")
		if err != nil {
			return nil, eris.Wrap(err, "export: add plan sheet")
		}
		addStrings(plan, "Account", "Label", "Action", "Amount")
		for _, a := range r.Plan.Actions {
			row := plan.AddRow()
			row.AddCell().SetString(a.AccountID)
			row.AddCell().SetString(a.Label)
			row.AddCell().SetString(string(a.Action))
			row.AddCell().SetFloatWithFormat(a.Amount, moneyFormat)
		}
	}

	if len(r.Recommendations) > 0 {
		recs, err := f.AddSheet("Recommendations")
		if err != nil {
			return nil, eris.Wrap(err, "export: add recommendations sheet")
		}
		addStrings(recs, "Priority", "Rule", "Polarity", "Text")
		for _, rec := range r.Recommendations {
			row := recs.AddRow()
			row.AddCell().SetInt(rec.Priority)
			row.AddCell().SetString(rec.RuleID)
			row.AddCell().SetString(string(rec.Polarity))
			row.AddCell().SetString(rec.Text)
		}
	}
	return f, nil
}

// WriteXLSX saves r as a workbook at path.
func WriteXLSX(path string, r model.Report) error {
	f, err := BuildXLSX(r)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addNumber(sheet *xlsx.Sheet, label string, v float64, format string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloatWithFormat(v, format)
}

func addOptional(sheet *xlsx.Sheet, label string, v *float64) {
	if v != nil {
		addNumber(sheet, label, *v, percentFormat)
	}
}
