// Package metrics computes deterministic ratios from raw account data.
// Every degenerate denominator resolves to 0.
package metrics

import "github.com/sells-group/credit-optimizer/internal/model"

// Utilization returns 100*balance/limit, or 0 when limit <= 0. Values
// above 100 are preserved.
func Utilization(balance, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return 100 * balance / limit
}

// AggregateUtilization returns 100*sum(balance)/sum(limit), or 0 when the
// total limit is 0.
func AggregateUtilization(accounts []model.Account) float64 {
	var bal, lim float64
	for _, a := range accounts {
		bal += a.Balance
		lim += a.Limit
	}
	return Utilization(bal, lim)
}

// DebtToIncome returns debt/income as a ratio, or 0 when income is not
// positive.
func DebtToIncome(debt, income float64) float64 {
	if income <= 0 {
		return 0
	}
	return debt / income
}

// Compute derives per-account and aggregate metrics. Negative limits or
// balances are rejected with *model.InvalidAccountError.
func Compute(accounts []model.Account) (model.Metrics, error) {
	if err := model.ValidateAccounts(accounts); err != nil {
		return model.Metrics{}, err
	}

	m := model.Metrics{Accounts: make([]model.AccountUtilization, 0, len(accounts))}
	for _, a := range accounts {
		u := Utilization(a.Balance, a.Limit)
		m.Accounts = append(m.Accounts, model.AccountUtilization{
			AccountID:   a.ID,
			Label:       a.Label,
			Utilization: u,
		})
		m.TotalBalance += a.Balance
		m.TotalLimit += a.Limit
		if u > m.MaxUtilization {
			m.MaxUtilization = u
		}
		if a.Balance > 0 {
			m.AccountsReporting++
		}
	}
	m.AggregateUtilization = Utilization(m.TotalBalance, m.TotalLimit)
	return m, nil
}

// ForProfile computes account metrics plus the profile's debt-to-income.
// Negative monthly debt or income is rejected like a negative balance.
func ForProfile(p model.Profile) (model.Metrics, error) {
	if err := model.ValidateProfile(p); err != nil {
		return model.Metrics{}, err
	}
	m, err := Compute(p.Accounts)
	if err != nil {
		return m, err
	}
	m.DebtToIncome = DebtToIncome(p.MonthlyDebt, p.MonthlyIncome)
	return m, nil
}
