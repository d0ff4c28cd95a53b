package model

// Account is one revolving credit line.
type Account struct {
	ID      string  `json:"id" yaml:"id"`
	Label   string  `json:"label,omitempty" yaml:"label"`
	Limit   float64 `json:"limit" yaml:"limit"`
	Balance float64 `json:"balance" yaml:"balance"`
}

// Profile holds the normalized facts consumed by the score estimator.
// Profiles are treated as immutable; nothing in the engine writes to a
// caller-supplied profile or its accounts.
type Profile struct {
	BaseScore             *float64  `json:"base_score,omitempty"`
	Accounts              []Account `json:"accounts"`
	PaymentHistoryPercent float64   `json:"payment_history_percent"`
	OldestAccountAgeYears float64   `json:"oldest_account_age_years"`
	HardInquiries12Mo     int       `json:"hard_inquiries_12mo"`
	DerogatoryMarks       int       `json:"derogatory_marks"`
	NumAccounts           int       `json:"num_accounts"`

	// DTI inputs. BLoC callers pass business debt service and revenue.
	MonthlyDebt   float64 `json:"monthly_debt,omitempty"`
	MonthlyIncome float64 `json:"monthly_income,omitempty"`

	BusinessAgeYears float64 `json:"business_age_years,omitempty"`

	// Baseline is the state BaseScore was observed under. Nil means the
	// profile itself is the observed state.
	Baseline *Profile `json:"baseline,omitempty"`
}

// HasBaseScore reports whether a usable base score is present.
func (p Profile) HasBaseScore() bool {
	return p.BaseScore != nil && *p.BaseScore > 0
}

// AccountCount returns NumAccounts, falling back to len(Accounts) when unset.
func (p Profile) AccountCount() int {
	if p.NumAccounts > 0 {
		return p.NumAccounts
	}
	return len(p.Accounts)
}

// WithAccounts returns a shallow copy of p carrying a fresh accounts slice.
func (p Profile) WithAccounts(accounts []Account) Profile {
	out := p
	out.Accounts = append([]Account(nil), accounts...)
	return out
}

// CloneAccounts returns a copy of accounts so callers can transform
// balances without touching the original slice.
func CloneAccounts(accounts []Account) []Account {
	if accounts == nil {
		return nil
	}
	return append([]Account(nil), accounts...)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
