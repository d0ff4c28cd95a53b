package model

import (
	"errors"
	"fmt"
)

// ErrNoAccounts is returned when an allocation plan is requested without
// any plannable accounts.
var ErrNoAccounts = errors.New("no accounts: add accounts first")

// InvalidAccountError reports a negative monetary amount.
type InvalidAccountError struct {
	AccountID string
	Field     string
	Value     float64
}

func (e *InvalidAccountError) Error() string {
	if e.AccountID == "" {
		return fmt.Sprintf("invalid %s: %g must be non-negative", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid account %q: %s %g must be non-negative", e.AccountID, e.Field, e.Value)
}

// ValidateAccounts rejects negative limits and balances.
func ValidateAccounts(accounts []Account) error {
	for _, a := range accounts {
		if a.Limit < 0 {
			return &InvalidAccountError{AccountID: a.ID, Field: "limit", Value: a.Limit}
		}
		if a.Balance < 0 {
			return &InvalidAccountError{AccountID: a.ID, Field: "balance", Value: a.Balance}
		}
	}
	return nil
}

// ValidateProfile rejects negative account amounts and negative monthly
// debt or income.
func ValidateProfile(p Profile) error {
	if err := ValidateAccounts(p.Accounts); err != nil {
		return err
	}
	if p.MonthlyDebt < 0 {
		return &InvalidAccountError{Field: "monthly_debt", Value: p.MonthlyDebt}
	}
	if p.MonthlyIncome < 0 {
		return &InvalidAccountError{Field: "monthly_income", Value: p.MonthlyIncome}
	}
	return nil
}

// IsInputError reports whether err is one of the engine's caller-facing
// input errors.
func IsInputError(err error) bool {
	var iae *InvalidAccountError
	return errors.Is(err, ErrNoAccounts) || errors.As(err, &iae)
}
