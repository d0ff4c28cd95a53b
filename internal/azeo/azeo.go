// Package azeo plans "all zero except one" balance allocations: exactly one
// reporting account carries a small target balance and every other
// eligible account reports zero.
package azeo

import (
	"math"

	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
)

// epsilon absorbs floating-point residue when comparing money amounts.
const epsilon = 1e-9

// Defaults control the default target balance: min(TargetCap,
// TargetFraction * total limit).
type Defaults struct {
	TargetCap      float64 `yaml:"target_cap" mapstructure:"target_cap" json:"target_cap"`
	TargetFraction float64 `yaml:"target_fraction" mapstructure:"target_fraction" json:"target_fraction"`
}

// DefaultDefaults returns the 100 / 1% defaults.
func DefaultDefaults() Defaults {
	return Defaults{TargetCap: 100, TargetFraction: 0.01}
}

// DefaultTarget returns min(cap, fraction * totalLimit).
func (d Defaults) DefaultTarget(totalLimit float64) float64 {
	return math.Min(d.TargetCap, d.TargetFraction*totalLimit)
}

// Plan computes an allocation plan. Accounts with a zero limit are excluded
// and listed in ExcludedAccountIDs. An unknown or ineligible
// opts.ReportingAccountID falls back to the default selection.
//
// Errors: model.ErrNoAccounts when accounts is empty or every account has a
// zero limit; *model.InvalidAccountError for negative limits, balances or
// target balance.
func Plan(accounts []model.Account, opts model.AzeoOptions, d Defaults) (*model.AllocationPlan, error) {
	if len(accounts) == 0 {
		return nil, model.ErrNoAccounts
	}
	if err := model.ValidateAccounts(accounts); err != nil {
		return nil, err
	}
	if opts.TargetBalance != nil && *opts.TargetBalance < 0 {
		return nil, &model.InvalidAccountError{Field: "target_balance", Value: *opts.TargetBalance}
	}

	plan := &model.AllocationPlan{}
	var totalLimit float64
	eligible := 0
	for _, a := range accounts {
		if a.Limit <= 0 {
			plan.ExcludedAccountIDs = append(plan.ExcludedAccountIDs, a.ID)
			continue
		}
		totalLimit += a.Limit
		eligible++
	}
	if eligible == 0 {
		return nil, model.ErrNoAccounts
	}

	target := d.DefaultTarget(totalLimit)
	if opts.TargetBalance != nil {
		target = *opts.TargetBalance
	}

	reporting := SelectReporting(accounts, opts.ReportingAccountID)
	plan.ReportingAccountID = accounts[reporting].ID
	plan.TargetBalance = target

	for i, a := range accounts {
		if a.Limit <= 0 {
			continue
		}
		var act model.AccountAction
		if i == reporting {
			act = reportingAction(a.Balance, target)
		} else {
			act = otherAction(a.Balance)
		}
		act.AccountID = a.ID
		act.Label = a.Label
		plan.Actions = append(plan.Actions, act)

		switch act.Action {
		case model.ActionPayDown, model.ActionPayToZero:
			plan.TotalPayDown += act.Amount
		case model.ActionChargeUp:
			plan.TotalChargeUp += act.Amount
		}
	}

	plan.ResultingUtilization = metrics.Utilization(target, totalLimit)
	return plan, nil
}

// SelectReporting returns the index of the reporting account: the
// requested id when it names an eligible account, otherwise the eligible
// account with the lowest utilization, ties broken by input order. It
// returns -1 when no account is eligible.
func SelectReporting(accounts []model.Account, requestedID string) int {
	if requestedID != "" {
		for i, a := range accounts {
			if a.ID == requestedID && a.Limit > 0 {
				return i
			}
		}
	}

	best := -1
	bestUtil := math.Inf(1)
	for i, a := range accounts {
		if a.Limit <= 0 {
			continue
		}
		if u := metrics.Utilization(a.Balance, a.Limit); u < bestUtil-epsilon {
			best, bestUtil = i, u
		}
	}
	return best
}

func reportingAction(balance, target float64) model.AccountAction {
	switch {
	case math.Abs(balance-target) <= epsilon:
		return model.AccountAction{Action: model.ActionHold}
	case balance > target:
		return model.AccountAction{Action: model.ActionPayDown, Amount: balance - target}
	default:
		return model.AccountAction{Action: model.ActionChargeUp, Amount: target - balance}
	}
}

func otherAction(balance float64) model.AccountAction {
	if balance > epsilon {
		return model.AccountAction{Action: model.ActionPayToZero, Amount: balance}
	}
	return model.AccountAction{Action: model.ActionKeepZero}
}

// Apply returns a copy of accounts with the plan's actions applied.
// Accounts without an action are copied unchanged.
func Apply(accounts []model.Account, plan *model.AllocationPlan) []model.Account {
	out := model.CloneAccounts(accounts)
	if plan == nil {
		return out
	}
	byID := make(map[string]model.AccountAction, len(plan.Actions))
	for _, act := range plan.Actions {
		byID[act.AccountID] = act
	}
	for i := range out {
		act, ok := byID[out[i].ID]
		if !ok {
			continue
		}
		switch act.Action {
		case model.ActionPayToZero, model.ActionKeepZero:
			out[i].Balance = 0
		case model.ActionHold, model.ActionPayDown, model.ActionChargeUp:
			out[i].Balance = plan.TargetBalance
		}
	}
	return out
}
