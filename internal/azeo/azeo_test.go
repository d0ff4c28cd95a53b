package azeo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
)

func exampleAccounts() []model.Account {
	return []model.Account{
		{ID: "big", Limit: 10000, Balance: 500},
		{ID: "mid", Limit: 5000, Balance: 0},
		{ID: "small", Limit: 2000, Balance: 1200},
	}
}

func TestPlan_Example(t *testing.T) {
	plan, err := Plan(exampleAccounts(), model.AzeoOptions{}, DefaultDefaults())
	require.NoError(t, err)

	assert.Equal(t, "mid", plan.ReportingAccountID)
	assert.InDelta(t, 100, plan.TargetBalance, 1e-9)
	require.Len(t, plan.Actions, 3)

	assert.Equal(t, model.AccountAction{AccountID: "big", Action: model.ActionPayToZero, Amount: 500}, plan.Actions[0])
	assert.Equal(t, model.AccountAction{AccountID: "mid", Action: model.ActionChargeUp, Amount: 100}, plan.Actions[1])
	assert.Equal(t, model.AccountAction{AccountID: "small", Action: model.ActionPayToZero, Amount: 1200}, plan.Actions[2])

	assert.InDelta(t, 0.588, plan.ResultingUtilization, 0.001)
	assert.InDelta(t, 1700, plan.TotalPayDown, 1e-9)
	assert.InDelta(t, 100, plan.TotalChargeUp, 1e-9)
}

func TestPlan_Empty(t *testing.T) {
	plan, err := Plan(nil, model.AzeoOptions{}, DefaultDefaults())
	assert.ErrorIs(t, err, model.ErrNoAccounts)
	assert.Nil(t, plan)

	plan, err = Plan([]model.Account{{ID: "z", Limit: 0, Balance: 20}}, model.AzeoOptions{}, DefaultDefaults())
	assert.ErrorIs(t, err, model.ErrNoAccounts)
	assert.Nil(t, plan)
}

func TestPlan_InvalidInput(t *testing.T) {
	_, err := Plan([]model.Account{{ID: "a", Limit: -5}}, model.AzeoOptions{}, DefaultDefaults())
	var iae *model.InvalidAccountError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "limit", iae.Field)

	_, err = Plan(exampleAccounts(), model.AzeoOptions{TargetBalance: model.Float(-1)}, DefaultDefaults())
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "target_balance", iae.Field)
}

func TestPlan_ReportingAccountActions(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		kind    model.ActionKind
		amount  float64
	}{
		{"zero balance", 0, model.ActionChargeUp, 50},
		{"below target", 20, model.ActionChargeUp, 30},
		{"above target", 400, model.ActionPayDown, 350},
		{"at target", 50, model.ActionHold, 0},
		{"over limit", 1500, model.ActionPayDown, 1450},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := []model.Account{{ID: "r", Limit: 1000, Balance: tt.balance}}
			plan, err := Plan(accounts, model.AzeoOptions{TargetBalance: model.Float(50)}, DefaultDefaults())
			require.NoError(t, err)
			require.Len(t, plan.Actions, 1)
			assert.Equal(t, tt.kind, plan.Actions[0].Action)
			assert.InDelta(t, tt.amount, plan.Actions[0].Amount, 1e-9)
		})
	}
}

func TestPlan_ExplicitReportingAccount(t *testing.T) {
	plan, err := Plan(exampleAccounts(), model.AzeoOptions{ReportingAccountID: "big", TargetBalance: model.Float(25)}, DefaultDefaults())
	require.NoError(t, err)
	assert.Equal(t, "big", plan.ReportingAccountID)
	assert.Equal(t, model.ActionPayDown, plan.Actions[0].Action)
	assert.InDelta(t, 475, plan.Actions[0].Amount, 1e-9)
	assert.Equal(t, model.ActionKeepZero, plan.Actions[1].Action)
	assert.Zero(t, plan.Actions[1].Amount)
}

func TestPlan_UnknownReportingAccountFallsBack(t *testing.T) {
	plan, err := Plan(exampleAccounts(), model.AzeoOptions{ReportingAccountID: "nope"}, DefaultDefaults())
	require.NoError(t, err)
	assert.Equal(t, "mid", plan.ReportingAccountID)
}

func TestPlan_ZeroLimitExcluded(t *testing.T) {
	accounts := append(exampleAccounts(), model.Account{ID: "closed", Limit: 0, Balance: 80})
	plan, err := Plan(accounts, model.AzeoOptions{ReportingAccountID: "closed"}, DefaultDefaults())
	require.NoError(t, err)
	assert.Equal(t, []string{"closed"}, plan.ExcludedAccountIDs)
	assert.Equal(t, "mid", plan.ReportingAccountID)
	assert.Len(t, plan.Actions, 3)
	assert.InDelta(t, 100, plan.TargetBalance, 1e-9)
}

func TestPlan_DefaultTargetBelowCap(t *testing.T) {
	accounts := []model.Account{{ID: "a", Limit: 3000, Balance: 0}, {ID: "b", Limit: 2000, Balance: 10}}
	plan, err := Plan(accounts, model.AzeoOptions{}, DefaultDefaults())
	require.NoError(t, err)
	assert.InDelta(t, 50, plan.TargetBalance, 1e-9)
	assert.InDelta(t, 1, plan.ResultingUtilization, 1e-9)
}

func TestSelectReporting_TieBreaksByInputOrder(t *testing.T) {
	accounts := []model.Account{
		{ID: "a", Limit: 1000, Balance: 100},
		{ID: "b", Limit: 2000, Balance: 200},
		{ID: "c", Limit: 500, Balance: 50},
	}
	assert.Equal(t, 0, SelectReporting(accounts, ""))
	assert.Equal(t, 2, SelectReporting(accounts, "c"))
	assert.Equal(t, -1, SelectReporting([]model.Account{{ID: "z"}}, ""))
}

func TestPlan_Invariant(t *testing.T) {
	sets := [][]model.Account{
		exampleAccounts(),
		{{ID: "x", Limit: 300, Balance: 450}, {ID: "y", Limit: 800, Balance: 12.34}},
		{{ID: "solo", Limit: 2500, Balance: 2500}},
		{{ID: "p", Limit: 1000}, {ID: "q", Limit: 0, Balance: 5}, {ID: "r", Limit: 750, Balance: 749.99}},
	}
	targets := []*float64{nil, model.Float(0), model.Float(7.5), model.Float(100), model.Float(5000)}

	for _, accounts := range sets {
		for _, target := range targets {
			plan, err := Plan(accounts, model.AzeoOptions{TargetBalance: target}, DefaultDefaults())
			require.NoError(t, err)

			after := Apply(accounts, plan)
			var eligible []model.Account
			atTarget := 0
			for _, a := range after {
				if a.Limit <= 0 {
					continue
				}
				eligible = append(eligible, a)
				if a.ID == plan.ReportingAccountID {
					assert.InDelta(t, plan.TargetBalance, a.Balance, 1e-9)
					atTarget++
				} else {
					assert.Zero(t, a.Balance)
				}
			}
			assert.Equal(t, 1, atTarget)
			assert.InDelta(t, metrics.AggregateUtilization(eligible), plan.ResultingUtilization, 1e-9)
		}
	}
}

func TestPlan_Idempotent(t *testing.T) {
	accounts := exampleAccounts()
	first, err := Plan(accounts, model.AzeoOptions{}, DefaultDefaults())
	require.NoError(t, err)

	opts := model.AzeoOptions{ReportingAccountID: first.ReportingAccountID, TargetBalance: model.Float(first.TargetBalance)}
	second, err := Plan(Apply(accounts, first), opts, DefaultDefaults())
	require.NoError(t, err)

	assert.Equal(t, first.ReportingAccountID, second.ReportingAccountID)
	for _, act := range second.Actions {
		assert.Zero(t, act.Amount, act.AccountID)
	}
	assert.Zero(t, second.TotalPayDown)
	assert.Zero(t, second.TotalChargeUp)
}

func TestPlan_DoesNotMutateInput(t *testing.T) {
	accounts := exampleAccounts()
	plan, err := Plan(accounts, model.AzeoOptions{}, DefaultDefaults())
	require.NoError(t, err)
	_ = Apply(accounts, plan)
	assert.Equal(t, exampleAccounts(), accounts)
}
