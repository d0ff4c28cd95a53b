package engine

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/azeo"
	"github.com/sells-group/credit-optimizer/internal/metrics"
	"github.com/sells-group/credit-optimizer/internal/model"
)

// Scenario names. A scenario turns the request's profile into the profile
// the factor model is evaluated under.
const (
	ScenarioCurrent        = "current"
	ScenarioRescale        = "rescale"
	ScenarioAzeo           = "azeo"
	ScenarioAuthorizedUser = "authorized_user"
)

// AuthorizedUserAccountID identifies the added card in projected metrics.
const AuthorizedUserAccountID = "authorized-user"

// scenarioFunc returns the projected profile plus any calculator-specific
// facts. It may fill plan and projected-metrics sections of r.
type scenarioFunc func(e *Engine, req model.Request, r *model.Report) (model.Profile, model.Facts, error)

var scenarios = map[string]scenarioFunc{
	ScenarioCurrent:        currentScenario,
	ScenarioRescale:        rescaleScenario,
	ScenarioAzeo:           azeoScenario,
	ScenarioAuthorizedUser: authorizedUserScenario,
}

// baselineOf returns the state p's base score was observed under.
func baselineOf(p model.Profile) *model.Profile {
	if p.Baseline != nil {
		return p.Baseline
	}
	b := p
	b.Accounts = model.CloneAccounts(p.Accounts)
	return &b
}

func project(p model.Profile, accounts []model.Account, r *model.Report) (model.Profile, error) {
	out := p.WithAccounts(accounts)
	out.Baseline = baselineOf(p)
	pm, err := metrics.Compute(out.Accounts)
	if err != nil {
		return model.Profile{}, err
	}
	r.ProjectedMetrics = &pm
	return out, nil
}

func currentScenario(_ *Engine, req model.Request, _ *model.Report) (model.Profile, model.Facts, error) {
	return req.Profile, nil, nil
}

// rescaleScenario scales every balance down proportionally until aggregate
// utilization equals the target. Profiles already at or under the target
// are left as they are.
func rescaleScenario(e *Engine, req model.Request, r *model.Report) (model.Profile, model.Facts, error) {
	target := e.opts.TargetUtilization
	if req.TargetUtilization != nil {
		target = *req.TargetUtilization
	}
	if target < 0 {
		return model.Profile{}, nil, &model.InvalidAccountError{Field: "target_utilization", Value: target}
	}

	accounts := model.CloneAccounts(req.Profile.Accounts)
	current := metrics.AggregateUtilization(accounts)
	if current > target {
		factor := target / current
		for i := range accounts {
			accounts[i].Balance = math.Round(accounts[i].Balance*factor*100) / 100
		}
	}

	p, err := project(req.Profile, accounts, r)
	return p, nil, err
}

func azeoScenario(e *Engine, req model.Request, r *model.Report) (model.Profile, model.Facts, error) {
	var opts model.AzeoOptions
	if req.Azeo != nil {
		opts = *req.Azeo
	}
	plan, err := azeo.Plan(req.Profile.Accounts, opts, e.opts.Azeo)
	if err != nil {
		return model.Profile{}, nil, err
	}
	r.Plan = plan

	p, err := project(req.Profile, azeo.Apply(req.Profile.Accounts, plan), r)
	return p, nil, err
}

func authorizedUserScenario(_ *Engine, req model.Request, r *model.Report) (model.Profile, model.Facts, error) {
	card := req.AuthorizedUser
	if card == nil {
		return model.Profile{}, nil, eris.Wrap(ErrBadRequest, "authorized_user calculator requires an authorized_user card")
	}
	au := model.Account{
		ID:      AuthorizedUserAccountID,
		Label:   "Authorized user card",
		Limit:   card.Limit,
		Balance: card.Balance,
	}
	if err := model.ValidateAccounts([]model.Account{au}); err != nil {
		return model.Profile{}, nil, err
	}
	if card.AgeYears < 0 {
		return model.Profile{}, nil, &model.InvalidAccountError{AccountID: au.ID, Field: "age_years", Value: card.AgeYears}
	}

	accounts := append(model.CloneAccounts(req.Profile.Accounts), au)
	p, err := project(req.Profile, accounts, r)
	if err != nil {
		return model.Profile{}, nil, err
	}
	p.NumAccounts = req.Profile.AccountCount() + 1
	// Authorized-user tradelines report with the primary card's history.
	p.OldestAccountAgeYears = math.Max(p.OldestAccountAgeYears, card.AgeYears)

	delinquent := 0.0
	if card.RecentDelinquency {
		delinquent = 1
	}
	facts := model.Facts{
		model.FactAUUtilization:       metrics.Utilization(card.Balance, card.Limit),
		model.FactAURecentDelinquency: delinquent,
		model.FactAUAgeYears:          card.AgeYears,
	}
	return p, facts, nil
}
