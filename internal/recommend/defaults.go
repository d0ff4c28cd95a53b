package recommend

import "github.com/sells-group/credit-optimizer/internal/model"

// Rule set names shipped by default, one per calculator.
const (
	SetUtilization    = "utilization"
	SetAzeo           = "azeo"
	SetBLoC           = "bloc"
	SetAnalyzer       = "analyzer"
	SetAuthorizedUser = "authorized_user"
)

// Verdict labels.
const (
	LabelRecommended    = "RECOMMENDED"
	LabelNotRecommended = "NOT RECOMMENDED"
	LabelLikely         = "LIKELY TO QUALIFY"
	LabelUnlikely       = "UNLIKELY TO QUALIFY"
)

func when(fact string, op Op, v float64) Condition {
	return Condition{Fact: fact, Op: op, Value: v}
}

func utilizationRules() []Rule {
	return []Rule{
		{
			ID: "utilization_critical", Priority: 1, Polarity: model.Negative,
			When:    []Condition{when(model.FactUtilization, OpGT, 50)},
			Message: "Overall utilization is {utilization}%. Bringing it under 30% is the most urgent step.",
		},
		{
			ID: "utilization_high", Priority: 2, Polarity: model.Negative,
			When:    []Condition{when(model.FactUtilization, OpGT, 30), when(model.FactUtilization, OpLTE, 50)},
			Message: "Overall utilization is {utilization}%, above the 30% mark. Paying down to under 10% has the largest effect.",
		},
		{
			ID: "utilization_fair", Priority: 4, Polarity: model.Neutral,
			When:    []Condition{when(model.FactUtilization, OpGT, 10), when(model.FactUtilization, OpLTE, 30)},
			Message: "Overall utilization is {utilization}%. Getting under 10% moves you into the top band.",
		},
		{
			ID: "single_card_high", Priority: 3, Polarity: model.Negative,
			When:    []Condition{when(model.FactMaxUtilization, OpGT, 50)},
			Message: "One card is at {max_account_utilization}% of its limit. A maxed-out card hurts even when the total is low.",
		},
		{
			ID: "utilization_excellent", Priority: 9, Polarity: model.Positive,
			When:    []Condition{when(model.FactUtilization, OpLTE, 10), when(model.FactAccountsReporting, OpGTE, 1)},
			Message: "Overall utilization of {utilization}% is in the excellent band.",
		},
		{
			ID: "all_zero", Priority: 6, Polarity: model.Neutral,
			When:    []Condition{when(model.FactAccountsReporting, OpEQ, 0), when(model.FactNumAccounts, OpGTE, 1)},
			Message: "Every account reports a zero balance. Letting one small balance report usually scores slightly higher.",
		},
	}
}

// DefaultRuleSets returns the built-in rule tables keyed by name.
func DefaultRuleSets() map[string]RuleSet {
	util := RuleSet{
		Name: SetUtilization,
		Rules: append(utilizationRules(),
			Rule{
				ID: "target_paydown", Priority: 5, Polarity: model.Neutral,
				When:    []Condition{when(model.FactBalanceReductionTotal, OpGT, 0)},
				Message: "Paying down {balance_reduction_total} in total reaches {projected_utilization}% utilization.",
			},
			Rule{
				ID: "target_gain", Priority: 7, Polarity: model.Positive,
				When:    []Condition{when(model.FactScoreDelta, OpGTE, 1)},
				Message: "Reaching the target is estimated to add {score_delta} points.",
			},
		),
	}

	azeo := RuleSet{
		Name: SetAzeo,
		Rules: append(utilizationRules(),
			Rule{
				ID: "azeo_paydown", Priority: 1, Polarity: model.Neutral,
				When:    []Condition{when(model.FactPlanPayment, OpGT, 0)},
				Message: "Pay {plan_payment_total} in total before the statement dates so only one account reports a balance.",
			},
			Rule{
				ID: "azeo_many_reporting", Priority: 3, Polarity: model.Negative,
				When:    []Condition{when(model.FactAccountsReporting, OpGTE, 3)},
				Message: "{accounts_reporting} accounts currently report balances.",
			},
			Rule{
				ID: "azeo_result", Priority: 5, Polarity: model.Positive,
				When:    []Condition{when(model.FactPlanUtilization, OpLTE, 10)},
				Message: "After the plan, overall utilization reports at {plan_resulting_utilization}%.",
			},
			Rule{
				ID: "azeo_gain", Priority: 6, Polarity: model.Positive,
				When:    []Condition{when(model.FactScoreDelta, OpGTE, 1)},
				Message: "The plan is estimated to add {score_delta} points.",
			},
		),
	}

	bloc := RuleSet{
		Name: SetBLoC,
		Rules: []Rule{
			{
				ID: "bloc_derogatory", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactDerogatoryMarks, OpGT, 0)},
				Message: "{derogatory_marks} derogatory marks on file. Most lenders decline until these are resolved.",
			},
			{
				ID: "bloc_score_low", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactBaseScore, OpLT, 680)},
				Message: "A personal score of {base_score} is below the 680 most lenders look for.",
			},
			{
				ID: "bloc_dti_high", Priority: 2, Polarity: model.Negative,
				When:    []Condition{when(model.FactDebtToIncome, OpGT, 0.43)},
				Message: "Debt-to-income of {debt_to_income} is above 0.43. Reduce debt service or grow revenue first.",
			},
			{
				ID: "bloc_dti_fair", Priority: 4, Polarity: model.Neutral,
				When:    []Condition{when(model.FactDebtToIncome, OpGT, 0.36), when(model.FactDebtToIncome, OpLTE, 0.43)},
				Message: "Debt-to-income of {debt_to_income} is acceptable but under 0.36 earns better terms.",
			},
			{
				ID: "bloc_young_business", Priority: 3, Polarity: model.Negative,
				When:    []Condition{when(model.FactBusinessAge, OpLT, 2)},
				Message: "{business_age_years} years in business. Most lenders want at least 2.",
			},
			{
				ID: "bloc_utilization", Priority: 3, Polarity: model.Negative,
				When:    []Condition{when(model.FactUtilization, OpGT, 30)},
				Message: "Revolving utilization of {utilization}% signals reliance on credit. Pay it under 30% before applying.",
			},
			{
				ID: "bloc_strong", Priority: 9, Polarity: model.Positive,
				When:    []Condition{when(model.FactHealthScore, OpGTE, 75)},
				Message: "Profile health of {health_score}/100 is strong for a business line of credit.",
			},
		},
		Verdict: &DecisionTable{
			Disqualifiers: []Gate{
				{Condition: when(model.FactDerogatoryMarks, OpGT, 0), Reason: "Derogatory marks on file"},
				{Condition: when(model.FactBaseScore, OpLT, 640), Reason: "Personal score below 640"},
				{Condition: when(model.FactDebtToIncome, OpGT, 0.5), Reason: "Debt-to-income above 0.50"},
			},
			Qualifiers: []Gate{
				{Condition: when(model.FactHealthScore, OpGTE, 60), Reason: "Profile health of {health_score} is under 60"},
			},
			PositiveLabel:  LabelLikely,
			NegativeLabel:  LabelUnlikely,
			PositiveReason: "Profile health of {health_score}/100 meets typical lender thresholds",
		},
	}

	analyzer := RuleSet{
		Name: SetAnalyzer,
		Rules: append(utilizationRules(),
			Rule{
				ID: "payment_history", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactPaymentHistory, OpLT, 100)},
				Message: "On-time payment history is {payment_history_percent}%. Set up autopay so no payment is missed.",
			},
			Rule{
				ID: "derogatory_marks", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactDerogatoryMarks, OpGT, 0)},
				Message: "{derogatory_marks} derogatory marks reported. Dispute inaccuracies and let the rest age.",
			},
			Rule{
				ID: "inquiries", Priority: 4, Polarity: model.Negative,
				When:    []Condition{when(model.FactHardInquiries, OpGT, 2)},
				Message: "{hard_inquiries_12mo} hard inquiries in the past year. Pause new applications.",
			},
			Rule{
				ID: "thin_history", Priority: 5, Polarity: model.Neutral,
				When:    []Condition{when(model.FactOldestAccountAge, OpLT, 2)},
				Message: "Your oldest account is {oldest_account_age_years} years old. Keep it open to build history.",
			},
			Rule{
				ID: "thin_mix", Priority: 5, Polarity: model.Neutral,
				When:    []Condition{when(model.FactNumAccounts, OpLT, 3)},
				Message: "Only {num_accounts} accounts on file. A broader mix helps over time.",
			},
			Rule{
				ID: "potential_gain", Priority: 7, Polarity: model.Positive,
				When:    []Condition{when(model.FactScoreGain, OpGTE, 10)},
				Message: "Addressing the items above could raise your score by about {score_gain} points.",
			},
			Rule{
				ID: "health_excellent", Priority: 9, Polarity: model.Positive,
				When:    []Condition{when(model.FactHealthScore, OpGTE, 85)},
				Message: "Profile health of {health_score}/100 is excellent.",
			},
		),
	}

	au := RuleSet{
		Name: SetAuthorizedUser,
		Rules: []Rule{
			{
				ID: "au_high_utilization", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactAUUtilization, OpGT, 50)},
				Message: "The primary card is at {au_utilization}% utilization. Its balance would count against you.",
			},
			{
				ID: "au_delinquency", Priority: 1, Polarity: model.Negative,
				When:    []Condition{when(model.FactAURecentDelinquency, OpEQ, 1)},
				Message: "The primary card has a recent late payment that would appear on your report.",
			},
			{
				ID: "au_young", Priority: 2, Polarity: model.Negative,
				When:    []Condition{when(model.FactAUAgeYears, OpLT, 2)},
				Message: "The primary card is only {au_age_years} years old and adds little history.",
			},
			{
				ID: "au_gain", Priority: 4, Polarity: model.Positive,
				When:    []Condition{when(model.FactScoreDelta, OpGTE, 5)},
				Message: "Being added is estimated to change your score by {score_delta} points.",
			},
			{
				ID: "au_small_gain", Priority: 6, Polarity: model.Neutral,
				When:    []Condition{when(model.FactScoreDelta, OpLT, 5)},
				Message: "The estimated impact is small ({score_delta} points).",
			},
			{
				ID: "au_aged", Priority: 5, Polarity: model.Positive,
				When:    []Condition{when(model.FactAUAgeYears, OpGTE, 10)},
				Message: "A {au_age_years}-year-old card can lengthen your credit history.",
			},
		},
		Verdict: &DecisionTable{
			Disqualifiers: []Gate{
				{Condition: when(model.FactAUUtilization, OpGT, 50), Reason: "Primary card utilization is above 50%"},
				{Condition: when(model.FactAURecentDelinquency, OpEQ, 1), Reason: "Primary card has a recent delinquency"},
				{Condition: when(model.FactAUAgeYears, OpLT, 2), Reason: "Primary card is less than 2 years old"},
			},
			Qualifiers: []Gate{
				{Condition: when(model.FactScoreDelta, OpGTE, 5), Reason: "Estimated impact of {score_delta} points is under 5"},
			},
			PositiveLabel:  LabelRecommended,
			NegativeLabel:  LabelNotRecommended,
			PositiveReason: "Estimated impact of {score_delta} points",
		},
	}

	return map[string]RuleSet{
		util.Name:     util,
		azeo.Name:     azeo,
		bloc.Name:     bloc,
		analyzer.Name: analyzer,
		au.Name:       au,
	}
}
