package model

import "time"

// Fact names shared by the score estimator and the recommendation rules.
const (
	FactUtilization           = "utilization"
	FactMaxUtilization        = "max_account_utilization"
	FactPaymentHistory        = "payment_history_percent"
	FactOldestAccountAge      = "oldest_account_age_years"
	FactHardInquiries         = "hard_inquiries_12mo"
	FactDerogatoryMarks       = "derogatory_marks"
	FactNumAccounts           = "num_accounts"
	FactAccountsReporting     = "accounts_reporting"
	FactDebtToIncome          = "debt_to_income"
	FactBusinessAge           = "business_age_years"
	FactBaseScore             = "base_score"
	FactHealthScore           = "health_score"
	FactEstimatedScore        = "estimated_score"
	FactPotentialScore        = "potential_score"
	FactScoreGain             = "score_gain"
	FactScoreDelta            = "score_delta"
	FactPlanPayment           = "plan_payment_total"
	FactPlanUtilization       = "plan_resulting_utilization"
	FactAUUtilization         = "au_utilization"
	FactAURecentDelinquency   = "au_recent_delinquency"
	FactAUAgeYears            = "au_age_years"
	FactProjectedUtilization  = "projected_utilization"
	FactUtilizationReduction  = "utilization_reduction"
	FactBalanceReductionTotal = "balance_reduction_total"
)

// Facts is a flat name to value view over a profile and its report.
type Facts map[string]float64

// AccountUtilization is the utilization of one account, in percent.
type AccountUtilization struct {
	AccountID   string  `json:"account_id"`
	Label       string  `json:"label,omitempty"`
	Utilization float64 `json:"utilization"`
}

// Metrics holds the deterministic ratios derived from raw account data.
type Metrics struct {
	Accounts             []AccountUtilization `json:"accounts"`
	TotalBalance         float64              `json:"total_balance"`
	TotalLimit           float64              `json:"total_limit"`
	AggregateUtilization float64              `json:"aggregate_utilization"`
	MaxUtilization       float64              `json:"max_utilization"`
	AccountsReporting    int                  `json:"accounts_reporting"`
	DebtToIncome         float64              `json:"debt_to_income"`
}

// FactorScore is one entry of a factor breakdown.
type FactorScore struct {
	Name         string  `json:"name"`
	Label        string  `json:"label,omitempty"`
	Input        float64 `json:"input"`
	Weight       float64 `json:"weight"`
	EarnedPoints float64 `json:"earned_points"`
	MaxPoints    float64 `json:"max_points"`
}

// ScoreEstimate is the output of the factor-weighted estimator.
type ScoreEstimate struct {
	Model                string        `json:"model"`
	Breakdown            []FactorScore `json:"breakdown"`
	TotalPoints          float64       `json:"total_points"`
	MaxPoints            float64       `json:"max_points"`
	HealthScore          float64       `json:"health_score"`
	PotentialHealthScore float64       `json:"potential_health_score"`
	RawImpact            float64       `json:"raw_impact"`
	Multiplier           float64       `json:"multiplier"`
	EstimatedScore       *float64      `json:"estimated_score,omitempty"`
	PotentialScore       *float64      `json:"potential_score,omitempty"`
}

// ActionKind is the balance movement required on one account.
type ActionKind string

const (
	ActionPayDown   ActionKind = "pay_down"
	ActionChargeUp  ActionKind = "charge_up"
	ActionPayToZero ActionKind = "pay_to_zero"
	ActionKeepZero  ActionKind = "keep_zero"
	ActionHold      ActionKind = "hold" // reporting account already at target
)

// AccountAction is one step of an allocation plan.
type AccountAction struct {
	AccountID string     `json:"account_id"`
	Label     string     `json:"label,omitempty"`
	Action    ActionKind `json:"action"`
	Amount    float64    `json:"amount"`
}

// AllocationPlan is an AZEO plan: one reporting account carries the target
// balance and every other eligible account reports zero.
type AllocationPlan struct {
	ReportingAccountID   string          `json:"reporting_account_id"`
	TargetBalance        float64         `json:"target_balance"`
	Actions              []AccountAction `json:"actions"`
	ExcludedAccountIDs   []string        `json:"excluded_account_ids,omitempty"`
	ResultingUtilization float64         `json:"resulting_utilization"`
	TotalPayDown         float64         `json:"total_pay_down"`
	TotalChargeUp        float64         `json:"total_charge_up"`
}

// Polarity classifies a recommendation.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

// Recommendation is one ranked, human-readable action item. Lower priority
// values are more urgent.
type Recommendation struct {
	RuleID   string   `json:"rule_id,omitempty"`
	Priority int      `json:"priority"`
	Text     string   `json:"text"`
	Polarity Polarity `json:"polarity"`
}

// Verdict is a calculator-level favorable/unfavorable decision.
type Verdict struct {
	Positive bool   `json:"positive"`
	Label    string `json:"label"`
	Reason   string `json:"reason,omitempty"`
}

// Report is the top-level result of one computation.
type Report struct {
	Calculator       string           `json:"calculator"`
	Metrics          Metrics          `json:"metrics"`
	ProjectedMetrics *Metrics         `json:"projected_metrics,omitempty"`
	Estimate         *ScoreEstimate   `json:"estimate,omitempty"`
	Breakdown        []FactorScore    `json:"breakdown,omitempty"`
	Plan             *AllocationPlan  `json:"plan,omitempty"`
	Recommendations  []Recommendation `json:"recommendations"`
	Verdict          *Verdict         `json:"verdict,omitempty"`
	EstimatedScore   *float64         `json:"estimated_score,omitempty"`
	PotentialScore   *float64         `json:"potential_score,omitempty"`
	HealthScore      *float64         `json:"health_score,omitempty"`
}

// AzeoOptions are the caller's optional AZEO choices.
type AzeoOptions struct {
	ReportingAccountID string   `json:"reporting_account_id,omitempty"`
	TargetBalance      *float64 `json:"target_balance,omitempty"`
}

// AuthorizedUserCard describes the card a profile would be added to.
type AuthorizedUserCard struct {
	Limit             float64 `json:"limit"`
	Balance           float64 `json:"balance"`
	AgeYears          float64 `json:"age_years"`
	RecentDelinquency bool    `json:"recent_delinquency"`
}

// Request is a complete engine invocation.
type Request struct {
	Calculator        string              `json:"calculator"`
	Profile           Profile             `json:"profile"`
	Azeo              *AzeoOptions        `json:"azeo,omitempty"`
	TargetUtilization *float64            `json:"target_utilization,omitempty"`
	AuthorizedUser    *AuthorizedUserCard `json:"authorized_user,omitempty"`
}

// Scenario is a persisted request and the report it produced.
type Scenario struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Calculator string    `json:"calculator"`
	Request    Request   `json:"request"`
	Report     Report    `json:"report"`
	CreatedAt  time.Time `json:"created_at"`
}
