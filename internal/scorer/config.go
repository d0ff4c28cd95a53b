// Package scorer implements the factor-weighted score estimator. Factor
// models are plain data: each factor maps one fact onto a monotonic step
// function, so a new calculator is a new Model rather than new code.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// Direction says which end of a factor's input is favorable.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// Band is one step of a factor's step function. For HigherIsBetter the
// band matches when input >= Threshold, for LowerIsBetter when
// input <= Threshold. Bands are listed best first.
type Band struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Points    float64 `yaml:"points" json:"points"`
}

// Factor is one named, weighted component of a model.
type Factor struct {
	Name       string    `yaml:"name" json:"name"`
	Label      string    `yaml:"label" json:"label"`
	Input      string    `yaml:"input" json:"input"`
	Direction  Direction `yaml:"direction" json:"direction"`
	Bands      []Band    `yaml:"bands" json:"bands"`
	Floor      float64   `yaml:"floor" json:"floor"` // points when no band matches
	MaxPoints  float64   `yaml:"max_points" json:"max_points"`
	Improvable bool      `yaml:"improvable" json:"improvable"`
}

// Scale bounds an estimated score, e.g. 300-850.
type Scale struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// DampeningBand applies Multiplier to score deltas when the base score is
// strictly above Above.
type DampeningBand struct {
	Above      float64 `yaml:"above" json:"above"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Model is a named set of factors plus the optional bounded score scale
// and diminishing-returns bands.
type Model struct {
	Name      string          `yaml:"name" json:"name"`
	Factors   []Factor        `yaml:"factors" json:"factors"`
	Scale     *Scale          `yaml:"scale" json:"scale,omitempty"`
	Dampening []DampeningBand `yaml:"dampening" json:"dampening,omitempty"`
}

// Model names shipped by default.
const (
	ModelAnalyzer       = "analyzer"
	ModelUtilization    = "utilization"
	ModelAuthorizedUser = "authorized_user"
	ModelBLoC           = "bloc"
)

// DefaultScale returns the 300-850 consumer score range.
func DefaultScale() *Scale {
	return &Scale{Min: 300, Max: 850}
}

// DefaultDampening returns the 700/650 diminishing-returns bands.
func DefaultDampening() []DampeningBand {
	return []DampeningBand{
		{Above: 700, Multiplier: 0.7},
		{Above: 650, Multiplier: 0.85},
	}
}

func paymentHistoryFactor() Factor {
	return Factor{
		Name: "payment_history", Label: "Payment history", Input: model.FactPaymentHistory,
		Direction: HigherIsBetter, MaxPoints: 35, Improvable: true,
		Bands: []Band{{100, 35}, {98, 30}, {95, 22}, {90, 12}},
	}
}

func utilizationFactor() Factor {
	return Factor{
		Name: "utilization", Label: "Credit utilization", Input: model.FactUtilization,
		Direction: LowerIsBetter, MaxPoints: 30, Improvable: true,
		Bands: []Band{{10, 30}, {30, 15}},
	}
}

func creditAgeFactor() Factor {
	return Factor{
		Name: "credit_age", Label: "Length of credit history", Input: model.FactOldestAccountAge,
		Direction: HigherIsBetter, MaxPoints: 15,
		Bands: []Band{{10, 15}, {7, 12}, {4, 8}, {2, 4}},
	}
}

func creditMixFactor() Factor {
	return Factor{
		Name: "credit_mix", Label: "Credit mix", Input: model.FactNumAccounts,
		Direction: HigherIsBetter, MaxPoints: 10,
		Bands: []Band{{5, 10}, {3, 7}, {1, 3}},
	}
}

func derogatoryFactor(max float64) Factor {
	return Factor{
		Name: "derogatory_marks", Label: "Derogatory marks", Input: model.FactDerogatoryMarks,
		Direction: LowerIsBetter, MaxPoints: max, Improvable: true,
		Bands: []Band{{0, max}},
	}
}

// DefaultModels returns the built-in factor models keyed by name.
func DefaultModels() map[string]Model {
	analyzer := Model{
		Name:      ModelAnalyzer,
		Scale:     DefaultScale(),
		Dampening: DefaultDampening(),
		Factors: []Factor{
			paymentHistoryFactor(),
			utilizationFactor(),
			creditAgeFactor(),
			creditMixFactor(),
			{
				Name: "new_credit", Label: "New credit", Input: model.FactHardInquiries,
				Direction: LowerIsBetter, MaxPoints: 10, Improvable: true,
				Bands: []Band{{0, 10}, {2, 7}, {4, 3}},
			},
		},
	}

	utilization := Model{
		Name:      ModelUtilization,
		Scale:     DefaultScale(),
		Dampening: DefaultDampening(),
		Factors:   []Factor{utilizationFactor(), derogatoryFactor(10)},
	}

	au := Model{
		Name:      ModelAuthorizedUser,
		Scale:     DefaultScale(),
		Dampening: DefaultDampening(),
		Factors:   []Factor{utilizationFactor(), creditAgeFactor(), creditMixFactor()},
	}

	// BLoC is a health score only: the personal score is an input factor.
	util := utilizationFactor()
	util.MaxPoints = 20
	util.Bands = []Band{{10, 20}, {30, 12}, {50, 5}}
	bloc := Model{
		Name: ModelBLoC,
		Factors: []Factor{
			{
				Name: "credit_score", Label: "Personal credit score", Input: model.FactBaseScore,
				Direction: HigherIsBetter, MaxPoints: 30,
				Bands: []Band{{720, 30}, {680, 22}, {640, 12}},
			},
			util,
			{
				Name: "debt_to_income", Label: "Debt-to-income", Input: model.FactDebtToIncome,
				Direction: LowerIsBetter, MaxPoints: 20, Improvable: true,
				Bands: []Band{{0.20, 20}, {0.36, 12}, {0.50, 5}},
			},
			{
				Name: "business_age", Label: "Time in business", Input: model.FactBusinessAge,
				Direction: HigherIsBetter, MaxPoints: 20,
				Bands: []Band{{2, 20}, {1, 10}, {0.5, 5}},
			},
			derogatoryFactor(10),
		},
	}

	return map[string]Model{
		analyzer.Name:    analyzer,
		utilization.Name: utilization,
		au.Name:          au,
		bloc.Name:        bloc,
	}
}

// WeightSum returns the sum of MaxPoints across the model's factors.
func WeightSum(m Model) float64 {
	var sum float64
	for _, f := range m.Factors {
		sum += f.MaxPoints
	}
	return sum
}

// ValidateModel checks that a Model is internally consistent.
func ValidateModel(m Model) error {
	var errs []string

	if m.Name == "" {
		errs = append(errs, "name is required")
	}
	if len(m.Factors) == 0 {
		errs = append(errs, "at least one factor is required")
	}

	seen := make(map[string]bool, len(m.Factors))
	for _, f := range m.Factors {
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("duplicate factor %q", f.Name))
		}
		seen[f.Name] = true
		errs = append(errs, validateFactor(f)...)
	}

	if WeightSum(m) <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if m.Scale != nil && m.Scale.Min >= m.Scale.Max {
		errs = append(errs, "scale min must be < max")
	}

	errs = append(errs, validateDampening(m.Dampening)...)

	if len(errs) > 0 {
		return eris.Errorf("scorer: model %q validation failed: %s", m.Name, strings.Join(errs, "; "))
	}
	return nil
}

func validateFactor(f Factor) []string {
	var errs []string
	name := f.Name
	if name == "" {
		name = "<unnamed>"
		errs = append(errs, "factor name is required")
	}
	if f.Input == "" {
		errs = append(errs, fmt.Sprintf("%s: input is required", name))
	}
	if f.Direction != HigherIsBetter && f.Direction != LowerIsBetter {
		errs = append(errs, fmt.Sprintf("%s: unknown direction %q", name, f.Direction))
	}
	if f.MaxPoints < 0 {
		errs = append(errs, fmt.Sprintf("%s: max_points must be >= 0", name))
	}
	if len(f.Bands) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one band is required", name))
	}
	if f.Floor < 0 || f.Floor > f.MaxPoints {
		errs = append(errs, fmt.Sprintf("%s: floor must be within [0, max_points]", name))
	}

	for i, b := range f.Bands {
		if b.Points < 0 || b.Points > f.MaxPoints {
			errs = append(errs, fmt.Sprintf("%s: band %d points must be within [0, max_points]", name, i))
		}
		if i == 0 {
			continue
		}
		prev := f.Bands[i-1]
		if b.Points > prev.Points {
			errs = append(errs, fmt.Sprintf("%s: band %d points must not exceed band %d", name, i, i-1))
		}
		switch f.Direction {
		case HigherIsBetter:
			if b.Threshold >= prev.Threshold {
				errs = append(errs, fmt.Sprintf("%s: thresholds must be descending", name))
			}
		case LowerIsBetter:
			if b.Threshold <= prev.Threshold {
				errs = append(errs, fmt.Sprintf("%s: thresholds must be ascending", name))
			}
		}
	}
	if n := len(f.Bands); n > 0 && f.Floor > f.Bands[n-1].Points {
		errs = append(errs, fmt.Sprintf("%s: floor must not exceed the last band", name))
	}
	return errs
}

// validateDampening requires multipliers in [0, 1] that never increase as
// the score band rises.
func validateDampening(bands []DampeningBand) []string {
	var errs []string
	sorted := sortedDampening(bands)
	for i, b := range sorted {
		if b.Multiplier < 0 || math.IsNaN(b.Multiplier) {
			errs = append(errs, fmt.Sprintf("dampening above %.0f: multiplier must be >= 0", b.Above))
		}
		if b.Multiplier > 1 {
			errs = append(errs, fmt.Sprintf("dampening above %.0f: multiplier must be <= 1", b.Above))
		}
		if i > 0 && b.Multiplier < sorted[i-1].Multiplier {
			errs = append(errs, fmt.Sprintf("dampening above %.0f: multiplier must not be below the higher band", b.Above))
		}
		if i > 0 && b.Above == sorted[i-1].Above {
			errs = append(errs, fmt.Sprintf("dampening above %.0f: duplicate band", b.Above))
		}
	}
	return errs
}

// sortedDampening returns a copy of bands ordered by Above, highest first.
func sortedDampening(bands []DampeningBand) []DampeningBand {
	out := append([]DampeningBand(nil), bands...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Above > out[j].Above })
	return out
}
