package engine

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/credit-optimizer/internal/recommend"
	"github.com/sells-group/credit-optimizer/internal/scorer"
)

// Calculator binds a factor model, a rule set and a scenario
// transformation under one name.
type Calculator struct {
	Name     string `yaml:"name" json:"name"`
	Model    string `yaml:"model" json:"model"`
	RuleSet  string `yaml:"rule_set" json:"rule_set"`
	Scenario string `yaml:"scenario" json:"scenario"`
}

// Tables is the complete data configuration of an engine.
type Tables struct {
	Models      map[string]scorer.Model      `json:"models"`
	RuleSets    map[string]recommend.RuleSet `json:"rule_sets"`
	Calculators map[string]Calculator        `json:"calculators"`
}

// Calculator names shipped by default.
const (
	CalcUtilization    = "utilization"
	CalcAzeo           = "azeo"
	CalcBLoC           = "bloc"
	CalcAnalyzer       = "analyzer"
	CalcAuthorizedUser = "authorized_user"
)

// DefaultTables returns the built-in models, rule sets and calculators.
func DefaultTables() Tables {
	calcs := []Calculator{
		{Name: CalcUtilization, Model: scorer.ModelUtilization, RuleSet: recommend.SetUtilization, Scenario: ScenarioRescale},
		{Name: CalcAzeo, Model: scorer.ModelUtilization, RuleSet: recommend.SetAzeo, Scenario: ScenarioAzeo},
		{Name: CalcBLoC, Model: scorer.ModelBLoC, RuleSet: recommend.SetBLoC, Scenario: ScenarioCurrent},
		{Name: CalcAnalyzer, Model: scorer.ModelAnalyzer, RuleSet: recommend.SetAnalyzer, Scenario: ScenarioCurrent},
		{Name: CalcAuthorizedUser, Model: scorer.ModelAuthorizedUser, RuleSet: recommend.SetAuthorizedUser, Scenario: ScenarioAuthorizedUser},
	}
	t := Tables{
		Models:      scorer.DefaultModels(),
		RuleSets:    recommend.DefaultRuleSets(),
		Calculators: make(map[string]Calculator, len(calcs)),
	}
	for _, c := range calcs {
		t.Calculators[c.Name] = c
	}
	return t
}

// tablesFile is the on-disk layout: lists keyed by each entry's name.
type tablesFile struct {
	Models      []scorer.Model      `yaml:"models"`
	RuleSets    []recommend.RuleSet `yaml:"rule_sets"`
	Calculators []Calculator        `yaml:"calculators"`
}

// LoadTables reads a YAML tables file and overlays it on the defaults.
// Entries replace the default of the same name; new names are added.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, eris.Wrapf(err, "engine: read tables %s", path)
	}
	return ParseTables(data)
}

// ParseTables overlays YAML table definitions on the defaults.
func ParseTables(data []byte) (Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Tables{}, eris.Wrap(err, "engine: parse tables")
	}

	t := DefaultTables()
	for _, m := range f.Models {
		t.Models[m.Name] = m
	}
	for _, rs := range f.RuleSets {
		t.RuleSets[rs.Name] = rs
	}
	for _, c := range f.Calculators {
		t.Calculators[c.Name] = c
	}
	return t, nil
}

// Validate checks every table and the references between them.
func (t Tables) Validate() error {
	for _, name := range sortedKeys(t.Models) {
		m := t.Models[name]
		if m.Name != name {
			return eris.Errorf("engine: model key %q does not match name %q", name, m.Name)
		}
		if err := scorer.ValidateModel(m); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(t.RuleSets) {
		rs := t.RuleSets[name]
		if rs.Name != name {
			return eris.Errorf("engine: rule set key %q does not match name %q", name, rs.Name)
		}
		if err := recommend.ValidateRuleSet(rs); err != nil {
			return err
		}
	}
	if len(t.Calculators) == 0 {
		return eris.New("engine: no calculators configured")
	}
	for _, name := range sortedKeys(t.Calculators) {
		c := t.Calculators[name]
		if _, ok := t.Models[c.Model]; !ok {
			return eris.Errorf("engine: calculator %q references unknown model %q", name, c.Model)
		}
		if _, ok := t.RuleSets[c.RuleSet]; !ok {
			return eris.Errorf("engine: calculator %q references unknown rule set %q", name, c.RuleSet)
		}
		if _, ok := scenarios[c.Scenario]; !ok {
			return eris.Errorf("engine: calculator %q references unknown scenario %q", name, c.Scenario)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
