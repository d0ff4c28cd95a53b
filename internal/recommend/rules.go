// Package recommend turns facts about a profile and its report into ranked
// recommendations and an optional verdict. Rules and verdict tables are
// data; nothing here is specific to one calculator.
package recommend

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// Op is a comparison operator.
type Op string

const (
	OpGT  Op = "gt"
	OpGTE Op = "gte"
	OpLT  Op = "lt"
	OpLTE Op = "lte"
	OpEQ  Op = "eq"
)

// Condition compares one named fact against a value. A missing fact never
// matches.
type Condition struct {
	Fact  string  `yaml:"fact" json:"fact"`
	Op    Op      `yaml:"op" json:"op"`
	Value float64 `yaml:"value" json:"value"`
}

// Holds reports whether the condition is satisfied by facts.
func (c Condition) Holds(facts model.Facts) bool {
	v, ok := facts[c.Fact]
	if !ok {
		return false
	}
	switch c.Op {
	case OpGT:
		return v > c.Value
	case OpGTE:
		return v >= c.Value
	case OpLT:
		return v < c.Value
	case OpLTE:
		return v <= c.Value
	case OpEQ:
		return math.Abs(v-c.Value) < 1e-9
	}
	return false
}

// Rule emits Message when every condition holds. The message may reference
// facts as {fact_name}; values are rendered with up to two decimals.
type Rule struct {
	ID       string         `yaml:"id" json:"id"`
	When     []Condition    `yaml:"when" json:"when"`
	Priority int            `yaml:"priority" json:"priority"`
	Message  string         `yaml:"message" json:"message"`
	Polarity model.Polarity `yaml:"polarity" json:"polarity"`
}

// Matches reports whether every condition of r holds.
func (r Rule) Matches(facts model.Facts) bool {
	if len(r.When) == 0 {
		return false
	}
	for _, c := range r.When {
		if !c.Holds(facts) {
			return false
		}
	}
	return true
}

// Gate is one row of a verdict decision table.
type Gate struct {
	Condition `yaml:",inline"`

	Reason string `yaml:"reason" json:"reason"`
}

// DecisionTable derives a verdict. Disqualifiers are checked first, in
// order, and the first that holds yields the negative verdict. Only then
// are qualifiers checked; all must hold for the positive verdict, and a
// failing qualifier's Reason explains the shortfall.
type DecisionTable struct {
	Disqualifiers  []Gate `yaml:"disqualifiers" json:"disqualifiers"`
	Qualifiers     []Gate `yaml:"qualifiers" json:"qualifiers"`
	PositiveLabel  string `yaml:"positive_label" json:"positive_label"`
	NegativeLabel  string `yaml:"negative_label" json:"negative_label"`
	PositiveReason string `yaml:"positive_reason" json:"positive_reason"`
}

// RuleSet is the rule table for one calculator context.
type RuleSet struct {
	Name    string         `yaml:"name" json:"name"`
	Rules   []Rule         `yaml:"rules" json:"rules"`
	Verdict *DecisionTable `yaml:"verdict" json:"verdict,omitempty"`
}

// Render substitutes {fact} placeholders in msg.
func Render(msg string, facts model.Facts) string {
	if !strings.Contains(msg, "{") {
		return msg
	}
	var b strings.Builder
	for {
		open := strings.IndexByte(msg, '{')
		if open < 0 {
			b.WriteString(msg)
			break
		}
		end := strings.IndexByte(msg[open:], '}')
		if end < 0 {
			b.WriteString(msg)
			break
		}
		end += open
		b.WriteString(msg[:open])
		name := msg[open+1 : end]
		if v, ok := facts[name]; ok {
			b.WriteString(formatValue(v))
		} else {
			b.WriteString(msg[open : end+1])
		}
		msg = msg[end+1:]
	}
	return b.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func validOp(op Op) bool {
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ:
		return true
	}
	return false
}

// ValidateRuleSet checks that a RuleSet is internally consistent.
func ValidateRuleSet(rs RuleSet) error {
	var errs []string

	if rs.Name == "" {
		errs = append(errs, "name is required")
	}

	ids := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		ref := r.ID
		if ref == "" {
			ref = fmt.Sprintf("rule %d", i)
			errs = append(errs, fmt.Sprintf("%s: id is required", ref))
		} else if ids[r.ID] {
			errs = append(errs, fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		ids[r.ID] = true

		if len(r.When) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one condition is required", ref))
		}
		for _, c := range r.When {
			if c.Fact == "" || !validOp(c.Op) {
				errs = append(errs, fmt.Sprintf("%s: invalid condition %s %s", ref, c.Fact, c.Op))
			}
		}
		if r.Message == "" {
			errs = append(errs, fmt.Sprintf("%s: message is required", ref))
		}
		switch r.Polarity {
		case model.Positive, model.Negative, model.Neutral:
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown polarity %q", ref, r.Polarity))
		}
	}

	if v := rs.Verdict; v != nil {
		if v.PositiveLabel == "" || v.NegativeLabel == "" {
			errs = append(errs, "verdict labels are required")
		}
		for _, g := range append(append([]Gate(nil), v.Disqualifiers...), v.Qualifiers...) {
			if g.Fact == "" || !validOp(g.Op) {
				errs = append(errs, fmt.Sprintf("verdict: invalid gate %s %s", g.Fact, g.Op))
			}
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("recommend: rule set %q validation failed: %s", rs.Name, strings.Join(errs, "; "))
	}
	return nil
}
