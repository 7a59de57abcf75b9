package policy

import (
	"fmt"
	"math"
	"sort"
)

var ErrNoFallbackRule = fmt.Errorf("mark rule table has no unconditional fallback rule")

// ThresholdKind encodes the three ways a mark rule can match a ratio.
type ThresholdKind int

const (
	// ThresholdAtLeast matches any ratio >= the rule's bound (inclusive).
	ThresholdAtLeast ThresholdKind = iota
	// ThresholdAnyGraded matches any real ratio, however low. It catches
	// graded courses that fall below every numeric bound.
	ThresholdAnyGraded
	// ThresholdAlways matches everything, NaN included. The table must end
	// with one of these or ungraded courses have no mark.
	ThresholdAlways
)

// Mark is one ordered rule in a grading policy: a letter or label, its
// display color, the ratio it requires, and optional GPA point values.
// GpaPoints/WgpaPoints are nil for marks that carry no GPA weight
// (pass/fail, N/A).
type Mark struct {
	Label       string
	Color       string
	Kind        ThresholdKind
	RatioNeeded float64
	GpaPoints   *float64
	WgpaPoints  *float64
}

// Matches reports whether the rule accepts the given ratio. NaN only ever
// matches an unconditional rule.
func (m Mark) Matches(ratio float64) bool {
	switch m.Kind {
	case ThresholdAtLeast:
		return ratio >= m.RatioNeeded
	case ThresholdAnyGraded:
		return !math.IsNaN(ratio)
	default:
		return true
	}
}

// GradingPolicy maps a score ratio to a mark through an ordered rule list;
// the first matching rule wins.
type GradingPolicy struct {
	rules []Mark
}

// NewGradingPolicy validates that the table terminates in an unconditional
// rule. A table without one is a configuration error, not something to
// discover at calculation time.
func NewGradingPolicy(rules []Mark) (GradingPolicy, error) {
	if len(rules) == 0 {
		return GradingPolicy{}, ErrNoFallbackRule
	}
	if rules[len(rules)-1].Kind != ThresholdAlways {
		return GradingPolicy{}, ErrNoFallbackRule
	}
	for i, rule := range rules {
		if rule.Label == "" {
			return GradingPolicy{}, fmt.Errorf("mark rule %d has no label", i)
		}
	}

	out := make([]Mark, len(rules))
	copy(out, rules)
	return GradingPolicy{rules: out}, nil
}

// GetMark resolves a ratio to the first matching rule. The constructor
// guarantees a terminal unconditional rule, so there is always a result.
func (p GradingPolicy) GetMark(ratio float64) Mark {
	for _, rule := range p.rules {
		if rule.Matches(ratio) {
			return rule
		}
	}
	return p.rules[len(p.rules)-1]
}

// Rules returns the ordered rule list.
func (p GradingPolicy) Rules() []Mark {
	out := make([]Mark, len(p.rules))
	copy(out, p.rules)
	return out
}

// ScoreBoundary is the legacy boundary-table shape some districts report:
// a label plus an inclusive low score against a fixed maximum.
type ScoreBoundary struct {
	Label    string
	Color    string
	LowScore float64
}

// FromScoreBoundaries converts a boundary table into an ordered rule list.
// Each boundary becomes one at-least rule (lowScore/max); an any-graded
// rule reusing the lowest boundary's label and a terminal N/A rule close
// the table.
func FromScoreBoundaries(boundaries []ScoreBoundary, max float64) (GradingPolicy, error) {
	if max <= 0 {
		return GradingPolicy{}, fmt.Errorf("boundary table max must be positive, got %v", max)
	}
	if len(boundaries) == 0 {
		return GradingPolicy{}, fmt.Errorf("boundary table is empty")
	}

	ordered := make([]ScoreBoundary, len(boundaries))
	copy(ordered, boundaries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LowScore > ordered[j].LowScore
	})

	rules := make([]Mark, 0, len(ordered)+2)
	for _, b := range ordered[:len(ordered)-1] {
		rules = append(rules, Mark{
			Label:       b.Label,
			Color:       b.Color,
			Kind:        ThresholdAtLeast,
			RatioNeeded: b.LowScore / max,
		})
	}
	lowest := ordered[len(ordered)-1]
	rules = append(rules,
		Mark{Label: lowest.Label, Color: lowest.Color, Kind: ThresholdAnyGraded},
		Mark{Label: NoMarkLabel, Color: NoMarkColor, Kind: ThresholdAlways},
	)

	return NewGradingPolicy(rules)
}
