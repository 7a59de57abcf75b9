package usecase

import (
	"math"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/policy"
)

// Adjustment shifts one category's accumulated totals before the weighted
// ratio is taken. Negative values simulate removing an assignment's
// contribution, which is how marginal impact is computed.
type Adjustment struct {
	Category       string
	ExtraPoints    float64
	ExtraMaxPoints float64
}

// WeightedRatio computes the overall score fraction for an assignment
// list under a weighting policy.
//
// Each category accumulates the scored, gradable assignments that belong
// to it. A category whose accumulated max points come to zero is skipped
// outright: it contributes neither weight nor ratio, so empty categories
// never drag the average toward zero. The surviving categories are
// renormalized by the sum of their own weights, which makes a course with
// work in only one category equal that category's raw ratio.
//
// NaN is the "no grade yet" result: every category empty, or all weights
// zero. Callers render it as N/A, never as 0%.
func WeightedRatio(items []assignment.Assignment, weighting policy.WeightingPolicy, adjustments []Adjustment) float64 {
	extraByCategory := make(map[string]Adjustment, len(adjustments))
	for _, adj := range adjustments {
		current := extraByCategory[adj.Category]
		current.Category = adj.Category
		current.ExtraPoints += adj.ExtraPoints
		current.ExtraMaxPoints += adj.ExtraMaxPoints
		extraByCategory[adj.Category] = current
	}

	sumWeight := 0.0
	sumRatio := 0.0
	for _, weight := range weighting.Weights() {
		points, maxPoints := accumulatePoints(items, weight.Name)
		if adj, ok := extraByCategory[weight.Name]; ok {
			points += adj.ExtraPoints
			maxPoints += adj.ExtraMaxPoints
		}
		if maxPoints == 0 {
			continue
		}

		categoryRatio := points / maxPoints * weight.Weight
		if math.IsNaN(categoryRatio) {
			continue
		}

		sumWeight += weight.Weight
		sumRatio += categoryRatio
	}

	// sumWeight == 0 yields NaN, the canonical empty-gradebook signal.
	return sumRatio / sumWeight
}

// AssignmentImpact is the signed change in overall ratio attributable to
// one assignment: the ratio including it minus the ratio with its points
// subtracted from its category's totals. Positive impact means the
// assignment is raising the grade. Ungraded or excluded assignments have
// no meaningful removal effect, so their impact is NaN.
func AssignmentImpact(items []assignment.Assignment, weighting policy.WeightingPolicy, target assignment.Assignment) float64 {
	if !target.CountsTowardGrade() {
		return math.NaN()
	}

	base := WeightedRatio(items, weighting, nil)
	without := WeightedRatio(items, weighting, []Adjustment{{
		Category:       target.Category,
		ExtraPoints:    -*target.Score,
		ExtraMaxPoints: -*target.MaxScore,
	}})
	return base - without
}

// TrendPoint is the running grade after one more assignment lands, in
// due-date order. The assignment itself rides along so callers can label
// chart points.
type TrendPoint struct {
	Assignment assignment.Assignment
	Ratio      float64
}

// Trend replays the assignment list oldest-first and records the weighted
// ratio after each step. Ungraded and excluded entries still appear (with
// the ratio unchanged) so the series lines up with the full list.
func Trend(items []assignment.Assignment, weighting policy.WeightingPolicy) []TrendPoint {
	ordered := make([]assignment.Assignment, len(items))
	copy(ordered, items)
	assignment.SortByDueDateDesc(ordered)

	out := make([]TrendPoint, 0, len(ordered))
	accumulated := make([]assignment.Assignment, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		accumulated = append(accumulated, ordered[i])
		out = append(out, TrendPoint{
			Assignment: ordered[i],
			Ratio:      WeightedRatio(accumulated, weighting, nil),
		})
	}
	return out
}

// accumulatePoints sums score and max score over the scored, gradable
// assignments of one category. An empty category name matches everything,
// which is what course-wide progress totals use.
func accumulatePoints(items []assignment.Assignment, category string) (points, maxPoints float64) {
	for _, item := range items {
		if !item.CountsTowardGrade() {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		points += *item.Score
		maxPoints += *item.MaxScore
	}
	return points, maxPoints
}
