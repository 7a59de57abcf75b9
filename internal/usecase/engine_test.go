package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/policy"
)

func mcpsWeighting(t *testing.T) policy.WeightingPolicy {
	t.Helper()
	set, err := policy.ForInstitution(policy.InstitutionMCPS)
	if err != nil {
		t.Fatalf("load mcps policy set: %v", err)
	}
	return set.Weighting
}

func graded(name, category string, score, max float64, due time.Time) assignment.Assignment {
	return assignment.Assignment{
		Name:     name,
		Category: category,
		DueDate:  due,
		Score:    assignment.Float(score),
		MaxScore: assignment.Float(max),
	}
}

func TestWeightedRatio_EmptyGradebookIsNaN(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	if got := WeightedRatio(nil, weighting, nil); !math.IsNaN(got) {
		t.Fatalf("empty gradebook ratio = %v, want NaN", got)
	}

	ungraded := []assignment.Assignment{
		{Name: "Essay draft", Category: "All Tasks / Assessments"},
		{Name: "Warmup", Category: "Practice / Preparation", NotForGrading: true,
			Score: assignment.Float(5), MaxScore: assignment.Float(5)},
	}
	if got := WeightedRatio(ungraded, weighting, nil); !math.IsNaN(got) {
		t.Fatalf("ratio with only ungraded/excluded work = %v, want NaN", got)
	}
}

func TestWeightedRatio_SingleCategoryRenormalizes(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	items := []assignment.Assignment{
		graded("Quiz 1", "All Tasks / Assessments", 17, 20, due),
	}

	// With no practice work the 90% category is the whole grade.
	want := 17.0 / 20.0
	if got := WeightedRatio(items, weighting, nil); math.Abs(got-want) > 1e-12 {
		t.Fatalf("single-category ratio = %v, want %v", got, want)
	}
}

func TestWeightedRatio_TwoCategoryWeighting(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	items := []assignment.Assignment{
		graded("Unit test", "All Tasks / Assessments", 85, 100, due),
		graded("Homework packet", "Practice / Preparation", 10, 10, due),
	}

	// 0.9*0.85 + 0.1*1.0
	want := 0.865
	if got := WeightedRatio(items, weighting, nil); math.Abs(got-want) > 1e-12 {
		t.Fatalf("two-category ratio = %v, want %v", got, want)
	}
}

func TestWeightedRatio_ExcludedAssignmentsDoNotCount(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	excluded := graded("Dropped quiz", "All Tasks / Assessments", 0, 100, due)
	excluded.NotForGrading = true

	items := []assignment.Assignment{
		graded("Project", "All Tasks / Assessments", 45, 50, due),
		excluded,
	}

	want := 0.9
	if got := WeightedRatio(items, weighting, nil); math.Abs(got-want) > 1e-12 {
		t.Fatalf("ratio with excluded assignment = %v, want %v", got, want)
	}
}

func TestWeightedRatio_AdjustmentShiftsCategoryTotals(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	items := []assignment.Assignment{
		graded("Quiz", "All Tasks / Assessments", 80, 100, due),
	}

	got := WeightedRatio(items, weighting, []Adjustment{{
		Category:       "All Tasks / Assessments",
		ExtraPoints:    20,
		ExtraMaxPoints: 0,
	}})
	if math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("adjusted ratio = %v, want 1.0", got)
	}

	// Cancelling a category entirely must yield NaN, not zero.
	got = WeightedRatio(items, weighting, []Adjustment{{
		Category:       "All Tasks / Assessments",
		ExtraPoints:    -80,
		ExtraMaxPoints: -100,
	}})
	if !math.IsNaN(got) {
		t.Fatalf("fully-cancelled ratio = %v, want NaN", got)
	}
}

func TestAssignmentImpact(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	good := graded("Final project", "All Tasks / Assessments", 50, 50, due)
	bad := graded("Missed quiz", "All Tasks / Assessments", 0, 20, due)
	items := []assignment.Assignment{
		good,
		bad,
		graded("Midterm", "All Tasks / Assessments", 40, 50, due),
	}

	if impact := AssignmentImpact(items, weighting, good); impact <= 0 {
		t.Fatalf("perfect-score impact = %v, want > 0", impact)
	}
	if impact := AssignmentImpact(items, weighting, bad); impact >= 0 {
		t.Fatalf("zero-score impact = %v, want < 0", impact)
	}

	ungraded := assignment.Assignment{Name: "Pending", Category: "All Tasks / Assessments", DueDate: due}
	if impact := AssignmentImpact(append(items, ungraded), weighting, ungraded); !math.IsNaN(impact) {
		t.Fatalf("ungraded impact = %v, want NaN", impact)
	}
}

func TestAssignmentImpact_MatchesRemovalFormula(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	due := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	target := graded("Quiz 2", "All Tasks / Assessments", 18, 20, due)
	items := []assignment.Assignment{
		graded("Quiz 1", "All Tasks / Assessments", 15, 20, due),
		target,
		graded("Homework", "Practice / Preparation", 9, 10, due),
	}

	base := WeightedRatio(items, weighting, nil)
	without := WeightedRatio(items, weighting, []Adjustment{{
		Category:       "All Tasks / Assessments",
		ExtraPoints:    -18,
		ExtraMaxPoints: -20,
	}})
	want := base - without

	if got := AssignmentImpact(items, weighting, target); math.Abs(got-want) > 1e-12 {
		t.Fatalf("impact = %v, want %v", got, want)
	}
}

func TestTrend_ReplaysOldestFirst(t *testing.T) {
	t.Parallel()

	weighting := mcpsWeighting(t)
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	items := []assignment.Assignment{
		graded("Week 3 quiz", "All Tasks / Assessments", 20, 20, day(21)),
		graded("Week 1 quiz", "All Tasks / Assessments", 10, 20, day(7)),
		graded("Week 2 quiz", "All Tasks / Assessments", 15, 20, day(14)),
	}

	points := Trend(items, weighting)
	if len(points) != 3 {
		t.Fatalf("trend length = %d, want 3", len(points))
	}
	if points[0].Assignment.Name != "Week 1 quiz" {
		t.Fatalf("first trend point = %q, want oldest assignment", points[0].Assignment.Name)
	}

	wantRatios := []float64{0.5, 0.625, 0.75}
	for i, want := range wantRatios {
		if math.Abs(points[i].Ratio-want) > 1e-12 {
			t.Fatalf("trend[%d].Ratio = %v, want %v", i, points[i].Ratio, want)
		}
	}
}
