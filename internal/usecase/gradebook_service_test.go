package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/domain/policy"
	"github.com/openvue/gradepoint/internal/platform/id"
	"github.com/openvue/gradepoint/internal/platform/logging"
)

type stubSource struct {
	info            course.GradebookInfo
	coursesByPeriod map[string][]course.Course
	infoErr         error
	coursesErr      error
	courseErr       error
	courseCalls     int
}

func (s *stubSource) GradebookInfo(context.Context) (course.GradebookInfo, error) {
	return s.info, s.infoErr
}

func (s *stubSource) Courses(_ context.Context, periodID string) ([]course.Course, error) {
	if s.coursesErr != nil {
		return nil, s.coursesErr
	}
	return s.coursesByPeriod[periodID], nil
}

func (s *stubSource) Course(_ context.Context, periodID, courseID string) (course.Course, bool, error) {
	s.courseCalls++
	if s.courseErr != nil {
		return course.Course{}, false, s.courseErr
	}
	for _, c := range s.coursesByPeriod[periodID] {
		if c.ID == courseID {
			return c, true, nil
		}
	}
	return course.Course{}, false, nil
}

func (s *stubSource) Districts(context.Context, string) ([]course.DistrictInfo, error) {
	return nil, nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func seedSource() *stubSource {
	english := course.Course{
		ID:       "eng-10",
		PeriodID: "q3",
		Name:     "English 10",
		Teacher:  "R. Alvarez",
		Assignments: []assignment.Assignment{
			{ID: "a1", Name: "Essay", Category: "All Tasks / Assessments", DueDate: day(3),
				Score: assignment.Float(92), MaxScore: assignment.Float(100)},
			{ID: "a2", Name: "Reading log", Category: "Practice / Preparation", DueDate: day(10),
				Score: assignment.Float(10), MaxScore: assignment.Float(10)},
		},
	}
	biology := course.Course{
		ID:       "bio-hon",
		PeriodID: "q3",
		Name:     "Honors Biology",
		Teacher:  "D. Okafor",
		Assignments: []assignment.Assignment{
			{ID: "b1", Name: "Lab report", Category: "All Tasks / Assessments", DueDate: day(5),
				Score: assignment.Float(48), MaxScore: assignment.Float(50)},
		},
	}

	return &stubSource{
		info: course.GradebookInfo{
			Periods: []course.GradingPeriod{
				{ID: "q3", Name: "Quarter 3", DefaultFocus: true},
				{ID: "q4", Name: "Quarter 4"},
			},
			DefaultPeriodID: "q3",
			InstitutionID:   policy.InstitutionMCPS,
		},
		coursesByPeriod: map[string][]course.Course{
			"q3": {english, biology},
		},
	}
}

func newTestService(t *testing.T, src course.Source) *GradebookService {
	t.Helper()

	set, err := policy.ForInstitution(policy.InstitutionMCPS)
	if err != nil {
		t.Fatalf("load policy set: %v", err)
	}
	return NewGradebookService(src, set, id.NewRandomGenerator("cust-"), logging.NewNop())
}

func loadedService(t *testing.T, src *stubSource) *GradebookService {
	t.Helper()

	svc := newTestService(t, src)
	ctx := context.Background()
	if err := svc.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := svc.LoadPeriod(ctx, "q3"); err != nil {
		t.Fatalf("LoadPeriod: %v", err)
	}
	return svc
}

func TestGradebookService_InitAndLoadPeriod(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())

	if got := svc.DefaultPeriodID(); got != "q3" {
		t.Fatalf("DefaultPeriodID = %q, want q3", got)
	}
	if !svc.IsPeriodLoaded("q3") {
		t.Fatal("expected q3 loaded")
	}
	if svc.IsPeriodLoaded("q4") {
		t.Fatal("expected q4 not loaded")
	}

	courses, err := svc.SortedCourses("q3")
	if err != nil {
		t.Fatalf("SortedCourses: %v", err)
	}
	if len(courses) != 2 || courses[0].ID != "eng-10" || courses[1].ID != "bio-hon" {
		t.Fatalf("unexpected course order: %+v", courses)
	}
}

func TestGradebookService_NotLoadedAccessorsFailFast(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	if _, err := svc.Assignments(key); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Assignments before load = %v, want ErrNotLoaded", err)
	}
	if err := svc.LoadPeriod(context.Background(), "q3"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("LoadPeriod before Init = %v, want ErrNotLoaded", err)
	}
	if _, err := svc.SortedCourses("q4"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("SortedCourses for unloaded period = %v, want ErrNotLoaded", err)
	}
}

func TestGradebookService_AssignmentsSortedNewestFirst(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())

	items, err := svc.Assignments(course.NewKey("q3", "eng-10"))
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != 2 || items[0].ID != "a2" || items[1].ID != "a1" {
		t.Fatalf("expected due-date-descending order, got %+v", items)
	}
}

func TestGradebookService_AddDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	before, err := svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	baseRatio, err := svc.CalculateWeightedRatio(key, nil)
	if err != nil {
		t.Fatalf("CalculateWeightedRatio: %v", err)
	}

	custom := svc.NewCustomAssignment()
	if !custom.IsCustom {
		t.Fatal("expected custom flag set")
	}
	if custom.Category != "All Tasks / Assessments" {
		t.Fatalf("custom category = %q, want policy's first category", custom.Category)
	}
	if err := svc.AddAssignment(key, custom); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}

	items, err := svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != len(before)+1 || !items[0].IsCustom {
		t.Fatalf("expected custom assignment prepended, got %+v", items)
	}

	// A 0/0 placeholder changes no category totals.
	ratio, err := svc.CalculateWeightedRatio(key, nil)
	if err != nil {
		t.Fatalf("CalculateWeightedRatio: %v", err)
	}
	if math.Abs(ratio-baseRatio) > 1e-12 {
		t.Fatalf("ratio after 0/0 add = %v, want unchanged %v", ratio, baseRatio)
	}

	if err := svc.DeleteAssignment(key, 0); err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	items, err = svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != len(before) {
		t.Fatalf("expected original length %d after delete, got %d", len(before), len(items))
	}

	// The overlay is still flagged; only rollback clears it.
	edited, err := svc.NeedsRollback(key)
	if err != nil {
		t.Fatalf("NeedsRollback: %v", err)
	}
	if !edited {
		t.Fatal("expected overlay flagged after add+delete")
	}
}

func TestGradebookService_SetAssignmentsReplacesWorkingList(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	override := []assignment.Assignment{
		{ID: "a1", Name: "Essay", Category: "All Tasks / Assessments", DueDate: day(3),
			Score: assignment.Float(50), MaxScore: assignment.Float(100)},
	}
	if err := svc.SetAssignments(key, override); err != nil {
		t.Fatalf("SetAssignments: %v", err)
	}

	items, err := svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != 1 || items[0].Score == nil || *items[0].Score != 50 {
		t.Fatalf("expected overridden list, got %+v", items)
	}
	edited, err := svc.NeedsRollback(key)
	if err != nil {
		t.Fatalf("NeedsRollback: %v", err)
	}
	if !edited {
		t.Fatal("expected overlay flagged after override")
	}

	// Practice category drops out, so the ratio is the single essay.
	ratio, err := svc.CalculateWeightedRatio(key, nil)
	if err != nil {
		t.Fatalf("CalculateWeightedRatio: %v", err)
	}
	if math.Abs(ratio-0.5) > 1e-12 {
		t.Fatalf("ratio = %v, want 0.5", ratio)
	}

	bad := []assignment.Assignment{{Name: "Orphan score", Score: assignment.Float(10)}}
	if err := svc.SetAssignments(key, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("score without max = %v, want ErrInvalidInput", err)
	}

	if err := svc.Rollback(key); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	items, err = svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected snapshot restored, got %d assignments", len(items))
	}
}

func TestGradebookService_RollbackIsIdempotent(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	if err := svc.AddAssignment(key, svc.NewCustomAssignment()); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Rollback(key); err != nil {
			t.Fatalf("Rollback #%d: %v", i+1, err)
		}
		edited, err := svc.NeedsRollback(key)
		if err != nil {
			t.Fatalf("NeedsRollback: %v", err)
		}
		if edited {
			t.Fatalf("expected pristine overlay after rollback #%d", i+1)
		}
		items, err := svc.Assignments(key)
		if err != nil {
			t.Fatalf("Assignments: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected snapshot's 2 assignments after rollback, got %d", len(items))
		}
	}
}

func TestGradebookService_EditAssignmentFields(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	score := 95.0
	if err := svc.EditAssignment(key, 1, AssignmentEdit{Score: &score}); err != nil {
		t.Fatalf("EditAssignment: %v", err)
	}

	items, err := svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if items[1].Score == nil || *items[1].Score != 95 {
		t.Fatalf("edited score = %v, want 95", items[1].Score)
	}
	if items[1].Name != "Essay" {
		t.Fatalf("untouched field changed: name = %q", items[1].Name)
	}

	badCategory := "Extra Credit"
	if err := svc.EditAssignment(key, 1, AssignmentEdit{Category: &badCategory}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown category edit = %v, want ErrInvalidInput", err)
	}
	if err := svc.EditAssignment(key, 99, AssignmentEdit{Score: &score}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out-of-range edit = %v, want ErrInvalidInput", err)
	}
}

func TestGradebookService_RefreshFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	src := seedSource()
	svc := loadedService(t, src)
	key := course.NewKey("q3", "eng-10")

	if err := svc.AddAssignment(key, svc.NewCustomAssignment()); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}

	src.courseErr = errors.New("upstream 502")
	if err := svc.RefreshCourse(context.Background(), key); err == nil {
		t.Fatal("expected refresh failure")
	}

	// Edits survive the failed fetch.
	edited, err := svc.NeedsRollback(key)
	if err != nil {
		t.Fatalf("NeedsRollback: %v", err)
	}
	if !edited {
		t.Fatal("expected overlay edits preserved after failed refresh")
	}
	items, err := svc.Assignments(key)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected edited list intact, got %d assignments", len(items))
	}
}

func TestGradebookService_RefreshReplacesOverlay(t *testing.T) {
	t.Parallel()

	src := seedSource()
	svc := loadedService(t, src)
	key := course.NewKey("q3", "eng-10")

	if err := svc.AddAssignment(key, svc.NewCustomAssignment()); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}
	if err := svc.RefreshCourse(context.Background(), key); err != nil {
		t.Fatalf("RefreshCourse: %v", err)
	}

	edited, err := svc.NeedsRollback(key)
	if err != nil {
		t.Fatalf("NeedsRollback: %v", err)
	}
	if edited {
		t.Fatal("expected pristine overlay after refresh")
	}

	if err := svc.RefreshCourse(context.Background(), course.NewKey("q3", "missing")); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected ErrNotFound for unknown course")
	}
}

func TestGradebookService_AnyNeedsRollback(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())

	if svc.AnyNeedsRollback("q3") {
		t.Fatal("expected no edits after load")
	}
	if err := svc.AddAssignment(course.NewKey("q3", "bio-hon"), svc.NewCustomAssignment()); err != nil {
		t.Fatalf("AddAssignment: %v", err)
	}
	if !svc.AnyNeedsRollback("q3") {
		t.Fatal("expected period flagged after one course edit")
	}
	if svc.AnyNeedsRollback("q4") {
		t.Fatal("expected other period unaffected")
	}
}

func TestGradebookService_MarkAndCategoryTotals(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	mark, err := svc.CalculateMark(key)
	if err != nil {
		t.Fatalf("CalculateMark: %v", err)
	}
	// 0.9*0.92 + 0.1*1.0 = 0.928 -> A
	if mark.Label != "A" {
		t.Fatalf("mark = %q, want A", mark.Label)
	}

	points, err := svc.TotalAssignmentPoints(key, "All Tasks / Assessments")
	if err != nil {
		t.Fatalf("TotalAssignmentPoints: %v", err)
	}
	maxPoints, err := svc.MaxAssignmentPoints(key, "All Tasks / Assessments")
	if err != nil {
		t.Fatalf("MaxAssignmentPoints: %v", err)
	}
	if points != 92 || maxPoints != 100 {
		t.Fatalf("category totals = %v/%v, want 92/100", points, maxPoints)
	}

	allPoints, err := svc.TotalAssignmentPoints(key, "")
	if err != nil {
		t.Fatalf("TotalAssignmentPoints(all): %v", err)
	}
	if allPoints != 102 {
		t.Fatalf("course-wide points = %v, want 102", allPoints)
	}
}

func TestGradebookService_CalculateGpaWeightsHonorsCourses(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())

	// English 10: 0.928 -> A (4 / 4). Honors Biology: 0.96 -> A (4 / 5).
	summary, err := svc.CalculateGpa("q3")
	if err != nil {
		t.Fatalf("CalculateGpa: %v", err)
	}
	if math.Abs(summary.Unweighted-4.0) > 1e-12 {
		t.Fatalf("unweighted GPA = %v, want 4.0", summary.Unweighted)
	}
	if math.Abs(summary.Weighted-4.5) > 1e-12 {
		t.Fatalf("weighted GPA = %v, want 4.5", summary.Weighted)
	}
}

func TestGradebookService_GpaExcludesUnmarkedCourses(t *testing.T) {
	t.Parallel()

	src := seedSource()
	src.coursesByPeriod["q3"] = append(src.coursesByPeriod["q3"], course.Course{
		ID:       "adv-sem",
		PeriodID: "q3",
		Name:     "Advisory Seminar",
	})
	svc := loadedService(t, src)

	// The ungraded course lands on N/A, which carries no GPA points and
	// must not drag either average toward zero.
	summary, err := svc.CalculateGpa("q3")
	if err != nil {
		t.Fatalf("CalculateGpa: %v", err)
	}
	if math.Abs(summary.Unweighted-4.0) > 1e-12 {
		t.Fatalf("unweighted GPA = %v, want 4.0", summary.Unweighted)
	}
	if math.Abs(summary.Weighted-4.5) > 1e-12 {
		t.Fatalf("weighted GPA = %v, want 4.5", summary.Weighted)
	}
}

func TestGradebookService_TrendAndImpact(t *testing.T) {
	t.Parallel()

	svc := loadedService(t, seedSource())
	key := course.NewKey("q3", "eng-10")

	points, err := svc.TrendPoints(key)
	if err != nil {
		t.Fatalf("TrendPoints: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("trend length = %d, want 2", len(points))
	}
	if points[0].Assignment.ID != "a1" {
		t.Fatalf("trend starts at %q, want oldest assignment a1", points[0].Assignment.ID)
	}

	impact, err := svc.AssignmentImpact(key, 0)
	if err != nil {
		t.Fatalf("AssignmentImpact: %v", err)
	}
	// Index 0 is the perfect reading log; removing it drops the grade.
	if impact <= 0 {
		t.Fatalf("impact = %v, want > 0", impact)
	}
}
