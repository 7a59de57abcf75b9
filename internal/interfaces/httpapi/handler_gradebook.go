package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/openvue/gradepoint/internal/domain/course"
)

func (h *Handler) GetGradebook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGradebook")
	defer span.End()

	periods := h.gradebook.GradingPeriods()
	if len(periods) == 0 {
		if err := h.gradebook.Init(ctx); err != nil {
			h.logger.ErrorContext(ctx, "gradebook init failed", "error", err)
			writeError(ctx, w, err)
			return
		}
		periods = h.gradebook.GradingPeriods()
	}

	items := make([]gradingPeriodDTO, 0, len(periods))
	for _, p := range periods {
		items = append(items, gradingPeriodToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, gradebookDTO{
		DefaultPeriodID: h.gradebook.DefaultPeriodID(),
		Periods:         items,
		Policy:          policySummaryToDTO(ctx, h.gradebook.Policies()),
	})
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCourses")
	defer span.End()

	periodID := r.PathValue("periodID")
	if err := h.ensurePeriodLoaded(ctx, periodID); err != nil {
		h.logger.WarnContext(ctx, "load period failed", "period_id", periodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	courses, err := h.gradebook.SortedCourses(periodID)
	if err != nil {
		h.logger.WarnContext(ctx, "list courses failed", "period_id", periodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]courseSummaryDTO, 0, len(courses))
	for _, c := range courses {
		summary, err := h.courseSummary(ctx, c)
		if err != nil {
			h.logger.WarnContext(ctx, "summarize course failed", "period_id", periodID, "course_id", c.ID, "error", err)
			writeError(ctx, w, err)
			return
		}
		items = append(items, summary)
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetCourseDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCourseDetails")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		h.logger.WarnContext(ctx, "load period failed", "period_id", key.PeriodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	detail, err := h.courseDetail(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "get course details failed", "period_id", key.PeriodID, "course_id", key.CourseID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, detail)
}

func (h *Handler) GetCourseTrend(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCourseTrend")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		h.logger.WarnContext(ctx, "load period failed", "period_id", key.PeriodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	points, err := h.gradebook.TrendPoints(key)
	if err != nil {
		h.logger.WarnContext(ctx, "get course trend failed", "period_id", key.PeriodID, "course_id", key.CourseID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, trendToDTO(ctx, points))
}

func (h *Handler) GetPeriodGpa(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPeriodGpa")
	defer span.End()

	periodID := r.PathValue("periodID")
	if err := h.ensurePeriodLoaded(ctx, periodID); err != nil {
		h.logger.WarnContext(ctx, "load period failed", "period_id", periodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	summary, err := h.gradebook.CalculateGpa(periodID)
	if err != nil {
		h.logger.WarnContext(ctx, "calculate gpa failed", "period_id", periodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gpaDTO{
		Weighted:   ratioOrNil(summary.Weighted),
		Unweighted: ratioOrNil(summary.Unweighted),
	})
}

func (h *Handler) RefreshCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshCourse")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		h.logger.WarnContext(ctx, "load period failed", "period_id", key.PeriodID, "error", err)
		writeError(ctx, w, err)
		return
	}

	if err := h.gradebook.RefreshCourse(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "refresh course failed", "period_id", key.PeriodID, "course_id", key.CourseID, "error", err)
		writeError(ctx, w, err)
		return
	}

	detail, err := h.courseDetail(ctx, key)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, detail)
}

// ensurePeriodLoaded fetches the period's courses on first access so
// clients can hit period routes directly after startup.
func (h *Handler) ensurePeriodLoaded(ctx context.Context, periodID string) error {
	if h.gradebook.IsPeriodLoaded(periodID) {
		return nil
	}
	return h.gradebook.LoadPeriod(ctx, periodID)
}

func (h *Handler) courseSummary(ctx context.Context, snapshot course.Course) (courseSummaryDTO, error) {
	key := snapshot.Key()

	ratio, err := h.gradebook.CalculateWeightedRatio(key, nil)
	if err != nil {
		return courseSummaryDTO{}, err
	}
	needsRollback, err := h.gradebook.NeedsRollback(key)
	if err != nil {
		return courseSummaryDTO{}, err
	}

	fetchedAt := ""
	if !snapshot.FetchedAt.IsZero() {
		fetchedAt = snapshot.FetchedAt.UTC().Format(time.RFC3339)
	}

	return courseSummaryDTO{
		ID:            snapshot.ID,
		PeriodID:      snapshot.PeriodID,
		Name:          snapshot.Name,
		Teacher:       snapshot.Teacher,
		Room:          snapshot.Room,
		Ratio:         ratioOrNil(ratio),
		Mark:          markToDTO(ctx, h.gradebook.Policies().Grading.GetMark(ratio)),
		NeedsRollback: needsRollback,
		FetchedAt:     fetchedAt,
	}, nil
}

func (h *Handler) courseDetail(ctx context.Context, key course.Key) (courseDetailDTO, error) {
	snapshot, err := h.gradebook.Course(key)
	if err != nil {
		return courseDetailDTO{}, err
	}
	summary, err := h.courseSummary(ctx, snapshot)
	if err != nil {
		return courseDetailDTO{}, err
	}

	items, err := h.gradebook.Assignments(key)
	if err != nil {
		return courseDetailDTO{}, err
	}
	assignments := make([]assignmentDTO, 0, len(items))
	for i, item := range items {
		impact, err := h.gradebook.AssignmentImpact(key, i)
		if err != nil {
			return courseDetailDTO{}, err
		}
		assignments = append(assignments, assignmentToDTO(ctx, item, impact))
	}

	weights := h.gradebook.Policies().Weighting.Weights()
	categories := make([]categorySummaryDTO, 0, len(weights))
	for _, weight := range weights {
		points, err := h.gradebook.TotalAssignmentPoints(key, weight.Name)
		if err != nil {
			return courseDetailDTO{}, err
		}
		maxPoints, err := h.gradebook.MaxAssignmentPoints(key, weight.Name)
		if err != nil {
			return courseDetailDTO{}, err
		}
		categories = append(categories, categorySummaryDTO{
			Category:  weight.Name,
			Short:     weight.Short,
			Weight:    weight.Weight,
			Points:    points,
			MaxPoints: maxPoints,
		})
	}

	return courseDetailDTO{
		Course:      summary,
		Assignments: assignments,
		Categories:  categories,
	}, nil
}
