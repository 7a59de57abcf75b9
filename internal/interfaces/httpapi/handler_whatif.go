package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/usecase"
)

func (h *Handler) AddAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddAssignment")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addAssignmentRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item := h.gradebook.NewCustomAssignment()
	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Score != nil {
		item.Score = req.Score
		if req.MaxScore == nil {
			item.MaxScore = assignment.Float(0)
		}
	}
	if req.MaxScore != nil {
		item.MaxScore = req.MaxScore
	}
	item.NotForGrading = req.NotForGrading
	item.Description = req.Description

	if err := h.gradebook.AddAssignment(key, item); err != nil {
		h.logger.WarnContext(ctx, "add assignment failed", "period_id", key.PeriodID, "course_id", key.CourseID, "error", err)
		writeError(ctx, w, err)
		return
	}

	detail, err := h.courseDetail(ctx, key)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, detail)
}

func (h *Handler) EditAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditAssignment")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		writeError(ctx, w, err)
		return
	}

	index, err := parseAssignmentIndex(r.PathValue("index"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req editAssignmentRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	edit := usecase.AssignmentEdit{
		Name:          req.Name,
		Category:      req.Category,
		Score:         req.Score,
		MaxScore:      req.MaxScore,
		NotForGrading: req.NotForGrading,
		Description:   req.Description,
	}
	if err := h.gradebook.EditAssignment(key, index, edit); err != nil {
		h.logger.WarnContext(ctx, "edit assignment failed", "period_id", key.PeriodID, "course_id", key.CourseID, "index", index, "error", err)
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

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteAssignment")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		writeError(ctx, w, err)
		return
	}

	index, err := parseAssignmentIndex(r.PathValue("index"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.gradebook.DeleteAssignment(key, index); err != nil {
		h.logger.WarnContext(ctx, "delete assignment failed", "period_id", key.PeriodID, "course_id", key.CourseID, "index", index, "error", err)
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

func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Rollback")
	defer span.End()

	key := course.NewKey(r.PathValue("periodID"), r.PathValue("courseID"))
	if err := h.ensurePeriodLoaded(ctx, key.PeriodID); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.gradebook.Rollback(key); err != nil {
		h.logger.WarnContext(ctx, "rollback failed", "period_id", key.PeriodID, "course_id", key.CourseID, "error", err)
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

func parseAssignmentIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: assignment index must be a non-negative integer", usecase.ErrInvalidInput)
	}
	return index, nil
}
