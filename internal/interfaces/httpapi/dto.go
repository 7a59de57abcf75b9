package httpapi

import (
	"context"
	"math"
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/domain/policy"
	"github.com/openvue/gradepoint/internal/usecase"
)

const dueDateLayout = "2006-01-02"

type addAssignmentRequest struct {
	Name          string   `json:"name" validate:"omitempty,max=200"`
	Category      string   `json:"category" validate:"omitempty,max=100"`
	Score         *float64 `json:"score" validate:"omitempty,gte=0"`
	MaxScore      *float64 `json:"maxScore" validate:"omitempty,gte=0"`
	NotForGrading bool     `json:"notForGrading"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
}

type editAssignmentRequest struct {
	Name          *string  `json:"name" validate:"omitempty,max=200"`
	Category      *string  `json:"category" validate:"omitempty,max=100"`
	Score         *float64 `json:"score" validate:"omitempty,gte=0"`
	MaxScore      *float64 `json:"maxScore" validate:"omitempty,gte=0"`
	NotForGrading *bool    `json:"notForGrading"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
}

type gradebookDTO struct {
	DefaultPeriodID string             `json:"defaultPeriodId"`
	Periods         []gradingPeriodDTO `json:"periods"`
	Policy          policySummaryDTO   `json:"policy"`
}

type policySummaryDTO struct {
	Weights []weightDTO `json:"weights"`
	Marks   []markDTO   `json:"marks"`
}

type weightDTO struct {
	Name       string  `json:"name"`
	Colloquial string  `json:"colloquial,omitempty"`
	Short      string  `json:"short,omitempty"`
	Weight     float64 `json:"weight"`
}

type gradingPeriodDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsDefault bool   `json:"isDefault"`
}

type markDTO struct {
	Label      string   `json:"label"`
	Color      string   `json:"color"`
	GpaPoints  *float64 `json:"gpaPoints,omitempty"`
	WgpaPoints *float64 `json:"wgpaPoints,omitempty"`
}

type courseSummaryDTO struct {
	ID            string   `json:"id"`
	PeriodID      string   `json:"periodId"`
	Name          string   `json:"name"`
	Teacher       string   `json:"teacher,omitempty"`
	Room          string   `json:"room,omitempty"`
	Ratio         *float64 `json:"ratio"`
	Mark          markDTO  `json:"mark"`
	NeedsRollback bool     `json:"needsRollback"`
	FetchedAt     string   `json:"fetchedAt,omitempty"`
}

type assignmentDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	DueDate       string   `json:"dueDate,omitempty"`
	Score         *float64 `json:"score"`
	MaxScore      *float64 `json:"maxScore"`
	Description   *string  `json:"description,omitempty"`
	NotForGrading bool     `json:"notForGrading"`
	IsCustom      bool     `json:"isCustom"`
	Impact        *float64 `json:"impact"`
}

type categorySummaryDTO struct {
	Category  string  `json:"category"`
	Short     string  `json:"short,omitempty"`
	Weight    float64 `json:"weight"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"maxPoints"`
}

type courseDetailDTO struct {
	Course      courseSummaryDTO     `json:"course"`
	Assignments []assignmentDTO      `json:"assignments"`
	Categories  []categorySummaryDTO `json:"categories"`
}

type trendPointDTO struct {
	AssignmentID string   `json:"assignmentId"`
	Name         string   `json:"name"`
	DueDate      string   `json:"dueDate,omitempty"`
	Ratio        *float64 `json:"ratio"`
}

type gpaDTO struct {
	Weighted   *float64 `json:"weighted"`
	Unweighted *float64 `json:"unweighted"`
}

type districtDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Host    string `json:"host"`
}

// ratioOrNil maps the engine's NaN no-grade signal to JSON null.
func ratioOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func formatDueDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(dueDateLayout)
}

func gradingPeriodToDTO(v course.GradingPeriod) gradingPeriodDTO {
	return gradingPeriodDTO{
		ID:        v.ID,
		Name:      v.Name,
		StartDate: v.StartDate.UTC().Format(dueDateLayout),
		EndDate:   v.EndDate.UTC().Format(dueDateLayout),
		IsDefault: v.DefaultFocus,
	}
}

func policySummaryToDTO(ctx context.Context, v policy.Set) policySummaryDTO {
	ctx, span := startSpan(ctx, "httpapi.policySummaryToDTO")
	defer span.End()

	weights := v.Weighting.Weights()
	weightItems := make([]weightDTO, 0, len(weights))
	for _, w := range weights {
		weightItems = append(weightItems, weightDTO{
			Name:       w.Name,
			Colloquial: w.Colloquial,
			Short:      w.Short,
			Weight:     w.Weight,
		})
	}

	rules := v.Grading.Rules()
	markItems := make([]markDTO, 0, len(rules))
	for _, rule := range rules {
		markItems = append(markItems, markToDTO(ctx, rule))
	}

	return policySummaryDTO{Weights: weightItems, Marks: markItems}
}

func markToDTO(ctx context.Context, v policy.Mark) markDTO {
	ctx, span := startSpan(ctx, "httpapi.markToDTO")
	defer span.End()

	return markDTO{
		Label:      v.Label,
		Color:      v.Color,
		GpaPoints:  v.GpaPoints,
		WgpaPoints: v.WgpaPoints,
	}
}

func assignmentToDTO(ctx context.Context, v assignment.Assignment, impact float64) assignmentDTO {
	ctx, span := startSpan(ctx, "httpapi.assignmentToDTO")
	defer span.End()

	return assignmentDTO{
		ID:            v.ID,
		Name:          v.Name,
		Category:      v.Category,
		DueDate:       formatDueDate(v.DueDate),
		Score:         v.Score,
		MaxScore:      v.MaxScore,
		Description:   v.Description,
		NotForGrading: v.NotForGrading,
		IsCustom:      v.IsCustom,
		Impact:        ratioOrNil(impact),
	}
}

func trendToDTO(ctx context.Context, points []usecase.TrendPoint) []trendPointDTO {
	ctx, span := startSpan(ctx, "httpapi.trendToDTO")
	defer span.End()

	out := make([]trendPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointDTO{
			AssignmentID: p.Assignment.ID,
			Name:         p.Assignment.Name,
			DueDate:      formatDueDate(p.Assignment.DueDate),
			Ratio:        ratioOrNil(p.Ratio),
		})
	}
	return out
}

func districtToDTO(v course.DistrictInfo) districtDTO {
	return districtDTO{
		Name:    v.Name,
		Address: v.Address,
		Host:    v.Host,
	}
}
