package synergy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
)

// Wire shapes for the Synergy gateway. Scores travel as strings ("92",
// "1,024.5", "" for ungraded) and are normalized here; nothing past this
// package ever parses a score string.

type requestEnvelope struct {
	Operation string            `json:"operation"`
	Params    map[string]string `json:"params,omitempty"`
}

type responseEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type gradebookInfoPayload struct {
	ReportingPeriods []reportingPeriodItem `json:"reportingPeriods"`
	DefaultPeriod    string                `json:"defaultPeriod"`
	InstitutionID    string                `json:"institutionId"`
}

type reportingPeriodItem struct {
	Index        string `json:"index"`
	Name         string `json:"name"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	DefaultFocus bool   `json:"defaultFocus"`
}

type coursesPayload struct {
	Courses []courseItem `json:"courses"`
}

type courseItem struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Staff           string              `json:"staff"`
	Room            string              `json:"room"`
	Assignments     []assignmentItem    `json:"assignments"`
	WeightSummaries []weightSummaryItem `json:"weightSummaries"`
}

type assignmentItem struct {
	GradebookID   string `json:"gradebookId"`
	Measure       string `json:"measure"`
	Type          string `json:"type"`
	DueDate       string `json:"dueDate"`
	Score         string `json:"score"`
	MaxScore      string `json:"maxScore"`
	Notes         string `json:"notes"`
	NotForGrading string `json:"notForGrading"`
}

type weightSummaryItem struct {
	Type      string `json:"type"`
	Points    string `json:"points"`
	MaxPoints string `json:"maxPoints"`
	Weight    string `json:"weight"`
}

type districtsPayload struct {
	Districts []districtItem `json:"districts"`
}

type districtItem struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Host    string `json:"host"`
}

// Gateways report dates in either ISO or US form depending on district.
var dueDateLayouts = []string{"2006-01-02", "1/2/2006", time.RFC3339}

func parseDueDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dueDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized due date %q", raw)
}

func mapReportingPeriod(item reportingPeriodItem) (course.GradingPeriod, error) {
	if strings.TrimSpace(item.Index) == "" {
		return course.GradingPeriod{}, fmt.Errorf("reporting period has no index")
	}
	start, err := parseDueDate(item.StartDate)
	if err != nil {
		return course.GradingPeriod{}, fmt.Errorf("period %s: %w", item.Index, err)
	}
	end, err := parseDueDate(item.EndDate)
	if err != nil {
		return course.GradingPeriod{}, fmt.Errorf("period %s: %w", item.Index, err)
	}

	return course.GradingPeriod{
		ID:           strings.TrimSpace(item.Index),
		Name:         strings.TrimSpace(item.Name),
		StartDate:    start,
		EndDate:      end,
		DefaultFocus: item.DefaultFocus,
	}, nil
}

func mapAssignment(item assignmentItem) (assignment.Assignment, error) {
	score, err := assignment.ParseScore(item.Score)
	if err != nil {
		return assignment.Assignment{}, fmt.Errorf("assignment %q: %w", item.Measure, err)
	}
	maxScore, err := assignment.ParseScore(item.MaxScore)
	if err != nil {
		return assignment.Assignment{}, fmt.Errorf("assignment %q: %w", item.Measure, err)
	}
	dueDate, err := parseDueDate(item.DueDate)
	if err != nil {
		return assignment.Assignment{}, fmt.Errorf("assignment %q: %w", item.Measure, err)
	}

	// A score with no stated maximum is a display-only value some
	// gateways emit for excused work; treat it as ungraded.
	if score != nil && maxScore == nil {
		score = nil
	}

	out := assignment.Assignment{
		ID:            strings.TrimSpace(item.GradebookID),
		Name:          strings.TrimSpace(item.Measure),
		Category:      strings.TrimSpace(item.Type),
		DueDate:       dueDate,
		Score:         score,
		MaxScore:      maxScore,
		NotForGrading: strings.EqualFold(strings.TrimSpace(item.NotForGrading), "true"),
	}
	if notes := strings.TrimSpace(item.Notes); notes != "" {
		out.Description = &notes
	}
	return out, nil
}

func mapCourse(periodID string, item courseItem) (course.Course, error) {
	if strings.TrimSpace(item.ID) == "" {
		return course.Course{}, fmt.Errorf("course %q has no id", item.Title)
	}

	assignments := make([]assignment.Assignment, 0, len(item.Assignments))
	for _, raw := range item.Assignments {
		mapped, err := mapAssignment(raw)
		if err != nil {
			return course.Course{}, fmt.Errorf("course %q: %w", item.Title, err)
		}
		assignments = append(assignments, mapped)
	}

	summaries := make([]course.CategorySummary, 0, len(item.WeightSummaries))
	for _, raw := range item.WeightSummaries {
		points, err := assignment.ParseScore(raw.Points)
		if err != nil {
			continue
		}
		maxPoints, err := assignment.ParseScore(raw.MaxPoints)
		if err != nil {
			continue
		}
		weight, err := assignment.ParseScore(strings.TrimSuffix(strings.TrimSpace(raw.Weight), "%"))
		if err != nil || weight == nil {
			continue
		}
		summary := course.CategorySummary{
			Category: strings.TrimSpace(raw.Type),
			Weight:   *weight / 100,
		}
		if points != nil {
			summary.Points = *points
		}
		if maxPoints != nil {
			summary.MaxPoints = *maxPoints
		}
		summaries = append(summaries, summary)
	}

	return course.Course{
		ID:             strings.TrimSpace(item.ID),
		PeriodID:       periodID,
		Name:           strings.TrimSpace(item.Title),
		Teacher:        strings.TrimSpace(item.Staff),
		Room:           strings.TrimSpace(item.Room),
		Assignments:    assignments,
		SummaryWeights: summaries,
	}, nil
}

func mapDistrict(item districtItem) course.DistrictInfo {
	return course.DistrictInfo{
		Name:    strings.TrimSpace(item.Name),
		Address: strings.TrimSpace(item.Address),
		Host:    strings.TrimSpace(item.Host),
	}
}
