package assignment

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Assignment is one gradable (or excluded) unit of work inside a course.
// Score and MaxScore are nil until the assignment has been graded; the
// upstream transport sometimes carries them as numeric strings, which are
// normalized at the source boundary via ParseScore before they reach here.
type Assignment struct {
	ID            string
	Name          string
	Category      string
	DueDate       time.Time
	Score         *float64
	MaxScore      *float64
	Description   *string
	NotForGrading bool
	// IsCustom marks synthetic what-if entries inserted by the user.
	// Canonical data from the source never sets it.
	IsCustom bool
}

// Graded reports whether the assignment carries a score. A scored
// assignment always has a max score as well.
func (a Assignment) Graded() bool {
	return a.Score != nil && a.MaxScore != nil
}

// CountsTowardGrade reports whether the assignment participates in the
// weighted ratio: graded and not excluded.
func (a Assignment) CountsTowardGrade() bool {
	return !a.NotForGrading && a.Graded()
}

// Ratio returns score/maxScore. NaN when ungraded or maxScore is zero;
// may fall outside [0,1] for extra credit or penalties.
func (a Assignment) Ratio() float64 {
	if !a.Graded() || *a.MaxScore == 0 {
		return math.NaN()
	}
	return *a.Score / *a.MaxScore
}

func (a Assignment) Validate() error {
	if a.Score != nil && a.MaxScore == nil {
		return fmt.Errorf("assignment %q has a score but no max score", a.Name)
	}
	return nil
}

// SortByDueDateDesc orders assignments newest first, the order overlays are
// built in. The sort is stable so same-day assignments keep source order.
func SortByDueDateDesc(items []Assignment) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.After(items[j].DueDate)
	})
}

// ParseScore converts a transport-level numeric string ("85", "1,024.5",
// "") into an optional score. Empty and dash-only values mean ungraded.
func ParseScore(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("parse score %q: %w", raw, err)
	}
	return &value, nil
}

// Float returns a pointer to v. Seed data and tests build optional scores
// with it.
func Float(v float64) *float64 {
	return &v
}

