package course

import (
	"fmt"
	"time"

	"github.com/openvue/gradepoint/internal/domain/assignment"
)

// Key identifies a course within one grading period. Snapshots, overlays
// and in-flight fetches are all tracked per key.
type Key struct {
	PeriodID string
	CourseID string
}

func NewKey(periodID, courseID string) Key {
	return Key{PeriodID: periodID, CourseID: courseID}
}

func (k Key) String() string {
	return k.PeriodID + ":" + k.CourseID
}

func (k Key) Validate() error {
	if k.PeriodID == "" {
		return fmt.Errorf("grading period id is required")
	}
	if k.CourseID == "" {
		return fmt.Errorf("course id is required")
	}
	return nil
}

// Course is the canonical snapshot of one course as of the last fetch.
// It is immutable once stored; a refresh replaces it wholesale.
type Course struct {
	ID          string
	PeriodID    string
	Name        string
	Teacher     string
	Room        string
	Assignments []assignment.Assignment
	// SummaryWeights carries server-reported per-category totals when the
	// upstream includes them. Display-only; the engine recomputes its own.
	SummaryWeights []CategorySummary
	FetchedAt      time.Time
}

func (c Course) Key() Key {
	return Key{PeriodID: c.PeriodID, CourseID: c.ID}
}

type CategorySummary struct {
	Category  string
	Points    float64
	MaxPoints float64
	Weight    float64
}

// GradingPeriod is a bounded date range (quarter, term) scoping courses
// and assignments.
type GradingPeriod struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	// DefaultFocus marks the period the source considers current.
	DefaultFocus bool
}

// DistrictInfo describes one institution returned by a zip-code lookup.
type DistrictInfo struct {
	Name    string
	Address string
	Host    string
}
