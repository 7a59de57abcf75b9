package course

import "context"

// GradebookInfo is the first payload a session loads: the grading period
// index plus which institution policy applies.
type GradebookInfo struct {
	Periods         []GradingPeriod
	DefaultPeriodID string
	InstitutionID   string
}

// Source supplies canonical course data. Implementations own transport,
// auth and score-string normalization; callers only ever see typed
// snapshots.
type Source interface {
	GradebookInfo(ctx context.Context) (GradebookInfo, error)
	Courses(ctx context.Context, periodID string) ([]Course, error)
	Course(ctx context.Context, periodID, courseID string) (Course, bool, error)
	Districts(ctx context.Context, zipCode string) ([]DistrictInfo, error)
}
