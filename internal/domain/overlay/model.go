package overlay

import (
	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
)

// CourseOverlay is the locally editable working copy of one course's
// assignments. The canonical snapshot it derives from is never mutated;
// every edit lands here. NeedsRollback is true exactly when the working
// list has diverged from the snapshot baseline, which is the only signal
// the caller needs to decide between "discard edits" and "re-fetch".
type CourseOverlay struct {
	Key           course.Key
	Assignments   []assignment.Assignment
	NeedsRollback bool
}

// FromSnapshot derives a pristine overlay: the snapshot's assignments
// copied in due-date-descending order with the rollback flag clear. Both
// the first load and every rollback/refresh go through here.
func FromSnapshot(snapshot course.Course) CourseOverlay {
	items := make([]assignment.Assignment, len(snapshot.Assignments))
	copy(items, snapshot.Assignments)
	assignment.SortByDueDateDesc(items)

	return CourseOverlay{
		Key:         snapshot.Key(),
		Assignments: items,
	}
}

// Clone deep-copies the overlay so callers can hand out working lists
// without aliasing the stored one.
func (o CourseOverlay) Clone() CourseOverlay {
	items := make([]assignment.Assignment, len(o.Assignments))
	copy(items, o.Assignments)
	return CourseOverlay{
		Key:           o.Key,
		Assignments:   items,
		NeedsRollback: o.NeedsRollback,
	}
}
