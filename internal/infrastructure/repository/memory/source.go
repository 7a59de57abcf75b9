package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/openvue/gradepoint/internal/domain/course"
)

// Source is an in-memory course.Source. It backs demo mode and tests,
// where the Synergy gateway is unavailable or undesirable.
type Source struct {
	mu        sync.RWMutex
	info      course.GradebookInfo
	byPeriod  map[string][]course.Course
	districts []course.DistrictInfo
}

func NewSource(info course.GradebookInfo, courses []course.Course, districts []course.DistrictInfo) *Source {
	byPeriod := make(map[string][]course.Course)
	for _, c := range courses {
		byPeriod[c.PeriodID] = append(byPeriod[c.PeriodID], c)
	}

	return &Source{
		info:      info,
		byPeriod:  byPeriod,
		districts: districts,
	}
}

func (s *Source) GradebookInfo(_ context.Context) (course.GradebookInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.info
	out.Periods = append([]course.GradingPeriod(nil), s.info.Periods...)
	return out, nil
}

func (s *Source) Courses(_ context.Context, periodID string) ([]course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]course.Course(nil), s.byPeriod[periodID]...), nil
}

func (s *Source) Course(_ context.Context, periodID, courseID string) (course.Course, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.byPeriod[periodID] {
		if c.ID == courseID {
			return c, true, nil
		}
	}
	return course.Course{}, false, nil
}

func (s *Source) Districts(_ context.Context, zipCode string) ([]course.DistrictInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if strings.TrimSpace(zipCode) == "" {
		return nil, nil
	}
	return append([]course.DistrictInfo(nil), s.districts...), nil
}

// ReplaceCourse swaps one course snapshot in place. Demo tooling uses it
// to simulate the gateway posting new grades between refreshes.
func (s *Source) ReplaceCourse(updated course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.byPeriod[updated.PeriodID]
	for i, c := range items {
		if c.ID == updated.ID {
			items[i] = updated
			return
		}
	}
	s.byPeriod[updated.PeriodID] = append(items, updated)
}
