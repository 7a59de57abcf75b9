package cache

import (
	"context"

	"github.com/openvue/gradepoint/internal/domain/course"
	basecache "github.com/openvue/gradepoint/internal/platform/cache"
)

// Source caches the slow-changing lookups of a course.Source: the
// gradebook info and district search. Course fetches pass through
// untouched so refresh always reaches the gateway.
type Source struct {
	next  course.Source
	cache *basecache.Store
}

var _ course.Source = (*Source)(nil)

func NewSource(next course.Source, cache *basecache.Store) *Source {
	return &Source{next: next, cache: cache}
}

func (s *Source) GradebookInfo(ctx context.Context) (course.GradebookInfo, error) {
	v, err := s.cache.GetOrLoad(ctx, "gradebook:info", func(ctx context.Context) (any, error) {
		return s.next.GradebookInfo(ctx)
	})
	if err != nil {
		return course.GradebookInfo{}, err
	}

	info, _ := v.(course.GradebookInfo)
	out := info
	out.Periods = append([]course.GradingPeriod(nil), info.Periods...)
	return out, nil
}

func (s *Source) Courses(ctx context.Context, periodID string) ([]course.Course, error) {
	return s.next.Courses(ctx, periodID)
}

func (s *Source) Course(ctx context.Context, periodID, courseID string) (course.Course, bool, error) {
	return s.next.Course(ctx, periodID, courseID)
}

func (s *Source) Districts(ctx context.Context, zipCode string) ([]course.DistrictInfo, error) {
	key := "districts:" + zipCode
	v, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := s.next.Districts(ctx, zipCode)
		if err != nil {
			return nil, err
		}
		return append([]course.DistrictInfo(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]course.DistrictInfo)
	return append([]course.DistrictInfo(nil), items...), nil
}
