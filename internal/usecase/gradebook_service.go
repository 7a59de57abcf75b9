package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/openvue/gradepoint/internal/domain/assignment"
	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/domain/overlay"
	"github.com/openvue/gradepoint/internal/domain/policy"
	"github.com/openvue/gradepoint/internal/platform/id"
	"github.com/openvue/gradepoint/internal/platform/logging"
	"github.com/openvue/gradepoint/internal/platform/resilience"
)

const defaultPrefetchWorkers = 4

// GradebookService is the aggregate root over course snapshots, their
// what-if overlays and the grading-period index. Snapshots only change by
// wholesale replacement from the source; every user edit lands in an
// overlay. All derived values (ratio, mark, GPA, impact) are computed on
// demand from the current overlay state.
type GradebookService struct {
	source          course.Source
	policies        policy.Set
	idGen           id.Generator
	logger          *logging.Logger
	now             func() time.Time
	prefetchWorkers int

	fetchFlight resilience.SingleFlight

	mu            sync.RWMutex
	snapshots     map[course.Key]course.Course
	overlays      map[course.Key]overlay.CourseOverlay
	overlayLocks  map[course.Key]*sync.Mutex
	periods       map[string]course.GradingPeriod
	periodOrder   []string
	defaultPeriod string
	courseOrder   map[string][]string
	loadedPeriods map[string]struct{}
}

type GradebookOption func(*GradebookService)

func WithPrefetchWorkers(workers int) GradebookOption {
	return func(s *GradebookService) {
		if workers > 0 {
			s.prefetchWorkers = workers
		}
	}
}

func WithClock(now func() time.Time) GradebookOption {
	return func(s *GradebookService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewGradebookService(
	source course.Source,
	policies policy.Set,
	idGen id.Generator,
	logger *logging.Logger,
	opts ...GradebookOption,
) *GradebookService {
	if logger == nil {
		logger = logging.Default()
	}

	s := &GradebookService{
		source:          source,
		policies:        policies,
		idGen:           idGen,
		logger:          logger,
		now:             time.Now,
		prefetchWorkers: defaultPrefetchWorkers,
		snapshots:       make(map[course.Key]course.Course),
		overlays:        make(map[course.Key]overlay.CourseOverlay),
		overlayLocks:    make(map[course.Key]*sync.Mutex),
		periods:         make(map[string]course.GradingPeriod),
		courseOrder:     make(map[string][]string),
		loadedPeriods:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GradebookService) Policies() policy.Set {
	return s.policies
}

// Init loads the grading-period index. It must succeed before any
// period- or course-scoped operation.
func (s *GradebookService) Init(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradebookService.Init")
	defer span.End()

	info, err := s.source.GradebookInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetch gradebook info: %w", err)
	}
	if len(info.Periods) == 0 {
		return fmt.Errorf("%w: source returned no grading periods", ErrDependencyUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.periods = make(map[string]course.GradingPeriod, len(info.Periods))
	s.periodOrder = s.periodOrder[:0]
	for _, period := range info.Periods {
		s.periods[period.ID] = period
		s.periodOrder = append(s.periodOrder, period.ID)
	}

	s.defaultPeriod = info.DefaultPeriodID
	if s.defaultPeriod == "" {
		for _, period := range info.Periods {
			if period.DefaultFocus {
				s.defaultPeriod = period.ID
				break
			}
		}
	}
	if s.defaultPeriod == "" {
		s.defaultPeriod = info.Periods[0].ID
	}

	return nil
}

func (s *GradebookService) GradingPeriods() []course.GradingPeriod {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]course.GradingPeriod, 0, len(s.periodOrder))
	for _, periodID := range s.periodOrder {
		out = append(out, s.periods[periodID])
	}
	return out
}

func (s *GradebookService) DefaultPeriodID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultPeriod
}

// IsPeriodLoaded reports whether the period's full course list has been
// populated, as opposed to individual courses loaded one at a time.
func (s *GradebookService) IsPeriodLoaded(periodID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loadedPeriods[periodID]
	return ok
}

// LoadPeriod fetches every course of one grading period and accepts the
// snapshots. Concurrent calls for the same period collapse into one
// fetch. A fetch failure leaves existing state untouched.
func (s *GradebookService) LoadPeriod(ctx context.Context, periodID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradebookService.LoadPeriod")
	defer span.End()

	if err := s.requirePeriod(periodID); err != nil {
		return err
	}

	_, err, _ := s.fetchFlight.Do("period:"+periodID, func() (any, error) {
		courses, err := s.source.Courses(ctx, periodID)
		if err != nil {
			return nil, fmt.Errorf("fetch courses period=%s: %w", periodID, err)
		}
		s.acceptPeriod(periodID, courses)
		return nil, nil
	})
	if err != nil {
		return err
	}

	return nil
}

// Prefetch loads several grading periods through a bounded worker pool.
// Period failures are logged and skipped; the first pool-level error
// aborts.
func (s *GradebookService) Prefetch(ctx context.Context, periodIDs []string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradebookService.Prefetch")
	defer span.End()

	if len(periodIDs) == 0 {
		return nil
	}

	workers := s.prefetchWorkers
	if workers > len(periodIDs) {
		workers = len(periodIDs)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create prefetch pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, periodID := range periodIDs {
		periodID := periodID
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if loadErr := s.LoadPeriod(ctx, periodID); loadErr != nil {
				s.logger.WarnContext(ctx, "prefetch period failed", "period_id", periodID, "error", loadErr)
			}
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit prefetch task period=%s: %w", periodID, submitErr)
		}
	}
	wg.Wait()

	return nil
}

// RefreshCourse re-fetches one course and replaces both its snapshot and
// its overlay, clearing any pending edits. Overlapping refreshes for the
// same key are collapsed; a failed fetch leaves the last good state in
// place.
func (s *GradebookService) RefreshCourse(ctx context.Context, key course.Key) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradebookService.RefreshCourse")
	defer span.End()

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.requirePeriod(key.PeriodID); err != nil {
		return err
	}

	_, err, _ := s.fetchFlight.Do("course:"+key.String(), func() (any, error) {
		snapshot, found, err := s.source.Course(ctx, key.PeriodID, key.CourseID)
		if err != nil {
			return nil, fmt.Errorf("fetch course %s: %w", key, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, key)
		}
		s.acceptSnapshot(snapshot)
		return nil, nil
	})
	if err != nil {
		return err
	}

	return nil
}

// acceptPeriod installs a full period fetch: snapshot + fresh overlay per
// course, the period's course ordering, and the loaded marker. Last write
// wins at each key; snapshots are idempotent reads so a stale response
// overwriting a newer one converges on the next fetch.
func (s *GradebookService) acceptPeriod(periodID string, courses []course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := make([]string, 0, len(courses))
	for _, snapshot := range courses {
		snapshot.PeriodID = periodID
		s.installSnapshotLocked(snapshot)
		order = append(order, snapshot.ID)
	}
	s.courseOrder[periodID] = order
	s.loadedPeriods[periodID] = struct{}{}
}

func (s *GradebookService) acceptSnapshot(snapshot course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.installSnapshotLocked(snapshot)

	key := snapshot.Key()
	order := s.courseOrder[key.PeriodID]
	for _, courseID := range order {
		if courseID == key.CourseID {
			return
		}
	}
	s.courseOrder[key.PeriodID] = append(order, key.CourseID)
}

func (s *GradebookService) installSnapshotLocked(snapshot course.Course) {
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = s.now()
	}
	key := snapshot.Key()
	s.snapshots[key] = snapshot
	s.overlays[key] = overlay.FromSnapshot(snapshot)
}

// Course returns the canonical snapshot for a key.
func (s *GradebookService) Course(key course.Key) (course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[key]
	if !ok {
		return course.Course{}, fmt.Errorf("%w: course %s", ErrNotLoaded, key)
	}
	return snapshot, nil
}

// SortedCourses returns the period's snapshots in source order.
func (s *GradebookService) SortedCourses(periodID string) ([]course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.loadedPeriods[periodID]; !ok {
		return nil, fmt.Errorf("%w: period %s", ErrNotLoaded, periodID)
	}

	order := s.courseOrder[periodID]
	out := make([]course.Course, 0, len(order))
	for _, courseID := range order {
		if snapshot, ok := s.snapshots[course.Key{PeriodID: periodID, CourseID: courseID}]; ok {
			out = append(out, snapshot)
		}
	}
	return out, nil
}

// Assignments returns the overlay's working list for a key.
func (s *GradebookService) Assignments(key course.Key) ([]assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overlays[key]
	if !ok {
		return nil, fmt.Errorf("%w: course %s", ErrNotLoaded, key)
	}
	return o.Clone().Assignments, nil
}

// SetAssignments replaces the overlay's working list wholesale and marks
// it edited.
func (s *GradebookService) SetAssignments(key course.Key, items []assignment.Assignment) error {
	unlock, err := s.lockOverlay(key)
	if err != nil {
		return err
	}
	defer unlock()

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	working := make([]assignment.Assignment, len(items))
	copy(working, items)
	s.storeOverlay(key, overlay.CourseOverlay{Key: key, Assignments: working, NeedsRollback: true})
	return nil
}

// NeedsRollback reports whether a key's overlay has diverged from its
// snapshot baseline.
func (s *GradebookService) NeedsRollback(key course.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overlays[key]
	if !ok {
		return false, fmt.Errorf("%w: course %s", ErrNotLoaded, key)
	}
	return o.NeedsRollback, nil
}

// AnyNeedsRollback reports whether any overlay in the period carries
// edits. Drives the period-wide reset-vs-refresh action.
func (s *GradebookService) AnyNeedsRollback(periodID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, o := range s.overlays {
		if key.PeriodID == periodID && o.NeedsRollback {
			return true
		}
	}
	return false
}

// Rollback discards the overlay's edits and rebuilds it from the current
// snapshot. Rolling back a pristine overlay is a no-op, so the operation
// is idempotent.
func (s *GradebookService) Rollback(key course.Key) error {
	unlock, err := s.lockOverlay(key)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.snapshots[key]
	if !ok {
		return fmt.Errorf("%w: course %s", ErrNotLoaded, key)
	}
	s.overlays[key] = overlay.FromSnapshot(snapshot)
	return nil
}

// NewCustomAssignment builds the synthetic entry AddAssignment prepends
// when the caller supplies no explicit values: zero out of zero in the
// policy's first category.
func (s *GradebookService) NewCustomAssignment() assignment.Assignment {
	categoryName := ""
	if first, ok := s.policies.Weighting.FirstCategory(); ok {
		categoryName = first.Name
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		// crypto/rand failure; an empty id only affects display dedup.
		newID = ""
	}

	return assignment.Assignment{
		ID:       newID,
		Name:     "New Assignment",
		Category: categoryName,
		DueDate:  s.now(),
		Score:    assignment.Float(0),
		MaxScore: assignment.Float(0),
		IsCustom: true,
	}
}

// AddAssignment prepends a synthetic what-if assignment to the overlay.
func (s *GradebookService) AddAssignment(key course.Key, item assignment.Assignment) error {
	unlock, err := s.lockOverlay(key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if item.Category != "" {
		if _, ok := s.policies.Weighting.Lookup(item.Category); !ok {
			return fmt.Errorf("%w: %v: %s", ErrInvalidInput, policy.ErrUnknownCategory, item.Category)
		}
	}
	item.IsCustom = true

	o, err := s.workingOverlay(key)
	if err != nil {
		return err
	}
	o.Assignments = append([]assignment.Assignment{item}, o.Assignments...)
	o.NeedsRollback = true
	s.storeOverlay(key, o)
	return nil
}

// DeleteAssignment removes the overlay entry at index. Canonical
// assignments are never deleted from the snapshot, only from the working
// copy.
func (s *GradebookService) DeleteAssignment(key course.Key, index int) error {
	unlock, err := s.lockOverlay(key)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.workingOverlay(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(o.Assignments) {
		return fmt.Errorf("%w: assignment index %d out of range", ErrInvalidInput, index)
	}

	o.Assignments = append(o.Assignments[:index], o.Assignments[index+1:]...)
	o.NeedsRollback = true
	s.storeOverlay(key, o)
	return nil
}

// AssignmentEdit carries field-level changes for one overlay entry. Nil
// fields are left untouched.
type AssignmentEdit struct {
	Name          *string
	Category      *string
	Score         *float64
	MaxScore      *float64
	NotForGrading *bool
	Description   *string
}

// EditAssignment applies a field-level edit to the overlay entry at
// index and marks the overlay edited.
func (s *GradebookService) EditAssignment(key course.Key, index int, edit AssignmentEdit) error {
	unlock, err := s.lockOverlay(key)
	if err != nil {
		return err
	}
	defer unlock()

	if edit.Category != nil {
		if _, ok := s.policies.Weighting.Lookup(*edit.Category); !ok {
			return fmt.Errorf("%w: %v: %s", ErrInvalidInput, policy.ErrUnknownCategory, *edit.Category)
		}
	}

	o, err := s.workingOverlay(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(o.Assignments) {
		return fmt.Errorf("%w: assignment index %d out of range", ErrInvalidInput, index)
	}

	item := o.Assignments[index]
	if edit.Name != nil {
		item.Name = *edit.Name
	}
	if edit.Category != nil {
		item.Category = *edit.Category
	}
	if edit.Score != nil {
		item.Score = assignment.Float(*edit.Score)
		if item.MaxScore == nil {
			item.MaxScore = assignment.Float(0)
		}
	}
	if edit.MaxScore != nil {
		item.MaxScore = assignment.Float(*edit.MaxScore)
	}
	if edit.NotForGrading != nil {
		item.NotForGrading = *edit.NotForGrading
	}
	if edit.Description != nil {
		item.Description = edit.Description
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	o.Assignments[index] = item
	o.NeedsRollback = true
	s.storeOverlay(key, o)
	return nil
}

// CalculateWeightedRatio computes the course's overall score fraction
// from its overlay. NaN means no gradable work yet.
func (s *GradebookService) CalculateWeightedRatio(key course.Key, adjustments []Adjustment) (float64, error) {
	items, err := s.Assignments(key)
	if err != nil {
		return math.NaN(), err
	}
	return WeightedRatio(items, s.policies.Weighting, adjustments), nil
}

// CalculateMark resolves the course's current mark through the grading
// policy. A NaN ratio lands on the terminal N/A rule rather than failing.
func (s *GradebookService) CalculateMark(key course.Key) (policy.Mark, error) {
	ratio, err := s.CalculateWeightedRatio(key, nil)
	if err != nil {
		return policy.Mark{}, err
	}
	return s.policies.Grading.GetMark(ratio), nil
}

// AssignmentImpact computes the marginal impact of the overlay entry at
// index on the course's overall ratio.
func (s *GradebookService) AssignmentImpact(key course.Key, index int) (float64, error) {
	items, err := s.Assignments(key)
	if err != nil {
		return math.NaN(), err
	}
	if index < 0 || index >= len(items) {
		return math.NaN(), fmt.Errorf("%w: assignment index %d out of range", ErrInvalidInput, index)
	}
	return AssignmentImpact(items, s.policies.Weighting, items[index]), nil
}

// TrendPoints returns the course's running-grade series in due-date
// order.
func (s *GradebookService) TrendPoints(key course.Key) ([]TrendPoint, error) {
	items, err := s.Assignments(key)
	if err != nil {
		return nil, err
	}
	return Trend(items, s.policies.Weighting), nil
}

// TotalAssignmentPoints sums earned points over the scored, gradable
// assignments of a key, optionally narrowed to one category.
func (s *GradebookService) TotalAssignmentPoints(key course.Key, category string) (float64, error) {
	items, err := s.Assignments(key)
	if err != nil {
		return 0, err
	}
	points, _ := accumulatePoints(items, category)
	return points, nil
}

// MaxAssignmentPoints sums possible points under the same filtering rule.
func (s *GradebookService) MaxAssignmentPoints(key course.Key, category string) (float64, error) {
	items, err := s.Assignments(key)
	if err != nil {
		return 0, err
	}
	_, maxPoints := accumulatePoints(items, category)
	return maxPoints, nil
}

// GpaSummary carries both GPA axes for one grading period. Either value
// is NaN when no course contributed to that axis.
type GpaSummary struct {
	Weighted   float64
	Unweighted float64
}

// CalculateGpa aggregates GPA over every course in the period's canonical
// list. Courses whose mark carries no point value (pass/fail, N/A) are
// excluded from sum and count on that axis rather than counted as zero.
// Whether a course earns weighted points is the classifier's call.
func (s *GradebookService) CalculateGpa(periodID string) (GpaSummary, error) {
	courses, err := s.SortedCourses(periodID)
	if err != nil {
		return GpaSummary{}, err
	}

	unweightedSum, weightedSum := 0.0, 0.0
	unweightedCount, weightedCount := 0, 0
	for _, snapshot := range courses {
		ratio, err := s.CalculateWeightedRatio(snapshot.Key(), nil)
		if err != nil {
			return GpaSummary{}, err
		}
		mark := s.policies.Grading.GetMark(ratio)

		if mark.GpaPoints != nil {
			unweightedSum += *mark.GpaPoints
			unweightedCount++
		}

		if mark.GpaPoints == nil && mark.WgpaPoints == nil {
			continue
		}
		points := mark.GpaPoints
		if s.policies.Classifier.IsWeighted(snapshot.Name) && mark.WgpaPoints != nil {
			points = mark.WgpaPoints
		}
		if points != nil {
			weightedSum += *points
		}
		weightedCount++
	}

	summary := GpaSummary{Weighted: math.NaN(), Unweighted: math.NaN()}
	if unweightedCount > 0 {
		summary.Unweighted = unweightedSum / float64(unweightedCount)
	}
	if weightedCount > 0 {
		summary.Weighted = weightedSum / float64(weightedCount)
	}
	return summary, nil
}

// Districts proxies the institution lookup for the district picker.
func (s *GradebookService) Districts(ctx context.Context, zipCode string) ([]course.DistrictInfo, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GradebookService.Districts")
	defer span.End()

	if zipCode == "" {
		return nil, fmt.Errorf("%w: zip code is required", ErrInvalidInput)
	}
	districts, err := s.source.Districts(ctx, zipCode)
	if err != nil {
		return nil, fmt.Errorf("fetch districts zip=%s: %w", zipCode, err)
	}
	return districts, nil
}

func (s *GradebookService) requirePeriod(periodID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.periods) == 0 {
		return fmt.Errorf("%w: grading periods not initialized", ErrNotLoaded)
	}
	if _, ok := s.periods[periodID]; !ok {
		return fmt.Errorf("%w: grading period %s", ErrNotFound, periodID)
	}
	return nil
}

// lockOverlay takes the key's exclusive edit lock. Edits are
// read-modify-write on the working list, so each key serializes its own
// mutations without blocking unrelated courses.
func (s *GradebookService) lockOverlay(key course.Key) (func(), error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	lock, ok := s.overlayLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.overlayLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock, nil
}

func (s *GradebookService) workingOverlay(key course.Key) (overlay.CourseOverlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overlays[key]
	if !ok {
		return overlay.CourseOverlay{}, fmt.Errorf("%w: course %s", ErrNotLoaded, key)
	}
	return o.Clone(), nil
}

func (s *GradebookService) storeOverlay(key course.Key, o overlay.CourseOverlay) {
	s.mu.Lock()
	s.overlays[key] = o
	s.mu.Unlock()
}
