package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/openvue/gradepoint/internal/platform/resilience"
)

// Store is a TTL map with singleflight-backed loading. It backs the
// district lookup and the gradebook-info fetch, both of which change
// rarely relative to how often clients ask for them.
type Store struct {
	ttl    time.Duration
	flight resilience.SingleFlight

	mu       sync.RWMutex
	values   map[string]any
	deadline map[string]int64
	writes   int
}

// sweepEvery bounds how much expired garbage can pile up between full
// scans.
const sweepEvery = 256

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		values:   make(map[string]any),
		deadline: make(map[string]int64),
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	value, ok := s.values[key]
	dl := s.deadline[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if expired(dl, time.Now()) {
		s.mu.Lock()
		s.evictLocked(key)
		s.mu.Unlock()
		return nil, false
	}
	return value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	now := time.Now()
	var dl int64
	if s.ttl > 0 {
		dl = now.Add(s.ttl).UnixNano()
	}

	s.mu.Lock()
	s.values[key] = value
	s.deadline[key] = dl
	s.writes++
	if s.writes >= sweepEvery {
		s.writes = 0
		for k, d := range s.deadline {
			if expired(d, now) {
				s.evictLocked(k)
			}
		}
	}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	s.evictLocked(key)
	s.mu.Unlock()
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}
	s.mu.Lock()
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			s.evictLocked(key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader once per key,
// caching its result. Concurrent misses for the same key share one
// loader call.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		// A racing loader may have filled the slot while this call
		// waited its turn.
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) evictLocked(key string) {
	delete(s.values, key)
	delete(s.deadline, key)
}

func expired(deadline int64, now time.Time) bool {
	return deadline > 0 && now.UnixNano() >= deadline
}
