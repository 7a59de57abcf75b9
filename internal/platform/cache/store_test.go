package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var loads atomic.Int32

	loader := func(context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "rockville districts", nil
	}

	const callers = 32
	gate := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-gate
			v, err := store.GetOrLoad(context.Background(), "districts:20850", loader)
			if err != nil {
				t.Errorf("GetOrLoad: %v", err)
				return
			}
			if got, _ := v.(string); got != "rockville districts" {
				t.Errorf("GetOrLoad value = %v", v)
			}
		}()
	}
	close(gate)
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}

	// A later call is a plain cache hit.
	if _, err := store.GetOrLoad(context.Background(), "districts:20850", loader); err != nil {
		t.Fatalf("cached GetOrLoad: %v", err)
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("loader ran %d times after hit, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheLoaderErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	wantErr := errors.New("gateway timeout")
	ctx := context.Background()

	if _, err := store.GetOrLoad(ctx, "gradebook:info", func(context.Context) (any, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("GetOrLoad error = %v, want %v", err, wantErr)
	}

	v, err := store.GetOrLoad(ctx, "gradebook:info", func(context.Context) (any, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("retry GetOrLoad: %v", err)
	}
	if got, _ := v.(string); got != "recovered" {
		t.Fatalf("retry value = %v, want recovered", v)
	}
}

func TestStore_ExpiredEntriesMiss(t *testing.T) {
	t.Parallel()

	store := NewStore(10 * time.Millisecond)
	ctx := context.Background()

	store.Set(ctx, "districts:20902", "b")
	if _, ok := store.Get(ctx, "districts:20902"); !ok {
		t.Fatal("expected fresh entry to hit")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := store.Get(ctx, "districts:20902"); ok {
		t.Fatal("expected entry expired after TTL")
	}
}

func TestStore_DeletePrefixEvictsMatchingKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "districts:20850", "a")
	store.Set(ctx, "districts:20902", "b")
	store.Set(ctx, "gradebook:info", "c")

	store.DeletePrefix(ctx, "districts:")

	for _, key := range []string{"districts:20850", "districts:20902"} {
		if _, ok := store.Get(ctx, key); ok {
			t.Fatalf("expected %s evicted", key)
		}
	}
	if _, ok := store.Get(ctx, "gradebook:info"); !ok {
		t.Fatal("expected unrelated key kept")
	}
}
