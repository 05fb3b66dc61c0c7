package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// =============================================================================
// Property-Based Tests
// =============================================================================

// TestCacheTTLBehavior checks that entries are served until they outlive the TTL.
func TestCacheTTLBehavior(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Cache returns value when age is within TTL", prop.ForAll(
		func(name, version string, ageSeconds int) bool {
			now := time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC)
			stored := now.Add(-time.Duration(ageSeconds) * time.Second)

			clock := stored
			cache := NewCache(WithNowFunc(func() time.Time { return clock }))
			cache.Set(name, CatalogPackage{CanonicalName: name, LatestVersion: version})
			clock = now

			pkg, found := cache.Get(name)
			return found && pkg.LatestVersion == version
		},
		gen.AlphaString(),
		gen.NumString(),
		gen.IntRange(0, 3600),
	))

	properties.Property("Cache misses once the TTL has passed", prop.ForAll(
		func(name string, ageSeconds int) bool {
			now := time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC)
			stored := now.Add(-time.Duration(ageSeconds) * time.Second)

			clock := stored
			cache := NewCache(WithNowFunc(func() time.Time { return clock }))
			cache.Set(name, CatalogPackage{CanonicalName: name})
			clock = now

			_, found := cache.Get(name)
			return !found
		},
		gen.AlphaString(),
		gen.IntRange(3601, 100000),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestCacheCleanup(t *testing.T) {
	clock := time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC)
	cache := NewCache(WithTTL(time.Minute), WithNowFunc(func() time.Time { return clock }))

	cache.Set("old", CatalogPackage{CanonicalName: "old"})
	clock = clock.Add(2 * time.Minute)
	cache.Set("new", CatalogPackage{CanonicalName: "new"})

	cache.Cleanup()

	if cache.Len() != 1 {
		t.Fatalf("expected 1 entry after cleanup, got %d", cache.Len())
	}
	if _, ok := cache.GetEntry("new"); !ok {
		t.Error("fresh entry was removed")
	}

	cache.Delete("new")
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Len())
	}
}

func TestCacheFetchSingleFlight(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func() (CatalogPackage, error) {
		calls.Add(1)
		<-release
		return CatalogPackage{CanonicalName: "slack", LatestVersion: "4.1"}, nil
	}

	const callers = 10
	var wg sync.WaitGroup
	var started sync.WaitGroup
	errs := make(chan error, callers)
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			pkg, _, err := cache.Fetch(context.Background(), "slack", fetch)
			if err == nil && pkg.LatestVersion != "4.1" {
				err = errors.New("unexpected version " + pkg.LatestVersion)
			}
			errs <- err
		}()
	}

	started.Wait()
	// Give the callers time to join the flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}

	_, hit, err := cache.Fetch(context.Background(), "slack", fetch)
	if err != nil || !hit {
		t.Errorf("expected cache hit after fetch, hit=%v err=%v", hit, err)
	}
}

func TestCacheFetchDoesNotStoreFailures(t *testing.T) {
	cache := NewCache()
	boom := errors.New("boom")

	_, _, err := cache.Fetch(context.Background(), "zoom", func() (CatalogPackage, error) {
		return CatalogPackage{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if cache.Len() != 0 {
		t.Error("failed fetch must not be cached")
	}
}

func TestCacheFetchCallerContext(t *testing.T) {
	cache := NewCache()
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := cache.Fetch(ctx, "slow", func() (CatalogPackage, error) {
		<-release
		return CatalogPackage{CanonicalName: "slow"}, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestCacheFetchRejoinsAfterLeaderDeadline(t *testing.T) {
	cache := NewCache()
	release := make(chan struct{})
	var calls atomic.Int32

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := cache.Fetch(leaderCtx, "slack", func() (CatalogPackage, error) {
			calls.Add(1)
			<-release
			return CatalogPackage{}, &FetchError{Name: "slack", Err: ErrDeadlineExceeded}
		})
		leaderErr <- err
	}()

	time.Sleep(20 * time.Millisecond)
	waiter := make(chan error, 1)
	go func() {
		_, _, err := cache.Fetch(context.Background(), "slack", func() (CatalogPackage, error) {
			calls.Add(1)
			return CatalogPackage{CanonicalName: "slack", LatestVersion: "4.36"}, nil
		})
		waiter <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	if err := <-leaderErr; err == nil {
		t.Error("leader should fail")
	}
	if err := <-waiter; err != nil {
		t.Fatalf("waiter inherited the leader's failure: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected the waiter to start its own flight, got %d fetches", n)
	}
	if pkg, ok := cache.Get("slack"); !ok || pkg.LatestVersion != "4.36" {
		t.Errorf("expected cached record, got %+v ok=%v", pkg, ok)
	}
}
