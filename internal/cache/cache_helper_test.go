package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return payload{Name: "overview", Count: calls}, nil
	}

	var first payload
	if err := cm.Report.CacheOrExecute(ctx, "k", &first, time.Minute, fetch); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	var second payload
	if err := cm.Report.CacheOrExecute(ctx, "k", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if second != first {
		t.Errorf("cached value = %+v, want %+v", second, first)
	}
	if !mr.Exists("report:k") {
		t.Error("expected prefixed key report:k in redis")
	}

	mr.FastForward(2 * time.Minute)
	var third payload
	if err := cm.Report.CacheOrExecute(ctx, "k", &third, time.Minute, fetch); err != nil {
		t.Fatalf("third call error = %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after expiry, calls = %d", calls)
	}
}

func TestCacheOrExecuteFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	wantErr := errors.New("boom")

	var dest payload
	err := cm.Dashboard.CacheOrExecute(context.Background(), "k", &dest, time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}

func TestCacheWithoutClient(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	if err := cm.Dashboard.Get(ctx, "k", &payload{}); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
	if err := cm.Dashboard.Set(ctx, "k", payload{}, time.Minute); err != nil {
		t.Errorf("Set() error = %v, want nil", err)
	}

	var dest payload
	err := cm.Dashboard.CacheOrExecute(ctx, "k", &dest, time.Minute, func() (interface{}, error) {
		return payload{Name: "fresh"}, nil
	})
	if err != nil || dest.Name != "fresh" {
		t.Errorf("CacheOrExecute() = %+v, %v", dest, err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestInvalidateTenantAggregates(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(cm.Dashboard.Set(ctx, AdminDashboardKey(1, "7d"), payload{}, time.Minute))
	must(cm.Report.Set(ctx, ReportOverviewKey(1, "all"), payload{}, time.Minute))
	must(cm.Report.Set(ctx, StudentReportKey(1, 42), payload{}, time.Minute))
	must(cm.Report.Set(ctx, ReportOverviewKey(2, "all"), payload{}, time.Minute))

	InvalidateTenantAggregates(ctx, cm, 1)

	for _, key := range []string{"dashboard:admin:1:7d", "report:overview:1:all", "report:student:1:42"} {
		if mr.Exists(key) {
			t.Errorf("expected %s to be invalidated", key)
		}
	}
	if !mr.Exists("report:overview:2:all") {
		t.Error("other tenant's cache must survive")
	}
}
