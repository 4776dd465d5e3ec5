package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
)

type fakeModelSource struct {
	mu     sync.Mutex
	models []litellm.Model
	err    error
	calls  int
}

func (f *fakeModelSource) ListModels(context.Context) ([]litellm.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.models, f.err
}

func (f *fakeModelSource) HealthDetailed(context.Context) (*litellm.HealthReport, error) {
	return &litellm.HealthReport{HealthyCount: 1}, nil
}

func (f *fakeModelSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestModelCatalogCachesList(t *testing.T) {
	src := &fakeModelSource{models: []litellm.Model{{ModelName: "gpt-4o", Provider: "openai"}}}
	c := &mapCache{}
	cat := NewModelCatalog(src, c, time.Minute, 0)
	ctx := context.Background()

	for range 3 {
		got, err := cat.ListModels(ctx)
		if err != nil {
			t.Fatalf("ListModels: %v", err)
		}
		if diff := cmp.Diff(src.models, got); diff != "" {
			t.Errorf("models mismatch (-want +got):\n%s", diff)
		}
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}

	if err := c.Delete(ctx, modelsCacheKey); err != nil {
		t.Fatal(err)
	}
	if _, err := cat.ListModels(ctx); err != nil {
		t.Fatalf("ListModels after invalidation: %v", err)
	}
	if n := src.callCount(); n != 2 {
		t.Errorf("source called %d times after invalidation, want 2", n)
	}
}

func TestModelCatalogCorruptEntryReloads(t *testing.T) {
	src := &fakeModelSource{models: []litellm.Model{{ModelName: "m"}}}
	c := &mapCache{data: map[string][]byte{modelsCacheKey: []byte("{not json")}}
	cat := NewModelCatalog(src, c, time.Minute, 0)

	got, err := cat.ListModels(context.Background())
	if err != nil || len(got) != 1 || got[0].ModelName != "m" {
		t.Fatalf("ListModels = %v, %v", got, err)
	}
	if src.callCount() != 1 {
		t.Error("corrupt entry did not trigger reload")
	}
}

func TestModelCatalogWithoutCache(t *testing.T) {
	src := &fakeModelSource{}
	cat := NewModelCatalog(src, nil, 0, 0)

	got, err := cat.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListModels = %#v, want empty non-nil slice", got)
	}

	src.err = errors.New("proxy down")
	if _, err := cat.ListModels(context.Background()); err == nil {
		t.Error("expected source error to surface")
	}

	report, err := cat.HealthDetailed(context.Background())
	if err != nil || report.HealthyCount != 1 {
		t.Errorf("HealthDetailed = %+v, %v", report, err)
	}
}

func TestModelCatalogRunRefreshesUntilCancelled(t *testing.T) {
	src := &fakeModelSource{}
	cat := NewModelCatalog(src, &mapCache{}, time.Minute, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cat.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for src.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d refreshes before deadline", src.callCount())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestModelCatalogRunDisabled(t *testing.T) {
	src := &fakeModelSource{}
	if err := NewModelCatalog(src, nil, 0, 0).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if src.callCount() != 0 {
		t.Error("disabled catalog refreshed")
	}
}
