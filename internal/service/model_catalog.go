package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

const modelsCacheKey = "llm.models"

// ModelSource lists and probes the models behind the proxy.
// *litellm.Client implements it.
type ModelSource interface {
	ListModels(ctx context.Context) ([]litellm.Model, error)
	HealthDetailed(ctx context.Context) (*litellm.HealthReport, error)
}

// ModelCatalog serves the proxy's model list from a cache, refreshing it
// on a fixed interval. Health reports always go to the proxy.
type ModelCatalog struct {
	src      ModelSource
	cache    cache.Cache
	ttl      time.Duration
	interval time.Duration
}

// NewModelCatalog creates a catalog. A nil cache disables caching; an
// interval <= 0 disables background refresh.
func NewModelCatalog(src ModelSource, c cache.Cache, ttl, interval time.Duration) *ModelCatalog {
	return &ModelCatalog{src: src, cache: c, ttl: ttl, interval: interval}
}

// ListModels returns the cached model list, loading it on a miss.
func (m *ModelCatalog) ListModels(ctx context.Context) ([]litellm.Model, error) {
	if m.cache != nil {
		data, ok, err := m.cache.Get(ctx, modelsCacheKey)
		if err != nil {
			slog.WarnContext(ctx, "model cache read failed", "error", err)
		} else if ok {
			var models []litellm.Model
			if err := json.Unmarshal(data, &models); err == nil {
				return models, nil
			}
			slog.WarnContext(ctx, "model cache entry corrupt, reloading")
		}
	}
	return m.Refresh(ctx)
}

// Refresh loads the model list from the proxy and stores it in the cache.
func (m *ModelCatalog) Refresh(ctx context.Context) ([]litellm.Model, error) {
	models, err := m.src.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []litellm.Model{}
	}
	if m.cache != nil {
		data, err := json.Marshal(models)
		if err != nil {
			return nil, fmt.Errorf("encode models: %w", err)
		}
		if err := m.cache.Set(ctx, modelsCacheKey, data, m.ttl); err != nil {
			slog.WarnContext(ctx, "model cache write failed", "error", err)
		}
	}
	return models, nil
}

// HealthDetailed asks the proxy for a fresh per-endpoint report.
func (m *ModelCatalog) HealthDetailed(ctx context.Context) (*litellm.HealthReport, error) {
	return m.src.HealthDetailed(ctx)
}

// Run refreshes the list every interval until ctx is cancelled. The first
// refresh happens immediately; failures are logged and retried on the
// next tick.
func (m *ModelCatalog) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return nil
	}

	if _, err := m.Refresh(ctx); err != nil {
		slog.Warn("model catalog: initial refresh failed", "error", err)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.Refresh(ctx); err != nil {
				slog.Warn("model catalog: periodic refresh failed", "error", err)
			}
		}
	}
}
