package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	pfhttp "github.com/Strob0t/PlanForge/internal/adapter/http"
	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	"github.com/Strob0t/PlanForge/internal/adapter/mcp"
	pfnats "github.com/Strob0t/PlanForge/internal/adapter/nats"
	pfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/adapter/postgres"
	"github.com/Strob0t/PlanForge/internal/adapter/ristretto"
	"github.com/Strob0t/PlanForge/internal/adapter/tiered"
	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/middleware"
	"github.com/Strob0t/PlanForge/internal/port/cache"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
	"github.com/Strob0t/PlanForge/internal/resilience"
	"github.com/Strob0t/PlanForge/internal/service"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"llm_model", cfg.LLM.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	shutdownOTel, err := pfotel.Setup(ctx, cfg.OTel, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()
	metrics, err := pfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	localCache, err := ristretto.New(cfg.Cache.MaxSizeMB<<20, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer localCache.Close()

	// NATS is optional; without it events go straight to the hub and the
	// model list is cached per instance.
	var (
		queue       messagequeue.Queue
		modelsCache cache.Cache = localCache
	)
	if cfg.NATS.URL != "" {
		q, err := pfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := q.Drain(); err != nil {
				slog.Warn("nats drain failed", "error", err)
			}
		}()
		queue = q

		kv, err := q.KeyValue(ctx, cfg.NATS.Stream+"_CACHE", cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("nats kv: %w", err)
		}
		modelsCache = tiered.New(localCache, kv, cfg.Cache.TTL)
	}

	llm := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.MasterKey)
	llm.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---

	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	store := postgres.NewStore(pool)
	notifier := service.NewNotifier(queue, hub)
	prompts := service.NewPromptLoader(cfg.Prompts, localCache, cfg.Cache.TTL)
	if err := prompts.Check(ctx); err != nil {
		return fmt.Errorf("prompts: %w", err)
	}
	assistant := service.NewAssistantGateway(llm, cfg.LLM, metrics)
	aiSvc := service.NewAIService(store, assistant, prompts, notifier, metrics, cfg.LLM.HistoryWindow)
	planSvc := service.NewPlanService(store, notifier, metrics)

	stopRelay, err := notifier.StartRelay(ctx)
	if err != nil {
		return fmt.Errorf("event relay: %w", err)
	}
	defer stopRelay()

	models := service.NewModelCatalog(llm, modelsCache, cfg.Cache.TTL, cfg.LLM.ModelsRefresh)

	handlers := &pfhttp.Handlers{
		Plans: planSvc,
		AI:    aiSvc,
		LLM:   models,
	}

	// --- HTTP Router ---

	limiter := middleware.NewRateLimiter(cfg.Rate)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(pfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(pfhttp.SecurityHeaders)
	r.Use(pfhttp.CORS(cfg.Server.CORSOrigin))
	if cfg.OTel.Enabled {
		r.Use(pfotel.HTTPMiddleware(cfg.OTel.ServiceName))
	}

	r.Get("/health", healthHandler(pool, queue, llm))
	r.Get("/ws", hub.HandleWS)

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(
			mcp.ServerConfig{Name: "planforge", Version: version},
			mcp.ServerDeps{Projects: planSvc, Assistant: aiSvc},
		)
		r.Handle("/mcp", mcp.AuthMiddleware(cfg.MCP.APIKey, mcpSrv.Handler()))
		slog.Info("mcp server mounted", "auth", cfg.MCP.APIKey != "")
	}

	r.Group(func(r chi.Router) {
		r.Use(limiter.Handler)
		pfhttp.MountRoutes(r, handlers, version)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLM.Timeout + 30*time.Second, // chat and extraction wait for the model
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		return models.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type pinger interface {
	Ping(ctx context.Context) error
}

type livenessChecker interface {
	Health(ctx context.Context) (bool, error)
}

type connChecker interface {
	IsConnected() bool
}

// healthHandler returns an http.HandlerFunc that reports service health.
// Postgres is required; NATS and LiteLLM only degrade the status. A nil
// queue reports NATS as disabled.
func healthHandler(db pinger, queue connChecker, llm livenessChecker) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
		LiteLLM  string `json:"litellm"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Postgres: "up", NATS: "disabled", LiteLLM: "up"}
		code := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			status.Status, status.Postgres = "unavailable", "down"
			code = http.StatusServiceUnavailable
		}
		if queue != nil {
			status.NATS = "up"
			if !queue.IsConnected() {
				status.NATS = "down"
				if code == http.StatusOK {
					status.Status = "degraded"
				}
			}
		}
		if ok, err := llm.Health(ctx); err != nil || !ok {
			status.LiteLLM = "down"
			if code == http.StatusOK {
				status.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
