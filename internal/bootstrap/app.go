package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/advisor"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/ArnavJain-cy/sih-app/internal/config"
	"github.com/ArnavJain-cy/sih-app/internal/db"
	apphttp "github.com/ArnavJain-cy/sih-app/internal/http"
	"github.com/ArnavJain-cy/sih-app/internal/http/handlers"
	"github.com/ArnavJain-cy/sih-app/internal/observability"
	"github.com/ArnavJain-cy/sih-app/internal/redisclient"
	"github.com/ArnavJain-cy/sih-app/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	Config config.Config
	Router *gin.Engine
	Store  Store

	closers []func(context.Context) error
}

// New builds every dependency from cfg. Callers must Close the App.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg}

	if cfg.Otel.Enabled {
		shutdown, err := observability.InitTracer(ctx, "evolvia-api", cfg.Otel.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)

	store, closeStore, err := OpenStore(ctx, cfg, hasher, prom, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	if cfg.Seed.Enabled() {
		created, err := db.EnsureSeedUser(ctx, store, seedUser(cfg.Seed))
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		if created {
			log.Info("seed user created", "email", cfg.Seed.Email)
		}
	}

	ready := map[string]handlers.Pinger{"store": store}

	history, err := a.openHistory(ctx, cfg, ready, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret)
	accounts := account.NewService(store, tokens, hasher, log, account.Options{
		UserTTL:    cfg.Auth.UserTTL.Duration,
		GuestTTL:   cfg.Auth.GuestTTL.Duration,
		GuestEmail: cfg.Auth.GuestEmail,
	})

	llm := advisor.NewClient(advisor.ClientConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, nil)
	if !llm.Configured() {
		log.Warn("LLM_API_KEY not set, advisor chat will answer 503")
	}
	advisorSvc := advisor.NewService(llm, history, cfg.Advisor.HistoryTurns, log)

	router, err := apphttp.NewRouter(apphttp.Deps{
		Log:            log,
		Env:            cfg.Env,
		Prom:           prom,
		Tracing:        cfg.Otel.Enabled,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		Tokens:         tokens,
		Auth:           accounts,
		Profile:        accounts,
		Advisor:        advisorSvc,
		Ready:          ready,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Router = router

	return a, nil
}

func (a *App) openHistory(ctx context.Context, cfg config.Config, ready map[string]handlers.Pinger, log *slog.Logger) (advisor.History, error) {
	limit := advisor.HistoryLimit(cfg.Advisor.HistoryTurns)

	if cfg.Redis.Addr == "" {
		return advisor.NewMemoryHistory(cfg.Advisor.HistoryTTL.Duration, limit), nil
	}

	rc, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
	ready["redis"] = rc

	log.Info("advisor history backed by redis", "addr", cfg.Redis.Addr)
	return advisor.NewRedisHistory(rc.Raw(), cfg.Advisor.HistoryTTL.Duration, limit), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
