package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "rentcomps/internal/adapters/http_server"
	"rentcomps/internal/adapters/observability"
	redisad "rentcomps/internal/adapters/redis"
	"rentcomps/internal/app"
	"rentcomps/internal/bootstrap"
	"rentcomps/internal/domain"
	"rentcomps/internal/shared"
	"rentcomps/internal/storage/sqlstore"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.WithLevel(observability.NewLogger(cfg.AppEnv), cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.HTTP.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sqlstore.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database open failed")
	}
	defer db.Close()
	repo := sqlstore.New(db, cfg.DB.Driver)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("database connection ok")

	// cache is optional; the service runs uncached when redis is absent
	var cache domain.Cache
	if cfg.Redis.Addr != "" {
		rc := redisad.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable; running without cache")
			_ = rc.Close()
		} else {
			cache = rc
			defer rc.Close()
		}
		cancel()
	}

	// deps
	deps := bootstrap.Build(cfg, bootstrap.Options{Cache: cache, Repo: repo})
	q := app.NewQueryService(repo, cache, cfg.Redis.CacheTTL)

	// http
	srv := server.New(cfg.HTTP.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{A: deps.Analysis, Q: q})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
